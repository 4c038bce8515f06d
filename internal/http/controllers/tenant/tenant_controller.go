// Package tenant contiene el controller de resolución de tenant.
package tenant

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/somahq/soma/internal/domain/repository"
	dto "github.com/somahq/soma/internal/http/dto/tenant"
	"github.com/somahq/soma/internal/http/helpers"
	"github.com/somahq/soma/internal/observability/logger"
	domain "github.com/somahq/soma/internal/tenant"
)

// Resolver abstrae tenant.Resolver.
type Resolver interface {
	ResolveEmail(ctx context.Context, email string) (string, error)
	ResolveHost(ctx context.Context, host string) (domain.Resolution, error)
}

// TenantController maneja /api/store-id y /api/tenant/resolve.
// Estos endpoints responden {storeId} o {error}, no el envelope de AppError.
type TenantController struct {
	resolver   Resolver
	trustProxy bool
}

// NewTenantController crea el controller.
func NewTenantController(resolver Resolver, trustProxy bool) *TenantController {
	return &TenantController{resolver: resolver, trustProxy: trustProxy}
}

// StoreID maneja GET /api/store-id?email=
func (c *TenantController) StoreID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("TenantController.StoreID"))

	storeID, err := c.resolver.ResolveEmail(ctx, r.URL.Query().Get("email"))
	if err != nil {
		c.writeFailure(w, log, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.StoreIDResponse{StoreID: &storeID})
}

// Resolve maneja GET /api/tenant/resolve[?host=]. Sin ?host= usa el host del request.
func (c *TenantController) Resolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("TenantController.Resolve"))

	host := r.URL.Query().Get("host")
	if host == "" {
		host = helpers.RequestHost(r, c.trustProxy)
	}

	res, err := c.resolver.ResolveHost(ctx, host)
	if err != nil {
		c.writeFailure(w, log, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.ResolveResponse{
		StoreID:  &res.StoreID,
		Strategy: string(res.Strategy),
	})
}

func (c *TenantController) writeFailure(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		helpers.WriteJSON(w, http.StatusNotFound, dto.StoreIDResponse{})
	case domain.IsValidation(err):
		helpers.WriteErrorJSON(w, http.StatusBadRequest, err.Error())
	default:
		log.Error("tenant resolution failed", logger.Err(err))
		helpers.WriteErrorJSON(w, http.StatusInternalServerError, "internal error")
	}
}
