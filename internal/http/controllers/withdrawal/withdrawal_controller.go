// Package withdrawal contiene el controller de retiros.
package withdrawal

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/somahq/soma/internal/domain/records"
	dto "github.com/somahq/soma/internal/http/dto/withdrawal"
	httperrors "github.com/somahq/soma/internal/http/errors"
	"github.com/somahq/soma/internal/http/helpers"
	mw "github.com/somahq/soma/internal/http/middlewares"
	"github.com/somahq/soma/internal/observability/logger"
	"github.com/somahq/soma/internal/payout"
)

// Service abstrae payout.Service.
type Service interface {
	RequestWithdrawal(ctx context.Context, req payout.Request) (records.Withdrawal, error)
	Confirm(ctx context.Context, withdrawalID, token string) (payout.Outcome, error)
}

// WithdrawalController maneja /api/withdrawals.
type WithdrawalController struct {
	service Service
}

// NewWithdrawalController crea el controller.
func NewWithdrawalController(service Service) *WithdrawalController {
	return &WithdrawalController{service: service}
}

// Create maneja POST /api/withdrawals. Requiere RequireAuth: un vendor solo
// puede pedir retiros de su propio store; admin puede pedirlos para cualquiera.
func (c *WithdrawalController) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("WithdrawalController.Create"))

	claims := mw.GetClaims(ctx)
	if claims == nil {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	var req dto.CreateRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	storeID := strings.TrimSpace(req.StoreID)
	if storeID == "" && !claims.IsAdmin() {
		storeID = claims.Subject
	}
	if !claims.IsAdmin() && storeID != claims.Subject {
		log.Warn("withdrawal for foreign store rejected", logger.StoreID(storeID))
		httperrors.WriteError(w, httperrors.ErrForbidden.WithDetail("storeId does not match the authenticated vendor"))
		return
	}

	wd, err := c.service.RequestWithdrawal(ctx, payout.Request{
		StoreID:        storeID,
		Amount:         req.Amount,
		Currency:       req.Currency,
		RecipientEmail: req.RecipientEmail,
	})
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	helpers.WriteJSON(w, http.StatusCreated, toResponse(wd))
}

// Confirm maneja GET|POST /api/withdrawals/{id}/confirm?token=
// El GET existe porque el link llega por email.
func (c *WithdrawalController) Confirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("WithdrawalController.Confirm"))

	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail("withdrawal id is required"))
		return
	}
	tok := r.URL.Query().Get("token")
	if tok == "" && r.Method == http.MethodPost && r.ContentLength != 0 {
		var body dto.ConfirmRequest
		if !helpers.ReadJSON(w, r, &body) {
			return
		}
		tok = body.Token
	}

	out, err := c.service.Confirm(ctx, id, tok)
	if err != nil {
		writeServiceError(w, log.With(logger.WithdrawalID(id)), err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.ConfirmResponse{
		Status:           string(out.Withdrawal.Status),
		AlreadyConfirmed: out.AlreadyConfirmed,
	})
}

func writeServiceError(w http.ResponseWriter, log *zap.Logger, err error) {
	appErr := httperrors.FromError(err)
	if appErr.HTTPStatus >= 500 {
		log.Error("withdrawal operation failed", logger.Err(err))
	} else {
		log.Debug("withdrawal operation rejected", logger.String("code", appErr.Code), logger.Err(err))
	}
	httperrors.WriteError(w, appErr)
}

func toResponse(wd records.Withdrawal) dto.WithdrawalResponse {
	return dto.WithdrawalResponse{
		ID:                    wd.ID,
		StoreID:               wd.StoreID,
		Amount:                wd.Amount,
		Currency:              wd.Currency,
		Status:                string(wd.Status),
		RecipientEmail:        wd.RecipientEmail,
		ConfirmationExpiresAt: wd.ConfirmationExpiresAt,
		CreatedAt:             wd.CreatedAt,
		ConfirmedAt:           wd.ConfirmedAt,
	}
}
