// Package errors define el envelope de errores HTTP y el mapeo desde errores de dominio.
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/somahq/soma/internal/domain/repository"
	"github.com/somahq/soma/internal/payout"
	"github.com/somahq/soma/internal/tenant"
)

// errorResponse controla exactamente qué campos se envían al cliente.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// FromError convierte cualquier error en un AppError.
// Los sentinels de dominio se mapean a su clase HTTP; el resto es 500 conservando la causa.
func FromError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	switch {
	case err == nil:
		return ErrInternalServerError
	case tenant.IsValidation(err), stderrors.Is(err, payout.ErrInvalidRequest):
		return ErrBadRequest.WithDetail(err.Error()).WithCause(err)
	case stderrors.Is(err, repository.ErrNotFound):
		return ErrNotFound.WithCause(err)
	case stderrors.Is(err, repository.ErrTokenExpired):
		return ErrTokenExpired.WithCause(err)
	case stderrors.Is(err, repository.ErrUnauthorized):
		return ErrTokenInvalid.WithCause(err)
	case stderrors.Is(err, repository.ErrConflict):
		return ErrConflict.WithCause(err)
	case stderrors.Is(err, context.DeadlineExceeded):
		return ErrTimeout.WithCause(err)
	default:
		return ErrInternalServerError.WithCause(err)
	}
}

// WriteError escribe la respuesta HTTP para err.
// El detalle de errores 500 nunca sale al cliente; la causa se loguea en el controller.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)

	resp := errorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Detail:  appErr.Detail,
	}
	if appErr.HTTPStatus >= 500 {
		resp.Detail = ""
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(resp)
}
