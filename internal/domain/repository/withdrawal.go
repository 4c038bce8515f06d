package repository

import (
	"context"
	"time"

	"github.com/somahq/soma/internal/domain/records"
)

// ConfirmResult describe el resultado de una confirmación de retiro.
type ConfirmResult struct {
	Withdrawal       records.Withdrawal
	AlreadyConfirmed bool // true si la transición ya había ocurrido; no hubo escritura
}

// WithdrawalRepository define operaciones sobre la colección de retiros.
type WithdrawalRepository interface {
	// Create inserta un retiro nuevo. Retorna ErrConflict si el ID ya existe.
	Create(ctx context.Context, w records.Withdrawal) error

	// GetByID retorna ErrNotFound si no existe.
	GetByID(ctx context.Context, id string) (*records.Withdrawal, error)

	// Confirm aplica, de forma atómica, la transición awaiting_confirmation -> pending
	// si tokenHash coincide con el almacenado, anulando el token en la misma escritura.
	//
	// Errores: ErrNotFound, ErrConflict (estado distinto), ErrTokenExpired,
	// ErrUnauthorized (token distinto). Un retiro ya confirmado devuelve
	// AlreadyConfirmed=true sin error si tokenHash es el que lo confirmó.
	Confirm(ctx context.Context, id, tokenHash string, now time.Time) (ConfirmResult, error)
}
