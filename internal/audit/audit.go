// Package audit registra eventos de negocio en un logger dedicado ("audit").
package audit

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/somahq/soma/internal/observability/logger"
)

// Eventos conocidos.
const (
	WithdrawalRequested       = "withdrawal.requested"
	WithdrawalConfirmed       = "withdrawal.confirmed"
	WithdrawalConfirmRejected = "withdrawal.confirm_rejected"
)

// Log escribe un evento de auditoría. Hereda los campos del logger del request
// (request_id, sub) si el contexto trae uno.
func Log(ctx context.Context, event string, fields ...zap.Field) {
	fields = append(fields,
		zap.String("event", event),
		zap.Time("ts", time.Now().UTC()),
	)
	logger.From(ctx).Named("audit").Info(event, fields...)
}
