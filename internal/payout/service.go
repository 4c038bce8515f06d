// Package payout maneja los retiros de fondos de un store.
//
// Un retiro nace en awaiting_confirmation con un token de un solo uso que se
// envía por email. Confirmarlo lo pasa a pending (cola de pago del admin).
// La confirmación es idempotente: repetirla con el retiro ya confirmado
// devuelve éxito sin volver a escribir.
package payout

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/somahq/soma/internal/audit"
	"github.com/somahq/soma/internal/domain/records"
	"github.com/somahq/soma/internal/domain/repository"
	"github.com/somahq/soma/internal/email"
	"github.com/somahq/soma/internal/metrics"
	"github.com/somahq/soma/internal/observability/logger"
	"github.com/somahq/soma/internal/security/token"
)

// ErrInvalidRequest agrupa los errores de validación de entrada.
var ErrInvalidRequest = errors.New("invalid request")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// Config parametriza el servicio.
type Config struct {
	TokenTTL        time.Duration // default 48h
	ConfirmBaseURL  string        // base pública del API, ej: https://api.soma.shop
	DefaultCurrency string        // default NGN
	MailTimeout     time.Duration // default 30s
}

// Request es el pedido de retiro de un vendor.
type Request struct {
	StoreID        string
	Amount         int64 // unidades menores
	Currency       string
	RecipientEmail string
}

// Outcome es el resultado de una confirmación.
type Outcome struct {
	Withdrawal       records.Withdrawal
	AlreadyConfirmed bool
}

// Service implementa RequestWithdrawal y Confirm.
type Service struct {
	withdrawals repository.WithdrawalRepository
	stores      repository.StoreRepository
	mailer      email.Sender
	cfg         Config

	now   func() time.Time
	newID func() string

	// envíos de email en vuelo; Wait los drena en el shutdown.
	mailWG sync.WaitGroup
}

// NewService crea el servicio de retiros.
func NewService(withdrawals repository.WithdrawalRepository, stores repository.StoreRepository, mailer email.Sender, cfg Config) *Service {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 48 * time.Hour
	}
	cfg.DefaultCurrency = strings.ToUpper(strings.TrimSpace(cfg.DefaultCurrency))
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "NGN"
	}
	if cfg.MailTimeout <= 0 {
		cfg.MailTimeout = 30 * time.Second
	}
	cfg.ConfirmBaseURL = strings.TrimRight(cfg.ConfirmBaseURL, "/")
	return &Service{
		withdrawals: withdrawals,
		stores:      stores,
		mailer:      mailer,
		cfg:         cfg,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// RequestWithdrawal crea un retiro en awaiting_confirmation y envía el link de
// confirmación. El envío del email no bloquea ni hace fallar el pedido.
// El retiro devuelto no incluye el hash del token.
func (s *Service) RequestWithdrawal(ctx context.Context, req Request) (records.Withdrawal, error) {
	log := logger.From(ctx).With(logger.Layer("payout"), logger.Op("RequestWithdrawal"))

	storeID := strings.TrimSpace(req.StoreID)
	if storeID == "" {
		return records.Withdrawal{}, invalid("storeId is required")
	}
	if req.Amount <= 0 {
		return records.Withdrawal{}, invalid("amount must be greater than zero")
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.cfg.DefaultCurrency
	}
	if !isCurrencyCode(currency) {
		return records.Withdrawal{}, invalid("currency must be a 3-letter ISO 4217 code")
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(req.RecipientEmail))
	if err != nil {
		return records.Withdrawal{}, invalid("recipientEmail is not a valid address")
	}

	st, err := s.stores.GetByID(ctx, storeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return records.Withdrawal{}, fmt.Errorf("store %s: %w", storeID, repository.ErrNotFound)
		}
		return records.Withdrawal{}, fmt.Errorf("payout: load store: %w", err)
	}

	tok, err := token.Generate(token.DefaultBytes)
	if err != nil {
		return records.Withdrawal{}, err
	}
	now := s.now().UTC()
	expires := now.Add(s.cfg.TokenTTL)
	w := records.Withdrawal{
		ID:                    s.newID(),
		StoreID:               st.ID,
		Amount:                req.Amount,
		Currency:              currency,
		Status:                records.WithdrawalAwaitingConfirmation,
		RecipientEmail:        records.NormalizeEmail(addr.Address),
		ConfirmationTokenHash: token.Hash(tok),
		ConfirmationExpiresAt: &expires,
		CreatedAt:             now,
	}
	if err := s.withdrawals.Create(ctx, w); err != nil {
		return records.Withdrawal{}, fmt.Errorf("payout: create withdrawal: %w", err)
	}
	metrics.RecordWithdrawalRequested()
	log.Info("withdrawal requested",
		logger.WithdrawalID(w.ID), logger.StoreID(w.StoreID),
		logger.Any("amount", w.Amount), logger.String("currency", w.Currency))
	audit.Log(ctx, audit.WithdrawalRequested,
		logger.WithdrawalID(w.ID), logger.StoreID(w.StoreID),
		logger.Any("amount", w.Amount), logger.String("currency", w.Currency))

	s.sendConfirmation(ctx, st, w, tok)

	w.ConfirmationTokenHash = ""
	return w, nil
}

// Confirm aplica la transición awaiting_confirmation -> pending si el token es válido.
// Repetir la confirmación con el mismo token devuelve AlreadyConfirmed; otro token
// recibe ErrUnauthorized, así el id solo no revela si el retiro fue confirmado.
func (s *Service) Confirm(ctx context.Context, withdrawalID, tok string) (Outcome, error) {
	log := logger.From(ctx).With(logger.Layer("payout"), logger.Op("Confirm"), logger.WithdrawalID(withdrawalID))

	withdrawalID = strings.TrimSpace(withdrawalID)
	tok = strings.TrimSpace(tok)
	if withdrawalID == "" {
		metrics.RecordConfirmation("invalid")
		return Outcome{}, invalid("withdrawal id is required")
	}
	if tok == "" {
		metrics.RecordConfirmation("invalid")
		return Outcome{}, invalid("token is required")
	}

	res, err := s.withdrawals.Confirm(ctx, withdrawalID, token.Hash(tok), s.now())
	if err != nil {
		result := confirmResult(err)
		metrics.RecordConfirmation(result)
		if result == "error" {
			log.Error("confirm failed", logger.Err(err))
			return Outcome{}, fmt.Errorf("payout: confirm withdrawal: %w", err)
		}
		log.Warn("confirm rejected", logger.String("reason", result))
		audit.Log(ctx, audit.WithdrawalConfirmRejected, logger.WithdrawalID(withdrawalID), logger.String("reason", result))
		return Outcome{}, err
	}

	if res.AlreadyConfirmed {
		metrics.RecordConfirmation("already_confirmed")
		log.Info("withdrawal already confirmed")
	} else {
		metrics.RecordConfirmation("confirmed")
		log.Info("withdrawal confirmed", logger.StoreID(res.Withdrawal.StoreID))
		audit.Log(ctx, audit.WithdrawalConfirmed, logger.WithdrawalID(withdrawalID), logger.StoreID(res.Withdrawal.StoreID))
	}
	out := Outcome{Withdrawal: res.Withdrawal, AlreadyConfirmed: res.AlreadyConfirmed}
	out.Withdrawal.ConfirmationTokenHash = ""
	out.Withdrawal.ConfirmedTokenHash = ""
	return out, nil
}

// Wait bloquea hasta que terminen los envíos de email en vuelo.
func (s *Service) Wait() { s.mailWG.Wait() }

func (s *Service) sendConfirmation(ctx context.Context, st *records.Store, w records.Withdrawal, tok string) {
	if s.mailer == nil {
		return
	}
	msg, err := email.WithdrawalConfirmation(w.RecipientEmail, email.WithdrawalConfirmationVars{
		StoreName: st.Name,
		Amount:    FormatAmount(w.Amount, w.Currency),
		Link:      s.confirmLink(w.ID, tok),
		ExpiresAt: *w.ConfirmationExpiresAt,
	})
	log := logger.From(ctx).With(logger.Layer("payout"), logger.WithdrawalID(w.ID))
	if err != nil {
		log.Error("render confirmation email failed", logger.Err(err))
		return
	}

	// El envío sobrevive al request que lo originó.
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.MailTimeout)
	s.mailWG.Add(1)
	go func() {
		defer s.mailWG.Done()
		defer cancel()
		if err := s.mailer.Send(sendCtx, msg); err != nil {
			log.Error("send confirmation email failed", logger.Err(err))
		}
	}()
}

func (s *Service) confirmLink(id, tok string) string {
	return fmt.Sprintf("%s/api/withdrawals/%s/confirm?token=%s",
		s.cfg.ConfirmBaseURL, url.PathEscape(id), url.QueryEscape(tok))
}

func confirmResult(err error) string {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return "not_found"
	case errors.Is(err, repository.ErrTokenExpired):
		return "expired"
	case errors.Is(err, repository.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, repository.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}

func isCurrencyCode(c string) bool {
	if len(c) != 3 {
		return false
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// FormatAmount formatea unidades menores con dos decimales: 500000 NGN -> "NGN 5,000.00".
func FormatAmount(amount int64, currency string) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	major := fmt.Sprintf("%d", amount/100)
	var b strings.Builder
	for i, r := range major {
		if i > 0 && (len(major)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("%s %s%s.%02d", currency, sign, b.String(), amount%100)
}
