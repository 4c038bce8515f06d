package records

import (
	"strings"
	"time"
)

// WithdrawalStatus es el estado de una solicitud de retiro.
type WithdrawalStatus string

const (
	WithdrawalAwaitingConfirmation WithdrawalStatus = "awaiting_confirmation"
	WithdrawalPending              WithdrawalStatus = "pending"
	WithdrawalPaid                 WithdrawalStatus = "paid"
	WithdrawalRejected             WithdrawalStatus = "rejected"
	WithdrawalCancelled            WithdrawalStatus = "cancelled"
)

// Valid indica si el estado es uno de los conocidos.
func (s WithdrawalStatus) Valid() bool {
	switch s {
	case WithdrawalAwaitingConfirmation, WithdrawalPending, WithdrawalPaid, WithdrawalRejected, WithdrawalCancelled:
		return true
	}
	return false
}

// Withdrawal es el registro de la colección "withdrawals".
type Withdrawal struct {
	ID                    string
	StoreID               string
	Amount                int64 // unidades menores (kobo, centavos)
	Currency              string
	Status                WithdrawalStatus
	RecipientEmail        string
	ConfirmationTokenHash string // vacío una vez confirmado
	ConfirmedTokenHash    string // hash del token que confirmó; vacío en registros previos
	ConfirmationExpiresAt *time.Time
	CreatedAt             time.Time
	ConfirmedAt           *time.Time
}

// DecodeWithdrawal valida y convierte un documento de "withdrawals".
func DecodeWithdrawal(id string, f map[string]any) (Withdrawal, error) {
	const c = CollectionWithdrawals
	if strings.TrimSpace(id) == "" {
		return Withdrawal{}, malformed(c, id, "id", "is empty")
	}
	w := Withdrawal{ID: id}

	storeID, ok, err := stringField(f, "storeId")
	if err != nil {
		return Withdrawal{}, malformed(c, id, "storeId", err.Error())
	}
	if !ok || storeID == "" {
		return Withdrawal{}, malformed(c, id, "storeId", "is required")
	}
	w.StoreID = storeID

	amount, ok, err := int64Field(f, "amount")
	if err != nil {
		return Withdrawal{}, malformed(c, id, "amount", err.Error())
	}
	if !ok {
		return Withdrawal{}, malformed(c, id, "amount", "is required")
	}
	w.Amount = amount

	status, ok, err := stringField(f, "status")
	if err != nil {
		return Withdrawal{}, malformed(c, id, "status", err.Error())
	}
	if !ok || !WithdrawalStatus(status).Valid() {
		return Withdrawal{}, malformed(c, id, "status", "is missing or unknown")
	}
	w.Status = WithdrawalStatus(status)

	if w.Currency, _, err = stringField(f, "currency"); err != nil {
		return Withdrawal{}, malformed(c, id, "currency", err.Error())
	}
	if w.RecipientEmail, _, err = stringField(f, "recipientEmail"); err != nil {
		return Withdrawal{}, malformed(c, id, "recipientEmail", err.Error())
	}
	if w.ConfirmationTokenHash, _, err = stringField(f, "confirmationTokenHash"); err != nil {
		return Withdrawal{}, malformed(c, id, "confirmationTokenHash", err.Error())
	}
	if w.ConfirmedTokenHash, _, err = stringField(f, "confirmedTokenHash"); err != nil {
		return Withdrawal{}, malformed(c, id, "confirmedTokenHash", err.Error())
	}
	if w.ConfirmationExpiresAt, err = timeField(f, "confirmationExpiresAt"); err != nil {
		return Withdrawal{}, malformed(c, id, "confirmationExpiresAt", err.Error())
	}
	created, err := timeField(f, "createdAt")
	if err != nil {
		return Withdrawal{}, malformed(c, id, "createdAt", err.Error())
	}
	if created != nil {
		w.CreatedAt = *created
	}
	if w.ConfirmedAt, err = timeField(f, "confirmedAt"); err != nil {
		return Withdrawal{}, malformed(c, id, "confirmedAt", err.Error())
	}
	return w, nil
}

// Fields serializa el retiro completo. Los punteros nil se escriben como null.
func (w Withdrawal) Fields() map[string]any {
	f := map[string]any{
		"storeId":               w.StoreID,
		"amount":                w.Amount,
		"currency":              w.Currency,
		"status":                string(w.Status),
		"recipientEmail":        w.RecipientEmail,
		"confirmationExpiresAt": timeOrNil(w.ConfirmationExpiresAt),
		"createdAt":             w.CreatedAt.UTC(),
		"confirmedAt":           timeOrNil(w.ConfirmedAt),
	}
	if w.ConfirmationTokenHash != "" {
		f["confirmationTokenHash"] = w.ConfirmationTokenHash
	} else {
		f["confirmationTokenHash"] = nil
	}
	if w.ConfirmedTokenHash != "" {
		f["confirmedTokenHash"] = w.ConfirmedTokenHash
	} else {
		f["confirmedTokenHash"] = nil
	}
	return f
}
