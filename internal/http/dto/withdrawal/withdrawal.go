// Package withdrawal contiene los DTOs de retiros.
package withdrawal

import "time"

// CreateRequest es el body de POST /api/withdrawals.
type CreateRequest struct {
	StoreID        string `json:"storeId"`
	Amount         int64  `json:"amount"` // unidades menores
	Currency       string `json:"currency,omitempty"`
	RecipientEmail string `json:"recipientEmail"`
}

// WithdrawalResponse es la vista pública de un retiro (nunca incluye el hash del token).
type WithdrawalResponse struct {
	ID                    string     `json:"id"`
	StoreID               string     `json:"storeId"`
	Amount                int64      `json:"amount"`
	Currency              string     `json:"currency"`
	Status                string     `json:"status"`
	RecipientEmail        string     `json:"recipientEmail"`
	ConfirmationExpiresAt *time.Time `json:"confirmationExpiresAt,omitempty"`
	CreatedAt             time.Time  `json:"createdAt"`
	ConfirmedAt           *time.Time `json:"confirmedAt,omitempty"`
}

// ConfirmRequest es el body opcional de POST /api/withdrawals/{id}/confirm.
// El token de la query tiene prioridad.
type ConfirmRequest struct {
	Token string `json:"token"`
}

// ConfirmResponse es la respuesta de una confirmación exitosa.
type ConfirmResponse struct {
	Status           string `json:"status"`
	AlreadyConfirmed bool   `json:"alreadyConfirmed"`
}
