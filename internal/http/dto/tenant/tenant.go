// Package tenant contiene los DTOs de los endpoints de resolución de tenant.
package tenant

// StoreIDResponse es la respuesta de GET /api/store-id.
// StoreID es null cuando no hay coincidencia.
type StoreIDResponse struct {
	StoreID *string `json:"storeId"`
}

// ResolveResponse es la respuesta de GET /api/tenant/resolve.
type ResolveResponse struct {
	StoreID  *string `json:"storeId"`
	Strategy string  `json:"strategy,omitempty"`
}
