package repository

import (
	"context"

	"github.com/somahq/soma/internal/domain/records"
)

// StoreRepository define operaciones sobre la colección de stores.
type StoreRepository interface {
	// GetByID retorna ErrNotFound si no existe.
	GetByID(ctx context.Context, id string) (*records.Store, error)

	// FindBySubdomain busca por slug de subdominio ("domain").
	FindBySubdomain(ctx context.Context, slug string) (*records.Store, error)

	// FindByCustomDomain busca por host propio ya normalizado.
	FindByCustomDomain(ctx context.Context, host string) (*records.Store, error)

	// Create retorna ErrConflict si el ID ya existe.
	Create(ctx context.Context, s records.Store) error
}
