package repository

import (
	"context"

	"github.com/somahq/soma/internal/domain/records"
)

// UserRepository define operaciones sobre la colección de usuarios.
type UserRepository interface {
	// FindByEmail busca a lo sumo un usuario cuyo email almacenado sea igual a email.
	// No normaliza: el caller pasa el email ya normalizado.
	// Retorna ErrNotFound si no hay coincidencias.
	FindByEmail(ctx context.Context, email string) (*records.User, error)

	// Create inserta un usuario con el email normalizado.
	// Retorna ErrConflict si el ID o el email ya existen.
	Create(ctx context.Context, u records.User) error
}
