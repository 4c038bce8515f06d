package store

import (
	"context"
)

// Document es un registro crudo del store: un ID y sus campos.
// Solo circula entre adapters y repositorios; hacia arriba se decodifica
// a los tipos de internal/domain/records.
type Document struct {
	ID     string
	Fields map[string]any
}

// TransitionFunc recibe el documento actual y decide la escritura.
// Devolver updates nil (o vacío) con error nil significa "no escribir".
// Un error aborta la transición sin cambios y se propaga tal cual.
type TransitionFunc func(current Document) (updates map[string]any, err error)

// DocumentStore es la única capacidad de persistencia que necesita el servicio.
//
// Implementaciones: adapters/memory, adapters/pg, adapters/firestore.
// Todas son seguras para uso concurrente.
type DocumentStore interface {
	// Name retorna el nombre del adapter.
	Name() string

	// FindOne busca a lo sumo un documento de collection cuyo field sea igual a value.
	// Con duplicados gana el primero que devuelva el backend (sin orden garantizado).
	// Retorna repository.ErrNotFound si no hay coincidencias.
	FindOne(ctx context.Context, collection, field string, value any) (*Document, error)

	// Get busca por ID. Retorna repository.ErrNotFound si no existe.
	Get(ctx context.Context, collection, id string) (*Document, error)

	// Create inserta un documento nuevo. Retorna repository.ErrConflict si el ID
	// ya existe o si otro documento tiene el mismo valor en alguno de los unique fields.
	Create(ctx context.Context, collection, id string, fields map[string]any, unique ...string) error

	// Transition lee el documento, invoca fn y aplica sus updates de forma atómica
	// respecto de otras transiciones sobre el mismo documento.
	// Retorna repository.ErrNotFound si el documento no existe.
	Transition(ctx context.Context, collection, id string, fn TransitionFunc) error

	// Ping verifica la conexión.
	Ping(ctx context.Context) error

	// Close libera la conexión.
	Close() error
}
