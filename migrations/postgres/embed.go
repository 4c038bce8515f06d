// Package migrations embebe las migraciones SQL del backend postgres.
package migrations

import "embed"

// FS contiene las migraciones del document store.
//
//go:embed *.sql
var FS embed.FS

// Dir es el directorio dentro de FS donde viven las migraciones.
const Dir = "."
