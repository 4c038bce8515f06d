package tenant

import "errors"

// Errores de validación de entrada. Nunca llegan al store.
var (
	ErrMissingEmail = errors.New("email is required")
	ErrInvalidHost  = errors.New("invalid host")
)

// IsValidation indica si err es un error de entrada del caller.
func IsValidation(err error) bool {
	return errors.Is(err, ErrMissingEmail) || errors.Is(err, ErrInvalidHost)
}
