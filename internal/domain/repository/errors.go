package repository

import "errors"

var (
	// ErrNotFound indica que el recurso solicitado no existe.
	// No es una falla: los callers ramifican sobre este resultado.
	ErrNotFound = errors.New("not found")

	// ErrConflict indica un conflicto de estado o de unicidad (ej: email duplicado,
	// retiro en un estado distinto al esperado).
	ErrConflict = errors.New("conflict")

	// ErrUnauthorized indica que el token presentado no corresponde al registro.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTokenExpired indica que el token ya expiró.
	ErrTokenExpired = errors.New("token expired")

	// ErrReservedDomain indica un dominio custom que pertenece a la plataforma.
	ErrReservedDomain = errors.New("domain reserved by the platform")
)
