// Package token genera los tokens opacos de confirmación y sus hashes.
// En la base solo se guarda el hash; el token en claro viaja en el link del email.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// DefaultBytes es la entropía de los tokens de confirmación.
const DefaultBytes = 32

// Generate genera un token opaco aleatorio (base64url sin padding).
func Generate(nBytes int) (string, error) {
	if nBytes <= 0 {
		nBytes = DefaultBytes
	}
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("token: read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Hash devuelve sha256(token) en base64url sin padding (para guardar en DB).
func Hash(tok string) string {
	sum := sha256.Sum256([]byte(tok))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
