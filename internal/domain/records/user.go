package records

import "strings"

// User es el registro de la colección "users".
// Su ID es también el ID del store del usuario (relación 1:1).
type User struct {
	ID    string
	Email string // siempre en minúsculas
	Name  string
}

// StoreID devuelve el store asociado al usuario.
func (u User) StoreID() string { return u.ID }

// DecodeUser valida y convierte un documento de "users".
func DecodeUser(id string, f map[string]any) (User, error) {
	if strings.TrimSpace(id) == "" {
		return User{}, malformed(CollectionUsers, id, "id", "is empty")
	}
	email, ok, err := stringField(f, "email")
	if err != nil {
		return User{}, malformed(CollectionUsers, id, "email", err.Error())
	}
	if !ok || strings.TrimSpace(email) == "" {
		return User{}, malformed(CollectionUsers, id, "email", "is required")
	}
	name, _, err := stringField(f, "name")
	if err != nil {
		return User{}, malformed(CollectionUsers, id, "name", err.Error())
	}
	return User{ID: id, Email: email, Name: name}, nil
}

// NormalizeEmail es la única normalización aplicada a emails, en lectura y escritura.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Fields serializa el usuario para escritura, normalizando el email.
func (u User) Fields() map[string]any {
	f := map[string]any{"email": NormalizeEmail(u.Email)}
	if u.Name != "" {
		f["name"] = u.Name
	}
	return f
}
