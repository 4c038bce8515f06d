package records

import "strings"

// Store es el registro de la colección "stores".
type Store struct {
	ID           string
	Name         string
	Domain       string // slug de subdominio: <domain>.<base>
	CustomDomain string // host propio del vendor, en minúsculas y forma ASCII
}

// DecodeStore valida y convierte un documento de "stores".
func DecodeStore(id string, f map[string]any) (Store, error) {
	if strings.TrimSpace(id) == "" {
		return Store{}, malformed(CollectionStores, id, "id", "is empty")
	}
	s := Store{ID: id}
	for key, dst := range map[string]*string{
		"name":         &s.Name,
		"domain":       &s.Domain,
		"customDomain": &s.CustomDomain,
	} {
		v, _, err := stringField(f, key)
		if err != nil {
			return Store{}, malformed(CollectionStores, id, key, err.Error())
		}
		*dst = v
	}
	return s, nil
}

// Fields serializa el store. Los campos vacíos no se escriben.
func (s Store) Fields() map[string]any {
	f := map[string]any{}
	if s.Name != "" {
		f["name"] = s.Name
	}
	if s.Domain != "" {
		f["domain"] = strings.ToLower(strings.TrimSpace(s.Domain))
	}
	if s.CustomDomain != "" {
		f["customDomain"] = strings.ToLower(strings.TrimSpace(s.CustomDomain))
	}
	return f
}
