// Package store provee el document store del servicio: el contrato común,
// el registry de adaptadores (memory, postgres, firestore) y los repositorios
// tipados que operan sobre él.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Adapter abre conexiones a un backend de documentos concreto.
type Adapter interface {
	// Name retorna el nombre del adapter ("memory", "postgres", "firestore").
	Name() string

	// Open establece la conexión con el almacenamiento.
	Open(ctx context.Context, cfg Config) (DocumentStore, error)
}

// Config configuración para abrir un document store.
type Config struct {
	// Driver: "memory" | "postgres" | "firestore"
	Driver string

	// Postgres
	DSN      string
	MaxConns int
	MinConns int

	// Firestore
	ProjectID       string
	CredentialsFile string // vacío = Application Default Credentials
}

// ─── Registry Global ───

var (
	registryMu sync.RWMutex
	adapters   = make(map[string]Adapter)
)

// RegisterAdapter registra un adapter. Llamar en init() de cada adapter.
func RegisterAdapter(a Adapter) {
	registryMu.Lock()
	defer registryMu.Unlock()

	name := a.Name()
	if _, exists := adapters[name]; exists {
		panic(fmt.Sprintf("store: adapter %q already registered", name))
	}
	adapters[name] = a
}

// GetAdapter obtiene un adapter por nombre.
func GetAdapter(name string) (Adapter, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	a, ok := adapters[name]
	return a, ok
}

// ListAdapters retorna los nombres registrados, ordenados.
func ListAdapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(adapters))
	for name := range adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open abre un document store con el adapter indicado en cfg.Driver.
func Open(ctx context.Context, cfg Config) (DocumentStore, error) {
	a, ok := GetAdapter(cfg.Driver)
	if !ok {
		return nil, fmt.Errorf("store: adapter %q not registered (available: %v)", cfg.Driver, ListAdapters())
	}
	return a.Open(ctx, cfg)
}
