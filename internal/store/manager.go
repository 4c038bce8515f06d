package store

import (
	"context"
	"sync"
)

// Manager construye el DocumentStore una única vez por proceso.
//
// El handle se crea al arrancar y se inyecta en services y handlers;
// sync.Once evita carreras de doble inicialización.
type Manager struct {
	cfg Config

	once sync.Once
	ds   DocumentStore
	err  error
}

// NewManager crea un Manager sin abrir la conexión todavía.
func NewManager(cfg Config) *Manager {
	return &Manager{cfg: cfg}
}

// Store abre la conexión en la primera llamada y devuelve siempre el mismo handle
// (o el mismo error).
func (m *Manager) Store(ctx context.Context) (DocumentStore, error) {
	m.once.Do(func() {
		m.ds, m.err = Open(ctx, m.cfg)
	})
	return m.ds, m.err
}

// Close cierra la conexión si llegó a abrirse.
func (m *Manager) Close() error {
	if m.ds == nil {
		return nil
	}
	return m.ds.Close()
}
