// Package memory implementa el document store en memoria.
// Pensado para desarrollo local y tests; no persiste nada.
package memory

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/somahq/soma/internal/domain/repository"
	"github.com/somahq/soma/internal/store"
)

func init() {
	store.RegisterAdapter(memoryAdapter{})
}

type memoryAdapter struct{}

func (memoryAdapter) Name() string { return "memory" }

func (memoryAdapter) Open(ctx context.Context, cfg store.Config) (store.DocumentStore, error) {
	return New(), nil
}

// Store es un document store en memoria, seguro para uso concurrente.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any

	// queries cuenta las lecturas (FindOne/Get); útil en tests.
	queries int
}

// New crea un store vacío.
func New() *Store {
	return &Store{collections: make(map[string]map[string]map[string]any)}
}

func (s *Store) Name() string { return "memory" }

func (s *Store) FindOne(ctx context.Context, collection, field string, value any) (*store.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.queries++
	s.mu.Unlock()

	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := s.collections[collection]
	// Orden por ID para que los tests sean deterministas.
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if v, ok := docs[id][field]; ok && equal(v, value) {
			return &store.Document{ID: id, Fields: clone(docs[id])}, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) Get(ctx context.Context, collection, id string) (*store.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.queries++
	s.mu.Unlock()

	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.collections[collection][id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &store.Document{ID: id, Fields: clone(f)}, nil
}

func (s *Store) Create(ctx context.Context, collection, id string, fields map[string]any, unique ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.collections[collection]
	if docs == nil {
		docs = make(map[string]map[string]any)
		s.collections[collection] = docs
	}
	if _, exists := docs[id]; exists {
		return fmt.Errorf("memory: %s/%s already exists: %w", collection, id, repository.ErrConflict)
	}
	for _, field := range unique {
		want, ok := fields[field]
		if !ok || want == nil {
			continue
		}
		for otherID, other := range docs {
			if equal(other[field], want) {
				return fmt.Errorf("memory: %s.%s already used by %s: %w", collection, field, otherID, repository.ErrConflict)
			}
		}
	}
	docs[id] = clone(fields)
	return nil
}

func (s *Store) Transition(ctx context.Context, collection, id string, fn store.TransitionFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// Lock exclusivo durante toda la transición: lectura, decisión y escritura.
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.collections[collection][id]
	if !ok {
		return repository.ErrNotFound
	}
	updates, err := fn(store.Document{ID: id, Fields: clone(cur)})
	if err != nil {
		return err
	}
	for k, v := range updates {
		cur[k] = v
	}
	return nil
}

// Put escribe (o reemplaza) un documento sin validaciones. Solo para seeds y tests.
func (s *Store) Put(collection, id string, fields map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]map[string]any)
	}
	s.collections[collection][id] = clone(fields)
}

// Queries retorna cuántas lecturas recibió el store.
func (s *Store) Queries() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queries
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) Close() error { return nil }

func clone(f map[string]any) map[string]any {
	out := make(map[string]any, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return reflect.DeepEqual(a, b)
}
