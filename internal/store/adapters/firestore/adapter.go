// Package firestore implementa el document store sobre Cloud Firestore.
// Es el backend natural del storefront: las colecciones users, stores y
// withdrawals viven tal cual en Firestore.
package firestore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/somahq/soma/internal/domain/records"
	"github.com/somahq/soma/internal/domain/repository"
	"github.com/somahq/soma/internal/store"
)

func init() {
	store.RegisterAdapter(&firestoreAdapter{})
}

type firestoreAdapter struct{}

func (a *firestoreAdapter) Name() string { return "firestore" }

func (a *firestoreAdapter) Open(ctx context.Context, cfg store.Config) (store.DocumentStore, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("firestore: project_id is required")
	}
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore: new client: %w", err)
	}
	return New(client), nil
}

// Store es el DocumentStore respaldado por Firestore.
type Store struct {
	client *firestore.Client
}

// New envuelve un cliente ya creado.
func New(client *firestore.Client) *Store { return &Store{client: client} }

func (s *Store) Name() string { return "firestore" }

func (s *Store) FindOne(ctx context.Context, collection, field string, value any) (*store.Document, error) {
	it := s.client.Collection(collection).Where(field, "==", value).Limit(1).Documents(ctx)
	defer it.Stop()

	snap, err := it.Next()
	if errors.Is(err, iterator.Done) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("firestore: query %s by %s: %w", collection, field, err)
	}
	return toDocument(snap), nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (*store.Document, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("firestore: get %s/%s: %w", collection, id, err)
	}
	return toDocument(snap), nil
}

// Create chequea los campos únicos y crea el documento dentro de una transacción.
// Firestore no tiene índices únicos; la transacción aborta y reintenta si otro
// writer toca los mismos documentos.
func (s *Store) Create(ctx context.Context, collection, id string, fields map[string]any, unique ...string) error {
	col := s.client.Collection(collection)
	ref := col.Doc(id)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, field := range unique {
			v, ok := fields[field]
			if !ok || v == nil {
				continue
			}
			it := tx.Documents(col.Where(field, "==", v).Limit(1))
			_, err := it.Next()
			it.Stop()
			if err == nil {
				return fmt.Errorf("firestore: %s.%s already used: %w", collection, field, repository.ErrConflict)
			}
			if !errors.Is(err, iterator.Done) {
				return err
			}
		}
		return tx.Create(ref, fields)
	})
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("firestore: %s/%s already exists: %w", collection, id, repository.ErrConflict)
		}
		if errors.Is(err, repository.ErrConflict) {
			return err
		}
		return fmt.Errorf("firestore: create %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) Transition(ctx context.Context, collection, id string, fn store.TransitionFunc) error {
	ref := s.client.Collection(collection).Doc(id)

	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return repository.ErrNotFound
			}
			return fmt.Errorf("firestore: get %s/%s: %w", collection, id, err)
		}
		updates, err := fn(*toDocument(snap))
		if err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Set(ref, updates, firestore.MergeAll)
	})
}

// Ping hace una lectura mínima; Done (colección vacía) también cuenta como sano.
func (s *Store) Ping(ctx context.Context) error {
	it := s.client.Collection(records.CollectionUsers).Limit(1).Documents(ctx)
	defer it.Stop()
	if _, err := it.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return fmt.Errorf("firestore: ping: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return s.client.Close() }

func toDocument(snap *firestore.DocumentSnapshot) *store.Document {
	return &store.Document{ID: snap.Ref.ID, Fields: snap.Data()}
}
