// Package pg implementa el document store sobre PostgreSQL.
//
// Cada documento vive como una fila de la tabla documents (collection, id, data jsonb).
// Los campos únicos se reservan en document_keys dentro de la misma transacción,
// así la unicidad la garantiza la PK de Postgres y no el código.
package pg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/somahq/soma/internal/domain/repository"
	"github.com/somahq/soma/internal/store"
)

func init() {
	store.RegisterAdapter(&postgresAdapter{})
}

// Pool es el subconjunto de pgxpool.Pool que usa el adapter.
// pgxmock.PgxPoolIface también lo satisface.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

type postgresAdapter struct{}

func (a *postgresAdapter) Name() string { return "postgres" }

func (a *postgresAdapter) Open(ctx context.Context, cfg store.Config) (store.DocumentStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg: parse DSN: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	} else {
		poolCfg.MaxConns = 10
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = int32(cfg.MinConns)
	} else {
		poolCfg.MinConns = 2
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}

	// Verificar conexión
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping failed: %w", err)
	}

	return New(pool), nil
}

// Store es el DocumentStore respaldado por Postgres.
type Store struct {
	pool Pool
}

// New envuelve un pool ya abierto.
func New(pool Pool) *Store { return &Store{pool: pool} }

// Pool expone el pool subyacente (lo usa el migrator).
func (s *Store) Pool() Pool { return s.pool }

// Stat devuelve las estadísticas del pool, o nil si no es un pgxpool real (tests).
func (s *Store) Stat() *pgxpool.Stat {
	if p, ok := s.pool.(*pgxpool.Pool); ok {
		return p.Stat()
	}
	return nil
}

func (s *Store) Name() string { return "postgres" }

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// ─── Lecturas ───

func (s *Store) FindOne(ctx context.Context, collection, field string, value any) (*store.Document, error) {
	const q = `
		SELECT id, data FROM documents
		WHERE collection = $1 AND data->>$2 = $3
		ORDER BY id
		LIMIT 1`

	var (
		id  string
		raw []byte
	)
	err := s.pool.QueryRow(ctx, q, collection, field, textValue(value)).Scan(&id, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pg: find %s by %s: %w", collection, field, err)
	}
	return decode(id, raw)
}

func (s *Store) Get(ctx context.Context, collection, id string) (*store.Document, error) {
	const q = `SELECT data FROM documents WHERE collection = $1 AND id = $2`

	var raw []byte
	err := s.pool.QueryRow(ctx, q, collection, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pg: get %s/%s: %w", collection, id, err)
	}
	return decode(id, raw)
}

// ─── Escrituras ───

func (s *Store) Create(ctx context.Context, collection, id string, fields map[string]any, unique ...string) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("pg: encode %s/%s: %w", collection, id, err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("pg: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const insertDoc = `
		INSERT INTO documents (collection, id, data, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())`
	if _, err := tx.Exec(ctx, insertDoc, collection, id, data); err != nil {
		return mapWriteErr(collection, id, err)
	}

	const insertKey = `
		INSERT INTO document_keys (collection, field, value, doc_id)
		VALUES ($1, $2, $3, $4)`
	for _, field := range unique {
		v, ok := fields[field]
		if !ok || v == nil {
			continue
		}
		if _, err := tx.Exec(ctx, insertKey, collection, field, textValue(v), id); err != nil {
			return mapWriteErr(collection, id, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("pg: commit: %w", err)
	}
	return nil
}

// Transition bloquea la fila con SELECT ... FOR UPDATE, decide con fn y escribe
// el merge en la misma transacción. Dos transiciones concurrentes sobre el
// mismo documento quedan serializadas por el lock de fila.
func (s *Store) Transition(ctx context.Context, collection, id string, fn store.TransitionFunc) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("pg: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const lockQ = `SELECT data FROM documents WHERE collection = $1 AND id = $2 FOR UPDATE`
	var raw []byte
	if err := tx.QueryRow(ctx, lockQ, collection, id).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("pg: lock %s/%s: %w", collection, id, err)
	}

	cur, err := decode(id, raw)
	if err != nil {
		return err
	}
	updates, err := fn(*cur)
	if err != nil {
		return err
	}
	if len(updates) == 0 {
		return tx.Commit(ctx)
	}

	patch, err := json.Marshal(updates)
	if err != nil {
		return fmt.Errorf("pg: encode patch: %w", err)
	}
	const updQ = `
		UPDATE documents SET data = data || $3::jsonb, updated_at = NOW()
		WHERE collection = $1 AND id = $2`
	if _, err := tx.Exec(ctx, updQ, collection, id, patch); err != nil {
		return fmt.Errorf("pg: update %s/%s: %w", collection, id, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("pg: commit: %w", err)
	}
	return nil
}

// ─── helpers ───

func decode(id string, raw []byte) (*store.Document, error) {
	fields := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("pg: decode document %s: %w", id, err)
		}
	}
	return &store.Document{ID: id, Fields: fields}, nil
}

// textValue convierte el valor al texto que devuelve data->>field.
func textValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

func mapWriteErr(collection, id string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
		return fmt.Errorf("pg: %s/%s: %s: %w", collection, id, pgErr.ConstraintName, repository.ErrConflict)
	}
	return fmt.Errorf("pg: write %s/%s: %w", collection, id, err)
}
