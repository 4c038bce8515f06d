package pg

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
)

// Formato de archivo: {version}_{name}.sql (ej: 0001_documents.sql)
var migrationFilePattern = regexp.MustCompile(`^(\d+)_(.+)\.sql$`)

// Migration representa una migración individual.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// MigrationResult resultado de aplicar migraciones.
type MigrationResult struct {
	Applied  []int
	Skipped  []int
	Duration time.Duration
}

// Migrator aplica migraciones SQL sobre el pool.
type Migrator struct {
	fsys fs.FS
	dir  string
}

// NewMigrator crea un Migrator que lee de dir dentro de fsys.
func NewMigrator(fsys fs.FS, dir string) *Migrator {
	return &Migrator{fsys: fsys, dir: dir}
}

// ParseMigrations lee y ordena las migraciones por versión.
func (m *Migrator) ParseMigrations() ([]Migration, error) {
	entries, err := fs.ReadDir(m.fsys, m.dir)
	if err != nil {
		return nil, fmt.Errorf("reading migrations dir: %w", err)
	}

	var out []Migration
	seen := map[int]string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		matches := migrationFilePattern.FindStringSubmatch(e.Name())
		if matches == nil {
			continue // Ignorar archivos que no coinciden
		}
		version, _ := strconv.Atoi(matches[1])
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("duplicate migration version %d (%s, %s)", version, prev, e.Name())
		}
		seen[version] = e.Name()

		content, err := fs.ReadFile(m.fsys, path.Join(m.dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		out = append(out, Migration{Version: version, Name: matches[2], SQL: string(content)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// Run aplica las migraciones pendientes, cada una en su propia transacción.
func (m *Migrator) Run(ctx context.Context, pool Pool) (*MigrationResult, error) {
	start := time.Now()
	result := &MigrationResult{}

	const createSQL = `
		CREATE TABLE IF NOT EXISTS _migrations (
			version INT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)`
	if _, err := pool.Exec(ctx, createSQL); err != nil {
		return result, fmt.Errorf("creating migrations table: %w", err)
	}

	migrations, err := m.ParseMigrations()
	if err != nil {
		return result, fmt.Errorf("parsing migrations: %w", err)
	}

	for _, mig := range migrations {
		applied, err := isApplied(ctx, pool, mig.Version)
		if err != nil {
			return result, err
		}
		if applied {
			result.Skipped = append(result.Skipped, mig.Version)
			continue
		}
		if err := apply(ctx, pool, mig); err != nil {
			return result, fmt.Errorf("applying migration %d_%s: %w", mig.Version, mig.Name, err)
		}
		result.Applied = append(result.Applied, mig.Version)
	}

	result.Duration = time.Since(start)
	return result, nil
}

func isApplied(ctx context.Context, pool Pool, version int) (bool, error) {
	var v int
	err := pool.QueryRow(ctx, `SELECT version FROM _migrations WHERE version = $1`, version).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking migration %d: %w", version, err)
	}
	return true, nil
}

func apply(ctx context.Context, pool Pool, mig Migration) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, mig.SQL); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO _migrations (version, name) VALUES ($1, $2)`, mig.Version, mig.Name); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
