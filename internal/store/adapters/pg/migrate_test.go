package pg

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	migrations "github.com/somahq/soma/migrations/postgres"
)

func TestParseMigrations_Embedded(t *testing.T) {
	migs, err := NewMigrator(migrations.FS, migrations.Dir).ParseMigrations()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(migs), 2)
	assert.Equal(t, 1, migs[0].Version)
	assert.Equal(t, "documents", migs[0].Name)
	assert.Contains(t, migs[0].SQL, "CREATE TABLE IF NOT EXISTS documents")
}

func TestParseMigrations_OrderAndDuplicates(t *testing.T) {
	fsys := fstest.MapFS{
		"m/0002_b.sql": {Data: []byte("SELECT 2")},
		"m/0001_a.sql": {Data: []byte("SELECT 1")},
		"m/README.md":  {Data: []byte("ignored")},
		"m/0010_c.sql": {Data: []byte("SELECT 10")},
	}
	migs, err := NewMigrator(fsys, "m").ParseMigrations()
	require.NoError(t, err)
	require.Len(t, migs, 3)
	assert.Equal(t, []int{1, 2, 10}, []int{migs[0].Version, migs[1].Version, migs[2].Version})

	fsys["m/01_dup.sql"] = &fstest.MapFile{Data: []byte("SELECT 1")}
	_, err = NewMigrator(fsys, "m").ParseMigrations()
	assert.Error(t, err)
}

func TestRun_SkipsApplied(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	fsys := fstest.MapFS{
		"0001_a.sql": {Data: []byte("CREATE TABLE a (id INT)")},
		"0002_b.sql": {Data: []byte("CREATE TABLE b (id INT)")},
	}

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS _migrations").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery("SELECT version FROM _migrations").
		WithArgs(1).
		WillReturnRows(pgxmock.NewRows([]string{"version"}).AddRow(1))
	mock.ExpectQuery("SELECT version FROM _migrations").
		WithArgs(2).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE b").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec("INSERT INTO _migrations").
		WithArgs(2, "b").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	res, err := NewMigrator(fsys, ".").Run(context.Background(), mock)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, res.Skipped)
	assert.Equal(t, []int{2}, res.Applied)
}
