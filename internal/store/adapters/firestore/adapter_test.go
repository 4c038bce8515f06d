package firestore

import (
	"context"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/somahq/soma/internal/domain/repository"
	"github.com/somahq/soma/internal/store"
)

// Estos tests necesitan el emulador de Firestore (FIRESTORE_EMULATOR_HOST).
func newEmulatorStore(t *testing.T) *Store {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := firestore.NewClient(ctx, "soma-test")
	require.NoError(t, err)
	s := New(client)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestEmulator_CreateFindTransition(t *testing.T) {
	s := newEmulatorStore(t)
	ctx := context.Background()
	col := "test_" + uuid.NewString()
	email := uuid.NewString() + "@example.com"

	require.NoError(t, s.Create(ctx, col, "u1", map[string]any{"email": email}, "email"))
	err := s.Create(ctx, col, "u2", map[string]any{"email": email}, "email")
	assert.ErrorIs(t, err, repository.ErrConflict)

	doc, err := s.FindOne(ctx, col, "email", email)
	require.NoError(t, err)
	assert.Equal(t, "u1", doc.ID)

	_, err = s.Get(ctx, col, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	err = s.Transition(ctx, col, "u1", func(cur store.Document) (map[string]any, error) {
		return map[string]any{"name": "Jane"}, nil
	})
	require.NoError(t, err)
	doc, err = s.Get(ctx, col, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Jane", doc.Fields["name"])
	assert.Equal(t, email, doc.Fields["email"])
}

func TestOpen_RequiresProject(t *testing.T) {
	_, err := (&firestoreAdapter{}).Open(context.Background(), store.Config{Driver: "firestore"})
	assert.Error(t, err)
}
