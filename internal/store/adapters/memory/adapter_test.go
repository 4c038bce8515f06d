package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/somahq/soma/internal/domain/repository"
	"github.com/somahq/soma/internal/store"
)

func TestRegisteredAsMemory(t *testing.T) {
	ds, err := store.Open(context.Background(), store.Config{Driver: "memory"})
	require.NoError(t, err)
	assert.Equal(t, "memory", ds.Name())
}

func TestFindOne(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Put("users", "u2", map[string]any{"email": "b@example.com"})
	s.Put("users", "u1", map[string]any{"email": "a@example.com"})

	doc, err := s.FindOne(ctx, "users", "email", "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", doc.ID)

	_, err = s.FindOne(ctx, "users", "email", "A@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = s.FindOne(ctx, "stores", "domain", "x")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, 3, s.Queries())
}

func TestCreate_UniqueFields(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Create(ctx, "users", "u1", map[string]any{"email": "a@example.com"}, "email"))

	err := s.Create(ctx, "users", "u1", map[string]any{"email": "other@example.com"}, "email")
	assert.ErrorIs(t, err, repository.ErrConflict)

	err = s.Create(ctx, "users", "u2", map[string]any{"email": "a@example.com"}, "email")
	assert.ErrorIs(t, err, repository.ErrConflict)

	require.NoError(t, s.Create(ctx, "users", "u3", map[string]any{"email": "c@example.com"}, "email"))
}

func TestReturnedDocumentsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Put("stores", "s1", map[string]any{"domain": "jane"})

	doc, err := s.Get(ctx, "stores", "s1")
	require.NoError(t, err)
	doc.Fields["domain"] = "mutated"

	again, err := s.Get(ctx, "stores", "s1")
	require.NoError(t, err)
	assert.Equal(t, "jane", again.Fields["domain"])
}

func TestTransition(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Put("withdrawals", "w1", map[string]any{"status": "awaiting_confirmation"})

	err := s.Transition(ctx, "withdrawals", "missing", func(store.Document) (map[string]any, error) {
		t.Fatal("fn must not run for missing documents")
		return nil, nil
	})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	boom := errors.New("boom")
	err = s.Transition(ctx, "withdrawals", "w1", func(store.Document) (map[string]any, error) {
		return map[string]any{"status": "pending"}, boom
	})
	assert.ErrorIs(t, err, boom)
	doc, _ := s.Get(ctx, "withdrawals", "w1")
	assert.Equal(t, "awaiting_confirmation", doc.Fields["status"], "failed transitions must not write")

	// Transiciones concurrentes: solo una ve el estado inicial.
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		applied int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Transition(ctx, "withdrawals", "w1", func(cur store.Document) (map[string]any, error) {
				if cur.Fields["status"] != "awaiting_confirmation" {
					return nil, nil
				}
				mu.Lock()
				applied++
				mu.Unlock()
				return map[string]any{"status": "pending"}, nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, applied)
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().FindOne(ctx, "users", "email", "a@example.com")
	assert.ErrorIs(t, err, context.Canceled)
}
