package tenant

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/somahq/soma/internal/domain/records"
	"github.com/somahq/soma/internal/domain/repository"
	"github.com/somahq/soma/internal/store"
	"github.com/somahq/soma/internal/store/adapters/memory"
)

var testConfig = Config{BaseDomains: []string{"soma.shop"}}

func newFixture(t *testing.T) (*Resolver, *memory.Store) {
	t.Helper()
	ctx := context.Background()
	ds := memory.New()
	repos := store.NewRepositories(ds, store.WithPlatformDomains(testConfig.BaseDomains...))

	require.NoError(t, repos.Users.Create(ctx, records.User{ID: "u123", Email: "jane@example.com", Name: "Jane"}))
	require.NoError(t, repos.Stores.Create(ctx, records.Store{ID: "u123", Name: "Jane's", Domain: "jane", CustomDomain: "shop.jane.com"}))
	require.NoError(t, repos.Stores.Create(ctx, records.Store{ID: "u456", Name: "Bob", Domain: "bob"}))
	// Datos previos a la validación de escritura: dominios custom que pisan
	// hosts de la plataforma. Nunca deben ganarle al subdominio.
	ds.Put(records.CollectionStores, "u789", map[string]any{"name": "Impostor", "customDomain": "jane.soma.shop"})
	ds.Put(records.CollectionStores, "u790", map[string]any{"name": "Impostor", "customDomain": "soma.shop"})
	ds.Put(records.CollectionStores, "u791", map[string]any{"name": "Impostor", "customDomain": "a.b.soma.shop"})
	require.NoError(t, repos.Stores.Create(ctx, records.Store{ID: "u321", Name: "Libros", CustomDomain: "xn--bcher-kva.example"}))

	return New(repos.Users, repos.Stores, testConfig), ds
}

func TestResolveEmail_CaseInsensitive(t *testing.T) {
	r, _ := newFixture(t)

	id, err := r.ResolveEmail(context.Background(), "Jane@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "u123", id)
}

func TestResolveEmail_NotFoundIsNotAFailure(t *testing.T) {
	r, _ := newFixture(t)

	_, err := r.ResolveEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.False(t, IsValidation(err))
}

func TestResolveEmail_EmptyNeverQueries(t *testing.T) {
	r, ds := newFixture(t)

	for _, in := range []string{"", "   ", "\t\n"} {
		_, err := r.ResolveEmail(context.Background(), in)
		assert.ErrorIs(t, err, ErrMissingEmail)
	}
	assert.Equal(t, 0, ds.Queries())
}

func TestResolveEmail_MalformedIsInternal(t *testing.T) {
	ds := memory.New()
	ds.Put(records.CollectionUsers, "u1", map[string]any{"email": "odd@example.com", "name": []string{"x"}})
	repos := store.NewRepositories(ds)
	r := New(repos.Users, repos.Stores, testConfig)

	_, err := r.ResolveEmail(context.Background(), "odd@example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, records.ErrMalformed)
	assert.False(t, errors.Is(err, repository.ErrNotFound))
	assert.False(t, IsValidation(err))
}

type failingUsers struct{ err error }

func (f failingUsers) FindByEmail(context.Context, string) (*records.User, error) { return nil, f.err }
func (f failingUsers) Create(context.Context, records.User) error { return f.err }

func TestResolveEmail_StoreFailureWrapsCause(t *testing.T) {
	boom := errors.New("deadline exceeded talking to firestore")
	r := New(failingUsers{err: boom}, nil, testConfig)

	_, err := r.ResolveEmail(context.Background(), "jane@example.com")
	assert.ErrorIs(t, err, boom)
	assert.False(t, errors.Is(err, repository.ErrNotFound))
}

// blockingUsers cuenta las consultas y las retiene hasta que se cierra release.
type blockingUsers struct {
	calls   atomic.Int32
	release chan struct{}
}

func (b *blockingUsers) FindByEmail(ctx context.Context, email string) (*records.User, error) {
	b.calls.Add(1)
	<-b.release
	return &records.User{ID: "u123", Email: email}, nil
}

func (b *blockingUsers) Create(context.Context, records.User) error { return nil }

func TestResolveEmail_CoalescesInflightLookups(t *testing.T) {
	users := &blockingUsers{release: make(chan struct{})}
	r := New(users, nil, testConfig)

	const n = 8
	var wg sync.WaitGroup
	results := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := r.ResolveEmail(context.Background(), "JANE@example.com")
			assert.NoError(t, err)
			results[i] = id
		}(i)
	}
	time.Sleep(100 * time.Millisecond)
	close(users.release)
	wg.Wait()

	assert.Equal(t, int32(1), users.calls.Load())
	for _, id := range results {
		assert.Equal(t, "u123", id)
	}

	// Nada sobrevive a la llamada: la siguiente vuelve al store.
	_, err := r.ResolveEmail(context.Background(), "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, int32(2), users.calls.Load())
}

func TestResolveHost(t *testing.T) {
	r, _ := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		host     string
		storeID  string
		strategy Strategy
	}{
		{"jane.soma.shop", "u123", StrategySubdomain},
		{"www.jane.soma.shop", "u123", StrategySubdomain},
		{"WWW.Jane.Soma.Shop.", "u123", StrategySubdomain},
		{"BOB.soma.shop:443", "u456", StrategySubdomain},
		{"shop.jane.com", "u123", StrategyCustomDomain},
		{"www.shop.jane.com", "u123", StrategyCustomDomain},
		{"bücher.example", "u321", StrategyCustomDomain},
	}
	for _, tc := range cases {
		res, err := r.ResolveHost(ctx, tc.host)
		require.NoError(t, err, tc.host)
		assert.Equal(t, tc.storeID, res.StoreID, tc.host)
		assert.Equal(t, tc.strategy, res.Strategy, tc.host)
	}
}

func TestResolveHost_PlatformHostsNeverQuery(t *testing.T) {
	r, ds := newFixture(t)
	ctx := context.Background()

	for _, host := range []string{"soma.shop", "www.soma.shop", "admin.soma.shop", "backstage.soma.shop", "localhost:3000", "10.0.0.7"} {
		_, err := r.ResolveHost(ctx, host)
		assert.ErrorIs(t, err, repository.ErrNotFound, host)
	}
	assert.Equal(t, 0, ds.Queries())
}

func TestResolveHost_Misses(t *testing.T) {
	r, _ := newFixture(t)
	ctx := context.Background()

	_, err := r.ResolveHost(ctx, "ghost.soma.shop")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// Bajo el dominio base sólo hay subdominios: nada cae a dominio custom.
	for _, host := range []string{"www.ghost.soma.shop", "a.b.soma.shop", "www.www.soma.shop"} {
		_, err = r.ResolveHost(ctx, host)
		assert.ErrorIs(t, err, repository.ErrNotFound, host)
	}

	_, err = r.ResolveHost(ctx, "unknown.example.org")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = r.ResolveHost(ctx, "bad host")
	assert.ErrorIs(t, err, ErrInvalidHost)
	assert.True(t, IsValidation(err))
}

func TestResolveHost_CustomReserved(t *testing.T) {
	ds := memory.New()
	repos := store.NewRepositories(ds)
	require.NoError(t, repos.Stores.Create(context.Background(), records.Store{ID: "s1", Domain: "www"}))

	r := New(repos.Users, repos.Stores, Config{BaseDomains: []string{"soma.shop"}, ReservedSubdomains: []string{"status"}})

	res, err := r.ResolveHost(context.Background(), "www.soma.shop")
	require.NoError(t, err)
	assert.Equal(t, "s1", res.StoreID)

	_, err = r.ResolveHost(context.Background(), "status.soma.shop")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
