package payout

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/somahq/soma/internal/domain/records"
	"github.com/somahq/soma/internal/domain/repository"
	"github.com/somahq/soma/internal/email"
	"github.com/somahq/soma/internal/store"
	"github.com/somahq/soma/internal/store/adapters/memory"
)

// captureSender guarda los mensajes enviados.
type captureSender struct {
	mu   sync.Mutex
	msgs []email.Message
	err  error
}

func (c *captureSender) Send(_ context.Context, msg email.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
	return c.err
}

func (c *captureSender) last(t *testing.T) email.Message {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.msgs)
	return c.msgs[len(c.msgs)-1]
}

var linkRE = regexp.MustCompile(`https?://\S+/confirm\?token=\S+`)

// tokenFrom extrae el token del link del email.
func tokenFrom(t *testing.T, msg email.Message) string {
	t.Helper()
	link := linkRE.FindString(msg.Text)
	require.NotEmpty(t, link, "no confirmation link in %q", msg.Text)
	u, err := url.Parse(link)
	require.NoError(t, err)
	return u.Query().Get("token")
}

type fixture struct {
	svc    *Service
	repos  store.Repositories
	mailer *captureSender
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repos := store.NewRepositories(memory.New())
	require.NoError(t, repos.Stores.Create(context.Background(), records.Store{ID: "u123", Name: "Jane's", Domain: "jane"}))

	f := &fixture{repos: repos, mailer: &captureSender{}, now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	f.svc = NewService(repos.Withdrawals, repos.Stores, f.mailer, Config{ConfirmBaseURL: "https://api.soma.shop/"})
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) request(t *testing.T) (records.Withdrawal, string) {
	t.Helper()
	w, err := f.svc.RequestWithdrawal(context.Background(), Request{
		StoreID: "u123", Amount: 500000, RecipientEmail: "Jane@Example.com",
	})
	require.NoError(t, err)
	f.svc.Wait()
	return w, tokenFrom(t, f.mailer.last(t))
}

func TestRequestWithdrawal(t *testing.T) {
	f := newFixture(t)
	w, tok := f.request(t)

	assert.NotEmpty(t, w.ID)
	assert.Equal(t, "NGN", w.Currency)
	assert.Equal(t, records.WithdrawalAwaitingConfirmation, w.Status)
	assert.Equal(t, "jane@example.com", w.RecipientEmail)
	assert.Empty(t, w.ConfirmationTokenHash, "hash must not leave the service")
	require.NotNil(t, w.ConfirmationExpiresAt)
	assert.Equal(t, f.now.Add(48*time.Hour), *w.ConfirmationExpiresAt)

	msg := f.mailer.last(t)
	assert.Equal(t, "jane@example.com", msg.To)
	assert.Contains(t, msg.Text, "https://api.soma.shop/api/withdrawals/"+w.ID+"/confirm?token=")
	assert.Contains(t, msg.Text, "NGN 5,000.00")

	stored, err := f.repos.Withdrawals.GetByID(context.Background(), w.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ConfirmationTokenHash)
	assert.NotEqual(t, tok, stored.ConfirmationTokenHash, "only the hash is stored")
}

func TestRequestWithdrawal_LowercaseDefaultCurrency(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.repos.Withdrawals, f.repos.Stores, f.mailer, Config{DefaultCurrency: " kes "})

	w, err := svc.RequestWithdrawal(context.Background(), Request{StoreID: "u123", Amount: 100, RecipientEmail: "jane@example.com"})
	require.NoError(t, err)
	svc.Wait()
	assert.Equal(t, "KES", w.Currency)
}

func TestRequestWithdrawal_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []Request{
		{StoreID: "", Amount: 100, RecipientEmail: "a@b.co"},
		{StoreID: "u123", Amount: 0, RecipientEmail: "a@b.co"},
		{StoreID: "u123", Amount: -5, RecipientEmail: "a@b.co"},
		{StoreID: "u123", Amount: 100, Currency: "NAIRA", RecipientEmail: "a@b.co"},
		{StoreID: "u123", Amount: 100, RecipientEmail: "not-an-email"},
	}
	for _, req := range cases {
		_, err := f.svc.RequestWithdrawal(ctx, req)
		assert.ErrorIs(t, err, ErrInvalidRequest, "%+v", req)
	}

	_, err := f.svc.RequestWithdrawal(ctx, Request{StoreID: "ghost", Amount: 100, RecipientEmail: "a@b.co"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRequestWithdrawal_MailFailureDoesNotFail(t *testing.T) {
	f := newFixture(t)
	f.mailer.err = errors.New("smtp down")

	w, err := f.svc.RequestWithdrawal(context.Background(), Request{StoreID: "u123", Amount: 100, Currency: "usd", RecipientEmail: "a@b.co"})
	require.NoError(t, err)
	f.svc.Wait()
	assert.Equal(t, "USD", w.Currency)
}

func TestConfirm_TwiceIsIdempotent(t *testing.T) {
	f := newFixture(t)
	w, tok := f.request(t)
	ctx := context.Background()

	out, err := f.svc.Confirm(ctx, w.ID, tok)
	require.NoError(t, err)
	assert.False(t, out.AlreadyConfirmed)
	assert.Equal(t, records.WithdrawalPending, out.Withdrawal.Status)

	f.now = f.now.Add(time.Hour)
	out, err = f.svc.Confirm(ctx, w.ID, tok)
	require.NoError(t, err)
	assert.True(t, out.AlreadyConfirmed)

	stored, err := f.repos.Withdrawals.GetByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, records.WithdrawalPending, stored.Status)
	assert.Empty(t, stored.ConfirmationTokenHash)
	assert.Nil(t, stored.ConfirmationExpiresAt)
	require.NotNil(t, stored.ConfirmedAt)
	assert.True(t, stored.ConfirmedAt.Equal(f.now.Add(-time.Hour)), "confirmedAt is set once")

	_, err = f.svc.Confirm(ctx, w.ID, "not-the-token")
	assert.ErrorIs(t, err, repository.ErrUnauthorized)
}

func TestConfirm_WrongTokenLeavesStatus(t *testing.T) {
	f := newFixture(t)
	w, _ := f.request(t)
	ctx := context.Background()

	_, err := f.svc.Confirm(ctx, w.ID, "definitely-not-the-token")
	assert.ErrorIs(t, err, repository.ErrUnauthorized)

	stored, err := f.repos.Withdrawals.GetByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, records.WithdrawalAwaitingConfirmation, stored.Status)
	assert.NotEmpty(t, stored.ConfirmationTokenHash)
}

func TestConfirm_Expired(t *testing.T) {
	f := newFixture(t)
	w, tok := f.request(t)

	f.now = f.now.Add(49 * time.Hour)
	_, err := f.svc.Confirm(context.Background(), w.ID, tok)
	assert.ErrorIs(t, err, repository.ErrTokenExpired)

	stored, err := f.repos.Withdrawals.GetByID(context.Background(), w.ID)
	require.NoError(t, err)
	assert.Equal(t, records.WithdrawalAwaitingConfirmation, stored.Status)
}

func TestConfirm_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Confirm(ctx, "", "tok")
	assert.ErrorIs(t, err, ErrInvalidRequest)
	_, err = f.svc.Confirm(ctx, "w1", "  ")
	assert.ErrorIs(t, err, ErrInvalidRequest)
	_, err = f.svc.Confirm(ctx, "missing", "tok")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestConfirm_Concurrent(t *testing.T) {
	f := newFixture(t)
	w, tok := f.request(t)

	const n = 12
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		confirmed  int
		idempotent int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := f.svc.Confirm(context.Background(), w.ID, tok)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if out.AlreadyConfirmed {
				idempotent++
			} else {
				confirmed++
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, confirmed)
	assert.Equal(t, n-1, idempotent)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "NGN 5,000.00", FormatAmount(500000, "NGN"))
	assert.Equal(t, "USD 0.05", FormatAmount(5, "USD"))
	assert.Equal(t, "NGN 1,234,567.89", FormatAmount(123456789, "NGN"))
	assert.Equal(t, "NGN 999.00", FormatAmount(99900, "NGN"))
}
