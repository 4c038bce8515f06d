package store

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/somahq/soma/internal/domain/records"
	"github.com/somahq/soma/internal/domain/repository"
)

// Repositories agrupa los repositorios tipados sobre un DocumentStore.
type Repositories struct {
	Users       repository.UserRepository
	Stores      repository.StoreRepository
	Withdrawals repository.WithdrawalRepository
}

// Option configura NewRepositories.
type Option func(*options)

type options struct {
	platformDomains []string
}

// WithPlatformDomains declara los dominios base de la plataforma. Ningún store
// puede registrar como dominio custom uno de ellos ni un host que cuelgue de ellos.
func WithPlatformDomains(bases ...string) Option {
	return func(o *options) {
		for _, b := range bases {
			if b = strings.Trim(strings.ToLower(strings.TrimSpace(b)), "."); b != "" {
				o.platformDomains = append(o.platformDomains, b)
			}
		}
	}
}

// NewRepositories crea los repositorios sobre ds.
func NewRepositories(ds DocumentStore, opts ...Option) Repositories {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return Repositories{
		Users:       &userRepo{ds: ds},
		Stores:      &storeRepo{ds: ds, platform: o.platformDomains},
		Withdrawals: &withdrawalRepo{ds: ds},
	}
}

// ─── users ───

type userRepo struct{ ds DocumentStore }

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*records.User, error) {
	doc, err := r.ds.FindOne(ctx, records.CollectionUsers, "email", email)
	if err != nil {
		return nil, err
	}
	u, err := records.DecodeUser(doc.ID, doc.Fields)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) Create(ctx context.Context, u records.User) error {
	if u.ID == "" || records.NormalizeEmail(u.Email) == "" {
		return fmt.Errorf("users: id and email are required")
	}
	return r.ds.Create(ctx, records.CollectionUsers, u.ID, u.Fields(), "email")
}

// ─── stores ───

type storeRepo struct {
	ds       DocumentStore
	platform []string
}

func (r *storeRepo) GetByID(ctx context.Context, id string) (*records.Store, error) {
	doc, err := r.ds.Get(ctx, records.CollectionStores, id)
	if err != nil {
		return nil, err
	}
	return decodeStore(doc)
}

func (r *storeRepo) FindBySubdomain(ctx context.Context, slug string) (*records.Store, error) {
	doc, err := r.ds.FindOne(ctx, records.CollectionStores, "domain", slug)
	if err != nil {
		return nil, err
	}
	return decodeStore(doc)
}

func (r *storeRepo) FindByCustomDomain(ctx context.Context, host string) (*records.Store, error) {
	doc, err := r.ds.FindOne(ctx, records.CollectionStores, "customDomain", host)
	if err != nil {
		return nil, err
	}
	return decodeStore(doc)
}

func (r *storeRepo) Create(ctx context.Context, s records.Store) error {
	if s.ID == "" {
		return fmt.Errorf("stores: id is required")
	}
	var unique []string
	if s.Domain != "" {
		unique = append(unique, "domain")
	}
	if s.CustomDomain != "" {
		if r.isPlatformDomain(s.CustomDomain) {
			return fmt.Errorf("stores: custom domain %q: %w", s.CustomDomain, repository.ErrReservedDomain)
		}
		unique = append(unique, "customDomain")
	}
	return r.ds.Create(ctx, records.CollectionStores, s.ID, s.Fields(), unique...)
}

func (r *storeRepo) isPlatformDomain(host string) bool {
	host = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(host)), ".")
	for _, base := range r.platform {
		if host == base || strings.HasSuffix(host, "."+base) {
			return true
		}
	}
	return false
}

func decodeStore(doc *Document) (*records.Store, error) {
	s, err := records.DecodeStore(doc.ID, doc.Fields)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ─── withdrawals ───

type withdrawalRepo struct{ ds DocumentStore }

func (r *withdrawalRepo) Create(ctx context.Context, w records.Withdrawal) error {
	return r.ds.Create(ctx, records.CollectionWithdrawals, w.ID, w.Fields())
}

func (r *withdrawalRepo) GetByID(ctx context.Context, id string) (*records.Withdrawal, error) {
	doc, err := r.ds.Get(ctx, records.CollectionWithdrawals, id)
	if err != nil {
		return nil, err
	}
	w, err := records.DecodeWithdrawal(doc.ID, doc.Fields)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *withdrawalRepo) Confirm(ctx context.Context, id, tokenHash string, now time.Time) (repository.ConfirmResult, error) {
	var res repository.ConfirmResult

	err := r.ds.Transition(ctx, records.CollectionWithdrawals, id, func(cur Document) (map[string]any, error) {
		w, err := records.DecodeWithdrawal(cur.ID, cur.Fields)
		if err != nil {
			return nil, err
		}
		next, already, err := confirmTransition(w, tokenHash, now)
		if err != nil {
			return nil, err
		}
		res = repository.ConfirmResult{Withdrawal: next, AlreadyConfirmed: already}
		if already {
			return nil, nil
		}
		return map[string]any{
			"status":                string(records.WithdrawalPending),
			"confirmationTokenHash": nil,
			"confirmationExpiresAt": nil,
			"confirmedAt":           now.UTC(),
			"confirmedTokenHash":    tokenHash,
		}, nil
	})
	if err != nil {
		return repository.ConfirmResult{}, err
	}
	return res, nil
}

// confirmTransition decide la transición sobre el estado leído dentro de la transacción.
// Un retiro ya confirmado responde como éxito idempotente sólo al mismo token que lo
// confirmó (confirmedTokenHash); no mira la expiración. Los registros confirmados sin
// confirmedTokenHash aceptan cualquier token.
func confirmTransition(w records.Withdrawal, tokenHash string, now time.Time) (records.Withdrawal, bool, error) {
	if w.Status == records.WithdrawalPending && w.ConfirmationTokenHash == "" {
		if w.ConfirmedTokenHash != "" && subtle.ConstantTimeCompare([]byte(w.ConfirmedTokenHash), []byte(tokenHash)) != 1 {
			return w, false, repository.ErrUnauthorized
		}
		return w, true, nil
	}
	if w.Status != records.WithdrawalAwaitingConfirmation {
		return w, false, fmt.Errorf("withdrawal %s is %s: %w", w.ID, w.Status, repository.ErrConflict)
	}
	if w.ConfirmationTokenHash == "" || tokenHash == "" {
		return w, false, repository.ErrUnauthorized
	}
	if w.ConfirmationExpiresAt != nil && !now.Before(*w.ConfirmationExpiresAt) {
		return w, false, repository.ErrTokenExpired
	}
	if subtle.ConstantTimeCompare([]byte(w.ConfirmationTokenHash), []byte(tokenHash)) != 1 {
		return w, false, repository.ErrUnauthorized
	}

	confirmedAt := now.UTC()
	w.Status = records.WithdrawalPending
	w.ConfirmationTokenHash = ""
	w.ConfirmationExpiresAt = nil
	w.ConfirmedTokenHash = tokenHash
	w.ConfirmedAt = &confirmedAt
	return w, false, nil
}
