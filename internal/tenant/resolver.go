package tenant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/somahq/soma/internal/domain/records"
	"github.com/somahq/soma/internal/domain/repository"
	"github.com/somahq/soma/internal/metrics"
	"github.com/somahq/soma/internal/observability/logger"
)

// Strategy indica cómo se resolvió un host.
type Strategy string

const (
	StrategySubdomain    Strategy = "subdomain"
	StrategyCustomDomain Strategy = "custom_domain"
)

// Resolution es el resultado de ResolveHost.
type Resolution struct {
	StoreID  string
	Strategy Strategy
}

// DefaultReservedSubdomains son los subdominios de la plataforma que nunca son stores.
var DefaultReservedSubdomains = []string{"www", "app", "api", "admin", "backstage"}

// Config parametriza la resolución por host.
type Config struct {
	// BaseDomains son los dominios de la plataforma (ej: "soma.shop").
	// "<slug>.<base>" se resuelve por subdominio.
	BaseDomains []string
	// ReservedSubdomains: si es nil se usan los default.
	ReservedSubdomains []string
	// LookupTimeout acota cada consulta compartida. Default 5s.
	LookupTimeout time.Duration
}

// Resolver implementa ResolveEmail y ResolveHost sobre los repositorios.
type Resolver struct {
	users  repository.UserRepository
	stores repository.StoreRepository

	bases    []string
	reserved map[string]struct{}
	timeout  time.Duration

	group singleflight.Group
}

// New crea un Resolver.
func New(users repository.UserRepository, stores repository.StoreRepository, cfg Config) *Resolver {
	r := &Resolver{
		users:    users,
		stores:   stores,
		reserved: make(map[string]struct{}),
		timeout:  cfg.LookupTimeout,
	}
	if r.timeout <= 0 {
		r.timeout = 5 * time.Second
	}
	for _, b := range cfg.BaseDomains {
		if b = strings.Trim(strings.ToLower(strings.TrimSpace(b)), "."); b != "" {
			r.bases = append(r.bases, b)
		}
	}
	reserved := cfg.ReservedSubdomains
	if reserved == nil {
		reserved = DefaultReservedSubdomains
	}
	for _, s := range reserved {
		r.reserved[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}
	return r
}

// ResolveEmail devuelve el store id del usuario con ese email.
// Sin coincidencias devuelve repository.ErrNotFound, que no es una falla.
func (r *Resolver) ResolveEmail(ctx context.Context, email string) (string, error) {
	start := time.Now()
	log := logger.From(ctx).With(logger.Layer("tenant"), logger.Op("ResolveEmail"))

	if strings.TrimSpace(email) == "" {
		metrics.RecordResolution("email", "", "invalid", time.Since(start))
		return "", ErrMissingEmail
	}
	normalized := records.NormalizeEmail(email)

	v, err := r.do(ctx, "email:"+normalized, func(ctx context.Context) (any, error) {
		u, err := r.users.FindByEmail(ctx, normalized)
		if err != nil {
			return "", err
		}
		return u.StoreID(), nil
	})
	switch {
	case err == nil:
		storeID := v.(string)
		metrics.RecordResolution("email", "", "hit", time.Since(start))
		log.Debug("email resolved", logger.Email(normalized), logger.StoreID(storeID))
		return storeID, nil
	case errors.Is(err, repository.ErrNotFound):
		metrics.RecordResolution("email", "", "miss", time.Since(start))
		log.Debug("no user for email", logger.Email(normalized))
		return "", repository.ErrNotFound
	default:
		metrics.RecordResolution("email", "", "error", time.Since(start))
		log.Error("email lookup failed", logger.Email(normalized), logger.Err(err))
		return "", fmt.Errorf("tenant: lookup user by email: %w", err)
	}
}

// ResolveHost resuelve el store de un host. Orden:
// hosts de plataforma (nunca consultan el store), subdominio (también
// "www.<slug>.<base>"), dominio custom, y dominio custom sin "www.".
// Un host bajo un dominio base nunca se busca como dominio custom.
func (r *Resolver) ResolveHost(ctx context.Context, rawHost string) (Resolution, error) {
	start := time.Now()
	log := logger.From(ctx).With(logger.Layer("tenant"), logger.Op("ResolveHost"))

	host, err := NormalizeHost(rawHost)
	if err != nil {
		metrics.RecordResolution("host", "", "invalid", time.Since(start))
		return Resolution{}, err
	}
	if r.isPlatformHost(host) {
		metrics.RecordResolution("host", "", "miss", time.Since(start))
		log.Debug("platform host", logger.Host(host))
		return Resolution{}, repository.ErrNotFound
	}

	v, err := r.do(ctx, "host:"+host, func(ctx context.Context) (any, error) {
		return r.resolveHost(ctx, host)
	})
	switch {
	case err == nil:
		res := v.(Resolution)
		metrics.RecordResolution("host", string(res.Strategy), "hit", time.Since(start))
		log.Debug("host resolved", logger.Host(host), logger.StoreID(res.StoreID), logger.Strategy(string(res.Strategy)))
		return res, nil
	case errors.Is(err, repository.ErrNotFound):
		metrics.RecordResolution("host", "", "miss", time.Since(start))
		return Resolution{}, repository.ErrNotFound
	default:
		metrics.RecordResolution("host", "", "error", time.Since(start))
		log.Error("host lookup failed", logger.Host(host), logger.Err(err))
		return Resolution{}, fmt.Errorf("tenant: lookup store by host: %w", err)
	}
}

func (r *Resolver) resolveHost(ctx context.Context, host string) (Resolution, error) {
	if slug, ok := r.subdomainOf(host); ok {
		return r.bySubdomain(ctx, slug)
	}

	// Bajo un dominio base nunca hay dominios custom (el write path los rechaza).
	// "www.<slug>.<base>" es el subdominio del store; el resto no existe.
	if r.underBase(host) {
		rest, www := strings.CutPrefix(host, "www.")
		if !www || r.isPlatformHost(rest) {
			return Resolution{}, repository.ErrNotFound
		}
		if slug, ok := r.subdomainOf(rest); ok {
			return r.bySubdomain(ctx, slug)
		}
		return Resolution{}, repository.ErrNotFound
	}

	s, err := r.stores.FindByCustomDomain(ctx, host)
	if errors.Is(err, repository.ErrNotFound) && strings.HasPrefix(host, "www.") {
		s, err = r.stores.FindByCustomDomain(ctx, strings.TrimPrefix(host, "www."))
	}
	if err != nil {
		return Resolution{}, err
	}
	return Resolution{StoreID: s.ID, Strategy: StrategyCustomDomain}, nil
}

func (r *Resolver) bySubdomain(ctx context.Context, slug string) (Resolution, error) {
	s, err := r.stores.FindBySubdomain(ctx, slug)
	if err != nil {
		return Resolution{}, err
	}
	return Resolution{StoreID: s.ID, Strategy: StrategySubdomain}, nil
}

// underBase indica si host es un dominio base o cuelga de uno.
func (r *Resolver) underBase(host string) bool {
	for _, base := range r.bases {
		if host == base || strings.HasSuffix(host, "."+base) {
			return true
		}
	}
	return false
}

// isPlatformHost: localhost, IPs, dominios base y "<reservado>.<base>".
func (r *Resolver) isPlatformHost(host string) bool {
	if host == "localhost" || strings.HasSuffix(host, ".localhost") || isIP(host) {
		return true
	}
	for _, base := range r.bases {
		if host == base {
			return true
		}
		if label, ok := strings.CutSuffix(host, "."+base); ok {
			if _, reserved := r.reserved[label]; reserved {
				return true
			}
		}
	}
	return false
}

// subdomainOf devuelve el slug si host es "<slug>.<base>" con slug de una sola etiqueta.
func (r *Resolver) subdomainOf(host string) (string, bool) {
	for _, base := range r.bases {
		label, ok := strings.CutSuffix(host, "."+base)
		if ok && label != "" && !strings.Contains(label, ".") {
			return label, true
		}
	}
	return "", false
}

// do comparte la consulta entre callers concurrentes con la misma clave.
// La consulta compartida no depende de la cancelación del primer caller; cada
// caller deja de esperar cuando su propio ctx termina.
func (r *Resolver) do(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	ch := r.group.DoChan(key, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		return fn(lctx)
	})
	select {
	case res := <-ch:
		if res.Shared {
			logger.From(ctx).Debug("lookup shared", zap.String("key", keyKind(key)))
		}
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// keyKind evita loguear el email en claro.
func keyKind(key string) string {
	kind, _, _ := strings.Cut(key, ":")
	return kind
}
