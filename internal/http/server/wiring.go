// Package server arma las dependencias del servicio y corre el http.Server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	rdb "github.com/redis/go-redis/v9"

	"github.com/somahq/soma/internal/config"
	"github.com/somahq/soma/internal/email"
	healthctrl "github.com/somahq/soma/internal/http/controllers/health"
	tenantctrl "github.com/somahq/soma/internal/http/controllers/tenant"
	withdrawalctrl "github.com/somahq/soma/internal/http/controllers/withdrawal"
	"github.com/somahq/soma/internal/http/router"
	mw "github.com/somahq/soma/internal/http/middlewares"
	healthsvc "github.com/somahq/soma/internal/http/services/health"
	"github.com/somahq/soma/internal/jwt"
	"github.com/somahq/soma/internal/metrics"
	"github.com/somahq/soma/internal/observability/logger"
	"github.com/somahq/soma/internal/payout"
	"github.com/somahq/soma/internal/rate"
	"github.com/somahq/soma/internal/store"
	"github.com/somahq/soma/internal/tenant"
)

// App es el servicio cableado: handler raíz más lo que hay que cerrar al salir.
type App struct {
	Handler http.Handler
	Payouts *payout.Service

	manager *store.Manager
	redis   *rdb.Client
}

// Options permite inyectar dependencias en tests.
type Options struct {
	// Registry para /metrics. nil = prometheus.DefaultRegisterer.
	Registry *prometheus.Registry
	// Mailer reemplaza el sender construido desde la config.
	Mailer email.Sender
}

// Build construye el App desde la config. El document store se abre una
// sola vez (store.Manager) y se inyecta en resolver y payouts.
func Build(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	log := logger.L().With(logger.Component("wiring"))

	manager := store.NewManager(store.Config{
		Driver:          cfg.Storage.Driver,
		DSN:             cfg.Storage.Postgres.DSN,
		MaxConns:        cfg.Storage.Postgres.MaxConns,
		MinConns:        cfg.Storage.Postgres.MinConns,
		ProjectID:       cfg.Storage.Firestore.ProjectID,
		CredentialsFile: cfg.Storage.Firestore.CredentialsFile,
	})
	ds, err := manager.Store(ctx)
	if err != nil {
		return nil, fmt.Errorf("open document store: %w", err)
	}
	app := &App{manager: manager}

	repos := store.NewRepositories(ds, store.WithPlatformDomains(cfg.Tenancy.BaseDomains...))

	resolver := tenant.New(repos.Users, repos.Stores, tenant.Config{
		BaseDomains:        cfg.Tenancy.BaseDomains,
		ReservedSubdomains: cfg.Tenancy.ReservedSubdomains,
		LookupTimeout:      cfg.Tenancy.LookupTimeout,
	})

	mailer := opts.Mailer
	if mailer == nil {
		mailer, err = email.New(email.Config{Driver: cfg.Email.Driver, SMTP: email.SMTPConfig(cfg.SMTP)})
		if err != nil {
			_ = app.Close()
			return nil, err
		}
	}
	app.Payouts = payout.NewService(repos.Withdrawals, repos.Stores, mailer, payout.Config{
		TokenTTL:        cfg.Payout.TokenTTL,
		ConfirmBaseURL:  cfg.Payout.ConfirmBaseURL,
		DefaultCurrency: cfg.Payout.DefaultCurrency,
	})

	// Sin secreto no hay dashboard: POST /api/withdrawals no se registra.
	var auth mw.TokenParser
	if cfg.JWT.Secret != "" {
		issuer, err := jwt.NewIssuer(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		auth = issuer
	} else {
		log.Warn("jwt.secret not set; withdrawal requests are disabled")
	}

	limiter, err := app.buildLimiter(cfg)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		mcfg := metrics.Config{}
		if opts.Registry != nil {
			mcfg.Registry = opts.Registry
			mcfg.Gatherer = opts.Registry
		}
		if ps, ok := ds.(interface{ Stat() *pgxpool.Stat }); ok {
			mcfg.PoolStat = ps.Stat
		}
		metricsHandler, err = metrics.Register(mcfg)
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}

	hdeps := healthsvc.Deps{
		Version:    cfg.App.Version,
		StoreName:  ds.Name(),
		StoreCheck: ds.Ping,
	}
	if app.redis != nil {
		client := app.redis
		hdeps.RedisCheck = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}

	app.Handler = router.New(router.Deps{
		Tenant:            tenantctrl.NewTenantController(resolver, cfg.Server.TrustProxyHeaders),
		Withdrawals:       withdrawalctrl.NewWithdrawalController(app.Payouts),
		Health:            healthctrl.NewHealthController(healthsvc.NewHealthService(hdeps)),
		Auth:              auth,
		RateLimiter:       limiter,
		MetricsHandler:    metricsHandler,
		MetricsPath:       cfg.Metrics.Path,
		RequestTimeout:    cfg.Server.RequestTimeout,
		TrustProxyHeaders: cfg.Server.TrustProxyHeaders,
	})

	log.Info("service wired",
		logger.String("store", ds.Name()),
		logger.Bool("rate_limit", cfg.Rate.Enabled),
		logger.Bool("metrics", metricsHandler != nil),
	)
	return app, nil
}

func (a *App) buildLimiter(cfg *config.Config) (rate.Limiter, error) {
	if !cfg.Rate.Enabled {
		return rate.Noop{}, nil
	}
	switch cfg.Rate.Driver {
	case "redis":
		a.redis = rdb.NewClient(&rdb.Options{
			Addr:     cfg.Rate.Redis.Addr,
			DB:       cfg.Rate.Redis.DB,
			Password: cfg.Rate.Redis.Password,
		})
		return rate.NewRedisLimiter(a.redis, cfg.Rate.Redis.Prefix, cfg.Rate.MaxRequests, cfg.Rate.Window), nil
	case "", "memory":
		return rate.NewMemoryLimiter(cfg.Rate.MaxRequests, cfg.Rate.Window), nil
	default:
		return nil, fmt.Errorf("rate: unknown driver %q", cfg.Rate.Driver)
	}
}

// Close espera los emails en vuelo y cierra redis y el document store.
func (a *App) Close() error {
	if a.Payouts != nil {
		a.Payouts.Wait()
	}
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.manager != nil {
		errs = append(errs, a.manager.Close())
	}
	return errors.Join(errs...)
}
