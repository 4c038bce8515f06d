// Package metrics define los collectors Prometheus del servicio.
// Vive en un paquete propio para que tenant, payout y http lo usen sin ciclos.
// Todas las funciones Record* son no-op hasta que se llama a Register.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once    sync.Once
	initErr error

	// HTTP
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInflight        *prometheus.GaugeVec

	// Dominio
	tenantResolutionsTotal   *prometheus.CounterVec
	tenantResolutionDuration *prometheus.HistogramVec
	withdrawalsRequested     prometheus.Counter
	withdrawalConfirmations  *prometheus.CounterVec
	rateLimitedTotal         *prometheus.CounterVec
)

// Config agrupa dependencias para exponer /metrics.
type Config struct {
	Registry prometheus.Registerer
	Gatherer prometheus.Gatherer
	// PoolStat, si no es nil, expone gauges del pool de Postgres.
	PoolStat func() *pgxpool.Stat
}

// Register inicializa los collectors (una sola vez) y devuelve el handler de /metrics.
func Register(cfg Config) (http.Handler, error) {
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	once.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Número total de requests procesadas",
		}, []string{"method", "route", "status"})

		httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de los requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"})

		httpInflight = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Requests en vuelo por método",
		}, []string{"method"})

		tenantResolutionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "soma_tenant_resolutions_total",
			Help: "Resoluciones de tenant por tipo de señal, estrategia y resultado",
		}, []string{"kind", "strategy", "result"}) // result: hit|miss|invalid|error

		tenantResolutionDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "soma_tenant_resolution_duration_seconds",
			Help:    "Duración de las resoluciones de tenant",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"kind"})

		withdrawalsRequested = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "soma_withdrawals_requested_total",
			Help: "Retiros creados en estado awaiting_confirmation",
		})

		withdrawalConfirmations = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "soma_withdrawal_confirmations_total",
			Help: "Intentos de confirmación de retiros por resultado",
		}, []string{"result"}) // result: confirmed|already_confirmed|unauthorized|expired|conflict|not_found|error

		rateLimitedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "soma_rate_limited_total",
			Help: "Requests rechazadas por rate limit",
		}, []string{"route"})

		for _, c := range []prometheus.Collector{
			httpRequestsTotal, httpRequestDuration, httpInflight,
			tenantResolutionsTotal, tenantResolutionDuration,
			withdrawalsRequested, withdrawalConfirmations, rateLimitedTotal,
		} {
			if err := registerCollector(reg, c); err != nil {
				initErr = err
				return
			}
		}
	})
	if initErr != nil {
		return nil, initErr
	}

	if cfg.PoolStat != nil {
		if err := registerCollector(reg, newPoolCollector(cfg.PoolStat)); err != nil {
			return nil, err
		}
	}

	if cfg.Gatherer != nil {
		return promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}), nil
	}
	return promhttp.Handler(), nil
}

// registerCollector registra el collector en el registry indicado, ignorando duplicados.
func registerCollector(reg prometheus.Registerer, collector prometheus.Collector) error {
	if err := reg.Register(collector); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}

// ─── HTTP ───

// InflightInc / InflightDec siguen los requests en vuelo.
func InflightInc(method string) {
	if httpInflight != nil {
		httpInflight.WithLabelValues(method).Inc()
	}
}

func InflightDec(method string) {
	if httpInflight != nil {
		httpInflight.WithLabelValues(method).Dec()
	}
}

// ObserveHTTP registra un request terminado. route es el patrón de chi, no el path crudo.
func ObserveHTTP(method, route string, status int, d time.Duration) {
	if httpRequestsTotal == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ─── Dominio ───

// RecordResolution registra una resolución de tenant.
// kind: email|host. strategy vacío para misses y errores.
func RecordResolution(kind, strategy, result string, d time.Duration) {
	if tenantResolutionsTotal == nil {
		return
	}
	if strategy == "" {
		strategy = "none"
	}
	tenantResolutionsTotal.WithLabelValues(kind, strategy, result).Inc()
	tenantResolutionDuration.WithLabelValues(kind).Observe(d.Seconds())
}

func RecordWithdrawalRequested() {
	if withdrawalsRequested != nil {
		withdrawalsRequested.Inc()
	}
}

func RecordConfirmation(result string) {
	if withdrawalConfirmations != nil {
		withdrawalConfirmations.WithLabelValues(result).Inc()
	}
}

func RecordRateLimited(route string) {
	if rateLimitedTotal != nil {
		rateLimitedTotal.WithLabelValues(route).Inc()
	}
}

// ─── pool collector ───

// poolCollector expone gauges del pool de Postgres del document store.
type poolCollector struct {
	stat func() *pgxpool.Stat

	acquiredDesc *prometheus.Desc
	idleDesc     *prometheus.Desc
	totalDesc    *prometheus.Desc
}

func newPoolCollector(stat func() *pgxpool.Stat) *poolCollector {
	return &poolCollector{
		stat:         stat,
		acquiredDesc: prometheus.NewDesc("pg_store_acquired", "Conexiones adquiridas del document store", nil, nil),
		idleDesc:     prometheus.NewDesc("pg_store_idle", "Conexiones inactivas del document store", nil, nil),
		totalDesc:    prometheus.NewDesc("pg_store_total", "Conexiones totales del document store", nil, nil),
	}
}

func (c *poolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.acquiredDesc
	ch <- c.idleDesc
	ch <- c.totalDesc
}

func (c *poolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stat()
	if s == nil {
		return
	}
	ch <- prometheus.MustNewConstMetric(c.acquiredDesc, prometheus.GaugeValue, float64(s.AcquiredConns()))
	ch <- prometheus.MustNewConstMetric(c.idleDesc, prometheus.GaugeValue, float64(s.IdleConns()))
	ch <- prometheus.MustNewConstMetric(c.totalDesc, prometheus.GaugeValue, float64(s.TotalConns()))
}
