package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefija todas las variables de entorno que pisan el YAML.
const EnvPrefix = "SOMA_"

type Config struct {
	App struct {
		// dev | staging | prod
		Env     string `yaml:"env"`
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Server struct {
		Addr              string        `yaml:"addr"`
		ReadTimeout       time.Duration `yaml:"read_timeout"`
		ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
		WriteTimeout      time.Duration `yaml:"write_timeout"`
		IdleTimeout       time.Duration `yaml:"idle_timeout"`
		RequestTimeout    time.Duration `yaml:"request_timeout"`
		ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
		// TrustProxyHeaders: usar X-Forwarded-For / X-Forwarded-Host (detrás de un LB propio).
		TrustProxyHeaders bool `yaml:"trust_proxy_headers"`
	} `yaml:"server"`

	Storage struct {
		// memory | postgres | firestore
		Driver   string `yaml:"driver"`
		Postgres struct {
			DSN      string `yaml:"dsn"`
			MaxConns int    `yaml:"max_conns"`
			MinConns int    `yaml:"min_conns"`
		} `yaml:"postgres"`
		Firestore struct {
			ProjectID       string `yaml:"project_id"`
			CredentialsFile string `yaml:"credentials_file"`
		} `yaml:"firestore"`
	} `yaml:"storage"`

	Tenancy struct {
		BaseDomains        []string      `yaml:"base_domains"`
		ReservedSubdomains []string      `yaml:"reserved_subdomains"`
		LookupTimeout      time.Duration `yaml:"lookup_timeout"`
	} `yaml:"tenancy"`

	Payout struct {
		TokenTTL        time.Duration `yaml:"token_ttl"`
		ConfirmBaseURL  string        `yaml:"confirm_base_url"`
		DefaultCurrency string        `yaml:"default_currency"`
	} `yaml:"payout"`

	Rate struct {
		Enabled     bool          `yaml:"enabled"`
		Driver      string        `yaml:"driver"` // memory | redis
		Window      time.Duration `yaml:"window"`
		MaxRequests int           `yaml:"max_requests"`
		Redis       struct {
			Addr     string `yaml:"addr"`
			DB       int    `yaml:"db"`
			Password string `yaml:"password"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"rate"`

	JWT struct {
		Secret string        `yaml:"secret"`
		Issuer string        `yaml:"issuer"`
		TTL    time.Duration `yaml:"ttl"`
	} `yaml:"jwt"`

	SMTP struct {
		Host               string        `yaml:"host"`
		Port               int           `yaml:"port"`
		Username           string        `yaml:"username"`
		Password           string        `yaml:"password"`
		From               string        `yaml:"from"`
		TLSMode            string        `yaml:"tls_mode"`
		InsecureSkipVerify bool          `yaml:"insecure_skip_verify"`
		Timeout            time.Duration `yaml:"timeout"`
	} `yaml:"smtp"`

	Email struct {
		Driver string `yaml:"driver"` // smtp | log
	} `yaml:"email"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Default devuelve la config con todos los defaults aplicados.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load lee path (si existe), aplica defaults y luego overrides de entorno.
// Un archivo inexistente no es error: se arranca con defaults + env.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// sin archivo
		case err != nil:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	c.applyEnvOverrides()
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// sane defaults
func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.Name == "" {
		c.App.Name = "soma"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.ReadHeaderTimeout == 0 {
		c.Server.ReadHeaderTimeout = 5 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Server.RequestTimeout == 0 {
		c.Server.RequestTimeout = 10 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Tenancy.LookupTimeout == 0 {
		c.Tenancy.LookupTimeout = 5 * time.Second
	}
	if c.Payout.TokenTTL == 0 {
		c.Payout.TokenTTL = 48 * time.Hour
	}
	if c.Payout.ConfirmBaseURL == "" {
		c.Payout.ConfirmBaseURL = "http://localhost:8080"
	}
	c.Payout.DefaultCurrency = strings.ToUpper(strings.TrimSpace(c.Payout.DefaultCurrency))
	if c.Payout.DefaultCurrency == "" {
		c.Payout.DefaultCurrency = "NGN"
	}
	if c.Rate.Driver == "" {
		c.Rate.Driver = "memory"
	}
	if c.Rate.Window == 0 {
		c.Rate.Window = time.Minute
	}
	if c.Rate.MaxRequests == 0 {
		c.Rate.MaxRequests = 60
	}
	if c.Rate.Redis.Prefix == "" {
		c.Rate.Redis.Prefix = "soma:rl:"
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "soma"
	}
	if c.JWT.TTL == 0 {
		c.JWT.TTL = time.Hour
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.Email.Driver == "" {
		c.Email.Driver = "log"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// IsProd indica si corre en producción.
func (c *Config) IsProd() bool { return c.App.Env == "prod" || c.App.Env == "production" }

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(EnvPrefix + key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}
func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides: pisa config.yaml con variables SOMA_*.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("APP_VERSION"); ok {
		c.App.Version = v
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvDur("SERVER_REQUEST_TIMEOUT"); ok {
		c.Server.RequestTimeout = v
	}
	if v, ok := getEnvDur("SERVER_SHUTDOWN_TIMEOUT"); ok {
		c.Server.ShutdownTimeout = v
	}
	if v, ok := getEnvBool("SERVER_TRUST_PROXY_HEADERS"); ok {
		c.Server.TrustProxyHeaders = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = strings.ToLower(v)
	}
	if v, ok := getEnvStr("STORAGE_POSTGRES_DSN"); ok {
		c.Storage.Postgres.DSN = v
	}
	if v, ok := getEnvInt("STORAGE_POSTGRES_MAX_CONNS"); ok {
		c.Storage.Postgres.MaxConns = v
	}
	if v, ok := getEnvStr("STORAGE_FIRESTORE_PROJECT_ID"); ok {
		c.Storage.Firestore.ProjectID = v
	}
	if v, ok := getEnvStr("STORAGE_FIRESTORE_CREDENTIALS_FILE"); ok {
		c.Storage.Firestore.CredentialsFile = v
	}

	// TENANCY
	if v, ok := getEnvCSV("TENANCY_BASE_DOMAINS"); ok {
		c.Tenancy.BaseDomains = v
	}
	if v, ok := getEnvCSV("TENANCY_RESERVED_SUBDOMAINS"); ok {
		c.Tenancy.ReservedSubdomains = v
	}

	// PAYOUT
	if v, ok := getEnvDur("PAYOUT_TOKEN_TTL"); ok {
		c.Payout.TokenTTL = v
	}
	if v, ok := getEnvStr("PAYOUT_CONFIRM_BASE_URL"); ok {
		c.Payout.ConfirmBaseURL = v
	}
	if v, ok := getEnvStr("PAYOUT_DEFAULT_CURRENCY"); ok {
		c.Payout.DefaultCurrency = strings.ToUpper(v)
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvStr("RATE_DRIVER"); ok {
		c.Rate.Driver = strings.ToLower(v)
	}
	if v, ok := getEnvDur("RATE_WINDOW"); ok {
		c.Rate.Window = v
	}
	if v, ok := getEnvInt("RATE_MAX_REQUESTS"); ok {
		c.Rate.MaxRequests = v
	}
	if v, ok := getEnvStr("RATE_REDIS_ADDR"); ok {
		c.Rate.Redis.Addr = v
	}
	if v, ok := getEnvStr("RATE_REDIS_PASSWORD"); ok {
		c.Rate.Redis.Password = v
	}

	// JWT
	if v, ok := getEnvStr("JWT_SECRET"); ok {
		c.JWT.Secret = v
	}
	if v, ok := getEnvStr("JWT_ISSUER"); ok {
		c.JWT.Issuer = v
	}
	if v, ok := getEnvDur("JWT_TTL"); ok {
		c.JWT.TTL = v
	}

	// SMTP / EMAIL
	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.SMTP.Port = v
	}
	if v, ok := getEnvStr("SMTP_USERNAME"); ok {
		c.SMTP.Username = v
	}
	if v, ok := getEnvStr("SMTP_PASSWORD"); ok {
		c.SMTP.Password = v
	}
	if v, ok := getEnvStr("SMTP_FROM"); ok {
		c.SMTP.From = v
	}
	if v, ok := getEnvStr("SMTP_TLS_MODE"); ok {
		c.SMTP.TLSMode = strings.ToLower(v)
	}
	if v, ok := getEnvStr("EMAIL_DRIVER"); ok {
		c.Email.Driver = strings.ToLower(v)
	}

	// METRICS / LOG
	if v, ok := getEnvBool("METRICS_ENABLED"); ok {
		c.Metrics.Enabled = v
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
}

// Validate chequea combinaciones inválidas antes de arrancar.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if c.Storage.Postgres.DSN == "" {
			errs = append(errs, errors.New("storage.postgres.dsn is required for driver postgres"))
		}
	case "firestore":
		if c.Storage.Firestore.ProjectID == "" {
			errs = append(errs, errors.New("storage.firestore.project_id is required for driver firestore"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q is not supported", c.Storage.Driver))
	}

	switch c.Rate.Driver {
	case "memory":
	case "redis":
		if c.Rate.Enabled && c.Rate.Redis.Addr == "" {
			errs = append(errs, errors.New("rate.redis.addr is required for driver redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("rate.driver %q is not supported", c.Rate.Driver))
	}
	if c.Rate.Window < 0 || c.Rate.MaxRequests < 0 {
		errs = append(errs, errors.New("rate.window and rate.max_requests must be positive"))
	}

	switch c.Email.Driver {
	case "log":
		if c.IsProd() {
			errs = append(errs, errors.New("email.driver log is not allowed in prod"))
		}
	case "smtp":
		if c.SMTP.Host == "" || c.SMTP.From == "" {
			errs = append(errs, errors.New("smtp.host and smtp.from are required for email driver smtp"))
		}
	default:
		errs = append(errs, fmt.Errorf("email.driver %q is not supported", c.Email.Driver))
	}

	if c.IsProd() && len(c.JWT.Secret) < 32 {
		errs = append(errs, errors.New("jwt.secret must be at least 32 bytes in prod"))
	}
	if !isCurrencyCode(c.Payout.DefaultCurrency) {
		errs = append(errs, fmt.Errorf("payout.default_currency %q must be a 3-letter code", c.Payout.DefaultCurrency))
	}

	return errors.Join(errs...)
}

func isCurrencyCode(c string) bool {
	if len(c) != 3 {
		return false
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
