package config

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Env       string
	Server    ServerConfig
	Postgres  PostgresConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Log       LogConfig
	Form      FormConfig
	Geocode   GeocodeConfig
	Geolocate GeolocateConfig
	RateLimit RateLimitConfig
	S3        S3Config
	NATS      NATSConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `mapstructure:"SERVER_HOST"`
	Port         int           `mapstructure:"SERVER_PORT"`
	ReadTimeout  time.Duration `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"SERVER_WRITE_TIMEOUT"`
	IdleTimeout  time.Duration `mapstructure:"SERVER_IDLE_TIMEOUT"`

	// TrustedProxies lists the addresses or CIDRs of reverse proxies whose
	// X-Forwarded-For and X-Real-IP headers are believed. Empty trusts none.
	TrustedProxies []string `mapstructure:"TRUSTED_PROXIES"`
}

// PostgresConfig holds PostgreSQL connection settings. Postgres stores the
// admin-managed catalog: services, content, form fields and service configs.
type PostgresConfig struct {
	Host     string `mapstructure:"POSTGRES_HOST"`
	Port     int    `mapstructure:"POSTGRES_PORT"`
	User     string `mapstructure:"POSTGRES_USER"`
	Password string `mapstructure:"POSTGRES_PASSWORD"`
	DBName   string `mapstructure:"POSTGRES_DB"`
	SSLMode  string `mapstructure:"POSTGRES_SSLMODE"`
	MaxConns int32  `mapstructure:"POSTGRES_MAX_CONNS"`
	MinConns int32  `mapstructure:"POSTGRES_MIN_CONNS"`

	// StatementTimeout caps every query on the pool's connections.
	StatementTimeout time.Duration `mapstructure:"POSTGRES_STATEMENT_TIMEOUT"`
}

// MongoConfig holds MongoDB settings for the transaction store.
type MongoConfig struct {
	URI      string        `mapstructure:"MONGO_URI"`
	Database string        `mapstructure:"MONGO_DB"`
	Timeout  time.Duration `mapstructure:"MONGO_TIMEOUT"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host     string `mapstructure:"REDIS_HOST"`
	Port     int    `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
	PoolSize int    `mapstructure:"REDIS_POOL_SIZE"`

	// SlowThreshold is the command latency above which a warning is logged.
	SlowThreshold time.Duration `mapstructure:"REDIS_SLOW_THRESHOLD"`
}

// AuthConfig holds admin token settings.
type AuthConfig struct {
	JWTSecret string        `mapstructure:"JWT_SECRET"`
	TokenTTL  time.Duration `mapstructure:"JWT_TTL"`
	Issuer    string        `mapstructure:"JWT_ISSUER"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"`
}

// FormConfig controls how often the booking form registry is refreshed
// and how long it stays in the Redis cache.
type FormConfig struct {
	RefreshInterval time.Duration `mapstructure:"FORM_REFRESH_INTERVAL"`
	CacheTTL        time.Duration `mapstructure:"FORM_CACHE_TTL"`
}

// GeocodeConfig points at a Nominatim-compatible geocoder.
type GeocodeConfig struct {
	BaseURL   string        `mapstructure:"GEOCODE_BASE_URL"`
	UserAgent string        `mapstructure:"GEOCODE_USER_AGENT"`
	Timeout   time.Duration `mapstructure:"GEOCODE_TIMEOUT"`
}

// GeolocateConfig points at the IP geolocation fallback used when a
// booking arrives without device coordinates.
type GeolocateConfig struct {
	BaseURL string        `mapstructure:"GEOLOCATE_BASE_URL"`
	Timeout time.Duration `mapstructure:"GEOLOCATE_TIMEOUT"`
}

// RateLimitConfig limits public write and geocode endpoints per client IP.
type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"RATE_LIMIT_PER_MIN"`
	Burst             int `mapstructure:"RATE_LIMIT_BURST"`
}

// S3Config configures media uploads. Uploads are disabled when Bucket is empty.
type S3Config struct {
	Bucket    string `mapstructure:"S3_BUCKET"`
	Region    string `mapstructure:"S3_REGION"`
	Endpoint  string `mapstructure:"S3_ENDPOINT"`
	PublicURL string `mapstructure:"S3_PUBLIC_URL"`
}

// NATSConfig configures event publishing. Events are dropped when URL is empty.
type NATSConfig struct {
	URL string `mapstructure:"NATS_URL"`
}

// DSN returns the PostgreSQL connection string.
func (p *PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DBName, p.SSLMode,
	)
}

// MigrateURL returns the connection string in the form the pgx5
// migration driver expects.
func (p *PostgresConfig) MigrateURL() string {
	return "pgx5://" + strings.TrimPrefix(p.DSN(), "postgres://")
}

// Addr returns the Redis address in host:port format.
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// ServerAddr returns the HTTP listen address in host:port format.
func (s *ServerConfig) ServerAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// TrustedProxyPrefixes parses TrustedProxies. A bare address is treated as
// a single-host prefix.
func (s *ServerConfig) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(s.TrustedProxies))
	for _, entry := range s.TrustedProxies {
		if strings.Contains(entry, "/") {
			p, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("config: TRUSTED_PROXIES entry %q: %w", entry, err)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("config: TRUSTED_PROXIES entry %q: %w", entry, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// IsProduction reports whether the app runs with ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables and .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	setDefaults(v)

	// Try to read .env file. If it doesn't exist (e.g., inside Docker),
	// env vars injected by docker-compose env_file are used instead.
	_ = v.ReadInConfig()

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	// ── Defaults ────────────────────────────────────────
	v.SetDefault("ENV", "development")

	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_READ_TIMEOUT", "5s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "15s")
	v.SetDefault("SERVER_IDLE_TIMEOUT", "120s")
	v.SetDefault("TRUSTED_PROXIES", "")

	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", 5432)
	v.SetDefault("POSTGRES_USER", "cuss")
	v.SetDefault("POSTGRES_PASSWORD", "cuss_secret")
	v.SetDefault("POSTGRES_DB", "cuss_db")
	v.SetDefault("POSTGRES_SSLMODE", "disable")
	v.SetDefault("POSTGRES_MAX_CONNS", 20)
	v.SetDefault("POSTGRES_MIN_CONNS", 2)
	v.SetDefault("POSTGRES_STATEMENT_TIMEOUT", "5s")

	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DB", "cuss")
	v.SetDefault("MONGO_TIMEOUT", "10s")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_POOL_SIZE", 20)
	v.SetDefault("REDIS_SLOW_THRESHOLD", "50ms")

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", "12h")
	v.SetDefault("JWT_ISSUER", "cuss-purwakarta")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("FORM_REFRESH_INTERVAL", "5s")
	v.SetDefault("FORM_CACHE_TTL", "30s")

	v.SetDefault("GEOCODE_BASE_URL", "https://nominatim.openstreetmap.org")
	v.SetDefault("GEOCODE_USER_AGENT", "cuss-purwakarta/1.0")
	v.SetDefault("GEOCODE_TIMEOUT", "5s")

	v.SetDefault("GEOLOCATE_BASE_URL", "https://ipapi.co")
	v.SetDefault("GEOLOCATE_TIMEOUT", "3s")

	v.SetDefault("RATE_LIMIT_PER_MIN", 60)
	v.SetDefault("RATE_LIMIT_BURST", 10)

	v.SetDefault("S3_BUCKET", "")
	v.SetDefault("S3_REGION", "ap-southeast-1")
	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("S3_PUBLIC_URL", "")

	v.SetDefault("NATS_URL", "")
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{Env: v.GetString("ENV")}

	// ── Server ──────────────────────────────────────────
	cfg.Server = ServerConfig{
		Host:         v.GetString("SERVER_HOST"),
		Port:         v.GetInt("SERVER_PORT"),
		ReadTimeout:  v.GetDuration("SERVER_READ_TIMEOUT"),
		WriteTimeout: v.GetDuration("SERVER_WRITE_TIMEOUT"),
		IdleTimeout:  v.GetDuration("SERVER_IDLE_TIMEOUT"),

		TrustedProxies: splitList(v.GetString("TRUSTED_PROXIES")),
	}

	// ── Postgres ────────────────────────────────────────
	cfg.Postgres = PostgresConfig{
		Host:     v.GetString("POSTGRES_HOST"),
		Port:     v.GetInt("POSTGRES_PORT"),
		User:     v.GetString("POSTGRES_USER"),
		Password: v.GetString("POSTGRES_PASSWORD"),
		DBName:   v.GetString("POSTGRES_DB"),
		SSLMode:  v.GetString("POSTGRES_SSLMODE"),
		MaxConns: v.GetInt32("POSTGRES_MAX_CONNS"),
		MinConns: v.GetInt32("POSTGRES_MIN_CONNS"),

		StatementTimeout: v.GetDuration("POSTGRES_STATEMENT_TIMEOUT"),
	}

	// ── Mongo ───────────────────────────────────────────
	cfg.Mongo = MongoConfig{
		URI:      v.GetString("MONGO_URI"),
		Database: v.GetString("MONGO_DB"),
		Timeout:  v.GetDuration("MONGO_TIMEOUT"),
	}

	// ── Redis ───────────────────────────────────────────
	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
		PoolSize: v.GetInt("REDIS_POOL_SIZE"),

		SlowThreshold: v.GetDuration("REDIS_SLOW_THRESHOLD"),
	}

	// ── Auth / logging ──────────────────────────────────
	cfg.Auth = AuthConfig{
		JWTSecret: v.GetString("JWT_SECRET"),
		TokenTTL:  v.GetDuration("JWT_TTL"),
		Issuer:    v.GetString("JWT_ISSUER"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	// ── Booking form ────────────────────────────────────
	cfg.Form = FormConfig{
		RefreshInterval: v.GetDuration("FORM_REFRESH_INTERVAL"),
		CacheTTL:        v.GetDuration("FORM_CACHE_TTL"),
	}

	// ── External collaborators ──────────────────────────
	cfg.Geocode = GeocodeConfig{
		BaseURL:   v.GetString("GEOCODE_BASE_URL"),
		UserAgent: v.GetString("GEOCODE_USER_AGENT"),
		Timeout:   v.GetDuration("GEOCODE_TIMEOUT"),
	}
	cfg.Geolocate = GeolocateConfig{
		BaseURL: v.GetString("GEOLOCATE_BASE_URL"),
		Timeout: v.GetDuration("GEOLOCATE_TIMEOUT"),
	}
	cfg.RateLimit = RateLimitConfig{
		RequestsPerMinute: v.GetInt("RATE_LIMIT_PER_MIN"),
		Burst:             v.GetInt("RATE_LIMIT_BURST"),
	}
	cfg.S3 = S3Config{
		Bucket:    v.GetString("S3_BUCKET"),
		Region:    v.GetString("S3_REGION"),
		Endpoint:  v.GetString("S3_ENDPOINT"),
		PublicURL: v.GetString("S3_PUBLIC_URL"),
	}
	cfg.NATS = NATSConfig{URL: v.GetString("NATS_URL")}

	return cfg
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		if c.IsProduction() {
			return errors.New("config: JWT_SECRET is required in production")
		}
		c.Auth.JWTSecret = "dev-only-secret"
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("config: JWT_TTL must be positive, got %s", c.Auth.TokenTTL)
	}
	if c.Form.RefreshInterval <= 0 {
		return fmt.Errorf("config: FORM_REFRESH_INTERVAL must be positive, got %s", c.Form.RefreshInterval)
	}
	if c.RateLimit.RequestsPerMinute <= 0 {
		return fmt.Errorf("config: RATE_LIMIT_PER_MIN must be positive, got %d", c.RateLimit.RequestsPerMinute)
	}
	if _, err := c.Server.TrustedProxyPrefixes(); err != nil {
		return err
	}
	return nil
}

// splitList splits a comma-separated env value, dropping blank entries.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
