package config

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

const defaultJWTSecret = "dev-secret-change-in-production"

// Config holds all runtime configuration for the API server.
type Config struct {
	Port     int    `env:"PORT" envDefault:"8080"`
	Env      string `env:"ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	StoreDriver string `env:"STORE_DRIVER" envDefault:"mysql"`
	DatabaseDSN string `env:"DATABASE_DSN" envDefault:"root:password@tcp(127.0.0.1:3306)/fortify?parseTime=true"`
	DBMigrate   bool   `env:"DB_MIGRATE" envDefault:"true"`

	JWTSecret       string        `env:"JWT_SECRET" envDefault:"dev-secret-change-in-production"`
	AccessLifetime  time.Duration `env:"JWT_ACCESS_TOKEN_LIFETIME" envDefault:"5m"`
	RefreshLifetime time.Duration `env:"JWT_REFRESH_TOKEN_LIFETIME" envDefault:"24h"`

	Cookie CookieConfig

	CSRFEnabled    bool   `env:"CSRF_ENABLED" envDefault:"true"`
	CSRFCookieName string `env:"CSRF_COOKIE_NAME" envDefault:"csrftoken"`
	CSRFHeaderName string `env:"CSRF_HEADER_NAME" envDefault:"X-CSRFToken"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`

	AuthRateLimitRPS   float64 `env:"AUTH_RATE_LIMIT_RPS" envDefault:"5"`
	AuthRateLimitBurst int     `env:"AUTH_RATE_LIMIT_BURST" envDefault:"10"`

	// TrustProxyHeaders takes the client address from X-Forwarded-For and
	// friends. Only enable it behind a proxy that overwrites those headers.
	TrustProxyHeaders bool `env:"TRUST_PROXY_HEADERS" envDefault:"false"`
}

// CookieConfig is the static attribute set shared by both session cookies.
type CookieConfig struct {
	AccessName  string `env:"JWT_COOKIE_ACCESS_TOKEN_NAME" envDefault:"access_token"`
	RefreshName string `env:"JWT_COOKIE_REFRESH_TOKEN_NAME" envDefault:"refresh_token"`
	HTTPOnly    bool   `env:"JWT_COOKIE_HTTP_ONLY" envDefault:"true"`
	Secure      bool   `env:"JWT_COOKIE_SECURE" envDefault:"false"`
	SameSite    string `env:"JWT_COOKIE_SAMESITE" envDefault:"Lax"`
	Domain      string `env:"JWT_COOKIE_DOMAIN"`
	Path        string `env:"JWT_COOKIE_PATH" envDefault:"/"`
}

// Load parses configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.StoreDriver != "mysql" && c.StoreDriver != "memory" {
		return fmt.Errorf("invalid STORE_DRIVER %q: want mysql or memory", c.StoreDriver)
	}
	if c.AccessLifetime <= 0 || c.RefreshLifetime <= 0 {
		return errors.New("token lifetimes must be positive")
	}
	if c.RefreshLifetime < c.AccessLifetime {
		return errors.New("refresh token lifetime must not be shorter than access token lifetime")
	}
	if c.Cookie.AccessName == "" || c.Cookie.RefreshName == "" {
		return errors.New("cookie names must be set")
	}
	if c.Cookie.AccessName == c.Cookie.RefreshName {
		return errors.New("access and refresh cookie names must differ")
	}

	mode, err := ParseSameSite(c.Cookie.SameSite)
	if err != nil {
		return err
	}
	if mode == http.SameSiteNoneMode && !c.Cookie.Secure {
		return errors.New("JWT_COOKIE_SAMESITE=None requires JWT_COOKIE_SECURE=true")
	}

	if c.Env != "development" {
		if c.JWTSecret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be explicitly set in %q environment", c.Env)
		}
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters long, got %d", len(c.JWTSecret))
		}
	}

	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// ParseSameSite maps the configured same-site name to its http constant.
func ParseSameSite(v string) (http.SameSite, error) {
	switch strings.ToLower(v) {
	case "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("invalid JWT_COOKIE_SAMESITE %q: want Lax, Strict or None", v)
	}
}
