package config

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "mysql", cfg.StoreDriver)
	assert.Equal(t, 5*time.Minute, cfg.AccessLifetime)
	assert.Equal(t, 24*time.Hour, cfg.RefreshLifetime)
	assert.Equal(t, "access_token", cfg.Cookie.AccessName)
	assert.Equal(t, "refresh_token", cfg.Cookie.RefreshName)
	assert.True(t, cfg.Cookie.HTTPOnly)
	assert.False(t, cfg.Cookie.Secure)
	assert.Equal(t, "Lax", cfg.Cookie.SameSite)
	assert.Equal(t, "/", cfg.Cookie.Path)
	assert.True(t, cfg.CSRFEnabled)
	assert.False(t, cfg.TrustProxyHeaders)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_ACCESS_TOKEN_LIFETIME", "10m")
	t.Setenv("JWT_REFRESH_TOKEN_LIFETIME", "72h")
	t.Setenv("JWT_COOKIE_ACCESS_TOKEN_NAME", "at")
	t.Setenv("JWT_COOKIE_SECURE", "true")
	t.Setenv("JWT_COOKIE_SAMESITE", "None")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("TRUST_PROXY_HEADERS", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 10*time.Minute, cfg.AccessLifetime)
	assert.Equal(t, 72*time.Hour, cfg.RefreshLifetime)
	assert.Equal(t, "at", cfg.Cookie.AccessName)
	assert.True(t, cfg.Cookie.Secure)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.TrustProxyHeaders)
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("PORT", "70000")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid port")
}

func TestLoad_MalformedDuration(t *testing.T) {
	t.Setenv("JWT_ACCESS_TOKEN_LIFETIME", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:            8080,
			Env:             "development",
			StoreDriver:     "mysql",
			JWTSecret:       defaultJWTSecret,
			AccessLifetime:  5 * time.Minute,
			RefreshLifetime: time.Hour,
			Cookie: CookieConfig{
				AccessName:  "access_token",
				RefreshName: "refresh_token",
				SameSite:    "Lax",
				Path:        "/",
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid development config", mutate: func(c *Config) {}},
		{name: "memory store", mutate: func(c *Config) { c.StoreDriver = "memory" }},
		{name: "unknown store driver", mutate: func(c *Config) { c.StoreDriver = "postgres" }, wantErr: "invalid STORE_DRIVER"},
		{name: "refresh shorter than access", mutate: func(c *Config) { c.RefreshLifetime = time.Minute }, wantErr: "must not be shorter"},
		{name: "zero access lifetime", mutate: func(c *Config) { c.AccessLifetime = 0 }, wantErr: "must be positive"},
		{name: "same cookie names", mutate: func(c *Config) { c.Cookie.RefreshName = "access_token" }, wantErr: "must differ"},
		{name: "unknown same-site", mutate: func(c *Config) { c.Cookie.SameSite = "sometimes" }, wantErr: "invalid JWT_COOKIE_SAMESITE"},
		{name: "same-site none without secure", mutate: func(c *Config) { c.Cookie.SameSite = "None" }, wantErr: "requires JWT_COOKIE_SECURE"},
		{name: "production with default secret", mutate: func(c *Config) { c.Env = "production" }, wantErr: "must be explicitly set"},
		{name: "production with short secret", mutate: func(c *Config) { c.Env = "production"; c.JWTSecret = "short" }, wantErr: "at least 32 characters"},
		{name: "production with strong secret", mutate: func(c *Config) { c.Env = "production"; c.JWTSecret = strings.Repeat("k", 32) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseSameSite(t *testing.T) {
	mode, err := ParseSameSite("strict")
	require.NoError(t, err)
	assert.Equal(t, http.SameSiteStrictMode, mode)

	mode, err = ParseSameSite("Lax")
	require.NoError(t, err)
	assert.Equal(t, http.SameSiteLaxMode, mode)

	_, err = ParseSameSite("")
	assert.Error(t, err)
}
