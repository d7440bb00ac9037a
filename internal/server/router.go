// Package server assembles the HTTP routing tree.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fortify/fortify-go/internal/config"
	"github.com/fortify/fortify-go/internal/cookie"
	"github.com/fortify/fortify-go/internal/handler"
	"github.com/fortify/fortify-go/internal/middleware"
	"github.com/fortify/fortify-go/internal/service"
)

// NewRouter wires handlers and middleware for the auth API. ctx bounds the
// lifetime of background work such as rate-limiter cleanup.
func NewRouter(ctx context.Context, cfg *config.Config, svc *service.AuthService, logger *slog.Logger) (http.Handler, error) {
	sameSite, err := config.ParseSameSite(cfg.Cookie.SameSite)
	if err != nil {
		return nil, fmt.Errorf("cookie config: %w", err)
	}

	cookies := cookie.NewCodec(cookie.Config{
		AccessName:    cfg.Cookie.AccessName,
		RefreshName:   cfg.Cookie.RefreshName,
		AccessMaxAge:  cfg.AccessLifetime,
		RefreshMaxAge: cfg.RefreshLifetime,
		HTTPOnly:      cfg.Cookie.HTTPOnly,
		Secure:        cfg.Cookie.Secure,
		SameSite:      sameSite,
		Domain:        cfg.Cookie.Domain,
		Path:          cfg.Cookie.Path,
	})

	csrf := middleware.NewCSRF(middleware.CSRFConfig{
		CookieName: cfg.CSRFCookieName,
		HeaderName: cfg.CSRFHeaderName,
		Secure:     cfg.Cookie.Secure,
		SameSite:   sameSite,
		Domain:     cfg.Cookie.Domain,
	})

	limiter := middleware.NewRateLimiter(ctx, cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst)
	authHandler := handler.NewAuthHandler(svc, cookies, csrf, logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if cfg.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedHeaders:   []string{"Accept", "Content-Type", cfg.CSRFHeaderName},
		AllowCredentials: true,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		if cfg.CSRFEnabled {
			r.Use(csrf.Protect)
		}

		r.Get("/auth/csrf", authHandler.HandleCSRF)

		r.Group(func(r chi.Router) {
			r.Use(limiter.Handler)
			r.Post("/auth/register", authHandler.HandleRegister)
			r.Post("/auth/login", authHandler.HandleLogin)
			r.Post("/auth/refresh", authHandler.HandleRefresh)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(svc, cookies, logger))
			r.Use(middleware.RequireUser)
			r.Post("/auth/logout", authHandler.HandleLogout)
			r.Get("/accounts/current", authHandler.HandleCurrentUser)
		})
	})

	return r, nil
}
