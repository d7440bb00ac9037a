package middleware

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"time"

	"github.com/fortify/fortify-go/internal/crypto"
)

const (
	csrfTokenLength = 32
	csrfCookieAge   = 52 * 7 * 24 * time.Hour
)

// CSRFConfig controls the double-submit cookie.
type CSRFConfig struct {
	CookieName string
	HeaderName string
	Secure     bool
	SameSite   http.SameSite
	Domain     string
	Path       string
}

// CSRF issues and verifies double-submit tokens: the token lives in a cookie
// readable by the frontend, which echoes it back in a header on every unsafe
// request.
type CSRF struct {
	cfg CSRFConfig
}

// NewCSRF creates a CSRF guard. An empty path defaults to "/".
func NewCSRF(cfg CSRFConfig) *CSRF {
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	return &CSRF{cfg: cfg}
}

// Issue generates a fresh token and sets it as the CSRF cookie.
func (c *CSRF) Issue(w http.ResponseWriter) (string, error) {
	token, err := crypto.RandomToken(csrfTokenLength)
	if err != nil {
		return "", fmt.Errorf("generate csrf token: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     c.cfg.CookieName,
		Value:    token,
		Path:     c.cfg.Path,
		Domain:   c.cfg.Domain,
		MaxAge:   int(csrfCookieAge.Seconds()),
		Expires:  time.Now().Add(csrfCookieAge).UTC(),
		Secure:   c.cfg.Secure,
		SameSite: c.cfg.SameSite,
	})
	return token, nil
}

// Protect rejects unsafe requests whose CSRF header does not match the
// CSRF cookie.
func (c *CSRF) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if safeMethod(r.Method) {
			next.ServeHTTP(w, r)
			return
		}

		ck, err := r.Cookie(c.cfg.CookieName)
		header := r.Header.Get(c.cfg.HeaderName)
		if err != nil || ck.Value == "" || header == "" ||
			subtle.ConstantTimeCompare([]byte(ck.Value), []byte(header)) != 1 {
			writeJSONError(w, http.StatusForbidden, msgCSRFTokenIncorrect)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}
