// Package cookie maps session tokens to and from HTTP cookies.
package cookie

import (
	"net/http"
	"time"

	"github.com/fortify/fortify-go/internal/crypto"
)

// Config is the static attribute set applied to both session cookies.
type Config struct {
	AccessName    string
	RefreshName   string
	AccessMaxAge  time.Duration
	RefreshMaxAge time.Duration
	HTTPOnly      bool
	Secure        bool
	SameSite      http.SameSite
	Domain        string
	Path          string
}

// Codec writes and reads the access/refresh cookie pair.
type Codec struct {
	cfg Config
}

// NewCodec creates a Codec. An empty path defaults to "/".
func NewCodec(cfg Config) *Codec {
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	return &Codec{cfg: cfg}
}

// SetTokenPair attaches both session cookies to the response.
func (c *Codec) SetTokenPair(w http.ResponseWriter, pair crypto.TokenPair) {
	http.SetCookie(w, c.cookie(c.cfg.AccessName, pair.AccessToken, c.cfg.AccessMaxAge))
	http.SetCookie(w, c.cookie(c.cfg.RefreshName, pair.RefreshToken, c.cfg.RefreshMaxAge))
}

// SetAccessToken replaces only the access cookie.
func (c *Codec) SetAccessToken(w http.ResponseWriter, token string) {
	http.SetCookie(w, c.cookie(c.cfg.AccessName, token, c.cfg.AccessMaxAge))
}

// Clear instructs the client to delete both session cookies.
func (c *Codec) Clear(w http.ResponseWriter) {
	for _, name := range []string{c.cfg.AccessName, c.cfg.RefreshName} {
		ck := c.cookie(name, "", 0)
		ck.MaxAge = -1
		ck.Expires = time.Unix(0, 0)
		http.SetCookie(w, ck)
	}
}

// AccessToken returns the access token carried by the request, if any.
func (c *Codec) AccessToken(r *http.Request) (string, bool) {
	return read(r, c.cfg.AccessName)
}

// RefreshToken returns the refresh token carried by the request, if any.
func (c *Codec) RefreshToken(r *http.Request) (string, bool) {
	return read(r, c.cfg.RefreshName)
}

func (c *Codec) cookie(name, value string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     c.cfg.Path,
		Domain:   c.cfg.Domain,
		MaxAge:   int(maxAge.Seconds()),
		Expires:  time.Now().Add(maxAge).UTC(),
		HttpOnly: c.cfg.HTTPOnly,
		Secure:   c.cfg.Secure,
		SameSite: c.cfg.SameSite,
	}
}

func read(r *http.Request, name string) (string, bool) {
	ck, err := r.Cookie(name)
	if err != nil || ck.Value == "" {
		return "", false
	}
	return ck.Value, true
}
