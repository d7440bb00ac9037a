package crypto

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenIssuer   = "fortify"
	tokenAudience = "fortify-api"
)

// ErrInvalidToken is the single failure type for token parsing: bad
// signature, malformed structure, expiry, wrong issuer/audience or type.
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenType distinguishes access tokens from refresh tokens.
type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

// Claims represents the JWT claims for fortify authentication.
type Claims struct {
	jwt.RegisteredClaims
	UserID    int64     `json:"user_id"`
	TokenType TokenType `json:"token_type"`
}

// TokenPair is an access/refresh token pair issued together.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenIssuer signs and parses HS256 tokens with fixed lifetimes.
type TokenIssuer struct {
	secret          []byte
	accessLifetime  time.Duration
	refreshLifetime time.Duration
	now             func() time.Time
}

// NewTokenIssuer creates a TokenIssuer.
func NewTokenIssuer(secret string, accessLifetime, refreshLifetime time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:          []byte(secret),
		accessLifetime:  accessLifetime,
		refreshLifetime: refreshLifetime,
		now:             time.Now,
	}
}

// IssuePair creates a fresh access/refresh pair for userID.
func (i *TokenIssuer) IssuePair(userID int64) (TokenPair, error) {
	access, err := i.sign(userID, AccessToken, i.accessLifetime)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := i.sign(userID, RefreshToken, i.refreshLifetime)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// IssueAccess creates a new access token for userID.
func (i *TokenIssuer) IssueAccess(userID int64) (string, error) {
	return i.sign(userID, AccessToken, i.accessLifetime)
}

// ParseAccess validates an access token and returns its claims.
func (i *TokenIssuer) ParseAccess(token string) (*Claims, error) {
	return i.parse(token, AccessToken)
}

// ParseRefresh validates a refresh token and returns its claims.
func (i *TokenIssuer) ParseRefresh(token string) (*Claims, error) {
	return i.parse(token, RefreshToken)
}

func (i *TokenIssuer) sign(userID int64, typ TokenType, lifetime time.Duration) (string, error) {
	now := i.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatInt(userID, 10),
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
		UserID:    userID,
		TokenType: typ,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, nil
}

func (i *TokenIssuer) parse(tokenString string, want TokenType) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
		jwt.WithStrictDecoding(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != want {
		return nil, fmt.Errorf("%w: token type %q, want %q", ErrInvalidToken, claims.TokenType, want)
	}
	if claims.UserID <= 0 {
		return nil, fmt.Errorf("%w: missing user id", ErrInvalidToken)
	}

	return claims, nil
}
