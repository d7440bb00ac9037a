package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fortify/fortify-go/internal/crypto"
	"github.com/fortify/fortify-go/internal/model"
	"github.com/fortify/fortify-go/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user account is disabled")
)

// Registration field messages.
const (
	MsgEmailTaken       = "Email already registered."
	MsgUsernameTaken    = "Username already taken."
	MsgPasswordMismatch = "Password fields didn't match."
)

// UserStore is the persistence the auth flow needs.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// PasswordHasher hashes new passwords and verifies stored hashes.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
}

// TokenIssuer mints and parses signed session tokens.
type TokenIssuer interface {
	IssuePair(userID int64) (crypto.TokenPair, error)
	IssueAccess(userID int64) (string, error)
	ParseAccess(token string) (*crypto.Claims, error)
	ParseRefresh(token string) (*crypto.Claims, error)
}

// AuthService handles authentication business logic.
type AuthService struct {
	users     UserStore
	hasher    PasswordHasher
	tokens    TokenIssuer
	dummyHash string
}

// NewAuthService creates a new AuthService. It fails if the hasher cannot
// produce the hash verified against for unknown usernames.
func NewAuthService(users UserStore, hasher PasswordHasher, tokens TokenIssuer) (*AuthService, error) {
	// Verified against when the username is unknown so both failure paths cost a hash.
	dummy, err := hasher.Hash("fortify-timing-equalizer")
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}

	return &AuthService{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		dummyHash: dummy,
	}, nil
}

// Register validates the request, collecting every field error, and creates
// the user with a hashed password.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	fields := validateRegisterRequest(req)

	if _, bad := fields["email"]; !bad {
		taken, err := s.users.ExistsByEmail(ctx, req.Email)
		if err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		}
		if taken {
			fields["email"] = MsgEmailTaken
		}
	}

	if _, bad := fields["username"]; !bad {
		taken, err := s.users.ExistsByUsername(ctx, req.Username)
		if err != nil {
			return nil, fmt.Errorf("check username: %w", err)
		}
		if taken {
			fields["username"] = MsgUsernameTaken
		}
	}

	if req.Password != "" {
		if problems := crypto.CheckPasswordStrength(req.Password, req.Username, req.Email); len(problems) > 0 {
			fields["password"] = joinMessages(problems)
		}
	}

	if req.Password != "" && req.ConfirmPassword != "" && req.Password != req.ConfirmPassword {
		fields["confirm_password"] = MsgPasswordMismatch
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		IsActive:     true,
	}

	if err := s.users.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateUsername):
			return nil, &ValidationError{Fields: map[string]string{"username": MsgUsernameTaken}}
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, &ValidationError{Fields: map[string]string{"email": MsgEmailTaken}}
		default:
			return nil, fmt.Errorf("create user: %w", err)
		}
	}

	return user, nil
}

// Authenticate checks a username/password pair. Unknown users, wrong
// passwords and inactive accounts all yield ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			_, _ = s.hasher.Verify(password, s.dummyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	match, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !match || !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// Login authenticates the caller and issues a fresh token pair.
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.User, crypto.TokenPair, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, crypto.TokenPair{}, err
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, crypto.TokenPair{}, err
	}

	return user, pair, nil
}

// Refresh mints a new access token from a valid refresh token. The refresh
// token itself is not rotated. Token failures wrap crypto.ErrInvalidToken.
func (s *AuthService) Refresh(refreshToken string) (string, error) {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return "", err
	}
	return s.tokens.IssueAccess(claims.UserID)
}

// ResolveAccessToken validates an access token and loads its user.
// Token failures wrap crypto.ErrInvalidToken; a vanished user is
// ErrUserNotFound and a deactivated one ErrUserInactive. Store failures are
// returned as-is so callers do not mistake them for auth failures.
func (s *AuthService) ResolveAccessToken(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.tokens.ParseAccess(token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user %d: %w", claims.UserID, err)
	}
	if !user.IsActive {
		return user, ErrUserInactive
	}

	return user, nil
}
