package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/fortify/fortify-go/internal/model"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrDuplicateEmail    = errors.New("email already exists")
)

const (
	mysqlDuplicateEntry = 1062

	usernameKey = "users_username_key"
	emailKey    = "users_email_key"

	userColumns = `id, username, email, password_hash, is_active, created_at, updated_at`
)

// UserRepository handles user persistence operations.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user and sets the generated ID on the user struct.
// Uniqueness of username and email is enforced by the table's unique keys,
// so concurrent duplicate registrations cannot both succeed.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (username, email, password_hash, is_active) VALUES (?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query, user.Username, user.Email, user.PasswordHash, user.IsActive)
	if err != nil {
		return mapDuplicateEntry(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	user.ID = id
	return nil
}

// GetByUsername retrieves a user by their username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, username))
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// ExistsByUsername reports whether the username is taken.
func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`, username)
}

// ExistsByEmail reports whether the email is already registered.
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`, email)
}

func (r *UserRepository) exists(ctx context.Context, query string, arg any) (bool, error) {
	var found bool
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(&found); err != nil {
		return false, err
	}
	return found, nil
}

func (r *UserRepository) scanOne(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return user, nil
}

// mapDuplicateEntry turns a MySQL 1062 error into the sentinel for the
// violated unique key. Other errors are returned unchanged.
func mapDuplicateEntry(err error) error {
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) || myErr.Number != mysqlDuplicateEntry {
		return err
	}

	switch {
	case strings.Contains(myErr.Message, usernameKey):
		return ErrDuplicateUsername
	case strings.Contains(myErr.Message, emailKey):
		return ErrDuplicateEmail
	default:
		return err
	}
}
