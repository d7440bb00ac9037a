package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"

	"github.com/fortify/fortify-go/internal/model"
)

func newRepoWithMock(t *testing.T) (*UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewUserRepository(db), mock
}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "is_active", "created_at", "updated_at"})
}

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`^INSERT INTO users \(username, email, password_hash, is_active\) VALUES \(\?, \?, \?, \?\)$`).
		WithArgs("alice", "alice@example.com", "hash", true).
		WillReturnResult(sqlmock.NewResult(7, 1))

	u := &model.User{Username: "alice", Email: "alice@example.com", PasswordHash: "hash", IsActive: true}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if u.ID != 7 {
		t.Errorf("Create ID = %d, want 7", u.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_DuplicateKeys(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    error
	}{
		{name: "username", message: "Duplicate entry 'alice' for key 'users.users_username_key'", want: ErrDuplicateUsername},
		{name: "email", message: "Duplicate entry 'a@x.io' for key 'users.users_email_key'", want: ErrDuplicateEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepoWithMock(t)
			mock.ExpectExec(`INSERT INTO users`).
				WillReturnError(&mysql.MySQLError{Number: 1062, Message: tt.message})

			err := repo.Create(context.Background(), &model.User{Username: "alice", Email: "a@x.io"})
			if !errors.Is(err, tt.want) {
				t.Fatalf("Create error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCreate_OtherErrorsPropagate(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	boom := &mysql.MySQLError{Number: 1213, Message: "Deadlock found"}
	mock.ExpectExec(`INSERT INTO users`).WillReturnError(boom)

	err := repo.Create(context.Background(), &model.User{Username: "alice"})
	if !errors.Is(err, boom) {
		t.Fatalf("Create error = %v, want driver error", err)
	}
}

func TestGetByUsername_Found(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT id, username, email, password_hash, is_active, created_at, updated_at FROM users WHERE username = \?`).
		WithArgs("alice").
		WillReturnRows(userRows().AddRow(1, "alice", "alice@example.com", "hash", true, now, now))

	u, err := repo.GetByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetByUsername error: %v", err)
	}
	if u.ID != 1 || u.Username != "alice" || u.Email != "alice@example.com" || !u.IsActive {
		t.Errorf("GetByUsername = %+v", u)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`FROM users WHERE id = \?`).WithArgs(int64(9)).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 9)
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("GetByID error = %v, want ErrUserNotFound", err)
	}
}

func TestGetByID_StoreErrorPropagates(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	boom := errors.New("connection refused")
	mock.ExpectQuery(`FROM users WHERE id = \?`).WillReturnError(boom)

	_, err := repo.GetByID(context.Background(), 1)
	if !errors.Is(err, boom) {
		t.Fatalf("GetByID error = %v, want %v", err, boom)
	}
}

func TestExists(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM users WHERE username = \?\)`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM users WHERE email = \?\)`).
		WithArgs("new@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	taken, err := repo.ExistsByUsername(context.Background(), "alice")
	if err != nil || !taken {
		t.Errorf("ExistsByUsername = %v, %v; want true, nil", taken, err)
	}
	taken, err = repo.ExistsByEmail(context.Background(), "new@example.com")
	if err != nil || taken {
		t.Errorf("ExistsByEmail = %v, %v; want false, nil", taken, err)
	}
}

func TestMigrate(t *testing.T) {
	orig := gooseUp
	t.Cleanup(func() { gooseUp = orig })

	var gotDir string
	gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
		gotDir = dir
		return nil
	}
	if err := Migrate(context.Background(), nil); err != nil {
		t.Fatalf("Migrate error: %v", err)
	}
	if gotDir != "migrations" {
		t.Errorf("Migrate dir = %q, want %q", gotDir, "migrations")
	}

	gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
		return errors.New("lock timeout")
	}
	if err := Migrate(context.Background(), nil); err == nil {
		t.Fatal("Migrate expected error")
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrations.ReadDir("migrations")
	if err != nil {
		t.Fatalf("ReadDir error: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("no embedded migrations")
	}
}
