package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	authDomain "huntclub/internal/domain/auth"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

var fixedNow = time.Date(2025, 10, 1, 8, 0, 0, 0, time.UTC)

func newSessionRepo(t *testing.T) (*SessionRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %s", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSessionRepo(db).WithClock(func() time.Time { return fixedNow }), mock
}

func TestSessionRepo_CreateSession(t *testing.T) {
	repo, mock := newSessionRepo(t)
	exp := fixedNow.Add(authDomain.SessionTTL)

	mock.ExpectExec("INSERT INTO auth_sessions").
		WithArgs("s-1", "u-1", "rt-1", exp, fixedNow).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.CreateSession(context.Background(), "s-1", "u-1", "rt-1", exp); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestSessionRepo_CreateSessionConflict(t *testing.T) {
	for name, dbErr := range map[string]error{
		"pgx": &pgconn.PgError{Code: "23505"},
		"pq":  &pq.Error{Code: "23505"},
	} {
		t.Run(name, func(t *testing.T) {
			repo, mock := newSessionRepo(t)
			mock.ExpectExec("INSERT INTO auth_sessions").WillReturnError(dbErr)

			err := repo.CreateSession(context.Background(), "s-1", "u-1", "rt-1", fixedNow.Add(time.Hour))
			if !errors.Is(err, authDomain.ErrSessionConflict) {
				t.Fatalf("expected ErrSessionConflict, got %v", err)
			}
		})
	}
}

func TestSessionRepo_CreateSessionOtherError(t *testing.T) {
	repo, mock := newSessionRepo(t)
	mock.ExpectExec("INSERT INTO auth_sessions").WillReturnError(errors.New("connection refused"))

	err := repo.CreateSession(context.Background(), "s-1", "u-1", "rt-1", fixedNow.Add(time.Hour))
	if err == nil || errors.Is(err, authDomain.ErrSessionConflict) {
		t.Fatalf("expected raw error, got %v", err)
	}
}

func TestSessionRepo_IsSessionValid(t *testing.T) {
	cols := []string{"id", "user_id", "last_refresh_token", "expires_at", "initiated_at", "is_revoked"}
	tests := []struct {
		name      string
		token     string
		expiresAt time.Time
		revoked   bool
		want      bool
	}{
		{"Match", "rt-1", fixedNow.Add(time.Hour), false, true},
		{"Mismatch", "rt-other", fixedNow.Add(time.Hour), false, false},
		{"Expired", "rt-1", fixedNow, false, false},
		{"Revoked", "rt-1", fixedNow.Add(time.Hour), true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newSessionRepo(t)
			mock.ExpectQuery("SELECT (.+) FROM auth_sessions").
				WithArgs("s-1").
				WillReturnRows(sqlmock.NewRows(cols).AddRow("s-1", "u-1", "rt-1", tt.expiresAt, fixedNow.Add(-time.Hour), tt.revoked))

			ok, err := repo.IsSessionValid(context.Background(), "s-1", tt.token)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok != tt.want {
				t.Errorf("expected %v, got %v", tt.want, ok)
			}
		})
	}
}

func TestSessionRepo_IsSessionValidMissing(t *testing.T) {
	repo, mock := newSessionRepo(t)
	mock.ExpectQuery("SELECT (.+) FROM auth_sessions").
		WithArgs("s-404").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	ok, err := repo.IsSessionValid(context.Background(), "s-404", "rt-1")
	if err != nil || ok {
		t.Fatalf("expected (false, nil), got (%v, %v)", ok, err)
	}
}

func TestSessionRepo_ExtendSession(t *testing.T) {
	exp := fixedNow.Add(authDomain.SessionTTL)

	t.Run("Swapped", func(t *testing.T) {
		repo, mock := newSessionRepo(t)
		mock.ExpectExec("UPDATE auth_sessions SET last_refresh_token").
			WithArgs("s-1", "rt-1", "rt-2", exp, fixedNow).
			WillReturnResult(sqlmock.NewResult(0, 1))

		if err := repo.ExtendSession(context.Background(), "s-1", "rt-1", "rt-2", exp); err != nil {
			t.Fatalf("ExtendSession failed: %v", err)
		}
	})

	t.Run("Stale", func(t *testing.T) {
		repo, mock := newSessionRepo(t)
		mock.ExpectExec("UPDATE auth_sessions SET last_refresh_token").
			WithArgs("s-1", "rt-old", "rt-2", exp, fixedNow).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.ExtendSession(context.Background(), "s-1", "rt-old", "rt-2", exp)
		if !errors.Is(err, authDomain.ErrStaleRefreshToken) {
			t.Fatalf("expected ErrStaleRefreshToken, got %v", err)
		}
	})
}

func TestSessionRepo_InvalidateSession(t *testing.T) {
	repo, mock := newSessionRepo(t)
	mock.ExpectExec("UPDATE auth_sessions SET is_revoked").
		WithArgs("s-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.InvalidateSession(context.Background(), "s-1"); err != nil {
		t.Fatalf("InvalidateSession failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}
