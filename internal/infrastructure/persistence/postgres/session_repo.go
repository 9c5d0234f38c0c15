package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	authDomain "huntclub/internal/domain/auth"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// SessionRepo 以 auth_sessions 資料表實作 SessionStore。
type SessionRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewSessionRepo 建立 SessionRepo。
func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db, now: time.Now}
}

// WithClock 替換判斷過期用的時鐘。
func (r *SessionRepo) WithClock(now func() time.Time) *SessionRepo {
	cp := *r
	cp.now = now
	return &cp
}

// CreateSession 新增 session；id 重複時回傳 ErrSessionConflict。
func (r *SessionRepo) CreateSession(ctx context.Context, id, userID, refreshToken string, expiresAt time.Time) error {
	const q = `
INSERT INTO auth_sessions (id, user_id, last_refresh_token, expires_at, initiated_at, is_revoked)
VALUES ($1, $2, $3, $4, $5, FALSE);
`
	_, err := r.db.ExecContext(ctx, q, id, userID, refreshToken, expiresAt.UTC(), r.now().UTC())
	if isUniqueViolation(err) {
		return authDomain.ErrSessionConflict
	}
	return err
}

// IsSessionValid 讀取 session 並以常數時間比對 refresh token。
func (r *SessionRepo) IsSessionValid(ctx context.Context, id, refreshToken string) (bool, error) {
	const q = `
SELECT id, user_id, last_refresh_token, expires_at, initiated_at, is_revoked
FROM auth_sessions
WHERE id = $1;
`
	var s authDomain.Session
	err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.UserID, &s.LastRefreshToken, &s.ExpiresAt, &s.InitiatedAt, &s.IsRevoked)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return s.Accepts(refreshToken, r.now()), nil
}

// ExtendSession 僅在保存的 token 仍為 previous 時才寫入 next（compare-and-swap）。
func (r *SessionRepo) ExtendSession(ctx context.Context, id, previous, next string, expiresAt time.Time) error {
	const q = `
UPDATE auth_sessions
SET last_refresh_token = $3, expires_at = $4
WHERE id = $1 AND last_refresh_token = $2 AND NOT is_revoked AND expires_at > $5;
`
	res, err := r.db.ExecContext(ctx, q, id, previous, next, expiresAt.UTC(), r.now().UTC())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return authDomain.ErrStaleRefreshToken
	}
	return nil
}

// InvalidateSession 撤銷 session；不存在或已撤銷皆視為成功。
func (r *SessionRepo) InvalidateSession(ctx context.Context, id string) error {
	const q = `UPDATE auth_sessions SET is_revoked = TRUE WHERE id = $1;`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation
	}
	return false
}
