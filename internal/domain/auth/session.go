package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"
)

var (
	// ErrSessionConflict 表示 session id 已存在。
	ErrSessionConflict = errors.New("session already exists")
	// ErrStaleRefreshToken 表示輪替時 session 內的 refresh token 已被替換、撤銷或過期。
	ErrStaleRefreshToken = errors.New("refresh token is no longer current")
)

// Session 為一次登入的伺服器端紀錄，保存目前唯一有效的 refresh token。
type Session struct {
	ID               string
	UserID           string
	LastRefreshToken string
	ExpiresAt        time.Time
	InitiatedAt      time.Time
	IsRevoked        bool
}

// Live 檢查 session 是否未撤銷且未過期；ExpiresAt 當下即視為過期。
func (s Session) Live(now time.Time) bool {
	if s.IsRevoked {
		return false
	}
	return s.ExpiresAt.After(now)
}

// Accepts 檢查 session 是否仍存活，且提出的 token 與保存值完全相同。
func (s Session) Accepts(presented string, now time.Time) bool {
	if !s.Live(now) {
		return false
	}
	return TokensEqual(presented, s.LastRefreshToken)
}

// TokensEqual 以固定時間比較兩個 token 字串。
func TokensEqual(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// SessionStore 保存登入 session，是 refresh token 能否撤銷的唯一依據。
type SessionStore interface {
	// CreateSession 新增 session；id 重複時回傳 ErrSessionConflict。
	CreateSession(ctx context.Context, id, userID, refreshToken string, expiresAt time.Time) error
	// IsSessionValid 僅在 session 存在、未撤銷、未過期且 token 完全相同時回傳 true。
	IsSessionValid(ctx context.Context, id, refreshToken string) (bool, error)
	// ExtendSession 以條件更新輪替 refresh token：僅當保存值仍等於 previous 時才寫入，否則回傳 ErrStaleRefreshToken。
	ExtendSession(ctx context.Context, id, previous, next string, expiresAt time.Time) error
	// InvalidateSession 撤銷 session；不存在或已撤銷時也視為成功。
	InvalidateSession(ctx context.Context, id string) error
}
