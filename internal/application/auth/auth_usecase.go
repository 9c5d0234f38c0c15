package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"huntclub/internal/domain/auth"

	"github.com/google/uuid"
)

var (
	// ErrInvalidCredentials 帳號不存在、停用或密碼錯誤，對外不加區分。
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidRefreshToken refresh token 格式錯誤、過期、簽章不符或已被輪替/撤銷。
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrUserUnavailable session 仍有效但使用者已不存在或停用。
	ErrUserUnavailable = errors.New("user unavailable")
)

const maxSessionAttempts = 3

// UserRepository 外部使用者儲存：依名稱/ID 查詢與列出角色；查無使用者時回傳 auth.ErrUserNotFound。
type UserRepository interface {
	FindByName(ctx context.Context, userName string) (auth.User, error)
	FindByID(ctx context.Context, id string) (auth.User, error)
	ListRoles(ctx context.Context, userID string) ([]auth.Role, error)
}

// PasswordHasher 驗證密碼。
type PasswordHasher interface {
	Compare(hashed, plain string) bool
}

// TokenIssuer 簽發/驗證 token。
type TokenIssuer interface {
	CreateAccessToken(userName, userID string, roles []auth.Role) (string, time.Time, error)
	CreateRefreshToken(sessionID, userID string, expiresAt time.Time) (string, error)
	TryParseRefreshToken(token string) (auth.RefreshClaims, bool)
}

// Flow 串接登入、session 檢查、refresh 輪替與登出四個流程。
type Flow struct {
	users    UserRepository
	hasher   PasswordHasher
	tokens   TokenIssuer
	sessions auth.SessionStore
	now      func() time.Time
	newID    func() string
}

func NewFlow(users UserRepository, hasher PasswordHasher, tokens TokenIssuer, sessions auth.SessionStore) *Flow {
	return &Flow{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		sessions: sessions,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

type LoginInput struct {
	UserName string
	Password string
}

type LoginResult struct {
	User      auth.User
	Roles     []auth.Role
	SessionID string
	Token     auth.TokenPair
}

// Login 驗證帳密，建立新 session 並簽發 access/refresh token。
func (f *Flow) Login(ctx context.Context, input LoginInput) (LoginResult, error) {
	var out LoginResult
	name := strings.TrimSpace(input.UserName)
	if name == "" || input.Password == "" {
		return out, ErrInvalidCredentials
	}

	user, err := f.users.FindByName(ctx, name)
	if errors.Is(err, auth.ErrUserNotFound) {
		return out, ErrInvalidCredentials
	}
	if err != nil {
		log.Printf("[Auth] login lookup failed user=%s: %v", name, err)
		return out, fmt.Errorf("find user: %w", err)
	}
	if !user.IsActive() || !f.hasher.Compare(user.Password, input.Password) {
		return out, ErrInvalidCredentials
	}
	roles, err := f.users.ListRoles(ctx, user.ID)
	if err != nil {
		return out, fmt.Errorf("list roles: %w", err)
	}

	expiresAt := f.now().Add(auth.SessionTTL)
	var sessionID, refresh string
	for attempt := 1; ; attempt++ {
		sessionID = f.newID()
		refresh, err = f.tokens.CreateRefreshToken(sessionID, user.ID, expiresAt)
		if err != nil {
			return out, fmt.Errorf("create refresh token: %w", err)
		}
		err = f.sessions.CreateSession(ctx, sessionID, user.ID, refresh, expiresAt)
		if err == nil {
			break
		}
		if !errors.Is(err, auth.ErrSessionConflict) || attempt >= maxSessionAttempts {
			return out, fmt.Errorf("create session: %w", err)
		}
		log.Printf("[Session] id collision on attempt %d, retrying", attempt)
	}

	access, accessExp, err := f.tokens.CreateAccessToken(user.UserName, user.ID, roles)
	if err != nil {
		return out, fmt.Errorf("create access token: %w", err)
	}

	out.User = user
	out.Roles = roles
	out.SessionID = sessionID
	out.Token = auth.TokenPair{
		AccessToken:   access,
		RefreshToken:  refresh,
		AccessExpiry:  accessExp,
		RefreshExpiry: expiresAt,
	}
	return out, nil
}

// Validate 唯讀檢查 refresh token 所屬 session 是否仍有效，不做任何輪替。
func (f *Flow) Validate(ctx context.Context, refreshToken string) error {
	_, err := f.checkSession(ctx, refreshToken)
	return err
}

// Refresh 以目前有效的 refresh token 換發新 token 組，並輪替 session 內保存的 token。
func (f *Flow) Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
	claims, err := f.checkSession(ctx, refreshToken)
	if err != nil {
		return auth.TokenPair{}, err
	}

	user, err := f.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, auth.ErrUserNotFound) {
		return auth.TokenPair{}, ErrUserUnavailable
	}
	if err != nil {
		log.Printf("[Auth] refresh user lookup failed session=%s: %v", claims.SessionID, err)
		return auth.TokenPair{}, fmt.Errorf("find user: %w", err)
	}
	if !user.IsActive() {
		return auth.TokenPair{}, ErrUserUnavailable
	}
	roles, err := f.users.ListRoles(ctx, user.ID)
	if err != nil {
		return auth.TokenPair{}, fmt.Errorf("list roles: %w", err)
	}

	// sliding expiry: every rotation restarts the 3 day window
	expiresAt := f.now().Add(auth.SessionTTL)
	access, accessExp, err := f.tokens.CreateAccessToken(user.UserName, user.ID, roles)
	if err != nil {
		return auth.TokenPair{}, fmt.Errorf("create access token: %w", err)
	}
	next, err := f.tokens.CreateRefreshToken(claims.SessionID, user.ID, expiresAt)
	if err != nil {
		return auth.TokenPair{}, fmt.Errorf("create refresh token: %w", err)
	}
	if err := f.sessions.ExtendSession(ctx, claims.SessionID, refreshToken, next, expiresAt); err != nil {
		if errors.Is(err, auth.ErrStaleRefreshToken) {
			log.Printf("[Session] rotation lost race session=%s", claims.SessionID)
			return auth.TokenPair{}, ErrInvalidRefreshToken
		}
		return auth.TokenPair{}, fmt.Errorf("extend session: %w", err)
	}

	return auth.TokenPair{
		AccessToken:   access,
		RefreshToken:  next,
		AccessExpiry:  accessExp,
		RefreshExpiry: expiresAt,
	}, nil
}

// Logout 盡力撤銷 session；任何錯誤只記錄，不回傳給呼叫端。
func (f *Flow) Logout(ctx context.Context, refreshToken string) {
	if refreshToken == "" {
		return
	}
	claims, ok := f.tokens.TryParseRefreshToken(refreshToken)
	if !ok || claims.SessionID == "" {
		log.Printf("[Auth] logout with unusable refresh token, skipping invalidation")
		return
	}
	if err := f.sessions.InvalidateSession(ctx, claims.SessionID); err != nil {
		log.Printf("[Session] invalidate failed session=%s: %v", claims.SessionID, err)
	}
}

func (f *Flow) checkSession(ctx context.Context, refreshToken string) (auth.RefreshClaims, error) {
	claims, ok := f.tokens.TryParseRefreshToken(refreshToken)
	if !ok || claims.SessionID == "" || claims.UserID == "" {
		return auth.RefreshClaims{}, ErrInvalidRefreshToken
	}
	valid, err := f.sessions.IsSessionValid(ctx, claims.SessionID, refreshToken)
	if err != nil {
		log.Printf("[Session] validity check failed session=%s: %v", claims.SessionID, err)
		return auth.RefreshClaims{}, ErrInvalidRefreshToken
	}
	if !valid {
		return auth.RefreshClaims{}, ErrInvalidRefreshToken
	}
	return claims, nil
}
