package authinfra

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"huntclub/internal/domain/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var errNotAccessToken = errors.New("not an access token")

// TokenConfig 為程序啟動時固定的簽章設定。
type TokenConfig struct {
	Secret   string
	Issuer   string
	Audience string
}

// TokenIssuer 產生/驗證 access 與 refresh JWT，不存取任何儲存層。
type TokenIssuer struct {
	cfg    TokenConfig
	secret []byte
	now    func() time.Time
}

// accessClaims 定義 access token 的 payload。
type accessClaims struct {
	Name  string   `json:"name"`
	Roles []string `json:"role"`
	jwt.RegisteredClaims
}

// refreshClaims 定義 refresh token 的 payload。
type refreshClaims struct {
	SessionID string `json:"SessionId"`
	jwt.RegisteredClaims
}

// NewTokenIssuer 建立 JWT 簽發器；設定不完整時回傳錯誤。
func NewTokenIssuer(cfg TokenConfig) (*TokenIssuer, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("token secret is required")
	}
	if strings.TrimSpace(cfg.Issuer) == "" {
		return nil, errors.New("token issuer is required")
	}
	if strings.TrimSpace(cfg.Audience) == "" {
		return nil, errors.New("token audience is required")
	}
	return &TokenIssuer{
		cfg:    cfg,
		secret: []byte(cfg.Secret),
		now:    time.Now,
	}, nil
}

// WithClock 回傳使用指定時鐘的副本，主要供測試。
func (t *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	cp := *t
	cp.now = now
	return &cp
}

// CreateAccessToken 產生 20 分鐘有效的 access token，每個角色一筆 role claim。
func (t *TokenIssuer) CreateAccessToken(userName, userID string, roles []auth.Role) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(auth.AccessTokenTTL)
	claims := accessClaims{
		Name:             userName,
		Roles:            auth.RoleNames(roles),
		RegisteredClaims: t.registered(userID, now, exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, exp, nil
}

// CreateRefreshToken 產生綁定 session 的 refresh token，到期時間由呼叫端決定。
func (t *TokenIssuer) CreateRefreshToken(sessionID, userID string, expiresAt time.Time) (string, error) {
	claims := refreshClaims{
		SessionID:        sessionID,
		RegisteredClaims: t.registered(userID, t.now(), expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign refresh token: %w", err)
	}
	return signed, nil
}

// TryParseRefreshToken 驗證簽章、issuer、audience 與到期時間；任何失敗都只回傳 ok=false。
func (t *TokenIssuer) TryParseRefreshToken(token string) (auth.RefreshClaims, bool) {
	if strings.TrimSpace(token) == "" {
		return auth.RefreshClaims{}, false
	}
	var claims refreshClaims
	if err := t.parse(token, &claims); err != nil {
		return auth.RefreshClaims{}, false
	}
	return auth.RefreshClaims{
		SessionID: claims.SessionID,
		UserID:    claims.Subject,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, true
}

// ParseAccessToken 驗證並解析 access token；refresh token 沒有 name claim，會被拒絕。
func (t *TokenIssuer) ParseAccessToken(token string) (auth.AccessClaims, error) {
	var claims accessClaims
	if err := t.parse(token, &claims); err != nil {
		return auth.AccessClaims{}, err
	}
	if claims.Name == "" {
		return auth.AccessClaims{}, errNotAccessToken
	}
	roles := make([]auth.Role, 0, len(claims.Roles))
	for _, r := range claims.Roles {
		roles = append(roles, auth.Role(r))
	}
	return auth.AccessClaims{
		UserID:    claims.Subject,
		UserName:  claims.Name,
		TokenID:   claims.ID,
		Roles:     roles,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (t *TokenIssuer) registered(subject string, now, exp time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		Issuer:    t.cfg.Issuer,
		Audience:  jwt.ClaimStrings{t.cfg.Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
}

func (t *TokenIssuer) parse(token string, claims jwt.Claims) error {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.cfg.Issuer),
		jwt.WithAudience(t.cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	tkn, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil {
		return err
	}
	if !tkn.Valid {
		return errors.New("invalid token")
	}
	return nil
}
