package auth

import "time"

const (
	// AccessTokenTTL 為 access token 固定存活時間。
	AccessTokenTTL = 20 * time.Minute
	// SessionTTL 為登入與每次輪替後 session / refresh token 的存活時間。
	SessionTTL = 72 * time.Hour
)

// TokenPair 封裝 access/refresh token。
type TokenPair struct {
	AccessToken   string
	RefreshToken  string
	AccessExpiry  time.Time
	RefreshExpiry time.Time
}

// RefreshClaims 為解析 refresh token 後取得的欄位。
type RefreshClaims struct {
	SessionID string
	UserID    string
	TokenID   string
	ExpiresAt time.Time
}

// AccessClaims 為解析 access token 後取得的欄位。
type AccessClaims struct {
	UserID    string
	UserName  string
	TokenID   string
	Roles     []Role
	ExpiresAt time.Time
}

// HasRole 檢查 access token 是否帶有指定角色。
func (c AccessClaims) HasRole(role Role) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}
