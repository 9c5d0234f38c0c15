package auth

import "errors"

// ErrUserNotFound 使用者不存在；UserRepository 實作查無資料時必須回傳此錯誤（可包裝）。
var ErrUserNotFound = errors.New("user not found")

// Role 定義俱樂部系統角色。
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleHuntLeader Role = "hunt_leader"
	RoleMember     Role = "member"
)

// Status 定義帳號狀態。
type Status string

const (
	StatusActive   Status = "active"
	StatusDisabled Status = "disabled"
	StatusLocked   Status = "locked"
)

// User 為登入所需的帳號資料，由外部使用者儲存提供。
type User struct {
	ID       string
	UserName string
	Status   Status
	Password string // 雜湊後密碼
}

// Validate 基本欄位檢查。
func (u User) Validate() error {
	if u.ID == "" {
		return errors.New("id is required")
	}
	if u.UserName == "" {
		return errors.New("user name is required")
	}
	if u.Status == "" {
		return errors.New("status is required")
	}
	return nil
}

// IsActive 檢查是否可登入。
func (u User) IsActive() bool {
	return u.Status == StatusActive
}

// RoleNames 將角色轉為字串，供 token claim 使用。
func RoleNames(roles []Role) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, string(r))
	}
	return out
}
