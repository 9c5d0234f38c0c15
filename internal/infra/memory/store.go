package memory

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	authDomain "huntclub/internal/domain/auth"
	authinfra "huntclub/internal/infrastructure/auth"
)

// ErrUserNotFound 查無使用者。
var ErrUserNotFound = authDomain.ErrUserNotFound

// Store 為開發與測試使用的記憶體資料庫，提供使用者查詢與 SessionStore 實作；併發安全。
type Store struct {
	mu       sync.RWMutex
	users    map[string]authDomain.User
	byName   map[string]string // user name -> id
	roles    map[string][]authDomain.Role
	sessions map[string]authDomain.Session
	idSeq    int64
	now      func() time.Time
}

// NewStore 建立新的記憶體 Store 實例。
func NewStore() *Store {
	return &Store{
		users:    make(map[string]authDomain.User),
		byName:   make(map[string]string),
		roles:    make(map[string][]authDomain.Role),
		sessions: make(map[string]authDomain.Session),
		now:      time.Now,
	}
}

// SetClock 替換判斷 session 過期所用的時鐘，供測試。
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// ID generator (simple incremental).
func (s *Store) nextID() string {
	s.idSeq++
	return fmt.Sprintf("user-%d", s.idSeq)
}

// SeedUsers 建立預設帳號供登入測試。
func (s *Store) SeedUsers() {
	s.seedUsers(authinfra.HashPassword)
}

func (s *Store) seedUsers(hash func(string) (string, error)) {
	seeds := []struct {
		name  string
		roles []authDomain.Role
	}{
		{"jonas", []authDomain.Role{authDomain.RoleAdmin, authDomain.RoleHuntLeader}},
		{"anna", []authDomain.Role{authDomain.RoleMember}},
	}
	for _, u := range seeds {
		h, err := hash("password123")
		if err != nil {
			log.Printf("[Auth] seed user %s skipped: %v", u.name, err)
			continue
		}
		s.AddUser(u.name, h, u.roles...)
	}
}

// AddUser 新增啟用中的使用者並回傳其 ID；password 需為雜湊值。
func (s *Store) AddUser(userName, password string, roles ...authDomain.Role) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID()
	s.users[id] = authDomain.User{
		ID:       id,
		UserName: userName,
		Status:   authDomain.StatusActive,
		Password: password,
	}
	s.byName[userName] = id
	s.roles[id] = append([]authDomain.Role(nil), roles...)
	return id
}

// SetUserStatus 變更帳號狀態。
func (s *Store) SetUserStatus(id string, status authDomain.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.Status = status
		s.users[id] = u
	}
}

// UserRepository impl
// FindByName 依帳號名稱查詢使用者。
func (s *Store) FindByName(ctx context.Context, userName string) (authDomain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byName[userName]
	if !ok {
		return authDomain.User{}, ErrUserNotFound
	}
	return s.users[id], nil
}

// FindByID 依 ID 查詢使用者。
func (s *Store) FindByID(ctx context.Context, id string) (authDomain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return authDomain.User{}, ErrUserNotFound
	}
	return u, nil
}

// ListRoles 列出使用者角色。
func (s *Store) ListRoles(ctx context.Context, userID string) ([]authDomain.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.users[userID]; !ok {
		return nil, ErrUserNotFound
	}
	return append([]authDomain.Role(nil), s.roles[userID]...), nil
}

// SessionStore impl
func (s *Store) CreateSession(ctx context.Context, id, userID, refreshToken string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[id]; exists {
		return authDomain.ErrSessionConflict
	}
	s.sessions[id] = authDomain.Session{
		ID:               id,
		UserID:           userID,
		LastRefreshToken: refreshToken,
		ExpiresAt:        expiresAt,
		InitiatedAt:      s.now(),
	}
	return nil
}

func (s *Store) IsSessionValid(ctx context.Context, id, refreshToken string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return false, nil
	}
	return sess.Accepts(refreshToken, s.now()), nil
}

func (s *Store) ExtendSession(ctx context.Context, id, previous, next string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || !sess.Accepts(previous, s.now()) {
		return authDomain.ErrStaleRefreshToken
	}
	sess.LastRefreshToken = next
	sess.ExpiresAt = expiresAt
	s.sessions[id] = sess
	return nil
}

func (s *Store) InvalidateSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	sess.IsRevoked = true
	s.sessions[id] = sess
	return nil
}

// Session 回傳 session 快照，主要用於測試與健康檢查。
func (s *Store) Session(id string) (authDomain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// SessionCount 回傳目前保存的 session 數量。
func (s *Store) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
