package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	authDomain "huntclub/internal/domain/auth"

	goredis "github.com/redis/go-redis/v9"
)

const defaultPrefix = "huntclub:session:"

// KEYS[1]=session key; ARGV: user_id, token, expires_ms, initiated_ms, ttl_ms
const createSessionScript = `
if redis.call('EXISTS', KEYS[1]) == 1 then
  return 0
end
redis.call('HSET', KEYS[1], 'user_id', ARGV[1], 'last_refresh_token', ARGV[2], 'expires_at', ARGV[3], 'initiated_at', ARGV[4], 'is_revoked', '0')
redis.call('PEXPIRE', KEYS[1], ARGV[5])
return 1
`

// KEYS[1]=session key; ARGV: previous, next, expires_ms, now_ms, ttl_ms
const extendSessionScript = `
local vals = redis.call('HMGET', KEYS[1], 'last_refresh_token', 'is_revoked', 'expires_at')
if not vals[1] or vals[1] ~= ARGV[1] then
  return 0
end
if vals[2] == '1' then
  return 0
end
if tonumber(vals[3]) <= tonumber(ARGV[4]) then
  return 0
end
redis.call('HSET', KEYS[1], 'last_refresh_token', ARGV[2], 'expires_at', ARGV[3])
redis.call('PEXPIRE', KEYS[1], ARGV[5])
return 1
`

const invalidateSessionScript = `
if redis.call('EXISTS', KEYS[1]) == 1 then
  redis.call('HSET', KEYS[1], 'is_revoked', '1')
end
return 1
`

var (
	createSessionLua     = goredis.NewScript(createSessionScript)
	extendSessionLua     = goredis.NewScript(extendSessionScript)
	invalidateSessionLua = goredis.NewScript(invalidateSessionScript)
)

// SessionStore 以 Redis hash 保存 session，key TTL 跟隨 ExpiresAt；輪替以 Lua 腳本原子執行。
type SessionStore struct {
	client goredis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewSessionStore 建立 SessionStore；prefix 空白時使用預設命名空間。
func NewSessionStore(client goredis.UniversalClient, prefix string) *SessionStore {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &SessionStore{client: client, prefix: prefix, now: time.Now}
}

// WithClock 替換時鐘，供測試。
func (s *SessionStore) WithClock(now func() time.Time) *SessionStore {
	cp := *s
	cp.now = now
	return &cp
}

func (s *SessionStore) key(id string) string {
	return s.prefix + id
}

func (s *SessionStore) ttl(expiresAt time.Time) int64 {
	ms := expiresAt.Sub(s.now()).Milliseconds()
	if ms < 1 {
		ms = 1
	}
	return ms
}

func (s *SessionStore) CreateSession(ctx context.Context, id, userID, refreshToken string, expiresAt time.Time) error {
	res, err := createSessionLua.Run(ctx, s.client, []string{s.key(id)},
		userID, refreshToken, expiresAt.UnixMilli(), s.now().UnixMilli(), s.ttl(expiresAt)).Int()
	if err != nil {
		return err
	}
	if res == 0 {
		return authDomain.ErrSessionConflict
	}
	return nil
}

func (s *SessionStore) IsSessionValid(ctx context.Context, id, refreshToken string) (bool, error) {
	sess, err := s.load(ctx, id)
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return sess.Accepts(refreshToken, s.now()), nil
}

func (s *SessionStore) ExtendSession(ctx context.Context, id, previous, next string, expiresAt time.Time) error {
	res, err := extendSessionLua.Run(ctx, s.client, []string{s.key(id)},
		previous, next, expiresAt.UnixMilli(), s.now().UnixMilli(), s.ttl(expiresAt)).Int()
	if err != nil {
		return err
	}
	if res == 0 {
		return authDomain.ErrStaleRefreshToken
	}
	return nil
}

func (s *SessionStore) InvalidateSession(ctx context.Context, id string) error {
	return invalidateSessionLua.Run(ctx, s.client, []string{s.key(id)}).Err()
}

// load 讀取 session hash；key 不存在時回傳 redis.Nil。
func (s *SessionStore) load(ctx context.Context, id string) (authDomain.Session, error) {
	vals, err := s.client.HGetAll(ctx, s.key(id)).Result()
	if err != nil {
		return authDomain.Session{}, err
	}
	if len(vals) == 0 {
		return authDomain.Session{}, goredis.Nil
	}
	expMs, err := strconv.ParseInt(vals["expires_at"], 10, 64)
	if err != nil {
		return authDomain.Session{}, err
	}
	initMs, _ := strconv.ParseInt(vals["initiated_at"], 10, 64)
	return authDomain.Session{
		ID:               id,
		UserID:           vals["user_id"],
		LastRefreshToken: vals["last_refresh_token"],
		ExpiresAt:        time.UnixMilli(expMs),
		InitiatedAt:      time.UnixMilli(initMs),
		IsRevoked:        vals["is_revoked"] == "1",
	}, nil
}
