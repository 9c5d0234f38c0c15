package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	authDomain "huntclub/internal/domain/auth"
	authinfra "huntclub/internal/infrastructure/auth"
)

// ErrUserNotFound 查無使用者。
var ErrUserNotFound = authDomain.ErrUserNotFound

// UserRepo 提供使用者與角色的讀取；帳號管理不在本服務範圍內。
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo 建立 UserRepo。
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// FindByName 依帳號名稱查詢使用者。
func (r *UserRepo) FindByName(ctx context.Context, userName string) (authDomain.User, error) {
	const q = `
SELECT id, user_name, password_hash, status
FROM users
WHERE user_name = $1
LIMIT 1;
`
	return r.scanUser(r.db.QueryRowContext(ctx, q, userName))
}

// FindByID 依 ID 查詢使用者。
func (r *UserRepo) FindByID(ctx context.Context, id string) (authDomain.User, error) {
	const q = `
SELECT id, user_name, password_hash, status
FROM users
WHERE id = $1
LIMIT 1;
`
	return r.scanUser(r.db.QueryRowContext(ctx, q, id))
}

func (r *UserRepo) scanUser(row *sql.Row) (authDomain.User, error) {
	var u authDomain.User
	var status string
	if err := row.Scan(&u.ID, &u.UserName, &u.Password, &status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return authDomain.User{}, ErrUserNotFound
		}
		return authDomain.User{}, err
	}
	u.Status = authDomain.Status(status)
	return u, nil
}

// ListRoles 列出使用者所有角色，依名稱排序。
func (r *UserRepo) ListRoles(ctx context.Context, userID string) ([]authDomain.Role, error) {
	const q = `
SELECT r.name
FROM user_roles ur
JOIN roles r ON ur.role_id = r.id
WHERE ur.user_id = $1
ORDER BY r.name;
`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []authDomain.Role
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		roles = append(roles, authDomain.Role(name))
	}
	return roles, rows.Err()
}

// SeedDefaults 建立預設角色與帳號（jonas/anna）。
func (r *UserRepo) SeedDefaults(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	roleIDs := map[authDomain.Role]string{}
	for _, role := range []authDomain.Role{authDomain.RoleAdmin, authDomain.RoleHuntLeader, authDomain.RoleMember} {
		id, err := upsertRoleTx(ctx, tx, string(role))
		if err != nil {
			return err
		}
		roleIDs[role] = id
	}

	users := []struct {
		name  string
		roles []authDomain.Role
	}{
		{"jonas", []authDomain.Role{authDomain.RoleAdmin, authDomain.RoleHuntLeader}},
		{"anna", []authDomain.Role{authDomain.RoleMember}},
	}
	for _, u := range users {
		hash, err := authinfra.HashPassword("password123")
		if err != nil {
			return err
		}
		uid, err := upsertUserTx(ctx, tx, u.name, hash)
		if err != nil {
			return err
		}
		for _, role := range u.roles {
			if err := attachRoleTx(ctx, tx, uid, roleIDs[role]); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

func upsertRoleTx(ctx context.Context, tx *sql.Tx, name string) (string, error) {
	const q = `
INSERT INTO roles (name, description)
VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description
RETURNING id;
`
	var id string
	if err := tx.QueryRowContext(ctx, q, name, fmt.Sprintf("system role %s", name)).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

// 衝突時只做 no-op 更新以取回 id，既有帳號的密碼與狀態保持不變。
const upsertUserSQL = `
INSERT INTO users (user_name, password_hash, status)
VALUES ($1, $2, 'active')
ON CONFLICT (user_name) DO UPDATE SET user_name = EXCLUDED.user_name
RETURNING id;
`

func upsertUserTx(ctx context.Context, tx *sql.Tx, name, passwordHash string) (string, error) {
	var id string
	if err := tx.QueryRowContext(ctx, upsertUserSQL, name, passwordHash).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func attachRoleTx(ctx context.Context, tx *sql.Tx, userID, roleID string) error {
	const q = `
INSERT INTO user_roles (user_id, role_id)
VALUES ($1, $2)
ON CONFLICT (user_id, role_id) DO NOTHING;
`
	_, err := tx.ExecContext(ctx, q, userID, roleID)
	return err
}
