package authinfra

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrEmptyPassword 不接受空白密碼。
var ErrEmptyPassword = errors.New("password is empty")

// BcryptHasher 以 bcrypt 雜湊與比對密碼；Cost 為 0 時使用 bcrypt.DefaultCost。
type BcryptHasher struct {
	Cost int
}

// Compare 比對雜湊與明文，任一為空即視為不符。
func (h BcryptHasher) Compare(hashed, plain string) bool {
	if hashed == "" || plain == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}

func (h BcryptHasher) Hash(plain string) (string, error) {
	if plain == "" {
		return "", ErrEmptyPassword
	}
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// HashPassword 供 seed 帳號使用。
func HashPassword(plain string) (string, error) {
	return BcryptHasher{}.Hash(plain)
}
