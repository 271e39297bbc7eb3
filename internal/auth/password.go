package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost は BCRYPT_COST が範囲外の場合に使うコストです。
const DefaultBcryptCost = 10

// bcrypt は72バイトを超える入力を切り詰めるため、それより長いパスワードは拒否する
const maxPasswordBytes = 72

// Hasher は bcrypt によるパスワードのハッシュ化と検証を行います。
type Hasher struct {
	cost int
}

// NewHasher は指定コストの Hasher を作成します。
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &Hasher{cost: cost}
}

// Cost は使用中の bcrypt コストを返します。
func (h *Hasher) Cost() int {
	return h.cost
}

// Hash は平文パスワードをソルト付きでハッシュ化します。
func (h *Hasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > maxPasswordBytes {
		return "", fmt.Errorf("auth: hashing password: %w", bcrypt.ErrPasswordTooLong)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify は平文パスワードが保存済みハッシュと一致するかを返します。
// パスワードの不一致はエラーではなく false を返し、ハッシュ文字列が不正な場合のみエラーになります。
// bcrypt は 72 バイトを超える部分を無視するため、登録できない長さの入力は常に不一致です。
func (h *Hasher) Verify(plaintext, hash string) (bool, error) {
	if len(plaintext) > maxPasswordBytes {
		return false, nil
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("auth: comparing password hash: %w", err)
}
