// Package user はユーザーレコードと、その保存先を抽象化した Store を提供します。
package user

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound は該当するユーザーが存在しないことを表します。
var ErrNotFound = errors.New("user not found")

// User は登録済みユーザーを表します。作成後に変更・削除されることはありません。
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Store はユーザーの永続化層です。
//
// Insert はメールアドレスの重複を検査しません。
// FindByEmail は重複がある場合、最初に登録されたレコードを返します。
type Store interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	Insert(ctx context.Context, u *User) error
}
