package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/yourusername/session-gate/internal/user"
)

// 利用者の入力に起因する認証失敗です。フラッシュメッセージとして扱い、システムエラーにはしません。
var (
	ErrMissingCredentials = errors.New("missing credentials")
	ErrUnknownUser        = errors.New("unknown user")
	ErrWrongPassword      = errors.New("wrong password")
	ErrDuplicateEmail     = errors.New("duplicate email")
)

// Strategy はメールアドレスとパスワードによるローカル認証を行います。
type Strategy struct {
	users  user.Store
	hasher *Hasher
}

// NewStrategy は Strategy を作成します。
func NewStrategy(users user.Store, hasher *Hasher) *Strategy {
	return &Strategy{users: users, hasher: hasher}
}

// Authenticate はユーザーを検索し、パスワードを検証します。
// 入力起因の失敗は ErrMissingCredentials / ErrUnknownUser / ErrWrongPassword を返します。
func (s *Strategy) Authenticate(ctx context.Context, email, password string) (*user.User, error) {
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUnknownUser
		}
		return nil, fmt.Errorf("auth: lookup user: %w", err)
	}

	ok, err := s.hasher.Verify(password, u.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("auth: verify user %s: %w", u.ID, err)
	}
	if !ok {
		return nil, ErrWrongPassword
	}
	return u, nil
}

// IsCredentialError は err が利用者の入力に起因する失敗かを返します。
func IsCredentialError(err error) bool {
	return errors.Is(err, ErrMissingCredentials) ||
		errors.Is(err, ErrUnknownUser) ||
		errors.Is(err, ErrWrongPassword) ||
		errors.Is(err, ErrDuplicateEmail)
}

// FlashMessage は入力起因の失敗を画面表示用の文言に変換します。
func FlashMessage(err error) string {
	switch {
	case errors.Is(err, ErrMissingCredentials):
		return "メールアドレスとパスワードを入力してください。"
	case errors.Is(err, ErrUnknownUser):
		return "そのメールアドレスのユーザーは登録されていません。"
	case errors.Is(err, ErrWrongPassword):
		return "パスワードが正しくありません。"
	case errors.Is(err, ErrDuplicateEmail):
		return "このメールアドレスは既に登録されています。"
	default:
		return "認証に失敗しました。"
	}
}
