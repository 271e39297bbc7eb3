package user

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore は登録順を保持するスライスにユーザーを保存します。
// プロセスを再起動すると内容は失われます。
type MemoryStore struct {
	mu    sync.RWMutex
	users []User
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore は空の MemoryStore を作成します。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// FindByEmail は登録順に走査し、最初に一致したユーザーを返します。
func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.users {
		if s.users[i].Email == email {
			u := s.users[i]
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

// FindByID はIDが一致するユーザーを返します。
func (s *MemoryStore) FindByID(_ context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.users {
		if s.users[i].ID == id {
			u := s.users[i]
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

// Insert はユーザーを末尾に追加します。
func (s *MemoryStore) Insert(_ context.Context, u *User) error {
	if u == nil {
		return fmt.Errorf("user is nil")
	}
	if u.ID == "" {
		return fmt.Errorf("user.ID is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, *u)
	return nil
}

// Len は保存されているユーザー数を返します。
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}
