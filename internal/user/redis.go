package user

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	userKeyPrefix  = "user:"
	emailKeyPrefix = "user:email:"
)

// RedisStore はユーザーを Redis に保存します。
//
// user:<id> に JSON を、user:email:<email> に登録順のIDリストを保持します。
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore は RedisStore を作成します。ttl が 0 の場合は期限なしです。
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		rdb: rdb,
		ttl: ttl,
	}
}

// FindByID はユーザー情報を取得します。
func (s *RedisStore) FindByID(ctx context.Context, id string) (*User, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	data, err := s.rdb.Get(ctx, userKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis: get user %s: %w", id, err)
	}
	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("redis: decode user %s: %w", id, err)
	}
	return &u, nil
}

// FindByEmail はメールアドレスで最初に登録されたユーザーを返します。
func (s *RedisStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	id, err := s.rdb.LIndex(ctx, emailKey(email), 0).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis: lookup email: %w", err)
	}
	return s.FindByID(ctx, id)
}

// Insert はユーザーを保存し、メールアドレスのインデックス末尾にIDを追加します。
func (s *RedisStore) Insert(ctx context.Context, u *User) error {
	if u == nil {
		return fmt.Errorf("user is nil")
	}
	if u.ID == "" {
		return fmt.Errorf("user.ID is required")
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(u)
	if err != nil {
		return err
	}

	tx := s.rdb.TxPipeline()
	tx.Set(ctx, userKey(u.ID), payload, s.ttl)
	tx.RPush(ctx, emailKey(u.Email), u.ID)
	if s.ttl > 0 {
		tx.Expire(ctx, emailKey(u.Email), s.ttl)
	}
	if _, err := tx.Exec(ctx); err != nil {
		return fmt.Errorf("redis: insert user %s: %w", u.ID, err)
	}
	return nil
}

func userKey(id string) string {
	return userKeyPrefix + id
}

func emailKey(email string) string {
	return emailKeyPrefix + email
}
