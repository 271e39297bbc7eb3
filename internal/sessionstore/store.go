// Package sessionstore は設定に応じた gin-contrib/sessions のストアを作成します。
//
// どのストアもセッションの中身はサーバー側に置き、Cookie には署名済みのセッションIDだけを入れます。
package sessionstore

import (
	"encoding/gob"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/memstore"
	sessionredis "github.com/gin-contrib/sessions/redis"
	redigo "github.com/gomodule/redigo/redis"

	"github.com/yourusername/session-gate/internal/config"
)

// redistore は MaxAge <= 0 を削除扱いにするため、未指定時はこの期間を使う
const redisDefaultMaxAge = 24 * 60 * 60

func init() {
	// Redis ストアは gob でシリアライズするため、フラッシュメッセージの型を登録しておく
	gob.Register([]interface{}{})
}

// New は cfg.SessionStore に応じたストアと、その後始末関数を返します。
func New(cfg *config.Config) (sessions.Store, func() error, error) {
	var (
		store   sessions.Store
		closeFn = func() error { return nil }
		options = CookieOptions(cfg)
	)

	switch cfg.SessionStore {
	case config.StoreMemory, "":
		store = memstore.NewStore([]byte(cfg.SessionSecret))
	case config.StoreRedis:
		pool := NewRedisPool(cfg.SessionRedisAddr, cfg.SessionRedisPassword)
		redisStore, err := sessionredis.NewStoreWithPool(pool, []byte(cfg.SessionSecret))
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("failed to create redis session store: %w", err)
		}
		store = redisStore
		closeFn = pool.Close
		if options.MaxAge == 0 {
			options.MaxAge = redisDefaultMaxAge
		}
	default:
		return nil, nil, fmt.Errorf("unsupported session store: %q", cfg.SessionStore)
	}

	store.Options(options)
	return store, closeFn, nil
}

// CookieOptions はセッション Cookie の属性を返します。
func CookieOptions(cfg *config.Config) sessions.Options {
	return sessions.Options{
		Path:     "/",
		MaxAge:   cfg.SessionMaxAgeSeconds,
		HttpOnly: true,
		Secure:   cfg.IsRelease(),
		SameSite: http.SameSiteLaxMode,
	}
}

// NewRedisPool はセッション用の redigo コネクションプールを作成します。
func NewRedisPool(addr, password string) *redigo.Pool {
	return &redigo.Pool{
		MaxIdle:     10,
		IdleTimeout: 240 * time.Second,
		Dial: func() (redigo.Conn, error) {
			opts := []redigo.DialOption{redigo.DialConnectTimeout(5 * time.Second)}
			if password != "" {
				opts = append(opts, redigo.DialPassword(password))
			}
			return redigo.Dial("tcp", addr, opts...)
		},
		TestOnBorrow: func(c redigo.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
}

// Destroy はセッションの値を空にして保存し、続けて Cookie を失効させます。
// 先に空の値で上書きするため、削除を行わないストアでも古い Cookie から値は復元されません。
// 失効用の Cookie は options の属性を引き継ぎ、MaxAge だけを -1 にします。
func Destroy(session sessions.Session, options sessions.Options) error {
	session.Clear()
	if err := session.Save(); err != nil {
		return err
	}
	options.MaxAge = -1
	session.Options(options)
	session.Clear()
	return session.Save()
}
