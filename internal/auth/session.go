package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/session-gate/internal/logutil"
	"github.com/yourusername/session-gate/internal/sessionstore"
	"github.com/yourusername/session-gate/internal/user"
)

const (
	SessionCookieName  = "sg_session"
	sessionKeyUser     = "auth_user"
	sessionKeyIssuedAt = "issued_at"
)

// ContextUserKey は、ハンドラー間でログイン済みユーザーを共有するための gin.Context のキーです。
const ContextUserKey = "auth.user"

type principalKey struct{}

// Sessions はセッションへのログイン状態の保存と、リクエストごとのユーザー復元を担います。
//
// セッションは値を変更したハンドラーだけが保存します。空のセッションは保存しません。
type Sessions struct {
	users  user.Store
	maxAge time.Duration
	cookie sessions.Options
	now    func() time.Time
}

// NewSessions は Sessions を作成します。maxAge が 0 の場合は発行からの期限を検査しません。
// cookie はログアウト時に失効させる Cookie の属性です。
func NewSessions(users user.Store, maxAge time.Duration, cookie sessions.Options) *Sessions {
	return &Sessions{
		users:  users,
		maxAge: maxAge,
		cookie: cookie,
		now:    time.Now,
	}
}

// Principal はリクエストに紐づくログイン済みユーザーを返します。
func Principal(c *gin.Context) (*user.User, bool) {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*user.User)
	return u, ok && u != nil
}

// UserFromContext は context.Context からログイン済みユーザーを取り出します。
func UserFromContext(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(principalKey{}).(*user.User)
	return u, ok && u != nil
}

// LoadPrincipal はセッションのユーザーIDからユーザーを復元するミドルウェアを返します。
// 復元できない場合は未ログインとして次へ進みます。
func (s *Sessions) LoadPrincipal() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		id, ok := session.Get(sessionKeyUser).(string)
		if !ok || id == "" {
			c.Next()
			return
		}

		log := logutil.GetOrDefault(c.Request.Context())

		if s.maxAge > 0 {
			issuedAt := readUnix(session.Get(sessionKeyIssuedAt))
			if issuedAt.IsZero() || s.now().Sub(issuedAt) > s.maxAge {
				log.Info().Str("user_id", id).Msg("session expired")
				s.forget(c, session)
				c.Next()
				return
			}
		}

		u, err := s.users.FindByID(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				log.Info().Str("user_id", id).Msg("session refers to unknown user")
				s.forget(c, session)
				c.Next()
				return
			}
			log.Error().Err(err).Str("user_id", id).Msg("failed to restore session user")
			renderError(c, http.StatusInternalServerError)
			return
		}

		c.Set(ContextUserKey, u)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), principalKey{}, u))
		c.Next()
	}
}

// Establish はログイン成功時にユーザーIDをセッションへ保存します。
func (s *Sessions) Establish(c *gin.Context, u *user.User) error {
	if u == nil {
		return errors.New("user is nil")
	}
	session := sessions.Default(c)
	session.Clear()
	session.Set(sessionKeyUser, u.ID)
	session.Set(sessionKeyIssuedAt, s.now().Unix())
	if err := session.Save(); err != nil {
		return err
	}
	c.Set(ContextUserKey, u)
	return nil
}

// Destroy はセッションを破棄し、Cookie を失効させます。
func (s *Sessions) Destroy(c *gin.Context) error {
	if err := sessionstore.Destroy(sessions.Default(c), s.cookie); err != nil {
		return err
	}
	c.Set(ContextUserKey, (*user.User)(nil))
	return nil
}

// AddFlash は次に表示する画面向けのメッセージを保存します。
func (s *Sessions) AddFlash(c *gin.Context, message string) error {
	session := sessions.Default(c)
	session.AddFlash(message)
	return session.Save()
}

// Flashes は保存済みのメッセージを取り出します。取り出したメッセージは削除されます。
func (s *Sessions) Flashes(c *gin.Context) []string {
	session := sessions.Default(c)
	raw := session.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := session.Save(); err != nil {
		log := logutil.GetOrDefault(c.Request.Context())
		log.Error().Err(err).Msg("failed to consume flash messages")
	}
	messages := make([]string, 0, len(raw))
	for _, v := range raw {
		if msg, ok := v.(string); ok {
			messages = append(messages, msg)
		}
	}
	return messages
}

func (s *Sessions) forget(c *gin.Context, session sessions.Session) {
	session.Delete(sessionKeyUser)
	session.Delete(sessionKeyIssuedAt)
	if err := session.Save(); err != nil {
		log := logutil.GetOrDefault(c.Request.Context())
		log.Error().Err(err).Msg("failed to clear stale session")
	}
}

func readUnix(v interface{}) time.Time {
	switch t := v.(type) {
	case int64:
		return time.Unix(t, 0)
	case int:
		return time.Unix(int64(t), 0)
	case float64:
		return time.Unix(int64(t), 0)
	default:
		return time.Time{}
	}
}
