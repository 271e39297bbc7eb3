// Package auth は登録・ログイン・ログアウトと、セッションによるルート保護を提供します。
package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/session-gate/internal/config"
	"github.com/yourusername/session-gate/internal/logutil"
	"github.com/yourusername/session-gate/internal/sessionstore"
	"github.com/yourusername/session-gate/internal/user"
)

// 画面遷移先のパス
const (
	HomePath     = "/"
	LoginPath    = "/login"
	RegisterPath = "/register"
)

// Manager は認証処理と状態をまとめた構造体です。
type Manager struct {
	users              user.Store
	hasher             *Hasher
	strategy           *Strategy
	sessions           *Sessions
	ids                *user.IDGenerator
	enforceUniqueEmail bool
}

// NewManager は認証マネージャーを作成します。
func NewManager(cfg *config.Config, users user.Store) *Manager {
	hasher := NewHasher(cfg.BcryptCost)
	return &Manager{
		users:              users,
		hasher:             hasher,
		strategy:           NewStrategy(users, hasher),
		sessions:           NewSessions(users, time.Duration(cfg.SessionMaxAgeSeconds)*time.Second, sessionstore.CookieOptions(cfg)),
		ids:                user.NewIDGenerator(),
		enforceUniqueEmail: cfg.EnforceUniqueEmail,
	}
}

// LoadPrincipal はセッションからログイン済みユーザーを復元するミドルウェアです。
func (m *Manager) LoadPrincipal() gin.HandlerFunc {
	return m.sessions.LoadPrincipal()
}

type loginForm struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

type registerForm struct {
	Name     string `form:"name" json:"name" binding:"required"`
	Email    string `form:"email" json:"email" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

// Login は POST /login のハンドラーです。
func (m *Manager) Login(c *gin.Context) {
	log := logutil.GetOrDefault(c.Request.Context())

	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		// 読めない入力は未入力として扱う
		form = loginForm{}
	}

	u, err := m.strategy.Authenticate(c.Request.Context(), form.Email, form.Password)
	if err != nil {
		if IsCredentialError(err) {
			log.Info().Str("reason", err.Error()).Msg("login rejected")
			if err := m.sessions.AddFlash(c, FlashMessage(err)); err != nil {
				log.Error().Err(err).Msg("failed to save flash message")
			}
			c.Redirect(http.StatusFound, LoginPath)
			return
		}
		log.Error().Err(err).Msg("login failed")
		renderError(c, http.StatusInternalServerError)
		return
	}

	if err := m.sessions.Establish(c, u); err != nil {
		log.Error().Err(err).Str("user_id", u.ID).Msg("failed to save session")
		renderError(c, http.StatusInternalServerError)
		return
	}

	log.Info().Str("user_id", u.ID).Msg("login succeeded")
	c.Redirect(http.StatusFound, HomePath)
}

// Register は POST /register のハンドラーです。
// 失敗した場合はユーザーを作成せずに登録画面へ戻します。
func (m *Manager) Register(c *gin.Context) {
	ctx := c.Request.Context()
	log := logutil.GetOrDefault(ctx)

	var form registerForm
	if err := c.ShouldBind(&form); err != nil {
		log.Info().Err(err).Msg("registration rejected: invalid form")
		c.Redirect(http.StatusFound, RegisterPath)
		return
	}

	existing, err := m.users.FindByEmail(ctx, form.Email)
	switch {
	case err == nil:
		if m.enforceUniqueEmail {
			log.Info().Str("existing_id", existing.ID).Msg("registration rejected: duplicate email")
			if err := m.sessions.AddFlash(c, FlashMessage(ErrDuplicateEmail)); err != nil {
				log.Error().Err(err).Msg("failed to save flash message")
			}
			c.Redirect(http.StatusFound, RegisterPath)
			return
		}
		// 重複は許容するが、ログイン時に最初の登録しか使われないため警告を残す
		log.Warn().Str("existing_id", existing.ID).Msg("duplicate email registered")
	case errors.Is(err, user.ErrNotFound):
	default:
		log.Error().Err(err).Msg("registration failed: lookup email")
		c.Redirect(http.StatusFound, RegisterPath)
		return
	}

	hash, err := m.hasher.Hash(form.Password)
	if err != nil {
		log.Warn().Err(err).Msg("registration failed: hash password")
		c.Redirect(http.StatusFound, RegisterPath)
		return
	}

	u := &user.User{
		ID:           m.ids.Next(),
		Name:         form.Name,
		Email:        form.Email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := m.users.Insert(ctx, u); err != nil {
		log.Error().Err(err).Msg("registration failed: insert user")
		c.Redirect(http.StatusFound, RegisterPath)
		return
	}

	log.Info().Str("user_id", u.ID).Msg("user registered")
	c.Redirect(http.StatusFound, LoginPath)
}

// Logout は DELETE /logout のハンドラーです。
func (m *Manager) Logout(c *gin.Context) {
	log := logutil.GetOrDefault(c.Request.Context())
	u, _ := Principal(c)

	if err := m.sessions.Destroy(c); err != nil {
		log.Error().Err(err).Msg("failed to destroy session")
		renderError(c, http.StatusInternalServerError)
		return
	}

	if u != nil {
		log.Info().Str("user_id", u.ID).Msg("logout")
	}
	c.Redirect(http.StatusFound, LoginPath)
}
