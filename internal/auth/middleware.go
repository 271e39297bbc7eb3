package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireAuthenticated は未ログインのアクセスをログイン画面へリダイレクトするミドルウェアです。
func (m *Manager) RequireAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := Principal(c); ok {
			c.Next()
			return
		}
		c.Redirect(http.StatusFound, LoginPath)
		c.Abort()
	}
}

// RequireAnonymous はログイン済みのアクセスをホーム画面へリダイレクトするミドルウェアです。
func (m *Manager) RequireAnonymous() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := Principal(c); ok {
			c.Redirect(http.StatusFound, HomePath)
			c.Abort()
			return
		}
		c.Next()
	}
}
