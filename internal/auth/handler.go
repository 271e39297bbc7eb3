package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Home は GET / のハンドラーです。RequireAuthenticated の後ろに置きます。
func (m *Manager) Home(c *gin.Context) {
	u, ok := Principal(c)
	if !ok {
		c.Redirect(http.StatusFound, LoginPath)
		return
	}
	c.HTML(http.StatusOK, "index.html", gin.H{
		"name": u.Name,
	})
}

// ShowLogin は GET /login のハンドラーです。
func (m *Manager) ShowLogin(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{
		"messages": m.sessions.Flashes(c),
	})
}

// ShowRegister は GET /register のハンドラーです。
func (m *Manager) ShowRegister(c *gin.Context) {
	c.HTML(http.StatusOK, "register.html", gin.H{
		"messages": m.sessions.Flashes(c),
	})
}

func renderError(c *gin.Context, status int) {
	c.HTML(status, "error.html", gin.H{
		"status":  status,
		"message": http.StatusText(status),
	})
	c.Abort()
}
