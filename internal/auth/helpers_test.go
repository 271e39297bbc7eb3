package auth

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/session-gate/internal/config"
	"github.com/yourusername/session-gate/internal/httpserver"
	"github.com/yourusername/session-gate/internal/sessionstore"
	"github.com/yourusername/session-gate/internal/user"
	"github.com/yourusername/session-gate/internal/views"
)

// flakyStore は failFindByID が立っている間だけ FindByID を失敗させます。
type flakyStore struct {
	user.Store
	failFindByID atomic.Bool
}

func (s *flakyStore) FindByID(ctx context.Context, id string) (*user.User, error) {
	if s.failFindByID.Load() {
		return nil, io.ErrUnexpectedEOF
	}
	return s.Store.FindByID(ctx, id)
}

type testEnv struct {
	manager *Manager
	users   *user.MemoryStore
	flaky   *flakyStore
	engine  *gin.Engine
}

func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		SessionSecret: "test-secret",
		SessionStore:  config.StoreMemory,
		BcryptCost:    bcrypt.MinCost,
	}
	if mutate != nil {
		mutate(cfg)
	}

	users := user.NewMemoryStore()
	flaky := &flakyStore{Store: users}
	m := NewManager(cfg, flaky)

	store, closeFn, err := sessionstore.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = closeFn() })

	tmpl, err := views.Templates()
	require.NoError(t, err)

	router := gin.New()
	router.SetHTMLTemplate(tmpl)
	router.Use(sessions.Sessions(SessionCookieName, store), m.LoadPrincipal())
	router.GET(HomePath, m.RequireAuthenticated(), m.Home)
	anonymous := router.Group("", m.RequireAnonymous())
	{
		anonymous.GET(LoginPath, m.ShowLogin)
		anonymous.POST(LoginPath, m.Login)
		anonymous.GET(RegisterPath, m.ShowRegister)
		anonymous.POST(RegisterPath, m.Register)
	}
	router.DELETE("/logout", m.Logout)

	return &testEnv{manager: m, users: users, flaky: flaky, engine: router}
}

func (e *testEnv) handler() http.Handler {
	return httpserver.MethodOverride(e.engine)
}

// testClient はレスポンスの Set-Cookie を次のリクエストに引き継ぐクライアントです。
type testClient struct {
	env     *testEnv
	cookies map[string]*http.Cookie
}

func (e *testEnv) client() *testClient {
	return &testClient{env: e, cookies: map[string]*http.Cookie{}}
}

func (c *testClient) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	rec := httptest.NewRecorder()
	c.env.handler().ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return rec
}

// snapshot は現在の Cookie を複製した別クライアントを返します。
func (c *testClient) snapshot() *testClient {
	cp := &testClient{env: c.env, cookies: map[string]*http.Cookie{}}
	for k, v := range c.cookies {
		ck := *v
		cp.cookies[k] = &ck
	}
	return cp
}

func (c *testClient) register(name, email, password string) *httptest.ResponseRecorder {
	return c.do(http.MethodPost, RegisterPath, url.Values{
		"name":     {name},
		"email":    {email},
		"password": {password},
	})
}

func (c *testClient) login(email, password string) *httptest.ResponseRecorder {
	return c.do(http.MethodPost, LoginPath, url.Values{
		"email":    {email},
		"password": {password},
	})
}

func (c *testClient) logout() *httptest.ResponseRecorder {
	return c.do(http.MethodPost, "/logout?_method=DELETE", nil)
}

func location(rec *httptest.ResponseRecorder) string {
	return rec.Header().Get("Location")
}
