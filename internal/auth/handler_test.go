package auth

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/steinfletcher/apitest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/session-gate/internal/config"
)

func TestAnonymousHomeRedirectsToLogin(t *testing.T) {
	env := newTestEnv(t, nil)

	apitest.New().
		Handler(env.handler()).
		Get(HomePath).
		Expect(t).
		Status(http.StatusFound).
		Header("Location", LoginPath).
		End()
}

func TestAnonymousPagesRender(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, path := range []string{LoginPath, RegisterPath} {
		t.Run(path, func(t *testing.T) {
			apitest.New().
				Handler(env.handler()).
				Get(path).
				Expect(t).
				Status(http.StatusOK).
				HeaderNotPresent("Set-Cookie").
				End()
		})
	}
}

func TestRegisterLoginLogoutFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	c := env.client()

	rec := c.register("Alice", "alice@example.com", "wonderland")
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, LoginPath, location(rec))
	require.Equal(t, 1, env.users.Len())

	stored, err := env.users.FindByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "wonderland", stored.PasswordHash)
	assert.Equal(t, "Alice", stored.Name)

	rec = c.login("alice@example.com", "wonderland")
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, HomePath, location(rec))

	rec = c.do(http.MethodGet, HomePath, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Alice")

	rec = c.logout()
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, LoginPath, location(rec))

	rec = c.do(http.MethodGet, HomePath, nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, LoginPath, location(rec))
}

func TestLoginWrongPasswordFlashesOnce(t *testing.T) {
	env := newTestEnv(t, nil)
	c := env.client()
	c.register("Alice", "alice@example.com", "wonderland")

	rec := c.login("alice@example.com", "looking-glass")
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, LoginPath, location(rec))

	rec = c.do(http.MethodGet, HomePath, nil)
	assert.Equal(t, LoginPath, location(rec), "failed login must not authenticate")

	rec = c.do(http.MethodGet, LoginPath, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), FlashMessage(ErrWrongPassword))

	rec = c.do(http.MethodGet, LoginPath, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), FlashMessage(ErrWrongPassword))
}

func TestLoginFailureMessages(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{name: "unknown user", email: "bob@example.com", password: "secret", want: ErrUnknownUser},
		{name: "missing password", email: "alice@example.com", password: "", want: ErrMissingCredentials},
		{name: "missing email", email: "", password: "wonderland", want: ErrMissingCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			c := env.client()
			c.register("Alice", "alice@example.com", "wonderland")

			rec := c.login(tt.email, tt.password)
			require.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, LoginPath, location(rec))

			rec = c.do(http.MethodGet, LoginPath, nil)
			assert.Contains(t, rec.Body.String(), FlashMessage(tt.want))
		})
	}
}

func TestAuthenticatedUserIsKeptOffAnonymousPages(t *testing.T) {
	env := newTestEnv(t, nil)
	c := env.client()
	c.register("Alice", "alice@example.com", "wonderland")
	c.login("alice@example.com", "wonderland")

	for _, path := range []string{LoginPath, RegisterPath} {
		rec := c.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusFound, rec.Code, path)
		assert.Equal(t, HomePath, location(rec), path)
		assert.NotContains(t, rec.Body.String(), "<form", path)
	}

	rec := c.register("Mallory", "mallory@example.com", "secret")
	assert.Equal(t, HomePath, location(rec))
	assert.Equal(t, 1, env.users.Len())
}

func TestLogoutInvalidatesCapturedCookie(t *testing.T) {
	env := newTestEnv(t, nil)
	c := env.client()
	c.register("Alice", "alice@example.com", "wonderland")
	c.login("alice@example.com", "wonderland")
	captured := c.snapshot()

	c.logout()

	rec := captured.do(http.MethodGet, HomePath, nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, LoginPath, location(rec))
}

func TestLogoutWithoutSession(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.client().logout()
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, LoginPath, location(rec))
}

func TestLogoutRequiresDelete(t *testing.T) {
	env := newTestEnv(t, nil)

	apitest.New().
		Handler(env.handler()).
		Post("/logout").
		Expect(t).
		Status(http.StatusNotFound).
		End()
}

func TestRegisterRejectsOverlongPassword(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.client().register("Alice", "alice@example.com", strings.Repeat("a", 73))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, RegisterPath, location(rec))
	assert.Equal(t, 0, env.users.Len())
}

func TestLoginWithSuffixedMaxLengthPasswordFails(t *testing.T) {
	env := newTestEnv(t, nil)
	c := env.client()
	password := strings.Repeat("a", 72)

	rec := c.register("Alice", "alice@example.com", password)
	require.Equal(t, LoginPath, location(rec))

	rec = c.login("alice@example.com", password+"EXTRA")
	assert.Equal(t, LoginPath, location(rec))

	rec = c.do(http.MethodGet, HomePath, nil)
	assert.Equal(t, LoginPath, location(rec))

	rec = c.do(http.MethodGet, LoginPath, nil)
	assert.Contains(t, rec.Body.String(), FlashMessage(ErrWrongPassword))
}

func TestLogoutCookieKeepsConfiguredAttributes(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.GinMode = "release"
	})
	c := env.client()
	c.register("Alice", "alice@example.com", "wonderland")
	c.login("alice@example.com", "wonderland")

	rec := c.logout()
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	expired := cookies[len(cookies)-1]
	assert.Equal(t, SessionCookieName, expired.Name)
	assert.Less(t, expired.MaxAge, 0)
	assert.True(t, expired.Secure)
	assert.True(t, expired.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, expired.SameSite)
}

func TestRegisterRequiresAllFields(t *testing.T) {
	env := newTestEnv(t, nil)
	c := env.client()

	for _, form := range [][3]string{
		{"", "alice@example.com", "wonderland"},
		{"Alice", "", "wonderland"},
		{"Alice", "alice@example.com", ""},
	} {
		rec := c.register(form[0], form[1], form[2])
		assert.Equal(t, RegisterPath, location(rec))
	}
	assert.Equal(t, 0, env.users.Len())
}

func TestRegisterDuplicateEmailAllowedByDefault(t *testing.T) {
	env := newTestEnv(t, nil)
	c := env.client()

	c.register("Alice", "alice@example.com", "first-password")
	rec := c.register("Alice Again", "alice@example.com", "second-password")
	assert.Equal(t, LoginPath, location(rec))
	assert.Equal(t, 2, env.users.Len())

	rec = c.login("alice@example.com", "second-password")
	assert.Equal(t, LoginPath, location(rec), "only the first registration is used for login")

	rec = c.login("alice@example.com", "first-password")
	assert.Equal(t, HomePath, location(rec))

	rec = c.do(http.MethodGet, HomePath, nil)
	assert.Contains(t, rec.Body.String(), "Alice")
	assert.NotContains(t, rec.Body.String(), "Alice Again")
}

func TestRegisterDuplicateEmailRejectedWhenEnforced(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.EnforceUniqueEmail = true
	})
	c := env.client()

	c.register("Alice", "alice@example.com", "wonderland")
	rec := c.register("Alice Again", "alice@example.com", "second-password")
	assert.Equal(t, RegisterPath, location(rec))
	assert.Equal(t, 1, env.users.Len())

	rec = c.do(http.MethodGet, RegisterPath, nil)
	assert.Contains(t, rec.Body.String(), FlashMessage(ErrDuplicateEmail))
}

func TestSessionExpiresAfterMaxAge(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.SessionMaxAgeSeconds = 60
	})
	c := env.client()
	c.register("Alice", "alice@example.com", "wonderland")
	c.login("alice@example.com", "wonderland")

	rec := c.do(http.MethodGet, HomePath, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	env.manager.sessions.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	rec = c.do(http.MethodGet, HomePath, nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, LoginPath, location(rec))
}

func TestSessionForUnknownUserIsAnonymous(t *testing.T) {
	env := newTestEnv(t, nil)
	env.engine.GET("/test/plant", func(c *gin.Context) {
		session := sessions.Default(c)
		session.Set(sessionKeyUser, "ghost")
		require.NoError(t, session.Save())
		c.Status(http.StatusNoContent)
	})
	c := env.client()

	rec := c.do(http.MethodGet, "/test/plant", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = c.do(http.MethodGet, HomePath, nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, LoginPath, location(rec))

	rec = c.do(http.MethodGet, LoginPath, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPrincipalIsAvailableFromRequestContext(t *testing.T) {
	env := newTestEnv(t, nil)
	env.engine.GET("/test/whoami", func(c *gin.Context) {
		u, ok := UserFromContext(c.Request.Context())
		if !ok {
			c.String(http.StatusUnauthorized, "anonymous")
			return
		}
		c.String(http.StatusOK, u.Email)
	})
	c := env.client()

	rec := c.do(http.MethodGet, "/test/whoami", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	c.register("Alice", "alice@example.com", "wonderland")
	c.login("alice@example.com", "wonderland")

	rec = c.do(http.MethodGet, "/test/whoami", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice@example.com", rec.Body.String())
}

func TestStoreFailureWhileRestoringSession(t *testing.T) {
	env := newTestEnv(t, nil)
	c := env.client()
	c.register("Alice", "alice@example.com", "wonderland")
	c.login("alice@example.com", "wonderland")

	env.flaky.failFindByID.Store(true)

	rec := c.do(http.MethodGet, HomePath, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Alice")
}
