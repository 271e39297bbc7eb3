package main

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yourusername/session-gate/internal/auth"
	"github.com/yourusername/session-gate/internal/config"
	"github.com/yourusername/session-gate/internal/httpserver"
	"github.com/yourusername/session-gate/internal/logutil"
	"github.com/yourusername/session-gate/internal/user"
	"github.com/yourusername/session-gate/internal/views"
)

// newRouter はミドルウェアとルートを登録した HTTP ハンドラーを返します。
// gin はミドルウェアより先にルートを決めるため、メソッド上書きはエンジンの外側で行います。
func newRouter(cfg *config.Config, logger zerolog.Logger, users user.Store, store sessions.Store) (http.Handler, error) {
	tmpl, err := views.Templates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	router := gin.New()
	router.Use(logutil.GinLogger(logger), gin.Recovery())
	router.SetHTMLTemplate(tmpl)

	// CORSミドルウェアの設定（許可オリジンがある場合のみ）
	if origins := cfg.AllowedOrigins(); len(origins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = origins
		corsConfig.AllowCredentials = true
		corsConfig.AllowHeaders = []string{
			"Origin",
			"Content-Type",
			"Accept",
			httpserver.MethodOverrideHeader,
			logutil.RequestIDHeader,
		}
		corsConfig.ExposeHeaders = []string{logutil.RequestIDHeader}
		router.Use(cors.New(corsConfig))
	}

	router.Use(sessions.Sessions(auth.SessionCookieName, store))

	setupRoutes(router, auth.NewManager(cfg, users))

	return httpserver.MethodOverride(router), nil
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "session-gate",
	})
}

// setupRoutes は画面と認証周りの配線を行います。
func setupRoutes(router *gin.Engine, authManager *auth.Manager) {
	// セッションを読まないヘルスチェックは先に登録
	router.GET("/health", handleHealth)

	pages := router.Group("", authManager.LoadPrincipal())
	{
		pages.GET(auth.HomePath, authManager.RequireAuthenticated(), authManager.Home)

		// ログイン済みならホームへ戻す
		anonymous := pages.Group("", authManager.RequireAnonymous())
		{
			anonymous.GET(auth.LoginPath, authManager.ShowLogin)
			anonymous.POST(auth.LoginPath, authManager.Login)
			anonymous.GET(auth.RegisterPath, authManager.ShowRegister)
			anonymous.POST(auth.RegisterPath, authManager.Register)
		}

		// フォームからは POST /logout?_method=DELETE で届く
		pages.DELETE("/logout", authManager.Logout)
	}
}
