// Package main は認証ゲートウェイのエントリーポイントです。
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/session-gate/internal/config"
	"github.com/yourusername/session-gate/internal/httpserver"
	"github.com/yourusername/session-gate/internal/logutil"
	"github.com/yourusername/session-gate/internal/sessionstore"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run() error {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	logger := logutil.New(cfg.LogLevel, cfg.LogFormat)
	log.Logger = logger

	// ユーザーストアとセッションストアの準備
	users, closeUsers, err := setupUserStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeUsers(); err != nil {
			logger.Warn().Err(err).Msg("failed to close user store")
		}
	}()

	store, closeSessions, err := sessionstore.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeSessions(); err != nil {
			logger.Warn().Err(err).Msg("failed to close session store")
		}
	}()

	handler, err := newRouter(cfg, logger, users, store)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// サーバーの起動
	addr := ":" + cfg.Port
	logger.Info().
		Str("mode", cfg.GinMode).
		Str("session_store", cfg.SessionStore).
		Str("user_store", cfg.UserStore).
		Msg("starting session gate")
	return httpserver.Serve(logutil.WithLogger(ctx, logger), addr, handler)
}
