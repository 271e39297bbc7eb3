// Package httpserver は HTTP サーバーの起動・停止と、gin の前段に置くハンドラーを提供します。
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/yourusername/session-gate/internal/logutil"
)

const shutdownTimeout = 30 * time.Second

// Serve は ctx がキャンセルされるまで handler を bind で公開します。
// キャンセル後は処理中のリクエストを待ってから戻ります。
func Serve(ctx context.Context, bind string, handler http.Handler) error {
	server := &http.Server{
		Handler:           handler,
		Addr:              bind,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return serve(ctx, server)
}

func serve(ctx context.Context, server *http.Server) error {
	log := logutil.GetOrDefault(ctx).With().Str("server.addr", server.Addr).Logger()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msg("Starting HTTP server")
		err := server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			log.Info().Msg("Server closed")
			err = nil
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info().Msg("Initiating shutdown process")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		log.Info().Msg("Shutdown completed")
		return <-errCh
	}
}
