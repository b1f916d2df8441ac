package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/crucial707/blog-client/internal/config"
	"github.com/crucial707/blog-client/internal/logger"
	"github.com/crucial707/blog-client/internal/session"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer log.Sync()

	provider, err := newProvider(cfg)
	if err != nil {
		log.Fatal("session backend", zap.String("backend", cfg.SessionBackend), zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.WebPort,
		Handler:           newServer(cfg, log, provider).routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("web UI running",
			zap.String("addr", "http://localhost:"+cfg.WebPort),
			zap.String("api", cfg.APIBase),
			zap.String("sessions", cfg.SessionBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}

// newProvider picks where per-browser sessions live.
func newProvider(cfg config.Config) (session.Provider, error) {
	switch cfg.SessionBackend {
	case "", "memory":
		return session.NewMemoryProvider(), nil
	case "redis":
		return session.NewRedisProvider(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case "file":
		return session.NewFileProvider(filepath.Join(cfg.StateDir, "web-sessions")), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}
}
