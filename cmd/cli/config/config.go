// Package config wires the CLI to its on-disk session and the blog API.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/crucial707/blog-client/internal/api"
	"github.com/crucial707/blog-client/internal/app"
	envconfig "github.com/crucial707/blog-client/internal/config"
	"github.com/crucial707/blog-client/internal/logger"
	"github.com/crucial707/blog-client/internal/session"
	"github.com/spf13/cobra"
)

// SessionFile is the file under the state dir that holds api-base, token and user.
const SessionFile = "session.json"

var ErrLoginRequired = errors.New("please log in first (blog login)")

// Env is what every command works with.
type Env struct {
	Settings envconfig.Config
	Backend  *session.FileBackend
	Store    *session.Store
	App      *app.App
}

// Open loads configuration and the saved session.
func Open(ctx context.Context) (*Env, error) {
	cfg := envconfig.Load()

	// The CLI stays quiet unless LOG_LEVEL is set explicitly.
	level := "error"
	if os.Getenv("LOG_LEVEL") != "" {
		level = cfg.LogLevel
	}
	log := logger.New(level, cfg.LogFormat)

	backend := session.NewFileBackend(filepath.Join(cfg.StateDir, SessionFile))
	store := session.NewStore(backend, cfg.APIBase)
	if _, err := store.Load(ctx); err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	client := api.New(store, api.WithTimeout(cfg.HTTPTimeout), api.WithLogger(log))
	return &Env{
		Settings: cfg,
		Backend:  backend,
		Store:    store,
		App:      app.New(store, client, app.WithLogger(log)),
	}, nil
}

// OpenFor is Open with the command's context.
func OpenFor(cmd *cobra.Command) (*Env, error) {
	return Open(cmd.Context())
}

// RequireLogin fails when no complete session is saved.
func (e *Env) RequireLogin() error {
	if !e.Store.Current().SignedIn() {
		return ErrLoginRequired
	}
	return nil
}
