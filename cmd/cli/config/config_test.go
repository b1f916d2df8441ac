package config

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

// setupEnv points the CLI at a fresh state dir and API base.
func setupEnv(t *testing.T, apiBase string) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("BLOG_STATE_DIR", dir)
	t.Setenv("BLOG_API_URL", apiBase)
	return dir
}

func TestOpen_UsesStateDir(t *testing.T) {
	dir := setupEnv(t, "http://api.test")

	env, err := Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got, want := env.Backend.Path(), filepath.Join(dir, SessionFile); got != want {
		t.Errorf("session path: got %q, want %q", got, want)
	}
	if env.Store.APIBase() != "http://api.test" {
		t.Errorf("APIBase: got %q", env.Store.APIBase())
	}
	if err := env.RequireLogin(); !errors.Is(err, ErrLoginRequired) {
		t.Errorf("RequireLogin: got %v, want ErrLoginRequired", err)
	}
}

func TestSetAPIBase_Persists(t *testing.T) {
	setupEnv(t, "http://api.test")

	var out bytes.Buffer
	cmd := setAPIBaseCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"  http://other.test  "})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("set-api-base: %v", err)
	}
	if !strings.Contains(out.String(), "http://other.test") {
		t.Errorf("unexpected output: %s", out.String())
	}

	env, err := Open(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if env.Store.APIBase() != "http://other.test" {
		t.Errorf("APIBase after reload: got %q, want http://other.test", env.Store.APIBase())
	}

	out.Reset()
	show := showCmd()
	show.SetOut(&out)
	show.SetArgs([]string{})
	if err := show.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "http://other.test") || !strings.Contains(out.String(), "(not logged in)") {
		t.Errorf("show output:\n%s", out.String())
	}
}

func TestSetAPIBase_RejectsBlank(t *testing.T) {
	setupEnv(t, "http://api.test")
	cmd := setAPIBaseCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"   "})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected an error for a blank URL")
	}
}
