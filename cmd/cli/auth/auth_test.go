package auth

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/crucial707/blog-client/cmd/cli/config"
	"github.com/crucial707/blog-client/internal/apitest"
	"github.com/spf13/cobra"
)

func setup(t *testing.T) *apitest.Server {
	t.Helper()
	fake := apitest.NewServer(t)
	t.Setenv("BLOG_STATE_DIR", t.TempDir())
	t.Setenv("BLOG_API_URL", fake.URL)
	return fake
}

func run(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestLogin_SavesSession(t *testing.T) {
	fake := setup(t)
	fake.SeedUser("alice", "secret1", "")

	out, err := run(t, loginCmd(), "", "--username", "alice", "--password", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(out, "Logged in as alice.") {
		t.Errorf("unexpected output: %s", out)
	}

	env, err := config.Open(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	sess := env.Store.Current()
	if !sess.SignedIn() || sess.User.Username != "alice" {
		t.Errorf("session after login: %+v", sess)
	}
}

func TestLogin_PromptsForMissingValues(t *testing.T) {
	fake := setup(t)
	fake.SeedUser("alice", "secret1", "")

	out, err := run(t, loginCmd(), "alice\nsecret1\n")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(out, "Username: ") || !strings.Contains(out, "Password: ") {
		t.Errorf("expected prompts, got: %s", out)
	}
}

func TestLogin_BadPassword(t *testing.T) {
	fake := setup(t)
	fake.SeedUser("alice", "secret1", "")

	_, err := run(t, loginCmd(), "", "--username", "alice", "--password", "wrong")
	if err == nil || err.Error() != "invalid credentials" {
		t.Fatalf("got %v, want invalid credentials", err)
	}
	env, _ := config.Open(context.Background())
	if env.Store.Current().SignedIn() {
		t.Error("failed login must not save a session")
	}
}

func TestRegister_ThenLogin(t *testing.T) {
	fake := setup(t)

	_, err := run(t, registerCmd(), "", "--username", "bob", "--email", "bob@example.com", "--password", "secret1", "--display-name", "Bob")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if fake.Count(http.MethodPost, "/api/auth/register") != 1 || fake.Count(http.MethodPost, "/api/auth/login") != 1 {
		t.Error("register should be followed by exactly one login")
	}
	u, ok := fake.User("bob")
	if !ok || u.DisplayName != "Bob" {
		t.Errorf("registered user: %+v", u)
	}
}

func TestLogout_ClearsSession(t *testing.T) {
	fake := setup(t)
	fake.SeedUser("alice", "secret1", "")
	if _, err := run(t, loginCmd(), "", "--username", "alice", "--password", "secret1"); err != nil {
		t.Fatal(err)
	}

	if _, err := run(t, logoutCmd(), ""); err != nil {
		t.Fatalf("logout: %v", err)
	}
	_, err := run(t, whoamiCmd(), "")
	if !errors.Is(err, config.ErrLoginRequired) {
		t.Errorf("whoami after logout: got %v, want ErrLoginRequired", err)
	}
}

func TestWhoami_ShowsExpiry(t *testing.T) {
	fake := setup(t)
	fake.SeedUser("alice", "secret1", "admin")
	if _, err := run(t, loginCmd(), "", "--username", "alice", "--password", "secret1"); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, whoamiCmd(), "")
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	for _, want := range []string{"alice", "admin", "Token expires"} {
		if !strings.Contains(out, want) {
			t.Errorf("whoami output missing %q:\n%s", want, out)
		}
	}
}

func TestTokenExpiry(t *testing.T) {
	fake := apitest.NewServer(t)
	exp, ok := tokenExpiry(fake.Token("alice"))
	if !ok {
		t.Fatal("expected an expiry")
	}
	if d := time.Until(exp); d < 23*time.Hour || d > 25*time.Hour {
		t.Errorf("expiry %v is not about a day away", exp)
	}
	if _, ok := tokenExpiry("not-a-jwt"); ok {
		t.Error("garbage token should have no expiry")
	}
}
