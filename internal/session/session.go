package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/crucial707/blog-client/internal/models"
)

// Persisted keys. Together they are the whole durable footprint of a client.
const (
	KeyAPIBase = "api-base"
	KeyToken   = "token"
	KeyUser    = "user"
)

var (
	ErrNotSignedIn    = errors.New("not signed in")
	ErrIncompletePair = errors.New("session needs both a token and a user")
)

// Session is the signed-in state of one client.
type Session struct {
	APIBase string
	Token   string
	User    *models.User
}

// SignedIn is true only when the token and user are both present.
func (s Session) SignedIn() bool {
	return s.Token != "" && s.User != nil
}

// Store keeps the in-memory session and mirrors every change to a Backend.
// Token and user are always written and removed in one batch.
type Store struct {
	backend        Backend
	defaultAPIBase string

	mu      sync.RWMutex
	current Session
}

func NewStore(backend Backend, defaultAPIBase string) *Store {
	return &Store{
		backend:        backend,
		defaultAPIBase: defaultAPIBase,
		current:        Session{APIBase: defaultAPIBase},
	}
}

// Load reads the persisted keys. A missing api-base falls back to the default,
// and a malformed user or a token without a user (or the reverse) loads as signed out.
func (s *Store) Load(ctx context.Context) (Session, error) {
	apiBase, _, err := s.backend.Get(ctx, KeyAPIBase)
	if err != nil {
		return Session{}, fmt.Errorf("load %s: %w", KeyAPIBase, err)
	}
	token, _, err := s.backend.Get(ctx, KeyToken)
	if err != nil {
		return Session{}, fmt.Errorf("load %s: %w", KeyToken, err)
	}
	rawUser, _, err := s.backend.Get(ctx, KeyUser)
	if err != nil {
		return Session{}, fmt.Errorf("load %s: %w", KeyUser, err)
	}

	sess := Session{APIBase: strings.TrimSpace(apiBase), Token: token, User: decodeUser(rawUser)}
	if sess.APIBase == "" {
		sess.APIBase = s.defaultAPIBase
	}
	if !sess.SignedIn() {
		sess.Token = ""
		sess.User = nil
	}

	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()
	return s.Current(), nil
}

func decodeUser(raw string) *models.User {
	if raw == "" {
		return nil
	}
	var u *models.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil
	}
	return u
}

// Current returns a copy of the in-memory session.
func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.current
	if out.User != nil {
		u := *out.User
		out.User = &u
	}
	return out
}

// APIBase and Token satisfy api.Credentials.
func (s *Store) APIBase() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.APIBase
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Token
}

// Save stores a token and user together.
func (s *Store) Save(ctx context.Context, token string, user *models.User) error {
	if token == "" || user == nil {
		return ErrIncompletePair
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.SetMany(ctx, map[string]string{KeyToken: token, KeyUser: string(raw)}); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	u := *user
	s.current.Token = token
	s.current.User = &u
	return nil
}

// SetUser replaces the cached user snapshot while keeping the current token.
func (s *Store) SetUser(ctx context.Context, user *models.User) error {
	s.mu.RLock()
	token := s.current.Token
	s.mu.RUnlock()
	if token == "" {
		return ErrNotSignedIn
	}
	return s.Save(ctx, token, user)
}

// Clear removes the token and user.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.DeleteMany(ctx, KeyToken, KeyUser); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.current.Token = ""
	s.current.User = nil
	return nil
}

// SetAPIBase persists a new backend URL; the next API call uses it.
func (s *Store) SetAPIBase(ctx context.Context, apiBase string) error {
	apiBase = strings.TrimRight(strings.TrimSpace(apiBase), "/")
	if apiBase == "" {
		return errors.New("api base is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.SetMany(ctx, map[string]string{KeyAPIBase: apiBase}); err != nil {
		return fmt.Errorf("save %s: %w", KeyAPIBase, err)
	}
	s.current.APIBase = apiBase
	return nil
}
