// Package apitest runs an in-memory blog API for tests. It speaks the same
// routes and JSON shapes as the hosted backend.
package apitest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/crucial707/blog-client/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
)

// Request is one call the server received.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

type account struct {
	user     models.User
	password string
	email    string
}

type post struct {
	id        models.ID
	title     string
	content   string
	author    string
	createdAt time.Time
	likes     map[string]bool
	comments  []models.Comment
}

type failure struct {
	status int
	body   string
}

type Server struct {
	*httptest.Server

	secret   []byte
	validate *validator.Validate

	mu        sync.Mutex
	accounts  map[string]*account
	posts     []*post
	nextID    int
	requests  []Request
	failures  map[string]failure
	rawBodies map[string]string
	uploads   []Upload
}

// Upload is a received avatar upload.
type Upload struct {
	Filename    string
	ContentType string
	Size        int
}

type ctxKey string

const usernameKey ctxKey = "username"

// NewServer starts the fake API and closes it when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		secret:    []byte("apitest-secret"),
		validate:  validator.New(),
		accounts:  make(map[string]*account),
		failures:  make(map[string]failure),
		rawBodies: make(map[string]string),
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)

	r.Post("/api/auth/register", s.register)
	r.Post("/api/auth/login", s.login)
	r.Get("/api/posts", s.listPosts)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Put("/api/auth/profile", s.updateProfile)
		r.Post("/api/upload/avatar", s.uploadAvatar)
		r.Get("/api/posts/me/list", s.myPosts)
		r.Post("/api/posts", s.createPost)
		r.Put("/api/posts/{id}", s.updatePost)
		r.Delete("/api/posts/{id}", s.deletePost)
		r.Post("/api/posts/{id}/like", s.toggleLike)
		r.Post("/api/posts/{id}/comments", s.addComment)
	})
	return r
}

// ==========================
// Test helpers
// ==========================

// SeedUser creates an account directly.
func (s *Server) SeedUser(username, password, role string) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addAccount(username, password, username+"@example.com", "", role)
}

func (s *Server) addAccount(username, password, email, displayName, role string) models.User {
	s.nextID++
	if role == "" {
		role = models.RoleUser
	}
	u := models.User{
		ID:          models.ID(strconv.Itoa(s.nextID)),
		Username:    username,
		DisplayName: displayName,
		Role:        role,
	}
	s.accounts[username] = &account{user: u, password: password, email: email}
	return u
}

// SeedPost creates a post by an existing user.
func (s *Server) SeedPost(author, title, content string) models.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	p := &post{
		id:        models.ID(strconv.Itoa(s.nextID)),
		title:     title,
		content:   content,
		author:    author,
		createdAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(s.nextID) * time.Minute),
		likes:     make(map[string]bool),
	}
	s.posts = append([]*post{p}, s.posts...)
	return p.id
}

// Token issues a valid bearer token for username.
func (s *Server) Token(username string) string {
	claims := jwt.MapClaims{
		"username": username,
		"exp":      time.Now().Add(24 * time.Hour).Unix(),
	}
	signed, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	return signed
}

// User returns the stored account for username.
func (s *Server) User(username string) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[username]
	if !ok {
		return models.User{}, false
	}
	return a.user, true
}

// Fail makes every later METHOD path call answer status with {"error": msg}.
// An empty msg answers with a non-JSON body.
func (s *Server) Fail(method, path string, status int, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	body := "upstream exploded"
	if msg != "" {
		b, _ := json.Marshal(map[string]string{"error": msg})
		body = string(b)
	}
	s.failures[method+" "+path] = failure{status: status, body: body}
}

// Respond makes every later METHOD path call answer 200 with the raw body.
func (s *Server) Respond(method, path, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rawBodies[method+" "+path] = body
}

// Requests returns every call received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Count returns how many METHOD path calls were received.
func (s *Server) Count(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Last returns the most recent METHOD path call.
func (s *Server) Last(method, path string) (Request, bool) {
	reqs := s.Requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Method == method && reqs[i].Path == path {
			return reqs[i], true
		}
	}
	return Request{}, false
}

// Uploads returns received avatar uploads.
func (s *Server) Uploads() []Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Upload(nil), s.uploads...)
}

// ==========================
// Middleware
// ==========================

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}
		key := r.Method + " " + r.URL.Path

		s.mu.Lock()
		s.requests = append(s.requests, Request{Method: r.Method, Path: r.URL.Path, Header: r.Header.Clone(), Body: body})
		f, failing := s.failures[key]
		raw, canned := s.rawBodies[key]
		s.mu.Unlock()

		if failing {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.status)
			w.Write([]byte(f.body))
			return
		}
		if canned {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(raw))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) usernameFromHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	token, err := jwt.Parse(strings.TrimPrefix(authHeader, "Bearer "), func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return ""
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	name, _ := claims["username"].(string)
	return name
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := s.usernameFromHeader(r)
		s.mu.Lock()
		_, ok := s.accounts[name]
		s.mu.Unlock()
		if name == "" || !ok {
			jsonError(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), usernameKey, name)))
	})
}

func jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
