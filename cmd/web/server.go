package main

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/crucial707/blog-client/internal/api"
	"github.com/crucial707/blog-client/internal/app"
	"github.com/crucial707/blog-client/internal/config"
	"github.com/crucial707/blog-client/internal/middleware"
	"github.com/crucial707/blog-client/internal/session"
	"github.com/crucial707/blog-client/internal/ui"
	"github.com/crucial707/blog-client/internal/view"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

//go:embed templates
var templatesFS embed.FS

type server struct {
	cfg       config.Config
	log       *zap.Logger
	sessions  session.Provider
	http      *http.Client
	templates *template.Template
	location  *time.Location
}

func newServer(cfg config.Config, log *zap.Logger, sessions session.Provider) *server {
	s := &server{
		cfg:      cfg,
		log:      log,
		sessions: sessions,
		http:     &http.Client{Timeout: cfg.HTTPTimeout},
		location: time.Local,
	}
	s.templates = template.Must(template.New("").Funcs(s.funcs()).ParseFS(templatesFS, "templates/*.html"))
	return s
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLog(s.log))
	r.Use(middleware.Recoverer(s.log))
	r.Use(middleware.Prometheus)
	r.Use(middleware.PageHeaders(s.cfg.SecureCookies()))
	r.Use(middleware.LimitBody)

	// Health and metrics (no session)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	limiter := middleware.NewSignInLimiter(s.cfg.AuthRatePerMinute)

	r.Group(func(r chi.Router) {
		r.Use(middleware.BrowserID(s.cfg.SecureCookies()))

		r.Get("/", s.index)
		r.With(limiter.Middleware).Post("/auth", s.submitAuth)
		r.Post("/logout", s.logout)
		r.Post("/settings/api-base", s.setAPIBase)

		r.Get("/editor", s.editor)
		r.Post("/editor/cancel", s.cancelEdit)
		r.Post("/posts", s.savePost)
		r.Get("/posts/{id}/edit", s.editPost)
		r.Get("/posts/{id}/delete", s.deleteConfirm)
		r.Post("/posts/{id}/delete", s.deletePost)
		r.Post("/posts/{id}/like", s.toggleLike)
		r.Post("/posts/{id}/comments", s.addComment)

		r.Get("/profile", s.profile)
		r.Post("/profile", s.updateProfile)
		r.Post("/profile/avatar", s.uploadAvatar)
	})
	return r
}

// controller builds the controllers for the browser that sent r.
func (s *server) controller(r *http.Request) *app.App {
	backend := s.sessions.Backend(middleware.GetBrowserID(r.Context()))
	store := session.NewStore(backend, s.cfg.APIBase)
	client := api.New(store, api.WithHTTPClient(s.http), api.WithLogger(s.log))
	return app.New(store, client, app.WithLocation(s.location), app.WithLogger(s.log))
}

// start loads the browser's session and lists. A failed list load is shown
// on the page rather than failing the request.
func (s *server) start(w http.ResponseWriter, r *http.Request) (*app.App, ui.State, string, bool) {
	a := s.controller(r)
	st, err := a.Init(r.Context())
	if err != nil {
		if !isAPIFailure(err) {
			s.log.Error("load session", zap.Error(err))
			http.Error(w, "Could not load your session.", http.StatusInternalServerError)
			return nil, st, "", false
		}
		return a, st, app.Message(err), true
	}
	return a, st, "", true
}

func (s *server) funcs() template.FuncMap {
	return template.FuncMap{
		"heading": func(m ui.DialogMode) string { return m.Label() },
		"isRegister": func(m ui.DialogMode) bool {
			return m == ui.DialogRegister
		},
		"dialogOpen": func(m ui.DialogMode) bool { return m != ui.DialogClosed },
		"asset":      assetURL,
		"hasPosts":   func(p []view.PostView) bool { return len(p) > 0 },
	}
}

// assetURL resolves API-relative paths like /uploads/avatars/x.png against base.
func assetURL(base, u string) string {
	if strings.HasPrefix(u, "/") && !strings.HasPrefix(u, "//") {
		return strings.TrimRight(base, "/") + u
	}
	return u
}

func isAPIFailure(err error) bool {
	var apiErr *api.APIError
	return api.IsTransport(err) || errors.As(err, &apiErr)
}

// failureStatus maps a failed API call to the status of the page showing it.
func failureStatus(err error) int {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		return apiErr.Status
	}
	if isAPIFailure(err) {
		return http.StatusBadGateway
	}
	return http.StatusUnprocessableEntity
}
