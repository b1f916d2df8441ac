// Package app holds the feature controllers. Each takes the current ui.State
// and returns the next one, talking to the blog API and the session store on
// the way.
package app

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/crucial707/blog-client/internal/api"
	"github.com/crucial707/blog-client/internal/models"
	"github.com/crucial707/blog-client/internal/session"
	"github.com/crucial707/blog-client/internal/ui"
	"github.com/crucial707/blog-client/internal/view"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	NoticeSignIn   = "Please log in first."
	NetworkMessage = "Network error, please try again."
)

// API is the subset of the blog API the controllers use. *api.Client implements it.
type API interface {
	Register(ctx context.Context, in models.RegisterRequest) error
	Login(ctx context.Context, in models.LoginRequest) (*models.LoginResponse, error)
	UpdateProfile(ctx context.Context, in models.ProfileUpdate) (*models.User, error)
	UploadAvatar(ctx context.Context, filename, contentType string, file io.Reader) (string, error)
	ListPosts(ctx context.Context) ([]models.Post, error)
	MyPosts(ctx context.Context) ([]models.Post, error)
	CreatePost(ctx context.Context, in models.PostInput) (*models.Post, error)
	UpdatePost(ctx context.Context, id models.ID, in models.PostInput) (*models.Post, error)
	DeletePost(ctx context.Context, id models.ID) error
	ToggleLike(ctx context.Context, id models.ID) (models.LikeResult, error)
	AddComment(ctx context.Context, id models.ID, content string) (*models.Comment, error)
}

type App struct {
	Store    *session.Store
	API      API
	Location *time.Location
	Log      *zap.Logger
	Now      func() time.Time

	validate *validator.Validate
}

type Option func(*App)

func WithLocation(loc *time.Location) Option {
	return func(a *App) { a.Location = loc }
}

func WithLogger(log *zap.Logger) Option {
	return func(a *App) { a.Log = log }
}

func WithClock(now func() time.Time) Option {
	return func(a *App) { a.Now = now }
}

func New(store *session.Store, client API, opts ...Option) *App {
	a := &App{
		Store:    store,
		API:      client,
		Location: time.Local,
		Log:      zap.NewNop(),
		Now:      time.Now,
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Message is the user-facing text for err. Network failures get a generic
// message; API failures show the server's text as-is.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if api.IsTransport(err) {
		return NetworkMessage
	}
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

// Init loads the session and the initial lists. The returned state is on the
// feed tab even when loading fails.
func (a *App) Init(ctx context.Context) (ui.State, error) {
	st := ui.NewState()
	if _, err := a.Store.Load(ctx); err != nil {
		return st, err
	}
	st = a.syncAuth(st)
	st, err := a.Refresh(ctx, st)
	return a.SwitchTab(st, ui.TabFeed), err
}

// syncAuth reflects the session in the auth-dependent parts of st.
func (a *App) syncAuth(st ui.State) ui.State {
	sess := a.Store.Current()
	st.APIBase = sess.APIBase
	st.SignedIn = sess.SignedIn()
	st.UserLabel = ""
	if st.SignedIn {
		st.UserLabel = sess.User.Username
	} else {
		st.MyPosts = nil
	}
	return st
}

func (a *App) viewer() *models.User {
	return a.Store.Current().User
}

// LoadFeed replaces the public feed.
func (a *App) LoadFeed(ctx context.Context, st ui.State) (ui.State, error) {
	posts, err := a.API.ListPosts(ctx)
	if err != nil {
		a.Log.Warn("load feed", zap.Error(err))
		return st, err
	}
	st.Feed = view.BuildList(posts, a.viewer(), a.Location)
	return st, nil
}

// LoadMyPosts replaces the caller's own posts.
func (a *App) LoadMyPosts(ctx context.Context, st ui.State) (ui.State, error) {
	posts, err := a.API.MyPosts(ctx)
	if err != nil {
		a.Log.Warn("load own posts", zap.Error(err))
		return st, err
	}
	st.MyPosts = view.BuildOwnList(posts, a.viewer(), a.Location)
	return st, nil
}

// Refresh reloads the feed and, when signed in, the own-posts list. Both
// requests run concurrently and both finish before the state is updated.
// Lists that loaded successfully are applied even when the other failed.
func (a *App) Refresh(ctx context.Context, st ui.State) (ui.State, error) {
	viewer := a.viewer()
	signedIn := a.Store.Current().SignedIn()

	var feed, mine []models.Post
	var feedOK, mineOK bool

	// A plain group: one failed load must not cancel the other.
	var g errgroup.Group
	g.Go(func() error {
		posts, err := a.API.ListPosts(ctx)
		if err != nil {
			return err
		}
		feed, feedOK = posts, true
		return nil
	})
	if signedIn {
		g.Go(func() error {
			posts, err := a.API.MyPosts(ctx)
			if err != nil {
				return err
			}
			mine, mineOK = posts, true
			return nil
		})
	}
	err := g.Wait()
	if err != nil {
		a.Log.Warn("refresh", zap.Error(err))
	}

	if feedOK {
		st.Feed = view.BuildList(feed, viewer, a.Location)
	}
	if mineOK {
		st.MyPosts = view.BuildOwnList(mine, viewer, a.Location)
	}
	return st, err
}
