package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/crucial707/blog-client/internal/models"
)

// ErrInvalidLogin is returned when a 2xx login response lacks a token or user.
var ErrInvalidLogin = errors.New("invalid login response")

// ErrInvalidProfile is returned when a profile update response lacks the user.
var ErrInvalidProfile = errors.New("invalid profile response")

func postPath(id models.ID, suffix string) string {
	return "/api/posts/" + url.PathEscape(id.String()) + suffix
}

// ==========================
// Auth
// ==========================

func (c *Client) Register(ctx context.Context, in models.RegisterRequest) error {
	return c.Do(ctx, http.MethodPost, "/api/auth/register", in, nil, nil)
}

func (c *Client) Login(ctx context.Context, in models.LoginRequest) (*models.LoginResponse, error) {
	var out models.LoginResponse
	if err := c.Do(ctx, http.MethodPost, "/api/auth/login", in, &out, nil); err != nil {
		return nil, err
	}
	if out.Token == "" || out.User == nil {
		return nil, ErrInvalidLogin
	}
	return &out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, in models.ProfileUpdate) (*models.User, error) {
	var out models.ProfileResponse
	if err := c.Do(ctx, http.MethodPut, "/api/auth/profile", in, &out, nil); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, ErrInvalidProfile
	}
	return out.User, nil
}

// UploadAvatar sends the file under the "avatar" form field and returns the stored URL.
func (c *Client) UploadAvatar(ctx context.Context, filename, contentType string, file io.Reader) (string, error) {
	var out models.AvatarUploadResponse
	if err := c.Upload(ctx, "/api/upload/avatar", "avatar", filename, contentType, file, &out); err != nil {
		return "", err
	}
	return out.AvatarURL, nil
}

// ==========================
// Posts
// ==========================

// ListPosts returns the public feed.
func (c *Client) ListPosts(ctx context.Context) ([]models.Post, error) {
	return c.listPosts(ctx, "/api/posts")
}

// MyPosts returns the caller's own posts.
func (c *Client) MyPosts(ctx context.Context) ([]models.Post, error) {
	return c.listPosts(ctx, "/api/posts/me/list")
}

// listPosts decodes entries one at a time so a single malformed entry does not
// drop the whole list; such entries come back zero-valued (no ID).
func (c *Client) listPosts(ctx context.Context, path string) ([]models.Post, error) {
	var raw []json.RawMessage
	if err := c.Do(ctx, http.MethodGet, path, nil, &raw, nil); err != nil {
		return nil, err
	}
	posts := make([]models.Post, 0, len(raw))
	for _, item := range raw {
		var p models.Post
		if err := json.Unmarshal(item, &p); err != nil {
			p = models.Post{}
		}
		posts = append(posts, p)
	}
	return posts, nil
}

func (c *Client) CreatePost(ctx context.Context, in models.PostInput) (*models.Post, error) {
	var out models.Post
	if err := c.Do(ctx, http.MethodPost, "/api/posts", in, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdatePost(ctx context.Context, id models.ID, in models.PostInput) (*models.Post, error) {
	var out models.Post
	if err := c.Do(ctx, http.MethodPut, postPath(id, ""), in, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeletePost(ctx context.Context, id models.ID) error {
	return c.Do(ctx, http.MethodDelete, postPath(id, ""), nil, nil, nil)
}

// ToggleLike flips the caller's like and returns the server's resulting state.
func (c *Client) ToggleLike(ctx context.Context, id models.ID) (models.LikeResult, error) {
	var out models.LikeResult
	err := c.Do(ctx, http.MethodPost, postPath(id, "/like"), nil, &out, nil)
	return out, err
}

func (c *Client) AddComment(ctx context.Context, id models.ID, content string) (*models.Comment, error) {
	var out models.Comment
	if err := c.Do(ctx, http.MethodPost, postPath(id, "/comments"), models.CommentInput{Content: content}, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}
