package app

import (
	"context"
	"strings"

	"github.com/crucial707/blog-client/internal/models"
	"github.com/crucial707/blog-client/internal/ui"
	"github.com/crucial707/blog-client/internal/view"
)

// ToggleLike flips the caller's like on post id and shows the server's
// resulting count and state wherever the post is listed.
func (a *App) ToggleLike(ctx context.Context, st ui.State, id models.ID) (ui.State, error) {
	if !a.Store.Current().SignedIn() {
		st.Notice = NoticeSignIn
		return st, nil
	}
	res, err := a.API.ToggleLike(ctx, id)
	if err != nil {
		return st, err
	}
	st.Feed = view.Clone(st.Feed)
	st.MyPosts = view.Clone(st.MyPosts)
	view.ApplyLike(st.Feed, id, res)
	view.ApplyLike(st.MyPosts, id, res)
	return st, nil
}

// AddComment posts content on post id and appends it locally, authored from
// the cached profile. Blank content is ignored.
func (a *App) AddComment(ctx context.Context, st ui.State, id models.ID, content string) (ui.State, error) {
	sess := a.Store.Current()
	if !sess.SignedIn() {
		st.Notice = NoticeSignIn
		return st, nil
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return st, nil
	}
	if _, err := a.API.AddComment(ctx, id, content); err != nil {
		return st, err
	}

	c := view.LocalComment(*sess.User, content, a.Now(), a.Location)
	st.Feed = view.Clone(st.Feed)
	st.MyPosts = view.Clone(st.MyPosts)
	view.AppendComment(st.Feed, id, c)
	view.AppendComment(st.MyPosts, id, c)
	return st, nil
}
