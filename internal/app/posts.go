package app

import (
	"context"
	"errors"
	"strings"

	"github.com/crucial707/blog-client/internal/models"
	"github.com/crucial707/blog-client/internal/ui"
	"github.com/crucial707/blog-client/internal/view"
)

// DeletePrompt is the question shown before a post is deleted.
const DeletePrompt = "Delete this post?"

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

type postForm struct {
	Title   string `validate:"required"`
	Content string `validate:"required"`
}

// BeginEdit loads post into the editor and jumps to it.
func (a *App) BeginEdit(st ui.State, post view.PostView) ui.State {
	st.Editor = ui.EditorForm{
		ID:      post.ID.String(),
		Title:   post.Title,
		Content: post.Content,
	}
	return a.SwitchTab(st, ui.TabEditor)
}

// ResetEditor clears the editor back to create mode.
func (a *App) ResetEditor(st ui.State) ui.State {
	st.Editor = ui.EditorForm{}
	return st
}

// PublishPost creates the post, or updates it when form carries an ID.
// Title and content are trimmed and both required.
func (a *App) PublishPost(ctx context.Context, form ui.EditorForm) (*models.Post, error) {
	in := postForm{
		Title:   strings.TrimSpace(form.Title),
		Content: strings.TrimSpace(form.Content),
	}
	if err := a.validate.Struct(in); err != nil {
		return nil, ErrEmptyPost
	}
	body := models.PostInput{Title: in.Title, Content: in.Content}
	if form.Editing() {
		return a.API.UpdatePost(ctx, models.ID(form.ID), body)
	}
	return a.API.CreatePost(ctx, body)
}

// SavePost submits the editor. Missing title or content is ignored without a
// request and the form keeps what was typed. On success the editor resets and
// the user lands on their own posts.
func (a *App) SavePost(ctx context.Context, st ui.State, form ui.EditorForm) (ui.State, error) {
	st.Editor = form
	if !a.Store.Current().SignedIn() {
		st.Notice = NoticeSignIn
		return st, nil
	}
	if _, err := a.PublishPost(ctx, form); err != nil {
		if errors.Is(err, ErrEmptyPost) {
			return st, nil
		}
		return st, err
	}
	st = a.ResetEditor(st)
	st, _ = a.Refresh(ctx, st)
	return a.SwitchTab(st, ui.TabMyPosts), nil
}

// RemovePost deletes post id once confirm agrees. A refusal returns
// ErrNotConfirmed and sends nothing.
func (a *App) RemovePost(ctx context.Context, id models.ID, confirm Confirmer) error {
	if confirm == nil || !confirm.Confirm(DeletePrompt) {
		return ErrNotConfirmed
	}
	return a.API.DeletePost(ctx, id)
}

// DeletePost is RemovePost followed by a refresh of both lists.
func (a *App) DeletePost(ctx context.Context, st ui.State, id models.ID, confirm Confirmer) (ui.State, error) {
	if err := a.RemovePost(ctx, id, confirm); err != nil {
		if errors.Is(err, ErrNotConfirmed) {
			return st, nil
		}
		return st, err
	}
	if st.Editor.ID == id.String() {
		st = a.ResetEditor(st)
	}
	st, _ = a.Refresh(ctx, st)
	return st, nil
}
