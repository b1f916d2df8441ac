package app

import (
	"context"
	"io"
	"strings"

	"github.com/crucial707/blog-client/internal/models"
	"github.com/crucial707/blog-client/internal/ui"
)

// MaxAvatarBytes is the largest avatar accepted for upload.
const MaxAvatarBytes = 5 << 20

// AvatarFile is an image picked for upload.
type AvatarFile struct {
	Filename    string
	ContentType string `validate:"oneof=image/jpeg image/png image/gif image/webp"`
	Size        int64
	Reader      io.Reader
}

// LoadProfile fills the profile form from the cached user.
func (a *App) LoadProfile(st ui.State) ui.State {
	u := a.viewer()
	if u == nil {
		st.Profile = ui.ProfileForm{}
		return st
	}
	st.Profile = ui.ProfileForm{
		DisplayName: u.DisplayName,
		Bio:         u.Bio,
		AvatarURL:   u.Avatar,
	}
	return st
}

// CheckAvatar reports why f cannot be uploaded, or nil.
// Size is checked before type.
func (a *App) CheckAvatar(f AvatarFile) error {
	if f.Size > MaxAvatarBytes {
		return ErrAvatarTooLarge
	}
	if err := a.validate.Struct(f); err != nil {
		return ErrAvatarType
	}
	return nil
}

// UploadAvatar sends f and shows the returned URL in the profile form. The
// cached user only changes when the profile is saved.
func (a *App) UploadAvatar(ctx context.Context, st ui.State, f AvatarFile) (ui.State, error) {
	if !a.Store.Current().SignedIn() {
		st.Notice = NoticeSignIn
		return st, nil
	}
	if err := a.CheckAvatar(f); err != nil {
		return st, err
	}
	url, err := a.API.UploadAvatar(ctx, f.Filename, f.ContentType, f.Reader)
	if err != nil {
		return st, err
	}
	st.Profile.AvatarURL = url
	return st, nil
}

// UpdateProfile saves form and replaces the cached user with the server's copy.
func (a *App) UpdateProfile(ctx context.Context, st ui.State, form ui.ProfileForm) (ui.State, error) {
	st.Profile = form
	if !a.Store.Current().SignedIn() {
		st.Notice = NoticeSignIn
		return st, nil
	}
	user, err := a.API.UpdateProfile(ctx, models.ProfileUpdate{
		DisplayName: strings.TrimSpace(form.DisplayName),
		Bio:         strings.TrimSpace(form.Bio),
		Avatar:      strings.TrimSpace(form.AvatarURL),
	})
	if err != nil {
		return st, err
	}
	if err := a.Store.SetUser(ctx, user); err != nil {
		return st, err
	}
	st = a.syncAuth(st)
	return a.LoadProfile(st), nil
}
