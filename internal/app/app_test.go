package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/crucial707/blog-client/internal/api"
	"github.com/crucial707/blog-client/internal/apitest"
	"github.com/crucial707/blog-client/internal/models"
	"github.com/crucial707/blog-client/internal/session"
	"github.com/crucial707/blog-client/internal/ui"
	"github.com/crucial707/blog-client/internal/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func newTestApp(t *testing.T) (*App, *apitest.Server, session.Backend) {
	t.Helper()
	fake := apitest.NewServer(t)
	backend := session.NewMemoryBackend()
	store := session.NewStore(backend, fake.URL)
	a := New(store, api.New(store), WithLocation(time.UTC), WithClock(func() time.Time { return fixedNow }))
	return a, fake, backend
}

// signIn logs username in through the controllers and returns the resulting state.
func signIn(t *testing.T, a *App, username string) ui.State {
	t.Helper()
	ctx := context.Background()
	st, err := a.Init(ctx)
	require.NoError(t, err)
	st = a.OpenAuth(st, ui.DialogLogin)
	st, err = a.SubmitAuth(ctx, st, AuthForm{Username: username, Password: "secret1"})
	require.NoError(t, err)
	return st
}

type countingConfirmer struct {
	answer  bool
	prompts []string
}

func (c *countingConfirmer) Confirm(prompt string) bool {
	c.prompts = append(c.prompts, prompt)
	return c.answer
}

func TestInit_LoadsFeedSignedOut(t *testing.T) {
	a, fake, _ := newTestApp(t)
	fake.SeedUser("alice", "secret1", "")
	fake.SeedPost("alice", "Hello", "First post")

	st, err := a.Init(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ui.TabFeed, st.Tab)
	assert.False(t, st.SignedIn)
	require.Len(t, st.Feed, 1)
	assert.Equal(t, "Hello", st.Feed[0].Title)
	assert.False(t, st.Feed[0].CanEdit)
	assert.Zero(t, fake.Count(http.MethodGet, "/api/posts/me/list"), "own posts must not load when signed out")
}

func TestSubmitAuth_LoginPersistsTokenAndUser(t *testing.T) {
	a, fake, backend := newTestApp(t)
	fake.SeedUser("alice", "secret1", "")
	fake.SeedPost("alice", "Mine", "body")

	st := signIn(t, a, "alice")

	assert.True(t, st.SignedIn)
	assert.Equal(t, "alice", st.UserLabel)
	assert.Equal(t, ui.DialogClosed, st.Dialog)
	assert.Empty(t, st.AuthError)
	require.Len(t, st.MyPosts, 1)
	assert.True(t, st.MyPosts[0].CanEdit)

	ctx := context.Background()
	token, ok, _ := backend.Get(ctx, session.KeyToken)
	require.True(t, ok)
	assert.NotEmpty(t, token)
	raw, ok, _ := backend.Get(ctx, session.KeyUser)
	require.True(t, ok)
	var saved models.User
	require.NoError(t, json.Unmarshal([]byte(raw), &saved))
	assert.Equal(t, "alice", saved.Username)
}

func TestSubmitAuth_RegisterThenLogin(t *testing.T) {
	a, fake, _ := newTestApp(t)
	ctx := context.Background()

	st, err := a.Init(ctx)
	require.NoError(t, err)
	st = a.OpenAuth(st, ui.DialogRegister)
	st, err = a.SubmitAuth(ctx, st, AuthForm{Username: "bob", Email: "bob@example.com", Password: "secret1", DisplayName: "Bob"})
	require.NoError(t, err)

	assert.True(t, st.SignedIn)
	assert.Equal(t, 1, fake.Count(http.MethodPost, "/api/auth/register"))
	assert.Equal(t, 1, fake.Count(http.MethodPost, "/api/auth/login"))
}

func TestSubmitAuth_FailureShowsServerMessage(t *testing.T) {
	a, fake, backend := newTestApp(t)
	fake.SeedUser("alice", "secret1", "")
	ctx := context.Background()

	st, _ := a.Init(ctx)
	st = a.OpenAuth(st, ui.DialogLogin)
	st, err := a.SubmitAuth(ctx, st, AuthForm{Username: "alice", Password: "wrong"})
	require.Error(t, err)

	assert.Equal(t, "invalid credentials", st.AuthError)
	assert.Equal(t, ui.DialogLogin, st.Dialog)
	assert.False(t, st.SignedIn)
	_, ok, _ := backend.Get(ctx, session.KeyToken)
	assert.False(t, ok)
}

func TestSubmitAuth_LoginFailsAfterRegister(t *testing.T) {
	a, fake, _ := newTestApp(t)
	fake.Fail(http.MethodPost, "/api/auth/login", http.StatusInternalServerError, "login unavailable")
	ctx := context.Background()

	st, _ := a.Init(ctx)
	st = a.OpenAuth(st, ui.DialogRegister)
	st, err := a.SubmitAuth(ctx, st, AuthForm{Username: "carol", Email: "carol@example.com", Password: "secret1"})
	require.Error(t, err)

	assert.Equal(t, "login unavailable", st.AuthError)
	assert.Equal(t, ui.DialogLogin, st.Dialog, "registered account should be offered a plain login retry")
	_, registered := fake.User("carol")
	assert.True(t, registered)
}

func TestSubmitAuth_MissingFieldsSendNothing(t *testing.T) {
	a, fake, _ := newTestApp(t)
	ctx := context.Background()

	st, _ := a.Init(ctx)
	st = a.OpenAuth(st, ui.DialogLogin)
	st, err := a.SubmitAuth(ctx, st, AuthForm{Username: "  ", Password: "x"})
	require.Error(t, err)

	assert.NotEmpty(t, st.AuthError)
	assert.Zero(t, fake.Count(http.MethodPost, "/api/auth/login"))
}

func TestLogout_ClearsSession(t *testing.T) {
	a, fake, backend := newTestApp(t)
	fake.SeedUser("alice", "secret1", "")
	st := signIn(t, a, "alice")
	st = a.SwitchTab(st, ui.TabMyPosts)

	ctx := context.Background()
	st, err := a.Logout(ctx, st)
	require.NoError(t, err)

	assert.False(t, st.SignedIn)
	assert.Empty(t, st.UserLabel)
	assert.Nil(t, st.MyPosts)
	assert.Equal(t, ui.TabFeed, st.Tab)

	_, hasToken, _ := backend.Get(ctx, session.KeyToken)
	_, hasUser, _ := backend.Get(ctx, session.KeyUser)
	assert.False(t, hasToken)
	assert.False(t, hasUser)

	// A fresh start on the same storage is signed out.
	reloaded := New(session.NewStore(backend, fake.URL), a.API)
	st, err = reloaded.Init(ctx)
	require.NoError(t, err)
	assert.False(t, st.SignedIn)
}

func TestSwitchTab_ClosesSidebar(t *testing.T) {
	a, _, _ := newTestApp(t)
	st := a.OpenSidebar(ui.NewState())
	require.True(t, st.SidebarOpen)

	st = a.SwitchTab(st, ui.TabProfile)
	assert.Equal(t, ui.TabProfile, st.Tab)
	assert.False(t, st.SidebarOpen)
}

func TestSavePost_EmptyFieldsAreIgnored(t *testing.T) {
	a, fake, _ := newTestApp(t)
	fake.SeedUser("alice", "secret1", "")
	st := signIn(t, a, "alice")
	st = a.SwitchTab(st, ui.TabEditor)

	form := ui.EditorForm{Title: "   ", Content: "draft body"}
	st, err := a.SavePost(context.Background(), st, form)
	require.NoError(t, err)

	assert.Equal(t, form, st.Editor, "editor must keep what was typed")
	assert.Equal(t, ui.TabEditor, st.Tab)
	assert.Zero(t, fake.Count(http.MethodPost, "/api/posts"))
}

func TestSavePost_CreateThenEdit(t *testing.T) {
	a, fake, _ := newTestApp(t)
	fake.SeedUser("alice", "secret1", "")
	ctx := context.Background()
	st := signIn(t, a, "alice")

	st, err := a.SavePost(ctx, st, ui.EditorForm{Title: " New ", Content: " Words "})
	require.NoError(t, err)
	assert.Equal(t, ui.TabMyPosts, st.Tab)
	assert.Equal(t, ui.EditorForm{}, st.Editor)
	require.Len(t, st.MyPosts, 1)
	assert.Equal(t, "New", st.MyPosts[0].Title)
	require.Len(t, st.Feed, 1)

	st = a.BeginEdit(st, st.MyPosts[0])
	assert.Equal(t, ui.TabEditor, st.Tab)
	assert.Equal(t, "Edit Post", st.Editor.Heading())

	form := st.Editor
	form.Content = "Revised"
	st, err = a.SavePost(ctx, st, form)
	require.NoError(t, err)
	require.Len(t, st.MyPosts, 1)
	assert.Equal(t, "Revised", st.MyPosts[0].Content)
	assert.Equal(t, 1, fake.Count(http.MethodPut, "/api/posts/"+form.ID))
}

func TestSavePost_SignedOutShowsNotice(t *testing.T) {
	a, fake, _ := newTestApp(t)
	st, _ := a.Init(context.Background())

	st, err := a.SavePost(context.Background(), st, ui.EditorForm{Title: "t", Content: "c"})
	require.NoError(t, err)
	assert.Equal(t, NoticeSignIn, st.Notice)
	assert.Zero(t, fake.Count(http.MethodPost, "/api/posts"))
}

func TestResetEditor_LeavesEditMode(t *testing.T) {
	a, _, _ := newTestApp(t)
	st := ui.NewState()
	st.Editor = ui.EditorForm{ID: "9", Title: "t", Content: "c"}

	st = a.ResetEditor(st)
	assert.False(t, st.Editor.Editing())
	assert.Equal(t, "Write a Post", st.Editor.Heading())
}

func TestDeletePost_RequiresConfirmation(t *testing.T) {
	a, fake, _ := newTestApp(t)
	fake.SeedUser("alice", "secret1", "")
	id := fake.SeedPost("alice", "Doomed", "body")
	ctx := context.Background()
	st := signIn(t, a, "alice")

	refuse := &countingConfirmer{answer: false}
	st, err := a.DeletePost(ctx, st, id, refuse)
	require.NoError(t, err)
	assert.Equal(t, []string{DeletePrompt}, refuse.prompts)
	assert.Zero(t, fake.Count(http.MethodDelete, "/api/posts/"+id.String()))
	assert.Len(t, st.MyPosts, 1)

	st, err = a.DeletePost(ctx, st, id, ConfirmFunc(func(string) bool { return true }))
	require.NoError(t, err)
	assert.Equal(t, 1, fake.Count(http.MethodDelete, "/api/posts/"+id.String()))
	assert.Empty(t, st.MyPosts)
	assert.Empty(t, st.Feed)
}

func TestDeletePost_ForbiddenShowsServerError(t *testing.T) {
	a, fake, _ := newTestApp(t)
	fake.SeedUser("alice", "secret1", "")
	fake.SeedUser("bob", "secret1", "")
	id := fake.SeedPost("alice", "Not yours", "body")
	st := signIn(t, a, "bob")

	_, err := a.DeletePost(context.Background(), st, id, ConfirmFunc(func(string) bool { return true }))
	require.Error(t, err)
	assert.Equal(t, "forbidden", Message(err))
}

func TestToggleLike_AppliesServerResult(t *testing.T) {
	a, fake, _ := newTestApp(t)
	fake.SeedUser("alice", "secret1", "")
	fake.SeedUser("bob", "secret1", "")
	id := fake.SeedPost("alice", "Likeable", "body")
	ctx := context.Background()
	st := signIn(t, a, "alice")
	before := st

	st, err := a.ToggleLike(ctx, st, id)
	require.NoError(t, err)

	i := view.Find(st.Feed, id)
	require.GreaterOrEqual(t, i, 0)
	assert.Equal(t, 1, st.Feed[i].Like.Count)
	assert.Equal(t, view.HeartFilled, st.Feed[i].Like.Glyph())
	j := view.Find(st.MyPosts, id)
	require.GreaterOrEqual(t, j, 0)
	assert.Equal(t, 1, st.MyPosts[j].Like.Count)

	assert.Equal(t, 0, before.Feed[i].Like.Count, "previous state must be left untouched")

	st, err = a.ToggleLike(ctx, st, id)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Feed[i].Like.Count)
	assert.Equal(t, view.HeartOutline, st.Feed[i].Like.Glyph())
}

func TestToggleLike_SignedOutNeedsLogin(t *testing.T) {
	a, fake, _ := newTestApp(t)
	fake.SeedUser("alice", "secret1", "")
	id := fake.SeedPost("alice", "Likeable", "body")
	st, _ := a.Init(context.Background())

	st, err := a.ToggleLike(context.Background(), st, id)
	require.NoError(t, err)
	assert.Equal(t, NoticeSignIn, st.Notice)
	assert.Zero(t, fake.Count(http.MethodPost, "/api/posts/"+id.String()+"/like"))
}

func TestToggleLike_NetworkError(t *testing.T) {
	a, fake, _ := newTestApp(t)
	fake.SeedUser("alice", "secret1", "")
	id := fake.SeedPost("alice", "Likeable", "body")
	st := signIn(t, a, "alice")
	fake.Close()

	_, err := a.ToggleLike(context.Background(), st, id)
	require.Error(t, err)
	assert.Equal(t, NetworkMessage, Message(err))
}

func TestAddComment_AppendsLocally(t *testing.T) {
	a, fake, _ := newTestApp(t)
	fake.SeedUser("alice", "secret1", "")
	id := fake.SeedPost("alice", "Talk", "body")
	ctx := context.Background()
	st := signIn(t, a, "alice")

	st, err := a.AddComment(ctx, st, id, "   ")
	require.NoError(t, err)
	assert.Zero(t, fake.Count(http.MethodPost, "/api/posts/"+id.String()+"/comments"))

	st, err = a.AddComment(ctx, st, id, " Nice one ")
	require.NoError(t, err)

	i := view.Find(st.Feed, id)
	require.GreaterOrEqual(t, i, 0)
	c := st.Feed[i].Comments
	assert.Equal(t, 1, c.Count)
	assert.True(t, c.Open)
	require.Len(t, c.Items, 1)
	assert.Equal(t, "Nice one", c.Items[0].Content)
	assert.Equal(t, "alice", c.Items[0].Author)
	assert.Equal(t, view.FormatTime(fixedNow, time.UTC), c.Items[0].Timestamp)
}

func TestUploadAvatar_RejectsBeforeRequest(t *testing.T) {
	a, fake, _ := newTestApp(t)
	fake.SeedUser("alice", "secret1", "")
	st := signIn(t, a, "alice")
	ctx := context.Background()

	tests := []struct {
		name string
		file AvatarFile
		want error
	}{
		{"too large", AvatarFile{Filename: "a.png", ContentType: "image/png", Size: MaxAvatarBytes + 1}, ErrAvatarTooLarge},
		{"wrong type", AvatarFile{Filename: "a.bmp", ContentType: "image/bmp", Size: 10}, ErrAvatarType},
		{"not an image", AvatarFile{Filename: "a.txt", ContentType: "text/plain", Size: 10}, ErrAvatarType},
		{"too large and wrong type", AvatarFile{Filename: "a.bmp", ContentType: "image/bmp", Size: MaxAvatarBytes + 1}, ErrAvatarTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.UploadAvatar(ctx, st, tt.file)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Zero(t, fake.Count(http.MethodPost, "/api/upload/avatar"))
}

func TestUploadAvatar_SetsPreviewOnly(t *testing.T) {
	a, fake, _ := newTestApp(t)
	fake.SeedUser("alice", "secret1", "")
	st := signIn(t, a, "alice")
	st = a.LoadProfile(st)

	data := []byte("\x89PNG fake image")
	st, err := a.UploadAvatar(context.Background(), st, AvatarFile{
		Filename:    "me.png",
		ContentType: "image/png",
		Size:        int64(len(data)),
		Reader:      bytes.NewReader(data),
	})
	require.NoError(t, err)

	assert.Contains(t, st.Profile.AvatarURL, "/uploads/avatars/")
	assert.Empty(t, a.Store.Current().User.Avatar, "cached user changes only on save")
	require.Len(t, fake.Uploads(), 1)
	assert.Equal(t, "image/png", fake.Uploads()[0].ContentType)
}

func TestUpdateProfile_ReplacesCachedUser(t *testing.T) {
	a, fake, backend := newTestApp(t)
	fake.SeedUser("alice", "secret1", "")
	st := signIn(t, a, "alice")
	ctx := context.Background()

	st, err := a.UpdateProfile(ctx, st, ui.ProfileForm{DisplayName: " Alice A. ", Bio: "writes things", AvatarURL: "/uploads/avatars/x.png"})
	require.NoError(t, err)

	assert.Equal(t, "Alice A.", st.Profile.DisplayName)
	assert.Equal(t, "Alice A.", a.Store.Current().User.DisplayName)

	raw, _, _ := backend.Get(ctx, session.KeyUser)
	assert.Contains(t, raw, "writes things")
}

func TestSetAPIBase_IgnoresBlankAndReloads(t *testing.T) {
	a, fake, _ := newTestApp(t)
	other := apitest.NewServer(t)
	other.SeedUser("zed", "secret1", "")
	other.SeedPost("zed", "Elsewhere", "body")
	ctx := context.Background()

	st, _ := a.Init(ctx)
	st, err := a.SetAPIBase(ctx, st, "   ")
	require.NoError(t, err)
	assert.Equal(t, fake.URL, st.APIBase)

	st, err = a.SetAPIBase(ctx, st, " "+other.URL+" ")
	require.NoError(t, err)
	assert.Equal(t, other.URL, st.APIBase)
	require.Len(t, st.Feed, 1)
	assert.Equal(t, "Elsewhere", st.Feed[0].Title)
}

func TestRefresh_MalformedPostIsSkipped(t *testing.T) {
	a, fake, _ := newTestApp(t)
	fake.Respond(http.MethodGet, "/api/posts", `[{"title":"no id"},{"id":"5","title":"ok","content":"c"}]`)

	st, err := a.Init(context.Background())
	require.NoError(t, err)
	require.Len(t, st.Feed, 1)
	assert.Equal(t, "ok", st.Feed[0].Title)
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "boom", Message(&api.APIError{Status: 500, Message: "boom"}))
	assert.Equal(t, NetworkMessage, Message(&api.TransportError{Err: context.DeadlineExceeded}))
}

// slowMineAPI fails the feed at once and answers own posts after a delay,
// unless its context is cancelled first.
type slowMineAPI struct {
	API
}

func (slowMineAPI) ListPosts(context.Context) ([]models.Post, error) {
	return nil, errors.New("feed down")
}

func (slowMineAPI) MyPosts(ctx context.Context) ([]models.Post, error) {
	select {
	case <-time.After(50 * time.Millisecond):
		return []models.Post{{ID: "9", Title: "Still mine", Content: "x", Author: &models.User{Username: "alice"}}}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestRefresh_FeedFailureDoesNotCancelOwnPosts(t *testing.T) {
	ctx := context.Background()
	store := session.NewStore(session.NewMemoryBackend(), "http://unused.invalid")
	require.NoError(t, store.Save(ctx, "tok", &models.User{ID: "1", Username: "alice"}))
	a := New(store, slowMineAPI{}, WithLocation(time.UTC))

	st, err := a.Refresh(ctx, ui.State{})
	require.EqualError(t, err, "feed down")
	require.Len(t, st.MyPosts, 1, "own posts must be applied when only the feed failed")
	assert.Equal(t, "Still mine", st.MyPosts[0].Title)
	assert.Empty(t, st.Feed)
}

func TestCheckAvatar_SizeLimitIsInclusive(t *testing.T) {
	a, _, _ := newTestApp(t)
	assert.NoError(t, a.CheckAvatar(AvatarFile{Filename: "a.webp", ContentType: "image/webp", Size: MaxAvatarBytes}))
	assert.ErrorIs(t, a.CheckAvatar(AvatarFile{Filename: "a.webp", ContentType: "image/webp", Size: MaxAvatarBytes + 1}), ErrAvatarTooLarge)
}
