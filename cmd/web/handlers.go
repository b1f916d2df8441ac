package main

import (
	"errors"
	"net/http"

	"github.com/crucial707/blog-client/internal/app"
	"github.com/crucial707/blog-client/internal/models"
	"github.com/crucial707/blog-client/internal/ui"
	"github.com/crucial707/blog-client/internal/view"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ==========================
// Home, auth, settings
// ==========================

func (s *server) index(w http.ResponseWriter, r *http.Request) {
	a, st, msg, ok := s.start(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	if tab, err := ui.ParseTab(q.Get("tab")); err == nil {
		st = a.SwitchTab(st, tab)
	}
	if st.Tab == ui.TabProfile {
		st = a.LoadProfile(st)
	}
	if q.Get("menu") == "open" {
		st = a.OpenSidebar(st)
	}
	if mode := ui.ParseDialogMode(q.Get("auth")); mode != ui.DialogClosed && !st.SignedIn {
		st = a.OpenAuth(st, mode)
	}
	if q.Get("notice") == "signin" && !st.SignedIn {
		st.Notice = app.NoticeSignIn
	}
	s.renderIndex(w, http.StatusOK, page{State: st, Error: msg})
}

func (s *server) submitAuth(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	a, st, _, ok := s.start(w, r)
	if !ok {
		return
	}
	st = a.SwitchTab(st, formTab(r, ui.TabFeed))

	mode := ui.ParseDialogMode(r.FormValue("mode"))
	if mode == ui.DialogClosed {
		mode = ui.DialogLogin
	}
	st = a.OpenAuth(st, mode)

	form := app.AuthForm{
		Username:    r.FormValue("username"),
		Email:       r.FormValue("email"),
		Password:    r.FormValue("password"),
		DisplayName: r.FormValue("displayName"),
	}
	st, err := a.SubmitAuth(r.Context(), st, form)
	if err != nil {
		form.Password = ""
		s.renderIndex(w, failureStatus(err), page{State: st, Auth: form})
		return
	}
	http.Redirect(w, r, tabURL(string(st.Tab)), http.StatusSeeOther)
}

func (s *server) logout(w http.ResponseWriter, r *http.Request) {
	a := s.controller(r)
	if _, err := a.Store.Load(r.Context()); err != nil {
		s.log.Error("load session", zap.Error(err))
		http.Error(w, "Could not load your session.", http.StatusInternalServerError)
		return
	}
	if _, err := a.Logout(r.Context(), ui.NewState()); err != nil {
		s.log.Error("logout", zap.Error(err))
		http.Error(w, "Could not sign out.", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *server) setAPIBase(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	a, st, _, ok := s.start(w, r)
	if !ok {
		return
	}
	st = a.SwitchTab(st, formTab(r, ui.TabFeed))
	st, err := a.SetAPIBase(r.Context(), st, r.FormValue("apiBase"))
	if err != nil {
		s.renderIndex(w, failureStatus(err), page{State: st, Error: app.Message(err)})
		return
	}
	http.Redirect(w, r, tabURL(string(st.Tab)), http.StatusSeeOther)
}

// ==========================
// Editor and posts
// ==========================

func (s *server) editor(w http.ResponseWriter, r *http.Request) {
	a, st, msg, ok := s.start(w, r)
	if !ok {
		return
	}
	s.renderIndex(w, http.StatusOK, page{State: a.SwitchTab(st, ui.TabEditor), Error: msg})
}

func (s *server) cancelEdit(w http.ResponseWriter, r *http.Request) {
	a, st, msg, ok := s.start(w, r)
	if !ok {
		return
	}
	st = a.ResetEditor(a.SwitchTab(st, ui.TabEditor))
	s.renderIndex(w, http.StatusOK, page{State: st, Error: msg})
}

func (s *server) savePost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	a, st, _, ok := s.start(w, r)
	if !ok {
		return
	}
	st = a.SwitchTab(st, ui.TabEditor)
	form := ui.EditorForm{
		ID:      r.FormValue("id"),
		Title:   r.FormValue("title"),
		Content: r.FormValue("content"),
	}
	st, err := a.SavePost(r.Context(), st, form)
	switch {
	case err != nil:
		s.renderIndex(w, failureStatus(err), page{State: st, Error: app.Message(err)})
	case st.Notice != "":
		http.Redirect(w, r, signInURL, http.StatusSeeOther)
	case st.Tab == ui.TabMyPosts:
		http.Redirect(w, r, tabURL(string(ui.TabMyPosts)), http.StatusSeeOther)
	default:
		// Missing title or content: show the form again as typed.
		s.renderIndex(w, http.StatusUnprocessableEntity, page{State: st})
	}
}

// ownPost finds id among the posts the caller may edit.
func ownPost(st ui.State, id models.ID) (view.PostView, bool) {
	if i := view.Find(st.MyPosts, id); i >= 0 {
		return st.MyPosts[i], true
	}
	if i := view.Find(st.Feed, id); i >= 0 && st.Feed[i].CanEdit {
		return st.Feed[i], true
	}
	return view.PostView{}, false
}

func (s *server) editPost(w http.ResponseWriter, r *http.Request) {
	a, st, msg, ok := s.start(w, r)
	if !ok {
		return
	}
	post, found := ownPost(st, models.ID(chi.URLParam(r, "id")))
	if !found {
		s.renderIndex(w, http.StatusNotFound, page{State: st, Error: "Post not found."})
		return
	}
	s.renderIndex(w, http.StatusOK, page{State: a.BeginEdit(st, post), Error: msg})
}

func (s *server) deleteConfirm(w http.ResponseWriter, r *http.Request) {
	_, st, _, ok := s.start(w, r)
	if !ok {
		return
	}
	post, found := ownPost(st, models.ID(chi.URLParam(r, "id")))
	if !found {
		s.renderIndex(w, http.StatusNotFound, page{State: st, Error: "Post not found."})
		return
	}
	st.Tab = ui.TabMyPosts
	s.render(w, http.StatusOK, "delete", page{State: st, Confirm: &post, Prompt: app.DeletePrompt})
}

func (s *server) deletePost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	a, st, _, ok := s.start(w, r)
	if !ok {
		return
	}
	st = a.SwitchTab(st, formTab(r, ui.TabMyPosts))
	confirmed := r.FormValue("confirm") == "yes"
	st, err := a.DeletePost(r.Context(), st, models.ID(chi.URLParam(r, "id")), app.ConfirmFunc(func(string) bool {
		return confirmed
	}))
	if err != nil {
		s.renderIndex(w, failureStatus(err), page{State: st, Error: app.Message(err)})
		return
	}
	http.Redirect(w, r, tabURL(string(st.Tab)), http.StatusSeeOther)
}

// ==========================
// Likes and comments
// ==========================

func (s *server) toggleLike(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	a, st, _, ok := s.start(w, r)
	if !ok {
		return
	}
	st = a.SwitchTab(st, formTab(r, ui.TabFeed))
	st, err := a.ToggleLike(r.Context(), st, models.ID(chi.URLParam(r, "id")))
	s.afterEngage(w, r, st, err)
}

func (s *server) addComment(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	a, st, _, ok := s.start(w, r)
	if !ok {
		return
	}
	st = a.SwitchTab(st, formTab(r, ui.TabFeed))
	st, err := a.AddComment(r.Context(), st, models.ID(chi.URLParam(r, "id")), r.FormValue("content"))
	s.afterEngage(w, r, st, err)
}

// afterEngage shows the patched lists directly so the change is visible
// without another round of loading.
func (s *server) afterEngage(w http.ResponseWriter, r *http.Request, st ui.State, err error) {
	switch {
	case err != nil:
		s.renderIndex(w, failureStatus(err), page{State: st, Error: app.Message(err)})
	case st.Notice != "":
		http.Redirect(w, r, signInURL, http.StatusSeeOther)
	default:
		s.renderIndex(w, http.StatusOK, page{State: st})
	}
}

// ==========================
// Profile
// ==========================

func (s *server) profile(w http.ResponseWriter, r *http.Request) {
	a, st, msg, ok := s.start(w, r)
	if !ok {
		return
	}
	if !st.SignedIn {
		http.Redirect(w, r, signInURL, http.StatusSeeOther)
		return
	}
	st = a.LoadProfile(a.SwitchTab(st, ui.TabProfile))
	s.renderIndex(w, http.StatusOK, page{State: st, Error: msg})
}

func (s *server) updateProfile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	a, st, _, ok := s.start(w, r)
	if !ok {
		return
	}
	if !st.SignedIn {
		http.Redirect(w, r, signInURL, http.StatusSeeOther)
		return
	}
	st = a.SwitchTab(st, ui.TabProfile)
	st, err := a.UpdateProfile(r.Context(), st, ui.ProfileForm{
		DisplayName: r.FormValue("displayName"),
		Bio:         r.FormValue("bio"),
		AvatarURL:   r.FormValue("avatar"),
	})
	if err != nil {
		s.renderIndex(w, failureStatus(err), page{State: st, Error: app.Message(err)})
		return
	}
	s.renderIndex(w, http.StatusOK, page{State: st, Flash: "Profile updated."})
}

func (s *server) uploadAvatar(w http.ResponseWriter, r *http.Request) {
	a, st, _, ok := s.start(w, r)
	if !ok {
		return
	}
	if !st.SignedIn {
		http.Redirect(w, r, signInURL, http.StatusSeeOther)
		return
	}
	st = a.LoadProfile(a.SwitchTab(st, ui.TabProfile))

	if err := r.ParseMultipartForm(app.MaxAvatarBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.renderIndex(w, http.StatusRequestEntityTooLarge, page{State: st, Error: app.ErrAvatarTooLarge.Error()})
			return
		}
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("avatar")
	if err != nil {
		s.renderIndex(w, http.StatusBadRequest, page{State: st, Error: "Choose an image first."})
		return
	}
	defer file.Close()

	st.Profile.DisplayName = r.FormValue("displayName")
	st.Profile.Bio = r.FormValue("bio")
	st, err = a.UploadAvatar(r.Context(), st, app.AvatarFile{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Reader:      file,
	})
	if err != nil {
		status := failureStatus(err)
		if errors.Is(err, app.ErrAvatarTooLarge) || errors.Is(err, app.ErrAvatarType) {
			status = http.StatusUnprocessableEntity
		}
		s.renderIndex(w, status, page{State: st, Error: app.Message(err)})
		return
	}
	s.renderIndex(w, http.StatusOK, page{State: st, Flash: "Avatar uploaded. Save your profile to keep it."})
}
