package main

import (
	"bytes"
	"net/http"
	"net/url"

	"github.com/crucial707/blog-client/internal/app"
	"github.com/crucial707/blog-client/internal/ui"
	"github.com/crucial707/blog-client/internal/view"
	"go.uber.org/zap"
)

// page is everything a template needs.
type page struct {
	State ui.State
	Error string
	Flash string

	// Auth refills the dialog after a failed submit; the password is never echoed.
	Auth app.AuthForm

	Confirm *view.PostView
	Prompt  string
}

// postCard is one post plus the page context its forms need.
type postCard struct {
	Post     view.PostView
	Tab      ui.Tab
	APIBase  string
	SignedIn bool
}

func (p page) Tabs() []ui.Tab { return ui.Tabs }

func (p page) Card(post view.PostView) postCard {
	return postCard{Post: post, Tab: p.State.Tab, APIBase: p.State.APIBase, SignedIn: p.State.SignedIn}
}

// render executes the named template into a buffer first so a template error
// never leaves a half-written page.
func (s *server) render(w http.ResponseWriter, status int, name string, data page) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.log.Error("template execute", zap.String("template", name), zap.Error(err))
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (s *server) renderIndex(w http.ResponseWriter, status int, data page) {
	s.render(w, status, "index", data)
}

// tabURL is the home page on tab; unknown names fall back to the feed.
func tabURL(name string) string {
	tab, err := ui.ParseTab(name)
	if err != nil || tab == ui.TabFeed {
		return "/"
	}
	return "/?tab=" + url.QueryEscape(string(tab))
}

const signInURL = "/?auth=login&notice=signin"

// formTab reads the tab a form was submitted from.
func formTab(r *http.Request, fallback ui.Tab) ui.Tab {
	if tab, err := ui.ParseTab(r.FormValue("tab")); err == nil {
		return tab
	}
	return fallback
}
