// Package ui describes what the client should display. Controllers return a
// new State; renderers draw it.
package ui

import (
	"fmt"

	"github.com/crucial707/blog-client/internal/view"
)

type Tab string

const (
	TabFeed    Tab = "feed"
	TabMyPosts Tab = "my-posts"
	TabEditor  Tab = "editor"
	TabProfile Tab = "profile"
)

// Tabs lists every tab in navigation order.
var Tabs = []Tab{TabFeed, TabMyPosts, TabEditor, TabProfile}

func (t Tab) Label() string {
	switch t {
	case TabMyPosts:
		return "My Posts"
	case TabEditor:
		return "Write"
	case TabProfile:
		return "Profile"
	default:
		return "Feed"
	}
}

// ParseTab accepts only declared tab names.
func ParseTab(s string) (Tab, error) {
	for _, t := range Tabs {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tab %q", s)
}

type DialogMode int

const (
	DialogClosed DialogMode = iota
	DialogLogin
	DialogRegister
)

func (m DialogMode) String() string {
	switch m {
	case DialogLogin:
		return "login"
	case DialogRegister:
		return "register"
	default:
		return "closed"
	}
}

// Label is the dialog heading.
func (m DialogMode) Label() string {
	if m == DialogRegister {
		return "Register"
	}
	return "Login"
}

// ParseDialogMode maps "login" and "register"; anything else is closed.
func ParseDialogMode(s string) DialogMode {
	switch s {
	case "login":
		return DialogLogin
	case "register":
		return DialogRegister
	default:
		return DialogClosed
	}
}

// EditorForm serves both create and update; a non-empty ID means update.
type EditorForm struct {
	ID      string
	Title   string
	Content string
}

func (f EditorForm) Editing() bool { return f.ID != "" }

func (f EditorForm) Heading() string {
	if f.Editing() {
		return "Edit Post"
	}
	return "Write a Post"
}

type ProfileForm struct {
	DisplayName string
	Bio         string
	AvatarURL   string
}

type State struct {
	Tab         Tab
	SidebarOpen bool

	Dialog    DialogMode
	AuthError string

	SignedIn  bool
	UserLabel string
	APIBase   string

	Editor  EditorForm
	Profile ProfileForm

	Feed    []view.PostView
	MyPosts []view.PostView

	// Notice is a blocking message, e.g. asking the user to sign in.
	Notice string
}

// NewState is the initial state: feed tab, sidebar and dialog closed.
func NewState() State {
	return State{Tab: TabFeed}
}
