package ui

import "testing"

func TestParseTab(t *testing.T) {
	for _, tab := range Tabs {
		got, err := ParseTab(string(tab))
		if err != nil || got != tab {
			t.Errorf("ParseTab(%q): got %q, %v", tab, got, err)
		}
	}
	if _, err := ParseTab("settings"); err == nil {
		t.Error("undeclared tab should be rejected")
	}
}

func TestParseDialogMode(t *testing.T) {
	cases := map[string]DialogMode{
		"login":    DialogLogin,
		"register": DialogRegister,
		"":         DialogClosed,
		"admin":    DialogClosed,
	}
	for in, want := range cases {
		if got := ParseDialogMode(in); got != want {
			t.Errorf("ParseDialogMode(%q): got %v, want %v", in, got, want)
		}
	}
}

func TestEditorForm_Heading(t *testing.T) {
	if h := (EditorForm{}).Heading(); h != "Write a Post" {
		t.Errorf("create heading: got %q", h)
	}
	f := EditorForm{ID: "3"}
	if !f.Editing() || f.Heading() != "Edit Post" {
		t.Errorf("edit heading: got %q", f.Heading())
	}
}

func TestNewState(t *testing.T) {
	st := NewState()
	if st.Tab != TabFeed || st.SidebarOpen || st.Dialog != DialogClosed {
		t.Errorf("unexpected initial state: %+v", st)
	}
}
