package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	RenderTable(&buf, []string{"ID", "Title"}, [][]interface{}{{"1", "Hello"}, {"2", "World"}})

	out := buf.String()
	for _, want := range []string{"ID", "TITLE", "Hello", "World"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintJSON(&buf, map[string]string{"title": "x"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"title": "x"`) {
		t.Errorf("got %s", buf.String())
	}
}

func TestSuccess_NoColorWhenDisabled(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	Success(&buf, "saved %d", 3)
	if buf.String() != "saved 3\n" {
		t.Errorf("got %q, want plain text", buf.String())
	}
}
