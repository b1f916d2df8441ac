package output

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	success = color.New(color.FgGreen)
	warning = color.New(color.FgYellow)
	subtle  = color.New(color.Faint)
)

// Success prints a confirmation line.
func Success(w io.Writer, format string, args ...any) {
	success.Fprintln(w, fmt.Sprintf(format, args...))
}

// Warn prints a line the user should notice.
func Warn(w io.Writer, format string, args ...any) {
	warning.Fprintln(w, fmt.Sprintf(format, args...))
}

// Dim prints secondary information.
func Dim(w io.Writer, format string, args ...any) {
	subtle.Fprintln(w, fmt.Sprintf(format, args...))
}
