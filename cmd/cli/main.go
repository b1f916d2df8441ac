package main

import (
	"fmt"
	"os"

	"github.com/crucial707/blog-client/cmd/cli/root"
	"github.com/crucial707/blog-client/internal/app"
)

func main() {
	if err := root.NewRoot().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", app.Message(err))
		os.Exit(1)
	}
}
