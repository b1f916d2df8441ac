package root

import (
	"github.com/crucial707/blog-client/cmd/cli/auth"
	"github.com/crucial707/blog-client/cmd/cli/config"
	"github.com/crucial707/blog-client/cmd/cli/posts"
	"github.com/crucial707/blog-client/cmd/cli/profile"
	"github.com/spf13/cobra"
)

// NewRoot builds the full command tree.
func NewRoot() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "blog",
		Short:         "Blog client",
		Long:          "Command line client for reading, writing and discussing posts on the blog API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	auth.InitAuth(rootCmd)
	posts.InitPosts(rootCmd)
	profile.InitProfile(rootCmd)
	config.InitConfig(rootCmd)
	return rootCmd
}
