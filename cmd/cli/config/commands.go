package config

import (
	"fmt"
	"strings"

	"github.com/crucial707/blog-client/cmd/cli/output"
	"github.com/spf13/cobra"
)

// InitConfig registers the config commands on the root command.
func InitConfig(rootCmd *cobra.Command) {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change client settings",
	}
	configCmd.AddCommand(showCmd(), setAPIBaseCmd())
	rootCmd.AddCommand(configCmd)
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the API base and saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := OpenFor(cmd)
			if err != nil {
				return err
			}
			sess := env.Store.Current()
			user := "(not logged in)"
			if sess.SignedIn() {
				user = sess.User.Username
			}
			output.RenderTable(cmd.OutOrStdout(), []string{"Setting", "Value"}, [][]interface{}{
				{"API base", sess.APIBase},
				{"Session file", env.Backend.Path()},
				{"User", user},
			})
			return nil
		},
	}
}

func setAPIBaseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-api-base <url>",
		Short: "Point the client at another blog API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := strings.TrimSpace(args[0])
			if url == "" {
				return fmt.Errorf("api base cannot be empty")
			}
			env, err := OpenFor(cmd)
			if err != nil {
				return err
			}
			if err := env.Store.SetAPIBase(cmd.Context(), url); err != nil {
				return err
			}
			output.Success(cmd.OutOrStdout(), "API base set to %s", env.Store.APIBase())
			return nil
		},
	}
}
