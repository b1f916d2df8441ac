package auth

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/crucial707/blog-client/cmd/cli/config"
	"github.com/crucial707/blog-client/cmd/cli/output"
	"github.com/crucial707/blog-client/internal/app"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// InitAuth registers login, register, logout and whoami on the root command.
func InitAuth(rootCmd *cobra.Command) {
	rootCmd.AddCommand(loginCmd(), registerCmd(), logoutCmd(), whoamiCmd())
}

// loginCmd logs in and stores the token and user locally.
func loginCmd() *cobra.Command {
	var form app.AuthForm

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the blog",
		Long:  "Authenticate with the blog API and store the token and user for later commands.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return authenticate(cmd, form, false)
		},
	}

	cmd.Flags().StringVar(&form.Username, "username", "", "Username to log in as")
	cmd.Flags().StringVar(&form.Password, "password", "", "Password (prompted when omitted)")
	return cmd
}

// registerCmd creates an account and then logs in with it.
func registerCmd() *cobra.Command {
	var form app.AuthForm

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return authenticate(cmd, form, true)
		},
	}

	cmd.Flags().StringVar(&form.Username, "username", "", "Username to register")
	cmd.Flags().StringVar(&form.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&form.DisplayName, "display-name", "", "Display name")
	cmd.Flags().StringVar(&form.Password, "password", "", "Password (prompted when omitted)")
	return cmd
}

func authenticate(cmd *cobra.Command, form app.AuthForm, register bool) error {
	env, err := config.OpenFor(cmd)
	if err != nil {
		return err
	}

	in := bufio.NewReader(cmd.InOrStdin())
	if form.Username == "" {
		if form.Username, err = prompt(cmd.OutOrStdout(), in, "Username: "); err != nil {
			return err
		}
	}
	if register && form.Email == "" {
		if form.Email, err = prompt(cmd.OutOrStdout(), in, "Email: "); err != nil {
			return err
		}
	}
	if form.Password == "" {
		if form.Password, err = readPassword(cmd, in); err != nil {
			return err
		}
	}

	user, err := env.App.Authenticate(cmd.Context(), form, register)
	if err != nil {
		return err
	}
	output.Success(cmd.OutOrStdout(), "Logged in as %s.", user.Username)
	return nil
}

func prompt(w io.Writer, in *bufio.Reader, label string) (string, error) {
	fmt.Fprint(w, label)
	line, err := in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.ToLower(label), ": "), err)
	}
	return strings.TrimSpace(line), nil
}

// readPassword reads without echo when stdin is a terminal.
func readPassword(cmd *cobra.Command, in *bufio.Reader) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.OutOrStdout(), "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	line, err := prompt(cmd.OutOrStdout(), in, "Password: ")
	if err != nil {
		return "", err
	}
	return line, nil
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved token and user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := config.OpenFor(cmd)
			if err != nil {
				return err
			}
			if err := env.Store.Clear(cmd.Context()); err != nil {
				return err
			}
			output.Success(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := config.OpenFor(cmd)
			if err != nil {
				return err
			}
			if err := env.RequireLogin(); err != nil {
				return err
			}
			sess := env.Store.Current()
			rows := [][]interface{}{
				{"Username", sess.User.Username},
				{"Display name", sess.User.DisplayName},
				{"Role", sess.User.Role},
				{"API base", sess.APIBase},
			}
			if exp, ok := tokenExpiry(sess.Token); ok {
				rows = append(rows, []interface{}{"Token expires", exp.Local().Format(time.RFC1123)})
			}
			output.RenderTable(cmd.OutOrStdout(), []string{"Field", "Value"}, rows)
			return nil
		},
	}
}

// tokenExpiry reads the exp claim without verifying the signature; the
// client never holds the signing key.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
