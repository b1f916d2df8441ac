package profile

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/crucial707/blog-client/cmd/cli/config"
	"github.com/crucial707/blog-client/cmd/cli/output"
	"github.com/crucial707/blog-client/internal/app"
	"github.com/crucial707/blog-client/internal/ui"
	"github.com/spf13/cobra"
)

// InitProfile registers the profile commands on the root command.
func InitProfile(rootCmd *cobra.Command) {
	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit your profile",
	}
	profileCmd.AddCommand(showCmd(), updateCmd(), avatarCmd())
	rootCmd.AddCommand(profileCmd)
}

func showCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show your saved profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := config.OpenFor(cmd)
			if err != nil {
				return err
			}
			if err := env.RequireLogin(); err != nil {
				return err
			}
			if asJSON {
				return output.PrintJSON(cmd.OutOrStdout(), env.Store.Current().User)
			}
			printProfile(cmd.OutOrStdout(), env.App.LoadProfile(ui.NewState()).Profile)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	return cmd
}

func printProfile(w io.Writer, p ui.ProfileForm) {
	output.RenderTable(w, []string{"Field", "Value"}, [][]interface{}{
		{"Display name", p.DisplayName},
		{"Bio", p.Bio},
		{"Avatar", p.AvatarURL},
	})
}

func updateCmd() *cobra.Command {
	var displayName, bio, avatar string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change your display name, bio or avatar URL",
		Long:  "Change your profile. Fields not given keep their current value.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := config.OpenFor(cmd)
			if err != nil {
				return err
			}
			if err := env.RequireLogin(); err != nil {
				return err
			}
			st := env.App.LoadProfile(ui.NewState())
			form := st.Profile
			if cmd.Flags().Changed("display-name") {
				form.DisplayName = displayName
			}
			if cmd.Flags().Changed("bio") {
				form.Bio = bio
			}
			if cmd.Flags().Changed("avatar") {
				form.AvatarURL = avatar
			}
			st, err = env.App.UpdateProfile(cmd.Context(), st, form)
			if err != nil {
				return err
			}
			output.Success(cmd.OutOrStdout(), "Profile updated.")
			printProfile(cmd.OutOrStdout(), st.Profile)
			return nil
		},
	}
	cmd.Flags().StringVar(&displayName, "display-name", "", "display name")
	cmd.Flags().StringVar(&bio, "bio", "", "short bio")
	cmd.Flags().StringVar(&avatar, "avatar", "", "avatar image URL")
	return cmd
}

func avatarCmd() *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "avatar <file>",
		Short: "Upload an avatar image (JPEG, PNG, GIF or WebP, up to 5MB)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := config.OpenFor(cmd)
			if err != nil {
				return err
			}
			if err := env.RequireLogin(); err != nil {
				return err
			}

			file, f, err := openAvatar(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			st := env.App.LoadProfile(ui.NewState())
			st, err = env.App.UploadAvatar(cmd.Context(), st, file)
			if err != nil {
				return err
			}
			if !save {
				output.Success(cmd.OutOrStdout(), "Uploaded: %s", st.Profile.AvatarURL)
				output.Dim(cmd.OutOrStdout(), "Run `blog profile update --avatar %s` or pass --save to use it.", st.Profile.AvatarURL)
				return nil
			}
			if _, err := env.App.UpdateProfile(cmd.Context(), st, st.Profile); err != nil {
				return err
			}
			output.Success(cmd.OutOrStdout(), "Avatar saved: %s", st.Profile.AvatarURL)
			return nil
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "save the uploaded avatar to your profile")
	return cmd
}

// openAvatar opens path and sniffs its type from the first bytes.
// The caller closes the returned file.
func openAvatar(path string) (app.AvatarFile, *os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return app.AvatarFile{}, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return app.AvatarFile{}, nil, err
	}
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		f.Close()
		return app.AvatarFile{}, nil, fmt.Errorf("read %s: %w", path, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return app.AvatarFile{}, nil, err
	}
	return app.AvatarFile{
		Filename:    filepath.Base(path),
		ContentType: http.DetectContentType(head[:n]),
		Size:        info.Size(),
		Reader:      f,
	}, f, nil
}
