package posts

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/crucial707/blog-client/cmd/cli/config"
	"github.com/crucial707/blog-client/cmd/cli/output"
	"github.com/crucial707/blog-client/internal/app"
	"github.com/crucial707/blog-client/internal/models"
	"github.com/crucial707/blog-client/internal/ui"
	"github.com/crucial707/blog-client/internal/view"
	"github.com/spf13/cobra"
)

// ==========================
// Init Posts
// ==========================
func InitPosts(rootCmd *cobra.Command) {
	postCmd := &cobra.Command{
		Use:   "post",
		Short: "Write, edit or delete your posts",
	}
	postCmd.AddCommand(createPostCmd(), editPostCmd(), deletePostCmd())

	commentCmd := &cobra.Command{
		Use:   "comment",
		Short: "Read or add comments",
	}
	commentCmd.AddCommand(addCommentCmd(), listCommentsCmd())

	rootCmd.AddCommand(feedCmd(), mineCmd(), postCmd, likeCmd(), commentCmd)
}

// ==========================
// LIST
// ==========================
func feedCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "List all posts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := config.OpenFor(cmd)
			if err != nil {
				return err
			}
			st, err := env.App.LoadFeed(cmd.Context(), ui.NewState())
			if err != nil {
				return err
			}
			return printPosts(cmd, st.Feed, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	return cmd
}

func mineCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "mine",
		Short: "List your own posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := config.OpenFor(cmd)
			if err != nil {
				return err
			}
			if err := env.RequireLogin(); err != nil {
				return err
			}
			st, err := env.App.LoadMyPosts(cmd.Context(), ui.NewState())
			if err != nil {
				return err
			}
			return printPosts(cmd, st.MyPosts, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	return cmd
}

func printPosts(cmd *cobra.Command, posts []view.PostView, asJSON bool) error {
	if asJSON {
		raw := make([]models.Post, 0, len(posts))
		for _, p := range posts {
			raw = append(raw, p.Post)
		}
		return output.PrintJSON(cmd.OutOrStdout(), raw)
	}
	if len(posts) == 0 {
		output.Dim(cmd.OutOrStdout(), "No posts yet.")
		return nil
	}
	rows := make([][]interface{}, 0, len(posts))
	for _, p := range posts {
		author := p.Author
		if p.AuthorVerified {
			author += " " + view.VerifiedMark
		}
		rows = append(rows, []interface{}{
			p.ID,
			p.Title,
			author,
			fmt.Sprintf("%s %d", p.Like.Glyph(), p.Like.Count),
			p.Comments.Count,
			p.Timestamp,
		})
	}
	output.RenderTable(cmd.OutOrStdout(), []string{"ID", "Title", "Author", "Likes", "Comments", "Created"}, rows)
	return nil
}

// ==========================
// CREATE / EDIT
// ==========================
func createPostCmd() *cobra.Command {
	var title, content string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Publish a new post",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := config.OpenFor(cmd)
			if err != nil {
				return err
			}
			if err := env.RequireLogin(); err != nil {
				return err
			}
			post, err := env.App.PublishPost(cmd.Context(), ui.EditorForm{Title: title, Content: content})
			if err != nil {
				return err
			}
			output.Success(cmd.OutOrStdout(), "Published %q (id %s).", post.Title, post.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "post title")
	cmd.Flags().StringVar(&content, "content", "", "post body")
	return cmd
}

func editPostCmd() *cobra.Command {
	var title, content string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit one of your posts",
		Long:  "Edit one of your posts. Fields not given keep their current value.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := config.OpenFor(cmd)
			if err != nil {
				return err
			}
			if err := env.RequireLogin(); err != nil {
				return err
			}
			st, err := env.App.LoadMyPosts(cmd.Context(), ui.NewState())
			if err != nil {
				return err
			}
			i := view.Find(st.MyPosts, models.ID(args[0]))
			if i < 0 {
				return fmt.Errorf("post %s is not one of yours", args[0])
			}
			form := env.App.BeginEdit(st, st.MyPosts[i]).Editor
			if cmd.Flags().Changed("title") {
				form.Title = title
			}
			if cmd.Flags().Changed("content") {
				form.Content = content
			}
			post, err := env.App.PublishPost(cmd.Context(), form)
			if err != nil {
				return err
			}
			output.Success(cmd.OutOrStdout(), "Updated %q.", post.Title)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&content, "content", "", "new body")
	return cmd
}

// ==========================
// DELETE
// ==========================
func deletePostCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one of your posts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := config.OpenFor(cmd)
			if err != nil {
				return err
			}
			if err := env.RequireLogin(); err != nil {
				return err
			}
			err = env.App.RemovePost(cmd.Context(), models.ID(args[0]), confirmer(cmd, yes))
			if errors.Is(err, app.ErrNotConfirmed) {
				output.Warn(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}
			if err != nil {
				return err
			}
			output.Success(cmd.OutOrStdout(), "Post deleted.")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "delete without asking")
	return cmd
}

// confirmer asks on the command's input; yes skips the question.
func confirmer(cmd *cobra.Command, yes bool) app.Confirmer {
	return app.ConfirmFunc(func(prompt string) bool {
		if yes {
			return true
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", prompt)
		line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		}
		return false
	})
}

// ==========================
// LIKE / COMMENT
// ==========================
func likeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "like <id>",
		Short: "Like or unlike a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := config.OpenFor(cmd)
			if err != nil {
				return err
			}
			if err := env.RequireLogin(); err != nil {
				return err
			}
			id := models.ID(args[0])
			st, err := env.App.LoadFeed(cmd.Context(), ui.NewState())
			if err != nil {
				return err
			}
			st, err = env.App.ToggleLike(cmd.Context(), st, id)
			if err != nil {
				return err
			}
			if i := view.Find(st.Feed, id); i >= 0 {
				like := st.Feed[i].Like
				fmt.Fprintf(cmd.OutOrStdout(), "%s %d  %s\n", like.Glyph(), like.Count, st.Feed[i].Title)
			}
			return nil
		},
	}
}

func addCommentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <id> <text...>",
		Short: "Comment on a post",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := config.OpenFor(cmd)
			if err != nil {
				return err
			}
			if err := env.RequireLogin(); err != nil {
				return err
			}
			content := strings.TrimSpace(strings.Join(args[1:], " "))
			if content == "" {
				return fmt.Errorf("comment cannot be empty")
			}
			id := models.ID(args[0])
			st, err := env.App.LoadFeed(cmd.Context(), ui.NewState())
			if err != nil {
				return err
			}
			st, err = env.App.AddComment(cmd.Context(), st, id, content)
			if err != nil {
				return err
			}
			if i := view.Find(st.Feed, id); i >= 0 {
				output.Success(cmd.OutOrStdout(), "Comment added (%d total).", st.Feed[i].Comments.Count)
				return nil
			}
			output.Success(cmd.OutOrStdout(), "Comment added.")
			return nil
		},
	}
}

func listCommentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <id>",
		Short: "Show the comments on a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := config.OpenFor(cmd)
			if err != nil {
				return err
			}
			st, err := env.App.LoadFeed(cmd.Context(), ui.NewState())
			if err != nil {
				return err
			}
			i := view.Find(st.Feed, models.ID(args[0]))
			if i < 0 {
				return fmt.Errorf("post %s not found", args[0])
			}
			post := st.Feed[i]
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d comments)\n", post.Title, post.Comments.Count)
			if len(post.Comments.Items) == 0 {
				output.Dim(cmd.OutOrStdout(), "No comments yet.")
				return nil
			}
			rows := make([][]interface{}, 0, len(post.Comments.Items))
			for _, c := range post.Comments.Items {
				rows = append(rows, []interface{}{c.Author, c.Content, c.Timestamp})
			}
			output.RenderTable(cmd.OutOrStdout(), []string{"Author", "Comment", "When"}, rows)
			return nil
		},
	}
}
