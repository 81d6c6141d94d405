package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/maskapp/mask/pkg/api"
	"github.com/maskapp/mask/pkg/output"
	"github.com/spf13/cobra"
)

var (
	postScope     string
	postGroup     string
	postPage      string
	postImage     string
	postImageFile string
	postExpiresIn time.Duration
	postYes       bool
	commentsPage  int
)

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Post commands",
	Long:  "Create, view and interact with posts",
}

var postCreateCmd = &cobra.Command{
	Use:   "create [text]",
	Short: "Create a post",
	Long: `Create a post. Without text arguments the body is read interactively.
Use --group or --page to post into a group or page.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loggedIn()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		if postImageFile != "" {
			up, err := a.api.Upload(ctx, "post", postImageFile)
			if err != nil {
				return err
			}
			postImage = up.URL
		}

		text := strings.Join(args, " ")
		if text == "" && postImage == "" {
			if text, err = a.prompt.Multiline("Post", 50); err != nil {
				return err
			}
		}

		req := api.CreatePostRequest{
			Text:     text,
			ImageURL: postImage,
			Scope:    postScope,
			GroupID:  postGroup,
			PageID:   postPage,
		}
		if postExpiresIn > 0 {
			req.ExpiresIn = int64(postExpiresIn / time.Second)
		}

		post, err := a.api.CreatePost(ctx, req)
		if err != nil {
			return err
		}
		output.PrintSuccess("Posted %s", post.ID)
		return output.Post(*post, time.Now())
	},
}

var postShowCmd = &cobra.Command{
	Use:   "show <post-id>",
	Short: "Show a post and its latest comments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loggedIn()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		post, err := a.api.GetPost(ctx, args[0])
		if err != nil {
			return err
		}
		if err := output.Post(*post, time.Now()); err != nil {
			return err
		}
		if output.GetOutputFormat() == output.FormatJSON || post.CommentCount == 0 {
			return nil
		}
		page, err := a.api.Comments(ctx, post.ID, 1, 10)
		if err != nil {
			return err
		}
		fmt.Fprintln(output.Out)
		return output.Comments(page.Comments, time.Now())
	},
}

var postDeleteCmd = &cobra.Command{
	Use:   "delete <post-id>",
	Short: "Delete one of your posts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loggedIn()
		if err != nil {
			return err
		}
		if !postYes {
			ok, err := a.prompt.Confirm("Delete post " + args[0] + "?")
			if err != nil || !ok {
				return err
			}
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()
		if err := a.api.DeletePost(ctx, args[0]); err != nil {
			return err
		}
		output.PrintSuccess("Deleted %s", args[0])
		return nil
	},
}

var postReactCmd = &cobra.Command{
	Use:   "react <post-id> <" + strings.Join(api.ReactionTypes, "|") + ">",
	Short: "React to a post",
	Long: `React to a post. Reacting again with the same type removes your reaction;
a different type replaces it.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loggedIn()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()
		sum, err := a.api.React(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		if output.GetOutputFormat() == output.FormatJSON {
			return output.JSON(sum)
		}
		switch sum.Outcome {
		case "removed":
			output.PrintInfo("Removed your reaction (%d total)", sum.Total)
		case "changed":
			output.PrintSuccess("Changed your reaction to %s (%d total)", sum.MyReaction, sum.Total)
		default:
			output.PrintSuccess("Reacted %s (%d total)", sum.MyReaction, sum.Total)
		}
		return nil
	},
}

var postCommentCmd = &cobra.Command{
	Use:   "comment <post-id> <text>",
	Short: "Comment on a post",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loggedIn()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()
		c, err := a.api.Comment(ctx, args[0], strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		output.PrintSuccess("Commented %s", c.ID)
		return nil
	},
}

var postCommentsCmd = &cobra.Command{
	Use:   "comments <post-id>",
	Short: "List comments on a post, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loggedIn()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()
		page, err := a.api.Comments(ctx, args[0], commentsPage, 20)
		if err != nil {
			return err
		}
		if len(page.Comments) == 0 {
			output.PrintInfo("No comments.")
			return nil
		}
		if err := output.Comments(page.Comments, time.Now()); err != nil {
			return err
		}
		if page.HasMore {
			output.PrintInfo("More with --page %d", commentsPage+1)
		}
		return nil
	},
}

var postReshareCmd = &cobra.Command{
	Use:   "reshare <post-id> [text]",
	Short: "Reshare a post, optionally with your own text",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loggedIn()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()
		post, err := a.api.Reshare(ctx, args[0], api.ReshareRequest{
			Text:    strings.Join(args[1:], " "),
			Scope:   postScope,
			GroupID: postGroup,
			PageID:  postPage,
		})
		if err != nil {
			return err
		}
		output.PrintSuccess("Reshared as %s", post.ID)
		return nil
	},
}

var postBookmarkCmd = &cobra.Command{
	Use:   "bookmark <post-id>",
	Short: "Save or unsave a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loggedIn()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()
		state, err := a.api.ToggleBookmark(ctx, args[0])
		if err != nil {
			return err
		}
		if cache := a.sess.Bookmarks(); cache != nil {
			cache.Apply(state.PostID, state.Bookmarked)
		}
		if state.Bookmarked {
			output.PrintSuccess("Saved %s", state.PostID)
		} else {
			output.PrintInfo("Removed %s from bookmarks", state.PostID)
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{postCreateCmd, postReshareCmd} {
		c.Flags().StringVar(&postScope, "scope", "", "Scope: global, group or page (inferred from --group/--page)")
		c.Flags().StringVar(&postGroup, "group", "", "Group ID")
		c.Flags().StringVar(&postPage, "page", "", "Page ID")
	}
	postCreateCmd.Flags().StringVar(&postImage, "image", "", "Image URL returned by an earlier upload")
	postCreateCmd.Flags().StringVar(&postImageFile, "image-file", "", "Upload a JPEG, PNG, WEBP or GIF and attach it")
	postCreateCmd.Flags().DurationVar(&postExpiresIn, "expires-in", 0, "Delete the post after this long, e.g. 24h")
	postDeleteCmd.Flags().BoolVarP(&postYes, "yes", "y", false, "Skip confirmation")
	postCommentsCmd.Flags().IntVar(&commentsPage, "page", 1, "Page number")

	postCmd.AddCommand(postCreateCmd)
	postCmd.AddCommand(postShowCmd)
	postCmd.AddCommand(postDeleteCmd)
	postCmd.AddCommand(postReactCmd)
	postCmd.AddCommand(postCommentCmd)
	postCmd.AddCommand(postCommentsCmd)
	postCmd.AddCommand(postReshareCmd)
	postCmd.AddCommand(postBookmarkCmd)
}
