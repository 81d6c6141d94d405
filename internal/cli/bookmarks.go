package cli

import (
	"time"

	"github.com/maskapp/mask/pkg/output"
	"github.com/spf13/cobra"
)

var (
	bookmarksPage  int
	bookmarksLimit int
)

var bookmarksCmd = &cobra.Command{
	Use:   "bookmarks",
	Short: "List your saved posts, most recently saved first",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loggedIn()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		page, err := a.api.Bookmarks(ctx, bookmarksPage, bookmarksLimit)
		if err != nil {
			return err
		}
		if len(page.Posts) == 0 {
			output.PrintInfo("No bookmarks yet. Save a post with 'mask post bookmark <id>'.")
			return nil
		}
		if err := output.Posts(page.Posts, time.Now()); err != nil {
			return err
		}
		if page.HasMore {
			output.PrintInfo("More with --page %d", bookmarksPage+1)
		}
		return nil
	},
}

func init() {
	bookmarksCmd.Flags().IntVar(&bookmarksPage, "page", 1, "Page number")
	bookmarksCmd.Flags().IntVar(&bookmarksLimit, "limit", 20, "Posts per page")
}
