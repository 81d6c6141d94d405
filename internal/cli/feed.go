package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/maskapp/mask/pkg/api"
	"github.com/maskapp/mask/pkg/config"
	"github.com/maskapp/mask/pkg/feed"
	"github.com/maskapp/mask/pkg/logger"
	"github.com/maskapp/mask/pkg/output"
	"github.com/maskapp/mask/pkg/wellness"
	"github.com/spf13/cobra"
)

var errDailyLimit = errors.New("daily usage limit reached, come back tomorrow")

var (
	feedTab         string
	feedPages       int
	feedLimit       int
	feedInteractive bool
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Read your feed",
	Long: `Show the forYou or trending feed. With --interactive, press Enter to load
the next page; usage reminders appear while you scroll.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loggedIn()
		if err != nil {
			return err
		}
		limit := feedLimit
		if limit <= 0 {
			limit = config.GetInt("feed.page_size")
		}
		pager, err := feed.NewPager(a.api.Feed, feedTab, limit)
		if err != nil {
			return err
		}
		if feedInteractive {
			return runInteractiveFeed(cmd, a, pager)
		}

		ctx, cancel := requestContext(cmd)
		defer cancel()
		for i := 0; i < max(feedPages, 1) && pager.HasMore(); i++ {
			if _, err := pager.Next(ctx); err != nil {
				return err
			}
		}
		posts := pager.Posts()
		if len(posts) == 0 {
			output.PrintInfo("Nothing here yet.")
			return nil
		}
		return output.Posts(withBookmarks(ctx, a, posts), time.Now())
	},
}

// withBookmarks reconciles each post's saved flag with the bookmark cache so
// toggles made earlier in the session show up.
func withBookmarks(ctx context.Context, a *app, posts []api.Post) []api.Post {
	cache := a.sess.Bookmarks()
	if cache == nil {
		return posts
	}
	for i := range posts {
		saved, err := cache.Has(ctx, posts[i].ID)
		if err != nil {
			logger.Debug("bookmark cache unavailable", "error", err)
			return posts
		}
		posts[i].Bookmarked = saved
	}
	return posts
}

func runInteractiveFeed(cmd *cobra.Command, a *app, pager *feed.Pager) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	tracker, err := startWellness(ctx, a)
	if err != nil {
		return err
	}

	loggedOut := make(chan struct{})
	go func() {
		_ = tracker.Run(ctx, nil, func(e wellness.Effect) {
			switch e.Kind {
			case wellness.Reminder:
				output.PrintInfo("You've been scrolling for %s today. Maybe take a break?", e.Active.Round(time.Minute))
			case wellness.Warning:
				output.PrintWarning("You will be logged out in %s. Type 'ok' to keep going.", e.Remaining.Round(time.Second))
			case wellness.Logout:
				close(loggedOut)
			}
		})
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		for {
			line, err := a.prompt.String("")
			if err != nil {
				return
			}
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
	}()

	load := func() error {
		reqCtx, reqCancel := context.WithTimeout(ctx, config.GetSeconds("api.timeout"))
		defer reqCancel()
		posts, err := pager.Next(reqCtx)
		if err != nil {
			return err
		}
		if len(posts) > 0 {
			if err := output.Posts(withBookmarks(reqCtx, a, posts), time.Now()); err != nil {
				return err
			}
		}
		if !pager.HasMore() {
			output.PrintInfo("You're all caught up.")
		} else {
			output.PrintInfo("[Enter] more  [r] refresh  [ok] dismiss warning  [q] quit")
		}
		return nil
	}

	if err := load(); err != nil {
		return err
	}
	for {
		select {
		case <-loggedOut:
			output.PrintWarning("Daily limit reached.")
			return endSession(cmd, a)
		case line, ok := <-lines:
			if !ok {
				return tracker.Flush()
			}
			tracker.Interact(time.Now())
			switch strings.TrimSpace(strings.ToLower(line)) {
			case "q", "quit":
				return tracker.Flush()
			case "ok":
				if tracker.Acknowledge() {
					output.PrintSuccess("Okay. You have a little more time.")
				}
			case "r":
				pager.Reset()
				if err := load(); err != nil {
					output.PrintError("%v", err)
				}
			default:
				if err := load(); err != nil {
					output.PrintError("%v", err)
				}
			}
		}
	}
}

// startWellness loads the server's thresholds, falling back to defaults when
// the server cannot be reached.
func startWellness(ctx context.Context, a *app) (*wellness.Tracker, error) {
	policy := wellness.DefaultPolicy()
	reqCtx, cancel := context.WithTimeout(ctx, config.GetSeconds("api.timeout"))
	defer cancel()
	if p, _, err := a.api.WellnessPolicy(reqCtx); err == nil {
		policy = p
	} else {
		logger.Debug("using default wellness policy", "error", err)
	}
	store := wellness.NewFileStore(config.GetString("wellness.state_file"))
	tr, err := a.sess.UseWellness(policy, store, time.Now())
	if err != nil {
		return nil, fmt.Errorf("starting wellness timer: %w", err)
	}
	if tr.Status().LoggedOut {
		return nil, errDailyLimit
	}
	return tr, nil
}

func init() {
	feedCmd.Flags().StringVarP(&feedTab, "tab", "t", feed.TabForYou, "Feed tab: forYou or trending")
	feedCmd.Flags().IntVarP(&feedPages, "pages", "p", 1, "Number of pages to load")
	feedCmd.Flags().IntVarP(&feedLimit, "limit", "l", 0, "Posts per page (default feed.page_size)")
	feedCmd.Flags().BoolVarP(&feedInteractive, "interactive", "i", false, "Page through the feed interactively")
}
