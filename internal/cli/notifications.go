package cli

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/maskapp/mask/pkg/api"
	"github.com/maskapp/mask/pkg/config"
	"github.com/maskapp/mask/pkg/logger"
	"github.com/maskapp/mask/pkg/notify"
	"github.com/maskapp/mask/pkg/output"
	"github.com/maskapp/mask/pkg/websocket"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	notifPage     int
	notifPageSize int
	notifNoLive   bool
)

var notificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"notifs"},
	Short:   "Notification commands",
	Long:    "View and manage notifications",
}

var notificationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notifications, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loggedIn()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		list, err := a.api.Notifications(ctx, notifPage, notifPageSize)
		if err != nil {
			return err
		}
		if output.GetOutputFormat() == output.FormatJSON {
			return output.JSON(list)
		}
		if len(list.Notifications) == 0 {
			output.PrintInfo("No notifications.")
			return nil
		}
		if err := output.Notifications(list.Notifications, time.Now()); err != nil {
			return err
		}
		output.PrintInfo("%d unread", list.UnreadCount)
		return nil
	},
}

var notificationsReadCmd = &cobra.Command{
	Use:   "read [notification-id]",
	Short: "Mark one notification, or all of them, as read",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loggedIn()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		if len(args) == 0 {
			n, err := a.api.MarkAllNotificationsRead(ctx)
			if err != nil {
				return err
			}
			output.PrintSuccess("Marked %d notifications as read", n)
			return nil
		}
		if err := a.api.MarkNotificationRead(ctx, args[0]); err != nil {
			return err
		}
		output.PrintSuccess("Marked %s as read", args[0])
		return nil
	},
}

var notificationsMotivationCmd = &cobra.Command{
	Use:   "motivation",
	Short: "Show today's motivational quote, if it hasn't been read",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loggedIn()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		n, err := a.api.Motivation(ctx)
		if err != nil {
			return err
		}
		if n == nil {
			output.PrintInfo("Nothing new today.")
			return nil
		}
		printNotification(*n)
		return nil
	},
}

var notificationsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch for notifications until interrupted",
	Long: `Print notifications as they arrive. Live events come over the websocket;
the daily motivation check is polled every poll.interval seconds.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loggedIn()
		if err != nil {
			return err
		}
		output.PrintInfo("Watching for notifications (Ctrl+C to stop)")

		g, ctx := errgroup.WithContext(cmd.Context())
		poller := notify.NewPoller(a.api.Motivation, config.GetSeconds("poll.interval"))
		g.Go(func() error {
			return poller.Run(ctx, printNotification)
		})

		if !notifNoLive {
			ws, err := liveClient()
			if err != nil {
				return err
			}
			ws.On(websocket.EventNotification, func(e websocket.Envelope) {
				var n api.Notification
				if err := e.Decode(&n); err != nil {
					logger.Debug("bad notification event", "error", err)
					return
				}
				printNotification(n)
			})
			g.Go(func() error {
				return ws.Run(ctx, a.sess.Token())
			})
		}

		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

// liveClient connects to the websocket endpoint next to api.base_url
func liveClient() (*websocket.Client, error) {
	cfg, err := websocket.DefaultConfig(config.GetString("api.base_url"))
	if err != nil {
		return nil, err
	}
	return websocket.NewClient(cfg), nil
}

// printMu serialises output from the poller and the websocket reader
var printMu sync.Mutex

func printNotification(n api.Notification) {
	printMu.Lock()
	defer printMu.Unlock()
	if output.GetOutputFormat() == output.FormatJSON {
		_ = output.JSON(n)
		return
	}
	if n.Type == "motivation" {
		output.PrintSuccess("✦ %s", n.Message)
		return
	}
	output.PrintInfo("[%s] %s", n.Type, n.Message)
}

func init() {
	notificationsListCmd.Flags().IntVar(&notifPage, "page", 1, "Page number")
	notificationsListCmd.Flags().IntVar(&notifPageSize, "limit", 20, "Notifications per page")
	notificationsWatchCmd.Flags().BoolVar(&notifNoLive, "no-live", false, "Only poll; don't open a websocket")

	notificationsCmd.AddCommand(notificationsListCmd)
	notificationsCmd.AddCommand(notificationsReadCmd)
	notificationsCmd.AddCommand(notificationsMotivationCmd)
	notificationsCmd.AddCommand(notificationsWatchCmd)
}
