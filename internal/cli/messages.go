package cli

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/maskapp/mask/pkg/api"
	"github.com/maskapp/mask/pkg/logger"
	"github.com/maskapp/mask/pkg/output"
	"github.com/maskapp/mask/pkg/websocket"
	"github.com/spf13/cobra"
)

var (
	messagesPage  int
	messagesLimit int
)

var messagesCmd = &cobra.Command{
	Use:     "messages",
	Aliases: []string{"dm"},
	Short:   "Direct messages",
}

var conversationsCmd = &cobra.Command{
	Use:   "conversations",
	Short: "List conversations, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loggedIn()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		convs, more, err := a.api.Conversations(ctx, messagesPage, messagesLimit)
		if err != nil {
			return err
		}
		if output.GetOutputFormat() == output.FormatJSON {
			return output.JSON(convs)
		}
		if len(convs) == 0 {
			output.PrintInfo("No conversations yet.")
			return nil
		}
		now := time.Now()
		rows := make([][]string, 0, len(convs))
		for _, c := range convs {
			last := ""
			if c.LastMessage != nil {
				last = c.LastMessage.Text
				if len([]rune(last)) > 40 {
					last = string([]rune(last)[:39]) + "…"
				}
			}
			unread := ""
			if c.UnreadCount > 0 {
				unread = "●"
			}
			rows = append(rows, []string{c.With.ID, output.AuthorName(c.With), last, unread, output.Ago(c.LastMessageAt, now)})
		}
		output.Table([]string{"USER ID", "WITH", "LAST MESSAGE", "", "AGE"}, rows)
		if more {
			output.PrintInfo("More with --page %d", messagesPage+1)
		}
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <user-id>",
	Short: "Show the conversation with a user, oldest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loggedIn()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		h, err := a.api.MessageHistory(ctx, args[0], messagesPage, messagesLimit)
		if err != nil {
			return err
		}
		if len(h.Messages) == 0 {
			output.PrintInfo("No messages yet.")
			return nil
		}
		if h.HasMore {
			output.PrintInfo("Older messages with --page %d", messagesPage+1)
		}
		if err := output.Messages(h.Messages, a.sess.UserID(), "them", time.Now()); err != nil {
			return err
		}
		if _, err := a.api.MarkConversationRead(ctx, args[0]); err != nil {
			logger.Debug("mark read failed", "error", err)
		}
		return nil
	},
}

var sendCmd = &cobra.Command{
	Use:   "send <user-id> <text>",
	Short: "Send a direct message",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loggedIn()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		msg, err := a.api.SendMessage(ctx, args[0], strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		output.PrintSuccess("Sent %s", msg.ID)
		return nil
	},
}

type readReceipt struct {
	ConversationID string    `json:"conversation_id"`
	ReaderID       string    `json:"reader_id"`
	ReadAt         time.Time `json:"read_at"`
}

var watchMessagesCmd = &cobra.Command{
	Use:   "watch [user-id]",
	Short: "Print direct messages as they arrive",
	Long: `Print direct messages as they arrive over the websocket. With a user ID,
only that conversation is shown and incoming messages are marked read.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loggedIn()
		if err != nil {
			return err
		}
		peer := ""
		if len(args) == 1 {
			peer = args[0]
		}
		self := a.sess.UserID()

		ws, err := liveClient()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		ws.On(websocket.EventMessageNew, func(e websocket.Envelope) {
			var m api.Message
			if err := e.Decode(&m); err != nil {
				logger.Debug("bad message event", "error", err)
				return
			}
			if peer != "" && m.SenderID != peer && m.RecipientID != peer {
				return
			}
			name := m.SenderID
			if m.SenderID == self {
				name = "to " + m.RecipientID
			}
			_ = output.Messages([]api.Message{m}, self, name, time.Now())

			if peer != "" && m.SenderID == peer {
				readCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
				defer cancel()
				if _, err := a.api.MarkConversationRead(readCtx, peer); err != nil {
					logger.Debug("mark read failed", "error", err)
				}
			}
		})
		ws.On(websocket.EventMessageRead, func(e websocket.Envelope) {
			var r readReceipt
			if err := e.Decode(&r); err == nil && (peer == "" || r.ReaderID == peer) {
				output.PrintInfo("seen by %s at %s", r.ReaderID, r.ReadAt.Local().Format("15:04"))
			}
		})

		output.PrintInfo("Watching messages (Ctrl+C to stop)")
		if err := ws.Run(ctx, a.sess.Token()); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{conversationsCmd, historyCmd} {
		c.Flags().IntVar(&messagesPage, "page", 1, "Page number")
		c.Flags().IntVar(&messagesLimit, "limit", 30, "Items per page")
	}

	messagesCmd.AddCommand(conversationsCmd)
	messagesCmd.AddCommand(historyCmd)
	messagesCmd.AddCommand(sendCmd)
	messagesCmd.AddCommand(watchMessagesCmd)
}
