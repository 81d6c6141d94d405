package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/maskapp/mask/pkg/output"
	"github.com/spf13/cobra"
)

var (
	adminPage   int
	adminLimit  int
	adminStatus string
	adminAuthor string
	adminYes    bool
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Moderation console",
	Long: `Moderation commands. Requires an admin account, or an admin key stored
with 'mask auth admin-key' when the server gates the console by key.`,
}

var adminStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show site totals",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loggedIn()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()
		s, err := a.api.AdminStats(ctx)
		if err != nil {
			return err
		}
		return output.Record(s, [][2]string{
			{"Users", fmt.Sprint(s.Users)},
			{"Posts", fmt.Sprint(s.Posts)},
			{"Groups", fmt.Sprint(s.Groups)},
			{"Pages", fmt.Sprint(s.Pages)},
			{"Open reports", fmt.Sprint(s.OpenReports)},
		})
	},
}

var adminReportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Review reported content",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loggedIn()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()
		list, err := a.api.AdminReports(ctx, adminStatus, adminPage, adminLimit)
		if err != nil {
			return err
		}
		if output.GetOutputFormat() == output.FormatJSON {
			return output.JSON(list)
		}
		if len(list.Reports) == 0 {
			output.PrintInfo("No reports.")
			return nil
		}
		now := time.Now()
		rows := make([][]string, 0, len(list.Reports))
		for _, r := range list.Reports {
			reason := r.Reason
			if r.Note != "" {
				reason += ": " + r.Note
			}
			rows = append(rows, []string{r.ID, r.TargetType, r.TargetID, reason, r.Status, output.Ago(r.CreatedAt, now)})
		}
		output.Table([]string{"ID", "TARGET", "TARGET ID", "REASON", "STATUS", "AGE"}, rows)
		if list.HasMore {
			output.PrintInfo("More with --page %d", adminPage+1)
		}
		return nil
	},
}

func reportStatusCmd(use, status, verb string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <report-id>",
		Short: strings.ToUpper(verb[:1]) + verb[1:] + " a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loggedIn()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			r, err := a.api.AdminUpdateReport(ctx, args[0], status)
			if err != nil {
				return err
			}
			output.PrintSuccess("Report %s %s", r.ID, r.Status)
			return nil
		},
	}
}

var adminUsersCmd = &cobra.Command{
	Use:   "users [query]",
	Short: "List or search accounts",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loggedIn()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()
		q := ""
		if len(args) == 1 {
			q = args[0]
		}
		list, err := a.api.AdminUsers(ctx, q, adminPage, adminLimit)
		if err != nil {
			return err
		}
		if output.GetOutputFormat() == output.FormatJSON {
			return output.JSON(list)
		}
		rows := make([][]string, 0, len(list.Users))
		for _, u := range list.Users {
			state := "active"
			switch {
			case u.DeletedAt != nil:
				state = "deleted"
			case u.Disabled:
				state = "disabled"
			}
			rows = append(rows, []string{u.ID, u.Pseudonym, u.Email, u.Role, state})
		}
		output.Table([]string{"ID", "PSEUDONYM", "EMAIL", "ROLE", "STATE"}, rows)
		output.PrintInfo("%d of %d", len(list.Users), list.Total)
		return nil
	},
}

var adminRoleCmd = &cobra.Command{
	Use:   "role <user-id> <user|admin>",
	Short: "Change an account's role",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loggedIn()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()
		u, err := a.api.AdminSetRole(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		output.PrintSuccess("@%s is now %s", u.Pseudonym, u.Role)
		return nil
	},
}

func disableCmd(use string, disabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <user-id>",
		Short: map[bool]string{true: "Block an account from signing in", false: "Re-enable a disabled account"}[disabled],
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loggedIn()
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			u, err := a.api.AdminSetDisabled(ctx, args[0], disabled)
			if err != nil {
				return err
			}
			if u.Disabled {
				output.PrintSuccess("Disabled @%s", u.Pseudonym)
			} else {
				output.PrintSuccess("Enabled @%s", u.Pseudonym)
			}
			return nil
		},
	}
}

var adminQuotesCmd = &cobra.Command{
	Use:   "quotes",
	Short: "List motivational quotes",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loggedIn()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()
		quotes, err := a.api.AdminQuotes(ctx)
		if err != nil {
			return err
		}
		if output.GetOutputFormat() == output.FormatJSON {
			return output.JSON(quotes)
		}
		rows := make([][]string, 0, len(quotes))
		for _, q := range quotes {
			active := "no"
			if q.Active {
				active = "yes"
			}
			rows = append(rows, []string{q.ID, q.Text, q.Author, active})
		}
		output.Table([]string{"ID", "TEXT", "AUTHOR", "ACTIVE"}, rows)
		return nil
	},
}

var adminQuoteAddCmd = &cobra.Command{
	Use:   "add-quote <text>",
	Short: "Add a motivational quote",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loggedIn()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()
		q, err := a.api.AdminCreateQuote(ctx, strings.Join(args, " "), adminAuthor)
		if err != nil {
			return err
		}
		output.PrintSuccess("Added quote %s", q.ID)
		return nil
	},
}

var adminQuoteDeleteCmd = &cobra.Command{
	Use:   "delete-quote <quote-id>",
	Short: "Delete a motivational quote",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loggedIn()
		if err != nil {
			return err
		}
		if !adminYes {
			ok, err := a.prompt.Confirm("Delete quote " + args[0] + "?")
			if err != nil || !ok {
				return err
			}
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()
		if err := a.api.AdminDeleteQuote(ctx, args[0]); err != nil {
			return err
		}
		output.PrintSuccess("Deleted quote %s", args[0])
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{adminReportsCmd, adminUsersCmd} {
		c.Flags().IntVar(&adminPage, "page", 1, "Page number")
		c.Flags().IntVar(&adminLimit, "limit", 20, "Items per page")
	}
	adminReportsCmd.Flags().StringVar(&adminStatus, "status", "open", "Filter: open, resolved, dismissed or empty for all")
	adminReportsCmd.AddCommand(reportStatusCmd("resolve", "resolved", "resolve"))
	adminReportsCmd.AddCommand(reportStatusCmd("dismiss", "dismissed", "dismiss"))

	adminUsersCmd.AddCommand(adminRoleCmd)
	adminUsersCmd.AddCommand(disableCmd("disable", true))
	adminUsersCmd.AddCommand(disableCmd("enable", false))

	adminQuoteAddCmd.Flags().StringVar(&adminAuthor, "author", "", "Attribution")
	adminQuoteDeleteCmd.Flags().BoolVarP(&adminYes, "yes", "y", false, "Skip confirmation")
	adminQuotesCmd.AddCommand(adminQuoteAddCmd)
	adminQuotesCmd.AddCommand(adminQuoteDeleteCmd)

	adminCmd.AddCommand(adminStatsCmd)
	adminCmd.AddCommand(adminReportsCmd)
	adminCmd.AddCommand(adminUsersCmd)
	adminCmd.AddCommand(adminQuotesCmd)
}
