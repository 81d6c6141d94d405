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
	searchType  string
	searchLimit int

	reportReason string
	reportNote   string
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search users, posts, groups and pages",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loggedIn()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		res, err := a.api.Search(ctx, strings.Join(args, " "), searchType, searchLimit)
		if err != nil {
			return err
		}
		if output.GetOutputFormat() == output.FormatJSON {
			return output.JSON(res)
		}
		if len(res.Users)+len(res.Posts)+len(res.Groups)+len(res.Pages) == 0 {
			output.PrintInfo("No results for %q", res.Query)
			return nil
		}
		if len(res.Users) > 0 {
			output.PrintInfo("People")
			rows := make([][]string, 0, len(res.Users))
			for _, u := range res.Users {
				rows = append(rows, []string{u.ID, output.AuthorName(u)})
			}
			output.Table([]string{"ID", "PSEUDONYM"}, rows)
		}
		for _, sec := range []struct {
			title string
			refs  []api.Ref
		}{{"Groups", res.Groups}, {"Pages", res.Pages}} {
			if len(sec.refs) == 0 {
				continue
			}
			output.PrintInfo(sec.title)
			rows := make([][]string, 0, len(sec.refs))
			for _, r := range sec.refs {
				rows = append(rows, []string{r.ID, r.Name})
			}
			output.Table([]string{"ID", "NAME"}, rows)
		}
		if len(res.Posts) > 0 {
			output.PrintInfo("Posts")
			return output.Posts(res.Posts, time.Now())
		}
		return nil
	},
}

var reportCmd = &cobra.Command{
	Use:   "report <post|comment|user|group|page> <id>",
	Short: "Report content to the moderators",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loggedIn()
		if err != nil {
			return err
		}
		if reportReason == "" {
			return fmt.Errorf("--reason is required")
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		r, err := a.api.Report(ctx, api.ReportRequest{
			TargetType: args[0],
			TargetID:   args[1],
			Reason:     reportReason,
			Note:       reportNote,
		})
		if err != nil {
			return err
		}
		output.PrintSuccess("Report %s filed. Thank you.", r.ID)
		return nil
	},
}

func init() {
	searchCmd.Flags().StringVarP(&searchType, "type", "t", "", "Restrict to users, posts, groups or pages")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", 10, "Results per type")

	reportCmd.Flags().StringVarP(&reportReason, "reason", "r", "", "Why this should be reviewed (spam, harassment, ...)")
	reportCmd.Flags().StringVar(&reportNote, "note", "", "Extra context for moderators")
}
