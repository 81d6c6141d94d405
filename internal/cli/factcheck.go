package cli

import (
	"fmt"

	"github.com/maskapp/mask/pkg/output"
	"github.com/spf13/cobra"
)

var factcheckCmd = &cobra.Command{
	Use:   "factcheck <post-id>",
	Short: "Show the AI fact-check annotation for a post",
	Long: `Show the AI fact-check annotation for a post. Checks run in the background
after posting, so a recent post may still be pending.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loggedIn()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		fc, err := a.api.FactCheck(ctx, args[0])
		if err != nil {
			return err
		}
		if output.GetOutputFormat() == output.FormatJSON {
			return output.JSON(fc)
		}
		switch fc.Status {
		case "pending":
			output.PrintInfo("Fact-check pending. Try again in a moment.")
			return nil
		case "unavailable":
			output.PrintInfo("Fact-check unavailable for this post.")
			return nil
		}

		output.FactCheckPill(fc.Verdict)
		fields := [][2]string{{"explanation", fc.Explanation}}
		if fc.Confidence != nil {
			fields = append(fields, [2]string{"confidence", fmt.Sprintf("%.0f%%", *fc.Confidence*100)})
		}
		fields = append(fields, [2]string{"checked", fc.CheckedAt.Local().Format("Jan 2 15:04")})
		return output.Record(fc, fields)
	},
}
