package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/maskapp/mask/pkg/config"
	"github.com/maskapp/mask/pkg/logger"
	"github.com/maskapp/mask/pkg/output"
	"github.com/maskapp/mask/pkg/wellness"
	"github.com/spf13/cobra"
)

var wellnessCmd = &cobra.Command{
	Use:   "wellness",
	Short: "Daily usage timer",
}

var wellnessStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show today's active time and the limits that apply",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loggedIn()
		if err != nil {
			return err
		}

		policy, source := wellness.DefaultPolicy(), "default"
		ctx, cancel := context.WithTimeout(cmd.Context(), config.GetSeconds("api.timeout"))
		defer cancel()
		if p, _, err := a.api.WellnessPolicy(ctx); err == nil {
			policy, source = p, "server"
		} else {
			logger.Debug("using default wellness policy", "error", err)
		}

		tr, err := a.sess.UseWellness(policy, wellness.NewFileStore(config.GetString("wellness.state_file")), time.Now())
		if err != nil {
			return err
		}
		st := tr.Status()

		state := "active"
		switch {
		case st.LoggedOut:
			state = "limit reached"
		case st.Warned:
			state = "warned"
		}
		return output.Record(struct {
			wellness.Status
			Policy wellness.Wire `json:"policy"`
		}{st, policy.Wire()}, [][2]string{
			{"Today", st.Active.Round(time.Second).String()},
			{"Remaining", st.Remaining.Round(time.Second).String()},
			{"Limit", st.NextLimit.String()},
			{"State", state},
			{"Reminders every", policy.ReminderEvery.String()},
			{"Policy", fmt.Sprintf("%s (%s)", policy.Hash(), source)},
		})
	},
}

func init() {
	wellnessCmd.AddCommand(wellnessStatusCmd)
}
