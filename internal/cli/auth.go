package cli

import (
	"fmt"
	"time"

	"github.com/maskapp/mask/pkg/api"
	"github.com/maskapp/mask/pkg/config"
	"github.com/maskapp/mask/pkg/credentials"
	"github.com/maskapp/mask/pkg/logger"
	"github.com/maskapp/mask/pkg/output"
	"github.com/maskapp/mask/pkg/session"
	"github.com/maskapp/mask/pkg/wellness"
	"github.com/spf13/cobra"
)

var (
	loginIdentifier string
	registerEmail   string
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
	Long:  "Sign in to Mask, sign out, and inspect the current account",
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new Mask account",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := anonymous()
		pseudonym, err := a.prompt.String("Pseudonym: ")
		if err != nil {
			return err
		}
		password, err := a.prompt.Password("Password: ")
		if err != nil {
			return err
		}

		ctx, cancel := requestContext(cmd)
		defer cancel()
		resp, err := a.api.Register(ctx, api.RegisterRequest{Pseudonym: pseudonym, Email: registerEmail, Password: password})
		if err != nil {
			return err
		}
		if err := startSession(a.store, resp); err != nil {
			return err
		}
		output.PrintSuccess("Welcome, @%s", resp.User.Pseudonym)
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with your pseudonym or email",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := anonymous()
		identifier := loginIdentifier
		if identifier == "" {
			var err error
			if identifier, err = a.prompt.String("Pseudonym or email: "); err != nil {
				return err
			}
		}
		password, err := a.prompt.Password("Password: ")
		if err != nil {
			return err
		}

		ctx, cancel := requestContext(cmd)
		defer cancel()
		resp, err := a.api.Login(ctx, identifier, password)
		if err != nil {
			return err
		}
		if err := startSession(a.store, resp); err != nil {
			return err
		}
		output.PrintSuccess("Logged in as @%s", resp.User.Pseudonym)
		return nil
	},
}

// startSession persists the token the server issued
func startSession(store credentials.Store, resp *api.AuthResponse) error {
	_, err := session.New(store, &credentials.Credentials{
		AccessToken: resp.Token,
		ExpiresAt:   resp.ExpiresAt,
		UserID:      resp.User.ID,
		Pseudonym:   resp.User.Pseudonym,
		Role:        resp.User.Role,
	})
	return err
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and clear local session state",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loggedIn()
		if err != nil {
			output.PrintInfo("Not logged in.")
			return nil
		}
		return endSession(cmd, a)
	},
}

// endSession tells the server, then clears everything stored locally even if
// the server could not be reached.
func endSession(cmd *cobra.Command, a *app) error {
	ctx, cancel := requestContext(cmd)
	defer cancel()
	if err := a.api.Logout(ctx); err != nil {
		logger.Warn("server logout failed", "error", err)
	}
	if err := wellness.NewFileStore(config.GetString("wellness.state_file")).Remove(); err != nil {
		logger.Warn("clearing wellness state", "error", err)
	}
	if err := a.sess.Close(); err != nil {
		return err
	}
	output.PrintSuccess("Logged out.")
	return nil
}

var whoamiCmd = &cobra.Command{
	Use:     "whoami",
	Aliases: []string{"me"},
	Short:   "Display the current account",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loggedIn()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()
		u, err := a.api.Me(ctx)
		if err != nil {
			return err
		}
		return output.Record(u, [][2]string{
			{"id", u.ID},
			{"pseudonym", "@" + u.Pseudonym},
			{"role", u.Role},
			{"followers", fmt.Sprint(u.FollowersCount)},
			{"following", fmt.Sprint(u.FollowingCount)},
			{"joined", u.CreatedAt.Local().Format("Jan 2, 2006")},
			{"session expires", a.sess.ExpiresAt().Local().Format(time.RFC822)},
		})
	},
}

var adminKeyCmd = &cobra.Command{
	Use:   "admin-key",
	Short: "Store the shared admin key sent with admin requests",
	Long: `Store the shared admin key for servers that gate the admin console by key
rather than by role. Pass an empty value to forget it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loggedIn()
		if err != nil {
			return err
		}
		key, err := a.prompt.Password("Admin key: ")
		if err != nil {
			return err
		}
		if err := a.sess.SetAdminKey(key); err != nil {
			return err
		}
		if key == "" {
			output.PrintInfo("Admin key cleared.")
		} else {
			output.PrintSuccess("Admin key saved.")
		}
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginIdentifier, "user", "u", "", "Pseudonym or email")
	registerCmd.Flags().StringVar(&registerEmail, "email", "", "Optional email address")

	authCmd.AddCommand(registerCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(whoamiCmd)
	authCmd.AddCommand(adminKeyCmd)
}
