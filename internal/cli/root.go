package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maskapp/mask/pkg/api"
	"github.com/maskapp/mask/pkg/client"
	"github.com/maskapp/mask/pkg/config"
	"github.com/maskapp/mask/pkg/credentials"
	clierrors "github.com/maskapp/mask/pkg/errors"
	"github.com/maskapp/mask/pkg/logger"
	"github.com/maskapp/mask/pkg/output"
	"github.com/maskapp/mask/pkg/prompter"
	"github.com/maskapp/mask/pkg/session"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	outputFmt  string
	apiURL     string
)

var rootCmd = &cobra.Command{
	Use:   "mask",
	Short: "Mask CLI - pseudonymous social network",
	Long: `Mask CLI is a command-line client for the Mask social network.
Read your feed, post, react, message people and moderate reports
directly from the terminal.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Init(configPath); err != nil {
			return fmt.Errorf("initializing config: %w", err)
		}
		logger.Init(verbose)
		if apiURL != "" {
			config.Set("api.base_url", apiURL)
		}
		return output.SetFormat(outputFmt)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Close()
	},
}

// Execute runs the CLI and exits non-zero on failure
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprint(os.Stderr, clierrors.FormatError(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: ~/.config/mask/config.toml)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "", "Output format: text, json, table")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "API base URL (overrides api.base_url)")

	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(feedCmd)
	rootCmd.AddCommand(postCmd)
	rootCmd.AddCommand(bookmarksCmd)
	rootCmd.AddCommand(notificationsCmd)
	rootCmd.AddCommand(messagesCmd)
	rootCmd.AddCommand(factcheckCmd)
	rootCmd.AddCommand(wellnessCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(adminCmd)
	rootCmd.AddCommand(versionCmd)
}

// app is what a command works with: the session (nil when anonymous), the
// typed API bound to it, and a prompter.
type app struct {
	store  credentials.Store
	sess   *session.Session
	api    *api.API
	prompt *prompter.Prompter
}

func newClient(creds client.Credentials) *client.Client {
	return client.New(config.GetString("api.base_url"), config.GetSeconds("api.timeout"), creds)
}

// anonymous builds an app without credentials, for login and register
func anonymous() *app {
	return &app{
		store:  credentials.NewFileStore(config.GetCredentialsPath()),
		api:    api.New(newClient(nil)),
		prompt: prompter.Stdio(),
	}
}

// loggedIn resumes the saved session and binds the API client to it
func loggedIn() (*app, error) {
	store := credentials.NewFileStore(config.GetCredentialsPath())
	sess, err := session.Resume(store)
	if err != nil {
		return nil, err
	}
	a := &app{
		store:  store,
		sess:   sess,
		api:    api.New(newClient(sess)),
		prompt: prompter.Stdio(),
	}
	sess.UseBookmarks(a.api.BookmarkIDs)
	return a, nil
}

// requestContext bounds a single round of API calls
func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, config.GetSeconds("api.timeout")+5*time.Second)
}
