package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"admctl/internal/config"
	"admctl/internal/container"
	"admctl/pkg/logger"
)

var (
	// Global flags
	verbose   bool
	serverURL string

	// app is the dependency container, built once in PersistentPreRunE.
	app *container.Container
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "admctl",
	Short: "admctl - partner dashboard toolkit for the img-motion activation API",
	Long: `admctl drives the img-motion activation workflow from the terminal:
authenticate, upload trigger images and videos, assemble activations with
their generated derivatives, and manage collections and partners.

Activation assets go through the same pipeline the dashboard uses: the
trigger image is uploaded together with its thumb, ghost and AR derivatives,
the video is size-checked before any bytes leave the machine, and the
finished record answers with a scannable QR code.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if serverURL != "" {
			cfg.ServerURL = serverURL
		}

		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		log, err := logger.New(level, cfg.Environment)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		app, err = container.New(cfg, log)
		if err != nil {
			return fmt.Errorf("failed to initialize dependencies: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if app != nil {
			_ = app.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "override the activation API base URL")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(activationCmd)
	rootCmd.AddCommand(collectionCmd)
	rootCmd.AddCommand(partnerCmd)
	rootCmd.AddCommand(userCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// requireAuth fails fast when no session is persisted, before any API call.
func requireAuth() error {
	if !app.GetSession().IsAuthenticated() {
		return fmt.Errorf("not logged in, run 'admctl login' first")
	}
	return nil
}
