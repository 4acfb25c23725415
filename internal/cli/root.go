package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcoot/mpcoord/internal/client"
)

var (
	cfg       *Config
	apiClient *client.API
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	loaded, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %s, using defaults\n", err)
		loaded = DefaultConfig()
	}
	cfg = loaded

	rootCmd := &cobra.Command{
		Use:   "mpctl",
		Short: "CLI tool for the multiplayer coordination server",
		Long: `mpctl talks to a multiplayer coordination server over its JSON API.

It covers accounts, sessions, chat, economy sync, events and server
administration, streams real-time events over WebSocket, and can run a
peer that keeps a session alive with heartbeats.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load token from file if not provided via flag/env
			if err := cfg.LoadToken(); err != nil {
				return err
			}

			apiClient = client.NewAPI(cfg.Server, cfg.Token, cfg.Timeout)
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfg.Server, "server", cfg.Server, "Server URL (env: MPCTL_SERVER)")
	flags.StringVar(&cfg.Realtime, "realtime", cfg.Realtime, "Real-time WebSocket URL (env: MPCTL_REALTIME)")
	flags.StringVar(&cfg.Token, "token", cfg.Token, "Access token (env: MPCTL_TOKEN)")
	flags.StringVar(&cfg.TokenFile, "token-file", cfg.TokenFile, "Token file path (env: MPCTL_TOKEN_FILE)")
	flags.StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	flags.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Request timeout (env: MPCTL_TIMEOUT)")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newSessionCmd())
	rootCmd.AddCommand(newUniverseCmd())
	rootCmd.AddCommand(newEconomyCmd())
	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newEventsCmd())
	rootCmd.AddCommand(newAdminCmd())
	rootCmd.AddCommand(newPeerCmd())
	rootCmd.AddCommand(newInfoCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func output(cmd *cobra.Command) *Output {
	return NewOutput(cfg.Output, cmd.OutOrStdout())
}
