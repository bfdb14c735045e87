package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Build info (injected at build time via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Global flags available to all subcommands.
var configFile string

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCmd creates the root command. Without a subcommand it serves.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "wishlist-server",
		Short:         "Wishlist service - gift wishlists with reservations",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "config.yaml", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// NewVersionCmd creates the version subcommand.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.Printf("wishlist-server %s (commit %s, built %s)\n", Version, Commit, BuildTime)
			return nil
		},
	}
}

// configRequired reports whether the config file was named explicitly, in
// which case it must exist.
func configRequired(cmd *cobra.Command) bool {
	return cmd.Flags().Changed("config")
}
