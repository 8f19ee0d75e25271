// Package main provides the entry point for the davsnap CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for davsnap.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "davsnap",
		Short: "Snapshot tool for public WebDAV shares",
		Long: `davsnap crawls public WebDAV shares (Nextcloud/ownCloud share links)
and produces a snapshot of the complete directory tree, including file
sizes, modification times, and browser-clickable download URLs.

Snapshots are stored in a local history database, so later runs can be
compared against earlier ones to see what was added, removed, or changed.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewListCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
