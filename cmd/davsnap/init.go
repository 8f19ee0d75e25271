package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/davsnap/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/davsnap.yaml
var profileTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new davsnap profile file",
		Long: `Initialize creates a new .davsnap profile file in the current directory.

The generated file includes:
- Default settings for crawl concurrency
- Commented examples for per-share passwords and output paths
- Documentation for all available options

Examples:
  # Create .davsnap in current directory
  davsnap init

  # Create profile file at a specific path
  davsnap init -o myprofile.yaml

  # Force overwrite existing file
  davsnap init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultProfileFile,
		"Output file path for the profile")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing profile file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	// Check if file already exists
	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("profile file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	// Read template from embedded filesystem
	content, err := profileTemplate.ReadFile("templates/davsnap.yaml")
	if err != nil {
		return fmt.Errorf("failed to read profile template: %w", err)
	}

	// Create parent directories if needed
	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Write profile file with owner-only permissions; it may hold
	// share passwords.
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write profile file: %w", err)
	}

	fmt.Printf("Created profile file: %s\n", outputPath)
	fmt.Println("\nEdit this file to configure per-share settings such as:")
	fmt.Println("  - Share passwords for protected links")
	fmt.Println("  - Output paths per share")
	fmt.Println("  - Crawl concurrency")

	return nil
}
