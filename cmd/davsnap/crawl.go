package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/nao1215/davsnap/internal/config"
	"github.com/nao1215/davsnap/internal/crawler"
	"github.com/nao1215/davsnap/internal/database"
	"github.com/nao1215/davsnap/internal/log"
	"github.com/nao1215/davsnap/internal/model"
	"github.com/nao1215/davsnap/internal/report"
	"github.com/nao1215/davsnap/internal/webdav"
	"github.com/spf13/cobra"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [share-link]",
		Short: "Crawl a public WebDAV share and snapshot its directory tree",
		Long: `Crawl recursively lists a public WebDAV share (Nextcloud/ownCloud
share link) and produces a JSON snapshot of the complete directory tree.

Each file entry carries its size, modification time, content type, and a
browser-clickable download URL. The share is identified either by the
full share link or by --base plus --token.

Examples:
  # Crawl a share by its public link
  davsnap crawl https://drive.example.ch/index.php/s/AbCdEf123456789

  # Crawl a password-protected share
  davsnap crawl -p secret https://drive.example.ch/index.php/s/AbCdEf123456789

  # Identify the share by base URL and token
  davsnap crawl --base https://drive.example.ch --token AbCdEf123456789

  # Write a Markdown report to a file
  davsnap crawl -m -o report.md https://drive.example.ch/index.php/s/AbCdEf123456789

  # Expand up to four sibling directories at once
  davsnap crawl -n 4 https://drive.example.ch/index.php/s/AbCdEf123456789

Profile file (.davsnap) example:
  defaults:
    concurrency: 1
  shares:
    AbCdEf123456789:
      base: "https://drive.example.ch"
      password: "secret"
      output: "snapshots/example.json"`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCrawlCmd,
	}

	// Share identity flags
	cmd.Flags().StringP("base", "b", "",
		"Share server base URL (e.g. https://drive.example.ch)")
	cmd.Flags().String("token", "",
		"Public share token (the part after /s/ in the share link)")
	cmd.Flags().StringP("password", "p", "",
		"Password for protected shares")

	// Crawl behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request attempt")
	cmd.Flags().IntP("retries", "r", config.DefaultMaxRetries,
		"Number of attempts per request")
	cmd.Flags().Duration("backoff", config.DefaultBackoff,
		"Backoff unit between retries (the sleep grows linearly)")
	cmd.Flags().Int("redirect-limit", config.DefaultRedirectLimit,
		"Maximum redirect hops per request")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Number of sibling directories expanded concurrently")

	// Profile file
	cmd.Flags().StringP("config", "c", "",
		"Profile file path (default: .davsnap in current or home directory)")

	// Output flags
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report instead of JSON")
	cmd.Flags().Bool("tree", false,
		"Output only the directory tree, without snapshot metadata")
	cmd.Flags().StringP("output", "o", "",
		"Write snapshot to specified file path (creates directories if needed)")
	cmd.Flags().Bool("no-save", false,
		"Do not store the snapshot in the history database")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, treeOnly, err := buildCrawlConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewLogger(os.Stderr, getVerboseFlag(cmd))
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runCrawl(ctx, cfg, treeOnly, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildCrawlConfig creates a Config from cobra command flags, the share
// link argument, and the optional profile file.
func buildCrawlConfig(cmd *cobra.Command, args []string) (*config.Config, bool, error) {
	cfg := config.NewConfig()

	var err error

	cfg.BaseURL, err = cmd.Flags().GetString("base")
	if err != nil {
		return nil, false, err
	}
	cfg.Token, err = cmd.Flags().GetString("token")
	if err != nil {
		return nil, false, err
	}
	cfg.Password, err = cmd.Flags().GetString("password")
	if err != nil {
		return nil, false, err
	}

	// A share link argument overrides --base/--token.
	if len(args) == 1 {
		share, err := model.ParseShareLink(args[0])
		if err != nil {
			return nil, false, err
		}
		cfg.BaseURL = share.BaseURL
		cfg.Token = share.Token
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, false, err
	}
	cfg.MaxRetries, err = cmd.Flags().GetInt("retries")
	if err != nil {
		return nil, false, err
	}
	cfg.Backoff, err = cmd.Flags().GetDuration("backoff")
	if err != nil {
		return nil, false, err
	}
	cfg.RedirectLimit, err = cmd.Flags().GetInt("redirect-limit")
	if err != nil {
		return nil, false, err
	}
	cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, false, err
	}

	cfg.ProfileFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, false, err
	}

	// Load per-share profiles from the profile file.
	// If user explicitly specified a profile path, error if not found.
	// If no path specified, silently use empty profiles if no file found.
	explicitProfilePath := cfg.ProfileFilePath != ""
	profilePath := config.FindProfileFile(cfg.ProfileFilePath)

	if profilePath != "" {
		cfg.Profiles, err = config.LoadProfileFile(profilePath)
		if err != nil {
			return nil, false, fmt.Errorf("failed to load profile file %s: %w", profilePath, err)
		}
	} else if explicitProfilePath {
		return nil, false, fmt.Errorf("profile file not found: %s", cfg.ProfileFilePath)
	} else {
		cfg.Profiles = &config.File{
			Shares: make(map[string]config.ShareProfile),
		}
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, false, err
	}
	treeOnly, err := cmd.Flags().GetBool("tree")
	if err != nil {
		return nil, false, err
	}
	cfg.OutputFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, false, err
	}
	cfg.NoSave, err = cmd.Flags().GetBool("no-save")
	if err != nil {
		return nil, false, err
	}

	// Fill unset values from the share's profile. Flags always win.
	applyProfile(cmd, cfg)

	cfg.DBDir = config.XDGDataDir()

	return cfg, treeOnly, nil
}

// applyProfile merges the profile file settings for the configured share
// into cfg, for every setting not given explicitly on the command line.
func applyProfile(cmd *cobra.Command, cfg *config.Config) {
	if cfg.Profiles == nil || cfg.Token == "" {
		return
	}
	profile := cfg.Profiles.GetShareProfile(cfg.Token)

	if cfg.BaseURL == "" && profile.Base != "" {
		cfg.BaseURL = profile.Base
	}
	if !cmd.Flags().Changed("password") && profile.Password != "" {
		cfg.Password = profile.Password
	}
	if !cmd.Flags().Changed("output") && profile.Output != "" {
		cfg.OutputFile = profile.Output
	}
	if !cmd.Flags().Changed("concurrency") && profile.Concurrency > 0 {
		cfg.Concurrency = profile.Concurrency
	}
}

// runCrawl executes the crawl.
func runCrawl(ctx context.Context, cfg *config.Config, treeOnly bool, logger *slog.Logger) error {
	share, err := model.NewShare(cfg.BaseURL, cfg.Token)
	if err != nil {
		return err
	}
	share.Password = cfg.Password

	logger.Info("starting crawl",
		"base", share.BaseURL,
		"token", share.Token,
		"concurrency", cfg.Concurrency,
	)

	client := webdav.New(&http.Client{}, share.Token, share.Password,
		webdav.WithTimeout(cfg.Timeout),
		webdav.WithMaxRetries(cfg.MaxRetries),
		webdav.WithBackoff(cfg.Backoff),
		webdav.WithRedirectLimit(cfg.RedirectLimit),
		webdav.WithLogger(logger),
	)

	rootURL, err := crawler.NewResolver(client, share, logger).Resolve(ctx)
	if err != nil {
		if errors.Is(err, crawler.ErrEndpointNotFound) {
			return fmt.Errorf("no WebDAV endpoint answered for %s (check the share link and password)", share.Token)
		}
		return err
	}
	logger.Info("resolved WebDAV endpoint", "url", rootURL)

	walker, err := crawler.NewWalker(client, share, rootURL,
		crawler.WithConcurrency(cfg.Concurrency),
		crawler.WithWalkerLogger(logger),
	)
	if err != nil {
		return err
	}

	startTime := time.Now()
	root, err := walker.Crawl(ctx)
	if err != nil {
		return fmt.Errorf("crawl failed: %w", err)
	}
	elapsed := time.Since(startTime)

	snapshot := model.NewSnapshot(share, root, time.Now())
	fmt.Fprintf(os.Stderr, "Crawled %d files in %d directories (%s)\n",
		snapshot.Files, snapshot.Directories, elapsed.Round(time.Millisecond))

	if err := outputSnapshot(cfg, treeOnly, snapshot); err != nil {
		return err
	}

	if !cfg.NoSave {
		if err := saveSnapshot(ctx, cfg, snapshot, logger); err != nil {
			logger.Error("failed to save snapshot", "token", share.Token, "error", err)
		}
	}

	return nil
}

// outputSnapshot writes the snapshot in the requested format.
func outputSnapshot(cfg *config.Config, treeOnly bool, snapshot *model.Snapshot) error {
	var output *os.File
	if cfg.OutputFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.OutputFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var writer report.Writer
	switch {
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	case treeOnly:
		writer = report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithTreeOnly())
	default:
		writer = report.NewJSONWriter(output, report.WithPrettyPrint())
	}

	_, err := writer.Write(snapshot)
	return err
}

// saveSnapshot stores the snapshot in the history database.
func saveSnapshot(ctx context.Context, cfg *config.Config, snapshot *model.Snapshot, logger *slog.Logger) error {
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	id, err := db.SaveSnapshot(ctx, snapshot)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	logger.Info("snapshot saved to database", "token", snapshot.Token, "id", id)
	return nil
}

// shareTokenArg extracts a share token from a command argument that is
// either a full share link or a bare token.
func shareTokenArg(arg string) (string, error) {
	if strings.Contains(arg, "://") {
		share, err := model.ParseShareLink(arg)
		if err != nil {
			return "", err
		}
		return share.Token, nil
	}
	return arg, nil
}
