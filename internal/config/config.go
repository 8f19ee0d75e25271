package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These mirror the behavior of typical public-share deployments: shares
// are served over plain HTTPS, so timeouts can be much tighter than for
// high-latency networks, but servers behind reverse proxies still drop
// the occasional request, hence the retry budget.
const (
	// DefaultTimeout bounds every individual PROPFIND attempt.
	// 30 seconds covers slow shared-hosting instances without stalling
	// the whole crawl on a dead server.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the number of attempts per logical PROPFIND.
	// Three attempts recovers from transient connection drops while
	// keeping a fully unreachable server's failure time bounded.
	DefaultMaxRetries = 3

	// DefaultBackoff is the backoff unit between retries. The sleep
	// grows linearly: backoff*1 after the first failure, backoff*2 after
	// the second, and so on. Linear, not exponential: the retry budget
	// is small and share servers recover quickly or not at all.
	DefaultBackoff = 800 * time.Millisecond

	// DefaultRedirectLimit caps redirect hops per logical request,
	// independent of the retry budget. Servers redirect the legacy
	// webdav endpoint at most once or twice; anything past this limit
	// is a redirect loop.
	DefaultRedirectLimit = 5

	// DefaultConcurrency is the number of directories expanded at once.
	// 1 keeps the crawl strictly sequential and polite, matching the
	// one-outstanding-request model most share servers expect.
	DefaultConcurrency = 1

	// AppName is the application name used for XDG directory paths.
	AppName = "davsnap"
)

// Config holds all configuration options for a davsnap run.
// It is populated from CLI flags and the optional profile file and passed
// through the application via dependency injection rather than global state.
type Config struct {
	// BaseURL is the share server's base URL (e.g. "https://drive.example.ch").
	BaseURL string

	// Token is the public share token from the /s/<token> link.
	Token string

	// Password is the share password for protected links, or empty.
	Password string

	// Timeout is the per-attempt request timeout.
	Timeout time.Duration

	// MaxRetries is the number of attempts per logical PROPFIND request.
	MaxRetries int

	// Backoff is the linear backoff unit between retry attempts.
	Backoff time.Duration

	// RedirectLimit caps redirect hops per logical request.
	RedirectLimit int

	// Concurrency is the number of sibling directories expanded
	// concurrently. 1 means a strictly sequential depth-first crawl.
	Concurrency int

	// OutputFile is the path the snapshot report is written to.
	// Empty means stdout.
	OutputFile string

	// MarkdownReport switches the report output from JSON to Markdown.
	MarkdownReport bool

	// NoSave disables persisting the snapshot to the history database.
	NoSave bool

	// DBDir is the directory holding the snapshot history database.
	// Defaults to the XDG data directory.
	DBDir string

	// Verbose enables debug-level log output.
	Verbose bool

	// ProfileFilePath is the path to the profile file. If empty, the
	// tool searches for .davsnap in the current and home directories.
	ProfileFilePath string

	// Profiles holds per-share settings loaded from the profile file.
	Profiles *File
}

// NewConfig creates a Config with default values. Non-zero defaults live
// here rather than in flag definitions so library callers get the same
// behavior as the CLI.
func NewConfig() *Config {
	return &Config{
		Timeout:       DefaultTimeout,
		MaxRetries:    DefaultMaxRetries,
		Backoff:       DefaultBackoff,
		RedirectLimit: DefaultRedirectLimit,
		Concurrency:   DefaultConcurrency,
		DBDir:         XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for davsnap.
// On Linux: ~/.local/share/davsnap
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for davsnap.
// On Linux: ~/.config/davsnap
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid, returning the first
// problem found. It is called once after flag parsing, before any
// network activity.
func (c *Config) Validate() error {
	if c.BaseURL == "" || c.Token == "" {
		return ErrNoShare
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxRetries <= 0 {
		return ErrInvalidRetries
	}
	if c.Backoff < 0 {
		return ErrInvalidBackoff
	}
	if c.RedirectLimit <= 0 {
		return ErrInvalidRedirectLimit
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	return nil
}
