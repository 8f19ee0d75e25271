package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	// valid returns a fully populated valid config.
	valid := func() *Config {
		cfg := NewConfig()
		cfg.BaseURL = "https://drive.example.ch"
		cfg.Token = "AbCdEf123456789"
		return cfg
	}

	t.Run("valid config", func(t *testing.T) {
		t.Parallel()

		if err := valid().Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"missing share", func(c *Config) { c.Token = "" }, ErrNoShare},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, ErrInvalidTimeout},
		{"zero retries", func(c *Config) { c.MaxRetries = 0 }, ErrInvalidRetries},
		{"negative backoff", func(c *Config) { c.Backoff = -time.Second }, ErrInvalidBackoff},
		{"zero redirect limit", func(c *Config) { c.RedirectLimit = 0 }, ErrInvalidRedirectLimit},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }, ErrInvalidConcurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestNewConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("expected timeout %v, got %v", DefaultTimeout, cfg.Timeout)
	}
	if cfg.MaxRetries != DefaultMaxRetries {
		t.Errorf("expected retries %d, got %d", DefaultMaxRetries, cfg.MaxRetries)
	}
	if cfg.Backoff != DefaultBackoff {
		t.Errorf("expected backoff %v, got %v", DefaultBackoff, cfg.Backoff)
	}
	if cfg.Concurrency != DefaultConcurrency {
		t.Errorf("expected concurrency %d, got %d", DefaultConcurrency, cfg.Concurrency)
	}
}

func TestLoadProfileFile(t *testing.T) {
	t.Parallel()

	t.Run("loads profiles and defaults", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, ".davsnap")
		content := `
defaults:
  base: https://drive.example.ch
shares:
  AbCdEf123456789:
    password: hunter2
    output: exams.json
    concurrency: 4
`
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("write profile: %v", err)
		}

		f, err := LoadProfileFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		p := f.GetShareProfile("AbCdEf123456789")
		if p.Base != "https://drive.example.ch" {
			t.Errorf("expected default base to apply, got %q", p.Base)
		}
		if p.Password != "hunter2" {
			t.Errorf("expected password from profile, got %q", p.Password)
		}
		if p.Output != "exams.json" {
			t.Errorf("expected output from profile, got %q", p.Output)
		}
		if p.Concurrency != 4 {
			t.Errorf("expected concurrency 4, got %d", p.Concurrency)
		}

		// Unknown tokens fall back to defaults only.
		q := f.GetShareProfile("unknown")
		if q.Base != "https://drive.example.ch" || q.Password != "" {
			t.Errorf("expected defaults only for unknown token, got %+v", q)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := LoadProfileFile(filepath.Join(t.TempDir(), "nope"))
		if !errors.Is(err, ErrProfileNotFound) {
			t.Errorf("expected ErrProfileNotFound, got %v", err)
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".davsnap")
		if err := os.WriteFile(path, []byte("shares: ["), 0600); err != nil {
			t.Fatalf("write profile: %v", err)
		}
		if _, err := LoadProfileFile(path); err == nil {
			t.Error("expected error for malformed yaml")
		}
	})
}
