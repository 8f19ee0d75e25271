// Package config provides configuration structures and utilities for
// davsnap. It defines the crawl options (share identity, timeouts, retry
// budget, concurrency) and the optional per-share profile file.
package config
