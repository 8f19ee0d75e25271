package config

import "errors"

// Configuration validation errors returned by Config.Validate().
// Package-level sentinel errors allow callers to use errors.Is() while
// still carrying human-readable messages.
var (
	// ErrNoShare is returned when no share is specified. Either a full
	// share link or a base URL plus token is required.
	ErrNoShare = errors.New("no share specified: provide a share link or --base and --token")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidRetries is returned when the retry count is not positive.
	// Zero attempts would mean no request is ever sent.
	ErrInvalidRetries = errors.New("invalid retry count: must be positive")

	// ErrInvalidBackoff is returned when the backoff unit is negative.
	// Use 0 for no delay between attempts.
	ErrInvalidBackoff = errors.New("invalid backoff: must be non-negative")

	// ErrInvalidRedirectLimit is returned when the redirect hop limit is
	// not positive. At least one hop is required to follow the endpoint
	// redirects some deployments issue.
	ErrInvalidRedirectLimit = errors.New("invalid redirect limit: must be positive")

	// ErrInvalidConcurrency is returned when the concurrency is not
	// positive. Use 1 for a sequential crawl.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")
)
