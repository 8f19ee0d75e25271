// Package log provides logging for davsnap on top of the standard slog
// package, with automatic masking of credentials.
//
// Every request the crawler sends carries the share token and password as
// basic auth, and the crawler logs one event per endpoint probe, per
// PROPFIND attempt, and per listed directory. The SecureHandler makes
// sure none of those events can leak the password or the Authorization
// header, even in verbose mode.
package log
