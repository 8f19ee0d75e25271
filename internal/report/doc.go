// Package report renders crawl snapshots into output formats.
//
// The package provides three writers: JSON for tool integration,
// Markdown for human-readable summaries, and a plain text listing of
// file paths. All writers implement the Writer interface and can be
// combined with MultiWriter to emit several formats in one run.
package report
