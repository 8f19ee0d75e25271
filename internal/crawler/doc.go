// Package crawler turns a public WebDAV share into a directory-tree
// snapshot.
//
// # Architecture
//
// A crawl runs in three stages:
//
//   - Resolver: probes the candidate endpoints a share can be served
//     under and picks the first that answers
//   - Walker: expands directories depth-first, one PROPFIND per
//     directory, guarding against cyclic server responses with a
//     visited-path set
//   - Parser: converts each multi-status response into tree nodes,
//     normalizing hrefs against the resolved root
//
// The Walker owns the only mutable crawl state (the visited set). It is
// mutex-guarded, so sibling directories may be expanded concurrently via
// the Concurrency option without a path ever being queried twice; the
// default of 1 keeps the crawl strictly sequential.
//
// # Failure semantics
//
// Errors from the property-query client propagate unmodified through all
// recursion levels and abort the whole crawl. There is no per-directory
// skip-and-continue: a crawl either yields the complete tree or fails.
// Only malformed individual response entries are skipped locally.
package crawler
