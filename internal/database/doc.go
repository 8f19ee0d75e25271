// Package database provides SQLite-based storage for crawl snapshots.
//
// Every crawl can be persisted as a snapshot row keyed by share token,
// so later runs can be compared against earlier ones. The package uses
// modernc.org/sqlite, a pure Go driver, so the binary stays cgo-free.
package database
