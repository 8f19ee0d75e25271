// Package model defines the core data structures shared across davsnap.
// It contains the directory-tree node produced by a crawl, the snapshot
// wrapper that is serialized to JSON, and the parsed public-share
// reference (base URL + token).
package model
