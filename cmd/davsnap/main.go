// Package main provides the entry point for the davsnap CLI.
//
// davsnap crawls public WebDAV shares (Nextcloud/ownCloud share links)
// and produces a JSON snapshot of the complete directory tree, with
// per-file metadata and browser-clickable download URLs.
//
// Usage:
//
//	davsnap crawl <share-link>
//	davsnap compare <share-link>
//
// See --help for all available options.
package main

// main is the entry point for davsnap.
func main() {
	Execute()
}
