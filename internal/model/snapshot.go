package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Snapshot is the serializable result of one complete crawl.
// It wraps the directory tree with the share identity and crawl metadata
// so that stored snapshots can be compared across runs.
//
// Design decision: We wrap the tree rather than serializing the root Node
// directly because the history database and the compare command need the
// share identity and a content fingerprint next to the tree, and adding
// those fields to Node would pollute the tree shape consumed downstream.
type Snapshot struct {
	// BaseURL is the share server's base URL (scheme + host).
	BaseURL string `json:"base_url"`

	// Token is the public share token the snapshot was taken from.
	Token string `json:"token"`

	// CrawledAt is the time the crawl completed.
	CrawledAt time.Time `json:"crawled_at"`

	// Files is the number of file nodes in the tree.
	Files int `json:"files"`

	// Directories is the number of directory nodes in the tree.
	Directories int `json:"directories"`

	// TotalSize is the sum of all reported file sizes in bytes.
	TotalSize int64 `json:"total_size"`

	// Fingerprint is the hex sha256 of the canonical tree JSON.
	// Two snapshots with equal fingerprints have identical trees.
	Fingerprint string `json:"fingerprint"`

	// Root is the synthetic root of the crawled tree.
	Root *Node `json:"root"`
}

// NewSnapshot builds a Snapshot for the given share and tree, computing
// the derived counters and the tree fingerprint.
func NewSnapshot(share Share, root *Node, crawledAt time.Time) *Snapshot {
	files, dirs := root.Count()
	return &Snapshot{
		BaseURL:     share.BaseURL,
		Token:       share.Token,
		CrawledAt:   crawledAt,
		Files:       files,
		Directories: dirs,
		TotalSize:   root.TotalSize(),
		Fingerprint: Fingerprint(root),
		Root:        root,
	}
}

// Fingerprint returns the hex sha256 of the node's canonical JSON form.
// encoding/json emits struct fields in declaration order, so equal trees
// always produce equal fingerprints.
func Fingerprint(root *Node) string {
	data, err := json.Marshal(root)
	if err != nil {
		// Node contains only marshalable types; this cannot happen.
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
