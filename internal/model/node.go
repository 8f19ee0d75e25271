package model

// Node kind values. The JSON field is named "type" for compatibility with
// the tree consumers (filtering and path-extraction tools).
const (
	// KindFile marks a regular file entry.
	KindFile = "file"

	// KindDirectory marks a collection (folder) entry.
	KindDirectory = "directory"
)

// Node is a single entry in the crawled directory tree.
//
// A Node is constructed while parsing one PROPFIND response and is never
// mutated afterwards, with two exceptions: Children is attached once after
// the recursion into a directory completes, and WebURL is set once at
// construction time for files.
//
// Design decision: We use a pointer slice for Children and omitempty
// pointer/string fields rather than a richer sum type because:
//  1. The JSON shape is fixed by the downstream tree consumers
//  2. Absent metadata must serialize as a missing field, not a zero value
//  3. A single struct keeps the parser and walker simple
type Node struct {
	// Type is KindFile or KindDirectory.
	Type string `json:"type"`

	// Name is the last path segment. Empty only for the synthetic root.
	Name string `json:"name"`

	// Path is the slash-separated path relative to the resolved share
	// root, with no leading or trailing slash. The root's path is "".
	Path string `json:"path"`

	// Size is the byte count reported by the server. Nil when the server
	// reported no value or a non-numeric value.
	Size *int64 `json:"size,omitempty"`

	// LastModified is the raw server-supplied timestamp string.
	// We deliberately do not parse it; consumers treat it as opaque.
	LastModified string `json:"last_modified,omitempty"`

	// ContentType is the raw server-supplied MIME string.
	ContentType string `json:"content_type,omitempty"`

	// WebURL is the browser-clickable download URL. Set only on files.
	WebURL string `json:"web_url,omitempty"`

	// Children holds the directory's entries in server response order.
	// Present only on directories; nil on files.
	Children []*Node `json:"children,omitempty"`
}

// IsDir reports whether the node is a directory.
func (n *Node) IsDir() bool {
	return n.Type == KindDirectory
}

// NewRoot returns the synthetic root node wrapping a crawl result.
// The root always has Type directory, empty Name, and empty Path.
func NewRoot(children []*Node) *Node {
	return &Node{
		Type:     KindDirectory,
		Name:     "",
		Path:     "",
		Children: children,
	}
}

// Files returns the paths of all file nodes in the subtree, depth-first,
// in server response order. Directories contribute their descendants but
// not themselves.
func (n *Node) Files() []string {
	var paths []string
	n.walkFiles(&paths)
	return paths
}

func (n *Node) walkFiles(paths *[]string) {
	if !n.IsDir() {
		if n.Path != "" {
			*paths = append(*paths, n.Path)
		}
		return
	}
	for _, child := range n.Children {
		child.walkFiles(paths)
	}
}

// Count returns the number of files and directories in the subtree.
// The synthetic root itself is not counted.
func (n *Node) Count() (files, dirs int) {
	for _, child := range n.Children {
		if child.IsDir() {
			dirs++
			f, d := child.Count()
			files += f
			dirs += d
			continue
		}
		files++
	}
	return files, dirs
}

// TotalSize returns the sum of all reported file sizes in the subtree.
// Files without a reported size contribute zero.
func (n *Node) TotalSize() int64 {
	var total int64
	for _, child := range n.Children {
		if child.IsDir() {
			total += child.TotalSize()
			continue
		}
		if child.Size != nil {
			total += *child.Size
		}
	}
	return total
}
