package crawler

import (
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/nao1215/davsnap/internal/model"
	"github.com/nao1215/davsnap/internal/webdav"
)

// Parser converts multi-status responses into tree nodes.
// It normalizes every entry's href against the resolved root collection
// URL, so node paths are always relative to the share root regardless of
// whether the server answered with relative hrefs, absolute server-root
// paths, or full URLs.
type Parser struct {
	// root is the resolved root collection URL.
	root *url.URL

	// share is used to derive browser download URLs for file nodes.
	share model.Share
}

// NewParser creates a Parser for the given share and resolved root URL.
func NewParser(share model.Share, rootURL string) (*Parser, error) {
	root, err := url.Parse(rootURL)
	if err != nil {
		return nil, fmt.Errorf("invalid root URL: %w", err)
	}
	return &Parser{root: root, share: share}, nil
}

// Parse converts the multi-status response for queryURL into nodes, in
// server response order. The queried collection's own self-entry is
// included; the walker filters it out. Entries missing an href or a
// usable prop block are skipped rather than failing the whole response.
func (p *Parser) Parse(queryURL string, ms *webdav.Multistatus) ([]*model.Node, error) {
	base, err := url.Parse(queryURL)
	if err != nil {
		return nil, fmt.Errorf("invalid query URL: %w", err)
	}

	nodes := make([]*model.Node, 0, len(ms.Responses))
	for i := range ms.Responses {
		if node := p.nodeFromResponse(base, &ms.Responses[i]); node != nil {
			nodes = append(nodes, node)
		}
	}
	return nodes, nil
}

// nodeFromResponse builds one node from one response entry, or nil when
// the entry is malformed.
func (p *Parser) nodeFromResponse(base *url.URL, resp *webdav.Response) *model.Node {
	if resp.Href == "" {
		return nil
	}
	prop := resp.FoundProp()
	if prop == nil {
		return nil
	}

	href, err := url.Parse(resp.Href)
	if err != nil {
		return nil
	}
	rel := p.relFromPath(base.ResolveReference(href).Path)

	node := &model.Node{
		Type:         model.KindFile,
		Name:         path.Base("/" + rel),
		Path:         rel,
		LastModified: prop.LastModified,
		ContentType:  prop.ContentType,
	}
	if rel == "" {
		node.Name = "" // root self-entry
	}

	if prop.IsCollection() {
		node.Type = model.KindDirectory
		// Collections carry no size, content type, or download URL.
		node.ContentType = ""
		return node
	}

	node.Size = parseSize(prop.ContentLength)
	if rel != "" {
		node.WebURL = BuildFileURL(p.share, rel)
	}
	return node
}

// RelPath returns the share-relative path of a collection URL, with
// surrounding slashes stripped. The root itself yields "".
func (p *Parser) RelPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid collection URL: %w", err)
	}
	return p.relFromPath(u.Path), nil
}

// ChildURL builds the collection URL for a share-relative directory
// path, with a trailing separator as the endpoints expect. Each segment
// is escaped independently so names with spaces or reserved characters
// round-trip.
func (p *Parser) ChildURL(rel string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSuffix(p.root.String(), "/"))
	for _, seg := range strings.Split(strings.Trim(rel, "/"), "/") {
		if seg == "" {
			continue
		}
		b.WriteString("/")
		b.WriteString(url.PathEscape(seg))
	}
	b.WriteString("/")
	return b.String()
}

// relFromPath strips the resolved-root prefix from a decoded URL path.
// Paths outside the root (some servers answer with absolute server-root
// hrefs) are kept as-is relative to the server root, matching how such
// hrefs would resolve against the share.
func (p *Parser) relFromPath(pth string) string {
	rootPath := strings.TrimSuffix(p.root.Path, "/")
	if pth == rootPath || pth == rootPath+"/" {
		return ""
	}
	if strings.HasPrefix(pth, rootPath+"/") {
		return strings.Trim(strings.TrimPrefix(pth, rootPath+"/"), "/")
	}
	return strings.Trim(pth, "/")
}

// parseSize converts a getcontentlength value into a size pointer.
// Only plain digit strings count; anything else (empty, negative,
// non-numeric) yields an absent size rather than an error.
func parseSize(s string) *int64 {
	if s == "" {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return nil
	}
	return &n
}
