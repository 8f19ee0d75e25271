package crawler

import (
	"net/url"
	"strings"

	"github.com/nao1215/davsnap/internal/model"
)

// BuildFileURL builds the browser-clickable download URL for a file
// within the share:
//
//	{base}/index.php/s/{token}/download?path=/PARENT&files=FILENAME
//
// The path is split into parent folder and filename, each query-escaped
// independently. Pure function; an empty path yields an empty URL, which
// cannot occur for parsed file nodes (their paths are never empty).
func BuildFileURL(share model.Share, relPath string) string {
	relPath = strings.Trim(relPath, "/")
	if relPath == "" {
		return ""
	}

	parent := "/"
	fname := relPath
	if i := strings.LastIndex(relPath, "/"); i >= 0 {
		parent = "/" + relPath[:i]
		fname = relPath[i+1:]
	}

	return share.BrowserURL() + "download" +
		"?path=" + url.QueryEscape(parent) +
		"&files=" + url.QueryEscape(fname)
}
