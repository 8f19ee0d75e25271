package model

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Share identifies one public share: the server it lives on, the share
// token from the public link, and the optional share password.
type Share struct {
	// BaseURL is the server base URL, scheme and host only, no trailing
	// slash (e.g. "https://drive.example.ch").
	BaseURL string

	// Token is the opaque share token from the /s/<token> link.
	Token string

	// Password is the share password, or empty for unprotected shares.
	// It is used as the basic-auth password; the token is the username.
	Password string
}

// tokenPattern matches share tokens. Nextcloud generates 15-character
// alphanumeric tokens, but admin-chosen tokens can be longer, so we only
// require a reasonable alphanumeric shape.
var tokenPattern = regexp.MustCompile(`^[A-Za-z0-9]{8,64}$`)

// sharePathPattern extracts the token from a public share link path.
// Both "/index.php/s/<token>" and the short "/s/<token>" form are served
// by real deployments.
var sharePathPattern = regexp.MustCompile(`^(.*?)/(?:index\.php/)?s/([A-Za-z0-9]+)/?$`)

// ParseShareLink parses a public share link such as
// "https://drive.example.ch/index.php/s/AbCdEf123456789" into a Share.
// Trailing path elements after the token (e.g. "/download") are rejected.
func ParseShareLink(link string) (Share, error) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return Share{}, fmt.Errorf("invalid share link: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Share{}, fmt.Errorf("invalid share link %q: scheme must be http or https", link)
	}
	if u.Host == "" {
		return Share{}, fmt.Errorf("invalid share link %q: missing host", link)
	}

	m := sharePathPattern.FindStringSubmatch(u.Path)
	if m == nil {
		return Share{}, fmt.Errorf("invalid share link %q: no /s/<token> segment", link)
	}

	base := url.URL{Scheme: u.Scheme, Host: u.Host, Path: m[1]}
	return NewShare(strings.TrimSuffix(base.String(), "/"), m[2])
}

// NewShare builds a Share from an explicit base URL and token, validating
// both. The base URL keeps any sub-path the server is mounted under.
func NewShare(baseURL, token string) (Share, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return Share{}, fmt.Errorf("base URL must not be empty")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return Share{}, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Share{}, fmt.Errorf("invalid base URL %q: scheme must be http or https", baseURL)
	}
	if !tokenPattern.MatchString(token) {
		return Share{}, fmt.Errorf("invalid share token %q", token)
	}
	return Share{BaseURL: baseURL, Token: token}, nil
}

// WebdavURL returns the legacy public WebDAV endpoint for the share:
// {base}/public.php/webdav/
func (s Share) WebdavURL() string {
	return s.BaseURL + "/public.php/webdav/"
}

// DavFilesURL returns the newer dav/files endpoint some deployments use:
// {base}/public.php/dav/files/{token}/
func (s Share) DavFilesURL() string {
	return s.BaseURL + "/public.php/dav/files/" + s.Token + "/"
}

// BrowserURL returns the share's browser entry point:
// {base}/index.php/s/{token}/
func (s Share) BrowserURL() string {
	return s.BaseURL + "/index.php/s/" + s.Token + "/"
}
