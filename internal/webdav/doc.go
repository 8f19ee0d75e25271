// Package webdav implements the minimal WebDAV client surface davsnap
// needs: depth-limited PROPFIND requests against public share endpoints
// and decoding of the multi-status responses they return.
//
// # Design
//
// The Client wraps an injected *http.Client, attaches the share token and
// password as basic auth to every request, and handles redirects by hand
// so that the hop limit stays independent of the retry budget. Failed
// attempts are retried with linearly increasing backoff; the last error
// is returned once the budget is exhausted.
//
// Design decision: We implement PROPFIND ourselves rather than pulling in
// a WebDAV client library because:
//  1. Public share endpoints only ever see one request shape (a fixed
//     four-property PROPFIND at depth 0 or 1)
//  2. The probe logic needs raw status codes, including redirects,
//     which generic clients hide
//  3. The retry/backoff contract is specific to this tool
package webdav
