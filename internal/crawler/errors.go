package crawler

import "errors"

// ErrEndpointNotFound is returned when neither candidate WebDAV endpoint
// answers the probe. This is a configuration error: the token is wrong,
// the password is wrong, or the server is unreachable. It is raised
// before any traversal begins; no partial result exists.
var ErrEndpointNotFound = errors.New(
	"unable to access public WebDAV endpoint: check token, password, or server availability")
