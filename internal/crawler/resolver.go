package crawler

import (
	"context"
	"log/slog"

	"github.com/nao1215/davsnap/internal/model"
	"github.com/nao1215/davsnap/internal/webdav"
)

// Resolver determines which WebDAV endpoint actually serves a share.
// Deployments expose public shares under one of two URL conventions,
// and nothing in the share link says which, so we probe.
type Resolver struct {
	// client issues the probe requests.
	client *webdav.Client

	// share identifies the candidate endpoints.
	share model.Share

	// logger receives one event per probe.
	logger *slog.Logger
}

// NewResolver creates a Resolver for the given share.
func NewResolver(client *webdav.Client, share model.Share, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{client: client, share: share, logger: logger}
}

// Resolve probes the legacy public.php/webdav endpoint first and the
// dav/files form second, returning the first that answers. The second
// candidate is never probed when the first succeeds. If both fail the
// crawl cannot start: ErrEndpointNotFound is returned and no traversal
// happens.
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	candidates := []string{r.share.WebdavURL(), r.share.DavFilesURL()}

	for _, candidate := range candidates {
		if r.client.Probe(ctx, candidate) {
			r.logger.Debug("resolved WebDAV root", "url", candidate)
			return candidate, nil
		}
		r.logger.Debug("endpoint candidate rejected", "url", candidate)
	}

	return "", ErrEndpointNotFound
}
