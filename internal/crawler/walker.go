package crawler

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/davsnap/internal/model"
	"github.com/nao1215/davsnap/internal/webdav"
)

// Walker performs the depth-first expansion of a resolved share root.
// One PROPFIND per directory; each child directory is expanded
// recursively. The visited set guards against servers whose responses
// reference an already-walked path (cyclic or self-referential hrefs):
// the second visit of a path yields an empty child list instead of a
// query, so recursion always terminates.
type Walker struct {
	// client issues the depth-1 property queries.
	client *webdav.Client

	// parser converts responses into nodes and owns URL normalization.
	parser *Parser

	// rootURL is the resolved root collection URL.
	rootURL string

	// concurrency is the number of sibling directories expanded at
	// once. 1 means a strictly sequential depth-first crawl with one
	// outstanding request at a time.
	concurrency int

	// logger receives one event per listed directory.
	logger *slog.Logger

	// mutex protects visited. The check-and-mark is atomic, so a path
	// is never queried twice even when siblings expand concurrently.
	mutex sync.Mutex

	// visited tracks share-relative paths already expanded.
	visited map[string]bool
}

// WalkerOption configures a Walker.
type WalkerOption func(*Walker)

// WithConcurrency sets the number of sibling directories expanded
// concurrently. The default of 1 preserves the strictly sequential,
// one-request-at-a-time crawl; higher values trade politeness for
// throughput without changing the resulting tree shape or ordering.
func WithConcurrency(n int) WalkerOption {
	return func(w *Walker) {
		if n > 0 {
			w.concurrency = n
		}
	}
}

// WithWalkerLogger sets the logger for per-directory events.
func WithWalkerLogger(logger *slog.Logger) WalkerOption {
	return func(w *Walker) {
		w.logger = logger
	}
}

// NewWalker creates a Walker over the resolved root URL.
func NewWalker(client *webdav.Client, share model.Share, rootURL string, opts ...WalkerOption) (*Walker, error) {
	parser, err := NewParser(share, rootURL)
	if err != nil {
		return nil, err
	}

	w := &Walker{
		client:      client,
		parser:      parser,
		rootURL:     rootURL,
		concurrency: 1,
		logger:      slog.Default(),
		visited:     make(map[string]bool),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

// Crawl expands the whole share and returns the synthetic root node.
// Any query error aborts the crawl; partial trees are never returned.
func (w *Walker) Crawl(ctx context.Context) (*model.Node, error) {
	children, err := w.expand(ctx, w.rootURL)
	if err != nil {
		return nil, err
	}
	return model.NewRoot(children), nil
}

// expand lists one directory and recursively expands its child
// directories, returning the ordered child list.
func (w *Walker) expand(ctx context.Context, dirURL string) ([]*model.Node, error) {
	rel, err := w.parser.RelPath(dirURL)
	if err != nil {
		return nil, err
	}

	// Cycle guard: an already-walked path is not queried again.
	if !w.visit(rel) {
		w.logger.Debug("skipping already-walked path", "path", rel)
		return []*model.Node{}, nil
	}

	body, err := w.client.Propfind(ctx, dirURL, webdav.Depth1)
	if err != nil {
		return nil, err
	}
	ms, err := webdav.ParseMultistatus(body)
	if err != nil {
		return nil, err
	}

	nodes, err := w.parser.Parse(dirURL, ms)
	if err != nil {
		return nil, err
	}

	// Depth-1 responses include the queried collection itself as an
	// entry; it is not one of its own children.
	children := make([]*model.Node, 0, len(nodes))
	for _, node := range nodes {
		if node.Path == rel {
			continue
		}
		children = append(children, node)
	}

	w.logger.Debug("listed directory", "path", rel, "entries", len(children))

	// Expand child directories, attaching results by index so the
	// server's response order survives concurrent expansion.
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for i, child := range children {
		if !child.IsDir() {
			continue
		}
		g.Go(func() error {
			sub, err := w.expand(ctx, w.parser.ChildURL(child.Path))
			if err != nil {
				return err
			}
			children[i].Children = sub
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return children, nil
}

// visit marks a path visited, reporting whether it was new.
func (w *Walker) visit(rel string) bool {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.visited[rel] {
		return false
	}
	w.visited[rel] = true
	return true
}
