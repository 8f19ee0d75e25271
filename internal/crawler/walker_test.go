package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/nao1215/davsnap/internal/model"
	"github.com/nao1215/davsnap/internal/webdav"
)

// fakeDAVServer serves canned depth-1 listings keyed by share-relative
// directory path and counts how often each directory is listed.
type fakeDAVServer struct {
	t        *testing.T
	listings map[string][]davEntry

	mu   sync.Mutex
	hits map[string]int
}

func newFakeDAVServer(t *testing.T, listings map[string][]davEntry) (*fakeDAVServer, *httptest.Server) {
	t.Helper()

	f := &fakeDAVServer{t: t, listings: listings, hits: make(map[string]int)}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeDAVServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != "PROPFIND" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rel := strings.Trim(strings.TrimPrefix(r.URL.Path, "/public.php/webdav"), "/")
	entries, ok := f.listings[rel]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	f.mu.Lock()
	f.hits[rel]++
	f.mu.Unlock()

	w.Header().Set("Content-Type", `application/xml; charset="utf-8"`)
	w.WriteHeader(207)
	if _, err := w.Write([]byte(multistatusBody("/public.php/webdav", entries))); err != nil {
		f.t.Errorf("write response: %v", err)
	}
}

func (f *fakeDAVServer) hitCount(rel string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[rel]
}

func newTestWalker(t *testing.T, srv *httptest.Server, opts ...WalkerOption) *Walker {
	t.Helper()

	share, err := model.NewShare(srv.URL, "AbCdEf123456789")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	client := webdav.New(srv.Client(), share.Token, "", webdav.WithMaxRetries(1))
	walker, err := NewWalker(client, share, share.WebdavURL(), opts...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return walker
}

func TestWalkerCrawl(t *testing.T) {
	t.Parallel()

	// Docs/
	//   Sub/
	//     b.txt
	//   a.pdf
	// readme.md
	listings := map[string][]davEntry{
		"": {
			{relPath: "", dir: true},
			{relPath: "Docs", dir: true, mtime: "Tue, 13 Jan 2026 10:00:00 GMT"},
			{relPath: "readme.md", size: "512", ctype: "text/markdown"},
		},
		"Docs": {
			{relPath: "Docs", dir: true},
			{relPath: "Docs/Sub", dir: true},
			{relPath: "Docs/a.pdf", size: "2048", ctype: "application/pdf"},
		},
		"Docs/Sub": {
			{relPath: "Docs/Sub", dir: true},
			{relPath: "Docs/Sub/b.txt", size: "7", ctype: "text/plain"},
		},
	}
	fake, srv := newFakeDAVServer(t, listings)

	walker := newTestWalker(t, srv)
	root, err := walker.Crawl(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !root.IsDir() || root.Path != "" {
		t.Fatalf("unexpected root node: %+v", root)
	}
	if len(root.Children) != 2 {
		t.Fatalf("expected 2 root children, got %d", len(root.Children))
	}

	docs := root.Children[0]
	if docs.Name != "Docs" || !docs.IsDir() {
		t.Fatalf("expected Docs directory first, got %+v", docs)
	}
	if len(docs.Children) != 2 {
		t.Fatalf("expected 2 children under Docs, got %d", len(docs.Children))
	}
	sub := docs.Children[0]
	if sub.Path != "Docs/Sub" || len(sub.Children) != 1 {
		t.Fatalf("unexpected Sub node: %+v", sub)
	}
	leaf := sub.Children[0]
	if leaf.Path != "Docs/Sub/b.txt" || leaf.Size == nil || *leaf.Size != 7 {
		t.Fatalf("unexpected leaf node: %+v", leaf)
	}
	if readme := root.Children[1]; readme.Name != "readme.md" || readme.IsDir() {
		t.Fatalf("expected readme.md second, got %+v", readme)
	}

	// No self-entries survive, and every directory is listed once.
	for _, rel := range []string{"", "Docs", "Docs/Sub"} {
		if n := fake.hitCount(rel); n != 1 {
			t.Errorf("expected %q listed once, got %d", rel, n)
		}
	}

	if files, dirs := root.Count(); files != 3 || dirs != 2 {
		t.Errorf("expected 3 files and 2 directories, got %d and %d", files, dirs)
	}
	if got, want := root.TotalSize(), int64(512+2048+7); got != want {
		t.Errorf("expected total size %d, got %d", want, got)
	}
}

func TestWalkerCrawlConcurrent(t *testing.T) {
	t.Parallel()

	listings := map[string][]davEntry{
		"": {
			{relPath: "", dir: true},
			{relPath: "A", dir: true},
			{relPath: "B", dir: true},
			{relPath: "C", dir: true},
		},
		"A": {{relPath: "A", dir: true}, {relPath: "A/a.txt", size: "1"}},
		"B": {{relPath: "B", dir: true}, {relPath: "B/b.txt", size: "2"}},
		"C": {{relPath: "C", dir: true}},
	}
	_, srv := newFakeDAVServer(t, listings)

	walker := newTestWalker(t, srv, WithConcurrency(3))
	root, err := walker.Crawl(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Response order survives concurrent sibling expansion.
	want := []string{"A", "B", "C"}
	if len(root.Children) != len(want) {
		t.Fatalf("expected %d children, got %d", len(want), len(root.Children))
	}
	for i, name := range want {
		if root.Children[i].Name != name {
			t.Errorf("expected child %d to be %q, got %q", i, name, root.Children[i].Name)
		}
	}
	if len(root.Children[0].Children) != 1 || len(root.Children[2].Children) != 0 {
		t.Errorf("unexpected subtree shapes: %+v", root.Children)
	}
}

func TestWalkerCyclicHrefsTerminate(t *testing.T) {
	t.Parallel()

	// A and B reference each other. The second visit of an
	// already-walked path must not trigger another listing.
	listings := map[string][]davEntry{
		"":  {{relPath: "", dir: true}, {relPath: "A", dir: true}},
		"A": {{relPath: "A", dir: true}, {relPath: "B", dir: true}},
		"B": {{relPath: "B", dir: true}, {relPath: "A", dir: true}},
	}
	fake, srv := newFakeDAVServer(t, listings)

	walker := newTestWalker(t, srv)
	root, err := walker.Crawl(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a := root.Children[0]
	if a.Path != "A" || len(a.Children) != 1 {
		t.Fatalf("unexpected node A: %+v", a)
	}
	b := a.Children[0]
	if b.Path != "B" || len(b.Children) != 1 {
		t.Fatalf("unexpected node B: %+v", b)
	}
	if back := b.Children[0]; back.Path != "A" || len(back.Children) != 0 {
		t.Fatalf("expected back-reference to A with no children, got %+v", back)
	}

	for _, rel := range []string{"", "A", "B"} {
		if n := fake.hitCount(rel); n != 1 {
			t.Errorf("expected %q listed once, got %d", rel, n)
		}
	}
}

func TestWalkerCrawlError(t *testing.T) {
	t.Parallel()

	// Docs exists in the root listing but its own listing fails.
	listings := map[string][]davEntry{
		"": {
			{relPath: "", dir: true},
			{relPath: "Docs", dir: true},
		},
	}
	_, srv := newFakeDAVServer(t, listings)

	walker := newTestWalker(t, srv)
	if _, err := walker.Crawl(context.Background()); err == nil {
		t.Fatal("expected error, got nil")
	} else if se := webdav.AsStatusError(err); se == nil || se.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 status error, got %v", err)
	}
}
