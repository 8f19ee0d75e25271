package report

import (
	"io"
	"strings"

	"github.com/nao1215/davsnap/internal/model"
)

// TextWriter outputs a snapshot as a flat listing of file paths, one
// per line. This is the terminal-friendly format and the shape shell
// pipelines expect.
type TextWriter struct {
	baseWriter
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer) *TextWriter {
	return &TextWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the file paths of the snapshot tree, depth-first, in
// server response order.
func (w *TextWriter) Write(snapshot *model.Snapshot) (int, error) {
	paths := snapshot.Root.Files()
	if len(paths) == 0 {
		return 0, nil
	}
	var b strings.Builder
	for _, p := range paths {
		b.WriteString(p)
		b.WriteString("\n")
	}
	return io.WriteString(w.output, b.String())
}
