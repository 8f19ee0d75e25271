package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/davsnap/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs snapshots in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the snapshot in Markdown format.
func (w *MarkdownWriter) Write(snapshot *model.Snapshot) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, snapshot)
	w.writeSizeChart(md, snapshot)
	w.writeListing(md, snapshot)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the snapshot header with share and crawl information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, snapshot *model.Snapshot) {
	md.H1("Share Snapshot")
	md.PlainText("")

	shareLink := snapshot.BaseURL + "/index.php/s/" + snapshot.Token
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Share", "`" + shareLink + "`"},
			{"Crawled At", snapshot.CrawledAt.Format("2006-01-02 15:04:05 MST")},
			{"Files", strconv.Itoa(snapshot.Files)},
			{"Directories", strconv.Itoa(snapshot.Directories)},
			{"Total Size", humanSize(snapshot.TotalSize)},
			{"Fingerprint", "`" + shortFingerprint(snapshot.Fingerprint) + "`"},
		},
	})
	md.PlainText("")

	if snapshot.Files == 0 {
		md.Note("The share contains no files.")
		md.PlainText("")
	}
}

// writeSizeChart writes a mermaid pie chart of size per top-level entry.
// Entries without any reported size are skipped, as are empty shares.
func (w *MarkdownWriter) writeSizeChart(md *markdown.Markdown, snapshot *model.Snapshot) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Size by Top-Level Entry"),
		piechart.WithShowData(true),
	)

	plotted := false
	for _, child := range snapshot.Root.Children {
		size := int64(0)
		if child.IsDir() {
			size = child.TotalSize()
		} else if child.Size != nil {
			size = *child.Size
		}
		if size <= 0 {
			continue
		}
		chart.LabelAndIntValue(child.Name, uint64(size))
		plotted = true
	}
	if !plotted {
		return
	}

	md.H2("Size Distribution")
	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeListing writes the file listing table.
func (w *MarkdownWriter) writeListing(md *markdown.Markdown, snapshot *model.Snapshot) {
	md.H2("Files")
	md.PlainText("")

	if snapshot.Files == 0 {
		md.PlainText("No files found.")
		md.PlainText("")
		return
	}

	var rows [][]string
	w.collectRows(snapshot.Root, &rows)
	md.Table(markdown.TableSet{
		Header: []string{"Path", "Size", "Modified", "Link"},
		Rows:   rows,
	})
	md.PlainText("")
}

// collectRows walks the tree depth-first and appends one row per file.
func (w *MarkdownWriter) collectRows(node *model.Node, rows *[][]string) {
	if !node.IsDir() {
		size := "-"
		if node.Size != nil {
			size = humanSize(*node.Size)
		}
		modified := node.LastModified
		if modified == "" {
			modified = "-"
		}
		link := "-"
		if node.WebURL != "" {
			link = "[download](" + node.WebURL + ")"
		}
		*rows = append(*rows, []string{
			"`" + truncateString(node.Path, 80) + "`",
			size,
			modified,
			link,
		})
		return
	}
	for _, child := range node.Children {
		w.collectRows(child, rows)
	}
}

// writeFooter writes the snapshot footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Snapshot generated by [davsnap](https://github.com/nao1215/davsnap)*")
}

// humanSize renders a byte count in binary units with one decimal.
func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return strconv.FormatInt(n, 10) + " B"
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// shortFingerprint abbreviates a fingerprint for display.
func shortFingerprint(fp string) string {
	if len(fp) <= 12 {
		return fp
	}
	return fp[:12]
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
