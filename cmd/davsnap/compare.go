package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/davsnap/internal/config"
	"github.com/nao1215/davsnap/internal/database"
	"github.com/nao1215/davsnap/internal/model"
	"github.com/spf13/cobra"
)

// NewCompareCmd creates the compare command.
// This command compares crawl snapshots stored in the history database.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [share-link]",
		Short: "Compare stored snapshots of a share",
		Long: `Compare displays differences between two crawl snapshots of a share.

This command retrieves snapshot history from the database and shows:
- Files added since the earlier snapshot
- Files removed since the earlier snapshot
- Files whose size changed

The comparison requires at least two snapshots in the database for the
specified share. Use 'davsnap crawl' to take snapshots.

Examples:
  # Compare the latest two snapshots of a share
  davsnap compare https://drive.example.ch/index.php/s/AbCdEf123456789

  # List all snapshot history for a share
  davsnap compare --list AbCdEf123456789

  # Compare with a specific historical snapshot by ID
  davsnap compare --with-snapshot-id 5 AbCdEf123456789

  # Output comparison in JSON format
  davsnap compare --json AbCdEf123456789

  # List all shares with stored snapshots
  davsnap compare --list-shares`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCompareCmd,
	}

	// History listing flags
	cmd.Flags().BoolP("list", "l", false,
		"List snapshot history for the specified share")
	cmd.Flags().BoolP("list-shares", "L", false,
		"List all shares with stored snapshots")

	// Comparison target flags
	cmd.Flags().Int64P("with-snapshot-id", "i", 0,
		"Compare with a specific snapshot by ID (use --list to see available IDs)")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	// Handle --list-shares flag first (requires database but no share)
	listShares, err := cmd.Flags().GetBool("list-shares")
	if err != nil {
		return err
	}

	// Validate arguments before opening database (unless --list-shares)
	var token string
	if !listShares {
		if len(args) == 0 {
			return errors.New("share link or token is required (use --list-shares to see stored shares)")
		}
		token, err = shareTokenArg(args[0])
		if err != nil {
			return err
		}
	}

	db, err := database.Open(config.XDGDataDir(), database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	if listShares {
		return listStoredShares(ctx, db)
	}

	listHistory, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if listHistory {
		return listSnapshotHistory(ctx, db, token)
	}

	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	withSnapshotID, err := cmd.Flags().GetInt64("with-snapshot-id")
	if err != nil {
		return err
	}

	return runComparison(ctx, db, token, withSnapshotID, jsonOutput, markdownOutput)
}

// listStoredShares lists all shares that have snapshots in the database.
func listStoredShares(ctx context.Context, db *database.SnapDB) error {
	tokens, err := db.ListShares(ctx)
	if err != nil {
		return fmt.Errorf("failed to list shares: %w", err)
	}

	if len(tokens) == 0 {
		fmt.Println("No stored snapshots found in the database.")
		fmt.Println("\nUse 'davsnap crawl <share-link>' to snapshot a share.")
		return nil
	}

	fmt.Printf("Stored shares (%d):\n\n", len(tokens))
	for _, token := range tokens {
		fmt.Printf("  • %s\n", token)
	}
	fmt.Println("\nUse 'davsnap compare --list <token>' to see snapshot history for a share.")

	return nil
}

// listSnapshotHistory lists all snapshots for a specific share token.
func listSnapshotHistory(ctx context.Context, db *database.SnapDB, token string) error {
	history, err := db.GetHistory(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to get snapshot history: %w", err)
	}

	if len(history) == 0 {
		fmt.Printf("No snapshot history found for %s\n", token)
		fmt.Println("\nUse 'davsnap crawl' to snapshot this share.")
		return nil
	}

	fmt.Printf("Snapshot history for %s (%d snapshots):\n\n", token, len(history))
	fmt.Printf("  %-6s  %-20s  %-8s  %-6s  %-10s  %s\n", "ID", "Date", "Files", "Dirs", "Size", "Fingerprint")
	fmt.Println("  " + strings.Repeat("-", 72))

	for _, meta := range history {
		fmt.Printf("  %-6d  %-20s  %-8d  %-6d  %-10d  %s\n",
			meta.ID,
			meta.CrawledAt.Format("2006-01-02 15:04:05"),
			meta.Files,
			meta.Directories,
			meta.TotalSize,
			shortFingerprint(meta.Fingerprint),
		)
	}

	fmt.Println("\nUse 'davsnap compare <token>' to compare the latest two snapshots.")
	fmt.Println("Use 'davsnap compare --with-snapshot-id <id> <token>' to compare with a specific snapshot.")

	return nil
}

// shortFingerprint abbreviates a fingerprint for display.
func shortFingerprint(fp string) string {
	if len(fp) <= 12 {
		return fp
	}
	return fp[:12]
}

// runComparison performs the actual comparison between snapshots.
func runComparison(ctx context.Context, db *database.SnapDB, token string, withSnapshotID int64, jsonOutput, markdownOutput bool) error {
	history, err := db.GetHistory(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to get snapshot history: %w", err)
	}

	if len(history) == 0 {
		return fmt.Errorf("no snapshot history found for %s", token)
	}
	if len(history) < 2 && withSnapshotID == 0 {
		return fmt.Errorf("at least 2 snapshots are required for comparison (found %d)", len(history))
	}

	// Latest snapshot is always the current one
	current, err := db.GetSnapshotByID(ctx, history[0].ID)
	if err != nil {
		return fmt.Errorf("failed to get latest snapshot: %w", err)
	}

	var previous *model.Snapshot
	if withSnapshotID > 0 {
		previous, err = db.GetSnapshotByID(ctx, withSnapshotID)
		if err != nil {
			return fmt.Errorf("failed to get snapshot with ID %d: %w", withSnapshotID, err)
		}
		if previous == nil {
			return fmt.Errorf("snapshot with ID %d not found", withSnapshotID)
		}
		if previous.Token != token {
			return fmt.Errorf("snapshot ID %d belongs to %s, not %s", withSnapshotID, previous.Token, token)
		}
	} else {
		previous, err = db.GetSnapshotByID(ctx, history[1].ID)
		if err != nil {
			return fmt.Errorf("failed to get previous snapshot: %w", err)
		}
	}

	comparison := compareSnapshots(previous, current)

	if jsonOutput {
		return outputComparisonJSON(comparison)
	}
	if markdownOutput {
		return outputComparisonMarkdown(comparison)
	}
	return outputComparisonText(comparison)
}

// ComparisonResult holds the result of comparing two snapshots.
type ComparisonResult struct {
	// Token is the public share token.
	Token string `json:"token"`

	// PreviousCrawl contains metadata about the earlier snapshot.
	PreviousCrawl CrawlMetadata `json:"previous_crawl"`

	// CurrentCrawl contains metadata about the later snapshot.
	CurrentCrawl CrawlMetadata `json:"current_crawl"`

	// Identical reports that both trees have the same fingerprint.
	Identical bool `json:"identical"`

	// AddedFiles contains file paths present only in the current snapshot.
	AddedFiles []string `json:"added_files,omitempty"`

	// RemovedFiles contains file paths present only in the previous snapshot.
	RemovedFiles []string `json:"removed_files,omitempty"`

	// ChangedFiles contains files whose reported size differs.
	ChangedFiles []FileChange `json:"changed_files,omitempty"`

	// UnchangedCount is the number of files present in both snapshots
	// with the same size.
	UnchangedCount int `json:"unchanged_count"`
}

// CrawlMetadata contains metadata about a snapshot for comparison display.
type CrawlMetadata struct {
	// CrawledAt is when the crawl was performed.
	CrawledAt time.Time `json:"crawled_at"`

	// Files is the number of file nodes in the snapshot.
	Files int `json:"files"`

	// Directories is the number of directory nodes in the snapshot.
	Directories int `json:"directories"`

	// TotalSize is the sum of reported file sizes in bytes.
	TotalSize int64 `json:"total_size"`
}

// FileChange describes a file whose reported size differs between the
// two snapshots.
type FileChange struct {
	// Path is the share-relative file path.
	Path string `json:"path"`

	// PreviousSize is the size in the earlier snapshot, nil if the
	// server reported none.
	PreviousSize *int64 `json:"previous_size"`

	// CurrentSize is the size in the later snapshot, nil if the
	// server reported none.
	CurrentSize *int64 `json:"current_size"`
}

// compareSnapshots compares two snapshots and generates a comparison result.
func compareSnapshots(previous, current *model.Snapshot) *ComparisonResult {
	result := &ComparisonResult{
		Token: current.Token,
		PreviousCrawl: CrawlMetadata{
			CrawledAt:   previous.CrawledAt,
			Files:       previous.Files,
			Directories: previous.Directories,
			TotalSize:   previous.TotalSize,
		},
		CurrentCrawl: CrawlMetadata{
			CrawledAt:   current.CrawledAt,
			Files:       current.Files,
			Directories: current.Directories,
			TotalSize:   current.TotalSize,
		},
	}

	// Equal fingerprints mean byte-identical trees; no need to walk.
	if previous.Fingerprint != "" && previous.Fingerprint == current.Fingerprint {
		result.Identical = true
		result.UnchangedCount = current.Files
		return result
	}

	previousFiles := make(map[string]*model.Node)
	currentFiles := make(map[string]*model.Node)
	collectFiles(previous.Root, previousFiles)
	collectFiles(current.Root, currentFiles)

	// Iterate the trees, not the maps, so output order is stable.
	for _, path := range current.Root.Files() {
		node := currentFiles[path]
		prev, exists := previousFiles[path]
		if !exists {
			result.AddedFiles = append(result.AddedFiles, path)
			continue
		}
		if sameSize(prev.Size, node.Size) {
			result.UnchangedCount++
			continue
		}
		result.ChangedFiles = append(result.ChangedFiles, FileChange{
			Path:         path,
			PreviousSize: prev.Size,
			CurrentSize:  node.Size,
		})
	}
	for _, path := range previous.Root.Files() {
		if _, exists := currentFiles[path]; !exists {
			result.RemovedFiles = append(result.RemovedFiles, path)
		}
	}

	return result
}

// collectFiles walks the tree and indexes file nodes by path.
func collectFiles(node *model.Node, files map[string]*model.Node) {
	if node == nil {
		return
	}
	if !node.IsDir() {
		files[node.Path] = node
		return
	}
	for _, child := range node.Children {
		collectFiles(child, files)
	}
}

// sameSize reports whether two reported sizes are equal, treating
// absent sizes as equal to each other only.
func sameSize(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// outputComparisonJSON outputs the comparison result in JSON format.
func outputComparisonJSON(result *ComparisonResult) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputComparisonMarkdown outputs the comparison result in Markdown format.
func outputComparisonMarkdown(result *ComparisonResult) error {
	fmt.Printf("# Snapshot Comparison: %s\n\n", result.Token)

	fmt.Println("## Summary")
	fmt.Printf("\n**Status:** %s\n\n", comparisonStatus(result))

	fmt.Println("| Metric | Previous | Current | Change |")
	fmt.Println("|--------|----------|---------|--------|")
	fmt.Printf("| Date | %s | %s | - |\n",
		result.PreviousCrawl.CrawledAt.Format("2006-01-02 15:04"),
		result.CurrentCrawl.CrawledAt.Format("2006-01-02 15:04"))
	fmt.Printf("| Files | %d | %d | %s |\n",
		result.PreviousCrawl.Files,
		result.CurrentCrawl.Files,
		formatDelta(result.CurrentCrawl.Files-result.PreviousCrawl.Files))
	fmt.Printf("| Directories | %d | %d | %s |\n",
		result.PreviousCrawl.Directories,
		result.CurrentCrawl.Directories,
		formatDelta(result.CurrentCrawl.Directories-result.PreviousCrawl.Directories))
	fmt.Printf("| Total Size | %d | %d | %s |\n",
		result.PreviousCrawl.TotalSize,
		result.CurrentCrawl.TotalSize,
		formatDelta64(result.CurrentCrawl.TotalSize-result.PreviousCrawl.TotalSize))

	if len(result.AddedFiles) > 0 {
		fmt.Printf("\n## Added Files (%d)\n\n", len(result.AddedFiles))
		for _, path := range result.AddedFiles {
			fmt.Printf("- `%s`\n", path)
		}
	}

	if len(result.RemovedFiles) > 0 {
		fmt.Printf("\n## Removed Files (%d)\n\n", len(result.RemovedFiles))
		for _, path := range result.RemovedFiles {
			fmt.Printf("- ~~`%s`~~\n", path)
		}
	}

	if len(result.ChangedFiles) > 0 {
		fmt.Printf("\n## Changed Files (%d)\n\n", len(result.ChangedFiles))
		for _, change := range result.ChangedFiles {
			fmt.Printf("- `%s`: %s → %s\n", change.Path,
				formatSize(change.PreviousSize), formatSize(change.CurrentSize))
		}
	}

	if result.UnchangedCount > 0 {
		fmt.Printf("\n---\n\n*%d files unchanged*\n", result.UnchangedCount)
	}

	return nil
}

// outputComparisonText outputs the comparison result in human-readable text format.
func outputComparisonText(result *ComparisonResult) error {
	fmt.Printf("Snapshot Comparison: %s\n", result.Token)
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\nStatus: %s\n", comparisonStatus(result))

	fmt.Printf("\nPrevious crawl: %s\n", result.PreviousCrawl.CrawledAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Current crawl:  %s\n", result.CurrentCrawl.CrawledAt.Format("2006-01-02 15:04:05"))

	fmt.Println("\nTree Summary:")
	fmt.Printf("  %-12s  %-10s  %-10s  %-10s\n", "Metric", "Previous", "Current", "Change")
	fmt.Println("  " + strings.Repeat("-", 48))
	fmt.Printf("  %-12s  %-10d  %-10d  %-10s\n", "Files",
		result.PreviousCrawl.Files, result.CurrentCrawl.Files,
		formatDelta(result.CurrentCrawl.Files-result.PreviousCrawl.Files))
	fmt.Printf("  %-12s  %-10d  %-10d  %-10s\n", "Directories",
		result.PreviousCrawl.Directories, result.CurrentCrawl.Directories,
		formatDelta(result.CurrentCrawl.Directories-result.PreviousCrawl.Directories))
	fmt.Printf("  %-12s  %-10d  %-10d  %-10s\n", "Size",
		result.PreviousCrawl.TotalSize, result.CurrentCrawl.TotalSize,
		formatDelta64(result.CurrentCrawl.TotalSize-result.PreviousCrawl.TotalSize))

	if len(result.AddedFiles) > 0 {
		fmt.Printf("\nAdded Files (%d):\n", len(result.AddedFiles))
		for _, path := range result.AddedFiles {
			fmt.Printf("  [+] %s\n", path)
		}
	}

	if len(result.RemovedFiles) > 0 {
		fmt.Printf("\nRemoved Files (%d):\n", len(result.RemovedFiles))
		for _, path := range result.RemovedFiles {
			fmt.Printf("  [-] %s\n", path)
		}
	}

	if len(result.ChangedFiles) > 0 {
		fmt.Printf("\nChanged Files (%d):\n", len(result.ChangedFiles))
		for _, change := range result.ChangedFiles {
			fmt.Printf("  [~] %s: %s -> %s\n", change.Path,
				formatSize(change.PreviousSize), formatSize(change.CurrentSize))
		}
	}

	if result.UnchangedCount > 0 {
		fmt.Printf("\nUnchanged: %d files\n", result.UnchangedCount)
	}

	return nil
}

// comparisonStatus formats the overall comparison outcome for display.
func comparisonStatus(result *ComparisonResult) string {
	if result.Identical {
		return "IDENTICAL (no changes)"
	}
	return fmt.Sprintf("CHANGED (%d added, %d removed, %d changed)",
		len(result.AddedFiles), len(result.RemovedFiles), len(result.ChangedFiles))
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	} else if delta < 0 {
		return strconv.Itoa(delta)
	}
	return "0"
}

// formatDelta64 formats a 64-bit numeric delta with sign for display.
func formatDelta64(delta int64) string {
	if delta > 0 {
		return "+" + strconv.FormatInt(delta, 10)
	} else if delta < 0 {
		return strconv.FormatInt(delta, 10)
	}
	return "0"
}

// formatSize formats a possibly absent size for display.
func formatSize(size *int64) string {
	if size == nil {
		return "?"
	}
	return strconv.FormatInt(*size, 10)
}
