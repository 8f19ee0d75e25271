package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/nao1215/davsnap/internal/config"
	"github.com/nao1215/davsnap/internal/database"
	"github.com/nao1215/davsnap/internal/model"
	"github.com/nao1215/davsnap/internal/report"
	"github.com/spf13/cobra"
)

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [share-link]",
		Short: "List the file paths of a stored snapshot",
		Long: `List prints the flat file paths of a crawl snapshot, one per line.

By default it reads the latest stored snapshot for the share from the
history database. Use --file to list a snapshot JSON file written by
'davsnap crawl -o' instead.

Examples:
  # List the latest stored snapshot of a share
  davsnap list https://drive.example.ch/index.php/s/AbCdEf123456789

  # The bare token works too
  davsnap list AbCdEf123456789

  # List a snapshot file
  davsnap list --file snapshot.json

  # List a specific stored snapshot by ID (see 'davsnap compare --list')
  davsnap list --snapshot-id 5 AbCdEf123456789`,
		Args: cobra.MaximumNArgs(1),
		RunE: runListCmd,
	}

	cmd.Flags().StringP("file", "f", "",
		"Read the snapshot from a JSON file instead of the database")
	cmd.Flags().Int64P("snapshot-id", "i", 0,
		"List a specific stored snapshot by ID")

	return cmd
}

// runListCmd executes the list command.
func runListCmd(cmd *cobra.Command, args []string) error {
	filePath, err := cmd.Flags().GetString("file")
	if err != nil {
		return err
	}
	snapshotID, err := cmd.Flags().GetInt64("snapshot-id")
	if err != nil {
		return err
	}

	var snapshot *model.Snapshot
	switch {
	case filePath != "":
		snapshot, err = loadSnapshotFile(filePath)
		if err != nil {
			return err
		}
	default:
		if len(args) == 0 {
			return errors.New("share link or token is required (or use --file)")
		}
		token, err := shareTokenArg(args[0])
		if err != nil {
			return err
		}
		snapshot, err = loadStoredSnapshot(context.Background(), token, snapshotID)
		if err != nil {
			return err
		}
	}

	_, err = report.NewTextWriter(os.Stdout).Write(snapshot)
	return err
}

// loadSnapshotFile reads a snapshot from a JSON file written by
// 'davsnap crawl -o'. A bare tree file (without snapshot metadata) is
// accepted too.
func loadSnapshotFile(path string) (*model.Snapshot, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided snapshot path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var snapshot model.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot file: %w", err)
	}
	if snapshot.Root != nil {
		return &snapshot, nil
	}

	// Tree-only files start at the root node.
	var root model.Node
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot file: %w", err)
	}
	if root.Type == "" {
		return nil, fmt.Errorf("snapshot file %s contains no tree", path)
	}
	return &model.Snapshot{Root: &root}, nil
}

// loadStoredSnapshot reads a snapshot from the history database, either
// the latest one for the token or a specific row by ID.
func loadStoredSnapshot(ctx context.Context, token string, snapshotID int64) (*model.Snapshot, error) {
	db, err := database.Open(config.XDGDataDir(), database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if snapshotID > 0 {
		snapshot, err := db.GetSnapshotByID(ctx, snapshotID)
		if err != nil {
			return nil, err
		}
		if snapshot == nil {
			return nil, fmt.Errorf("snapshot with ID %d not found", snapshotID)
		}
		if snapshot.Token != token {
			return nil, fmt.Errorf("snapshot ID %d belongs to %s, not %s", snapshotID, snapshot.Token, token)
		}
		return snapshot, nil
	}

	snapshot, err := db.GetLatestSnapshot(ctx, token)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return nil, fmt.Errorf("no snapshots found for %s (use 'davsnap crawl' first)", token)
	}
	return snapshot, nil
}
