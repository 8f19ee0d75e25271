package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/davsnap/internal/model"
)

// SnapDB provides SQLite-based storage for crawl snapshots.
// It manages connection pooling and provides methods for saving and
// querying snapshot history.
//
// Design decision: We use a single database file for all shares rather
// than one file per share. This keeps history queries across shares in
// one place and simplifies backup/restore operations.
type SnapDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures SnapDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a SnapDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*SnapDB, error) {
	dbPath := filepath.Join(dbDir, "davsnap.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection strings: mode=rw prevents creating
	// new files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; a single pooled connection
	// avoids lock contention.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &SnapDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := sdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return sdb, nil
}

// Close closes the database connection.
func (sdb *SnapDB) Close() error {
	return sdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (sdb *SnapDB) createTables() error {
	schema := `
	-- Snapshots store complete crawl results as JSON plus the summary
	-- columns needed to list history without loading the tree.
	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		base_url TEXT NOT NULL,
		token TEXT NOT NULL,
		crawled_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		files INTEGER NOT NULL,
		directories INTEGER NOT NULL,
		total_size INTEGER NOT NULL,
		fingerprint TEXT NOT NULL,
		snapshot_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_token ON snapshots(token);
	CREATE INDEX IF NOT EXISTS idx_snapshots_crawled ON snapshots(crawled_at);
	CREATE INDEX IF NOT EXISTS idx_snapshots_fingerprint ON snapshots(fingerprint);
	`

	_, err := sdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveSnapshot stores one crawl snapshot and returns its row ID.
func (sdb *SnapDB) SaveSnapshot(ctx context.Context, snapshot *model.Snapshot) (int64, error) {
	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize snapshot: %w", err)
	}

	query := `
	INSERT INTO snapshots (base_url, token, crawled_at, files, directories, total_size, fingerprint, snapshot_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sdb.db.ExecContext(ctx, query,
		snapshot.BaseURL,
		snapshot.Token,
		snapshot.CrawledAt.UTC().Format("2006-01-02 15:04:05"),
		snapshot.Files,
		snapshot.Directories,
		snapshot.TotalSize,
		snapshot.Fingerprint,
		string(snapshotJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save snapshot: %w", err)
	}

	return result.LastInsertId()
}

// GetLatestSnapshot retrieves the most recent snapshot for a share token.
// Returns nil when the share has no stored snapshots.
func (sdb *SnapDB) GetLatestSnapshot(ctx context.Context, token string) (*model.Snapshot, error) {
	query := `
	SELECT snapshot_json FROM snapshots
	WHERE token = ?
	ORDER BY crawled_at DESC, id DESC
	LIMIT 1
	`

	var snapshotJSON string
	err := sdb.db.QueryRowContext(ctx, query, token).Scan(&snapshotJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var snapshot model.Snapshot
	if err := json.Unmarshal([]byte(snapshotJSON), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}

	return &snapshot, nil
}

// GetSnapshotByID retrieves a snapshot by its database ID.
// Returns nil when no row has the ID.
func (sdb *SnapDB) GetSnapshotByID(ctx context.Context, id int64) (*model.Snapshot, error) {
	query := `
	SELECT snapshot_json FROM snapshots
	WHERE id = ?
	`

	var snapshotJSON string
	err := sdb.db.QueryRowContext(ctx, query, id).Scan(&snapshotJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var snapshot model.Snapshot
	if err := json.Unmarshal([]byte(snapshotJSON), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}

	return &snapshot, nil
}

// SnapshotMetadata contains summary information about a stored snapshot.
// This is used for displaying history without loading the full tree.
type SnapshotMetadata struct {
	// ID is the unique identifier of the snapshot in the database.
	ID int64

	// BaseURL is the share server's base URL.
	BaseURL string

	// Token is the public share token.
	Token string

	// CrawledAt is when the crawl was performed.
	CrawledAt time.Time

	// Files is the number of file nodes in the snapshot.
	Files int

	// Directories is the number of directory nodes in the snapshot.
	Directories int

	// TotalSize is the sum of reported file sizes in bytes.
	TotalSize int64

	// Fingerprint is the snapshot's tree fingerprint.
	Fingerprint string
}

// GetHistory retrieves snapshot metadata for a share token, newest first.
// This is more efficient than loading full snapshots when only the
// summary columns are needed.
func (sdb *SnapDB) GetHistory(ctx context.Context, token string) ([]SnapshotMetadata, error) {
	query := `
	SELECT id, base_url, token, crawled_at, files, directories, total_size, fingerprint
	FROM snapshots
	WHERE token = ?
	ORDER BY crawled_at DESC, id DESC
	`

	rows, err := sdb.db.QueryContext(ctx, query, token)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot history: %w", err)
	}
	defer rows.Close()

	var results []SnapshotMetadata
	for rows.Next() {
		var meta SnapshotMetadata
		var crawledAt string

		if err := rows.Scan(
			&meta.ID,
			&meta.BaseURL,
			&meta.Token,
			&crawledAt,
			&meta.Files,
			&meta.Directories,
			&meta.TotalSize,
			&meta.Fingerprint,
		); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		meta.CrawledAt = parseTimestamp(crawledAt)
		results = append(results, meta)
	}

	return results, rows.Err()
}

// ListShares returns the tokens of all shares with stored snapshots.
func (sdb *SnapDB) ListShares(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT token FROM snapshots
	ORDER BY token
	`

	rows, err := sdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list shares: %w", err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, fmt.Errorf("failed to scan token: %w", err)
		}
		tokens = append(tokens, token)
	}

	return tokens, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
