// Package store provides SQLite-backed persistence for assetscan: the
// extraction history journal and the durable assets table.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"assetscan/internal/models"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store provides access to the assetscan SQLite database.
type Store struct {
	db *sql.DB
}

// New creates a new Store and runs migrations.
func New(dbPath string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Open with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// assetColumns maps the record schema onto the assets table, in the same
// order as models.Columns.
var assetColumns = []string{
	"asset_tag",
	"block",
	"floor",
	"dept",
	"brand",
	"service_tag",
	"computer_name",
	"processor_type",
	"processor_generation",
	"processor_speed_ghz",
	"ram_gb",
	"hard_drive_type",
	"hard_drive_size",
	"graphics_card",
	"os_name",
	"os_architecture",
	"os_version",
	"windows_license_key",
	"ms_office_version",
	"ms_office_license_key",
	"installed_applications",
	"antivirus",
	"ip_address",
	"remarks",
}

// migrate runs idempotent schema migrations.
func (s *Store) migrate() error {
	var cols strings.Builder
	for _, col := range assetColumns[1:] {
		cols.WriteString(col)
		cols.WriteString(" TEXT,\n\t\t")
	}

	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS extraction_history (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		extracted_json TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS assets (
		asset_tag TEXT PRIMARY KEY,
		%supdated_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_history_created_at ON extraction_history(created_at);
	`, cols.String())

	_, err := s.db.Exec(schema)
	return err
}

// --- History Operations ---

// InsertHistory journals one extraction run.
func (s *Store) InsertHistory(ctx context.Context, filename string, records []models.AssetRecord) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO extraction_history (id, filename, extracted_json, created_at) VALUES (?, ?, ?, ?)`,
		uuid.New().String(), filename, string(payload), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

// ListHistory returns all history entries, newest first.
func (s *Store) ListHistory(ctx context.Context) ([]models.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, filename, extracted_json, created_at FROM extraction_history ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []models.HistoryEntry
	for rows.Next() {
		var entry models.HistoryEntry
		var payload string
		if err := rows.Scan(&entry.ID, &entry.Filename, &payload, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &entry.Records); err != nil {
			return nil, fmt.Errorf("decode history %s: %w", entry.ID, err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// GetHistory retrieves one history entry by ID. A missing entry returns
// nil, nil.
func (s *Store) GetHistory(ctx context.Context, id string) (*models.HistoryEntry, error) {
	var entry models.HistoryEntry
	var payload string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, filename, extracted_json, created_at FROM extraction_history WHERE id = ?`,
		id,
	).Scan(&entry.ID, &entry.Filename, &payload, &entry.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	if err := json.Unmarshal([]byte(payload), &entry.Records); err != nil {
		return nil, fmt.Errorf("decode history %s: %w", entry.ID, err)
	}
	return &entry, nil
}

// DeleteHistory removes one history entry.
func (s *Store) DeleteHistory(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM extraction_history WHERE id = ?`, id)
	return err
}

// --- Asset Operations ---

// UpsertAssets writes the records keyed on asset tag; an existing tag is
// overwritten (uniqueness lives here, not in the session store).
func (s *Store) UpsertAssets(ctx context.Context, records []models.AssetRecord) error {
	if len(records) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(assetColumns)+1), ", ")

	var updates strings.Builder
	for _, col := range assetColumns[1:] {
		fmt.Fprintf(&updates, "%s = excluded.%s, ", col, col)
	}
	updates.WriteString("updated_at = excluded.updated_at")

	query := fmt.Sprintf(
		`INSERT INTO assets (%s, updated_at) VALUES (%s) ON CONFLICT(asset_tag) DO UPDATE SET %s`,
		strings.Join(assetColumns, ", "), placeholders, updates.String(),
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, rec := range records {
		args := make([]interface{}, 0, len(assetColumns)+1)
		for _, val := range rec.Values() {
			args = append(args, val)
		}
		args = append(args, now)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert asset %s: %w", rec.AssetTag, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ListAssets returns all persisted assets, most recently updated first.
func (s *Store) ListAssets(ctx context.Context) ([]models.AssetRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM assets ORDER BY updated_at DESC`,
		strings.Join(assetColumns, ", "))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query assets: %w", err)
	}
	defer rows.Close()

	var records []models.AssetRecord
	for rows.Next() {
		vals := make([]sql.NullString, len(assetColumns))
		dest := make([]interface{}, len(assetColumns))
		for i := range vals {
			dest[i] = &vals[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}

		var rec models.AssetRecord
		for i, col := range models.Columns {
			if vals[i].Valid {
				rec.Set(col, vals[i].String)
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DeleteAsset removes one asset by tag.
func (s *Store) DeleteAsset(ctx context.Context, assetTag string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM assets WHERE asset_tag = ?`, assetTag)
	return err
}
