package history

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rebeliceyang/assetq/internal/models"
)

//go:embed schema.sql
var schemaSQL string

const selectResolutions = `
	SELECT id, organization_id, mode, filters, select_all, asset_count,
	       duration_ms, success, error_message, resolved_at
	FROM bulk_resolutions`

// Store persists bulk resolutions in SQLite
type Store struct {
	db *sql.DB
}

// NewStore opens (and creates when needed) the history database at path
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	// Create schema
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Record stores one resolution. Missing IDs and timestamps are filled in.
func (s *Store) Record(r models.Resolution) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.ResolvedAt.IsZero() {
		r.ResolvedAt = time.Now()
	}

	_, err := s.db.Exec(`
		INSERT INTO bulk_resolutions
		(id, organization_id, mode, filters, select_all, asset_count, duration_ms, success, error_message, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		r.OrganizationID,
		string(r.Mode),
		r.Filters,
		r.SelectAll,
		r.Count,
		r.Duration.Milliseconds(),
		r.Success,
		r.Error,
		r.ResolvedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// GetRecent retrieves the most recent resolutions
func (s *Store) GetRecent(limit int) ([]models.Resolution, error) {
	rows, err := s.db.Query(selectResolutions+`
		ORDER BY resolved_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	return scanResolutions(rows)
}

// ForOrganization retrieves the most recent resolutions of one organization
func (s *Store) ForOrganization(organizationID string, limit int) ([]models.Resolution, error) {
	rows, err := s.db.Query(selectResolutions+`
		WHERE organization_id = ?
		ORDER BY resolved_at DESC
		LIMIT ?`, organizationID, limit)
	if err != nil {
		return nil, err
	}
	return scanResolutions(rows)
}

func scanResolutions(rows *sql.Rows) ([]models.Resolution, error) {
	defer func() { _ = rows.Close() }()

	var entries []models.Resolution
	for rows.Next() {
		var (
			r          models.Resolution
			mode       string
			durationMs int64
			resolvedAt string
		)

		err := rows.Scan(
			&r.ID,
			&r.OrganizationID,
			&mode,
			&r.Filters,
			&r.SelectAll,
			&r.Count,
			&durationMs,
			&r.Success,
			&r.Error,
			&resolvedAt,
		)
		if err != nil {
			return nil, err
		}

		r.Mode = models.Mode(mode)
		r.Duration = time.Duration(durationMs) * time.Millisecond
		r.ResolvedAt, _ = time.Parse(time.RFC3339Nano, resolvedAt)

		entries = append(entries, r)
	}

	return entries, rows.Err()
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
