package provenance

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"time"

	"curator/internal/services"
)

// UpsertDiscovered records a file seen on disk, keyed by its unique path.
// Re-discovery of the same path refreshes status, last-checked time, and file
// metadata in place rather than creating a duplicate entry.
func (s *Store) UpsertDiscovered(ctx context.Context, entry DiscoveredFile) error {
	ctx = ensureContext(ctx)
	now := time.Now().UTC().Format(time.RFC3339Nano)
	fileName := entry.FileName
	if fileName == "" {
		fileName = filepath.Base(entry.FilePath)
	}

	err := retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(
			ctx,
			`INSERT INTO discovered_files (
                file_path, file_name, status, discovered_at, last_checked_at,
                file_size, file_modified_at, template_id
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
            ON CONFLICT(file_path) DO UPDATE SET
                file_name = excluded.file_name,
                status = excluded.status,
                last_checked_at = excluded.last_checked_at,
                file_size = excluded.file_size,
                file_modified_at = excluded.file_modified_at,
                template_id = COALESCE(excluded.template_id, discovered_files.template_id)`,
			entry.FilePath,
			fileName,
			string(entry.Status),
			now,
			now,
			nullableInt64(entry.FileSize),
			nullableTime(entry.FileModifiedAt),
			nullableString(entry.TemplateID),
		)
		return err
	})
	if err != nil {
		return services.Wrap(services.ErrStorage, "provenance", "upsert discovered", "", err)
	}
	return nil
}

// GetDiscovered returns the entry for a path, or nil when unknown.
func (s *Store) GetDiscovered(ctx context.Context, filePath string) (*DiscoveredFile, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+discoveredColumns+` FROM discovered_files WHERE file_path = ?`,
		filePath,
	)
	entry, err := scanDiscovered(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "provenance", "get discovered", "", err)
	}
	return entry, nil
}

// ListDiscovered returns entries filtered by status, or all entries when
// status is empty.
func (s *Store) ListDiscovered(ctx context.Context, status DiscoveredStatus) ([]*DiscoveredFile, error) {
	ctx = ensureContext(ctx)
	var (
		rows *sql.Rows
		err  error
	)
	if status == "" {
		rows, err = s.db.QueryContext(ctx, `SELECT `+discoveredColumns+` FROM discovered_files ORDER BY discovered_at`)
	} else {
		rows, err = s.db.QueryContext(ctx, `SELECT `+discoveredColumns+` FROM discovered_files WHERE status = ? ORDER BY discovered_at`, string(status))
	}
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "provenance", "list discovered", "", err)
	}
	defer rows.Close()

	var entries []*DiscoveredFile
	for rows.Next() {
		entry, err := scanDiscovered(rows)
		if err != nil {
			return nil, services.Wrap(services.ErrStorage, "provenance", "list discovered", "scan entry", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

const discoveredColumns = "id, file_path, file_name, status, discovered_at, last_checked_at, file_size, file_modified_at, template_id"

func scanDiscovered(scanner interface{ Scan(dest ...any) error }) (*DiscoveredFile, error) {
	var (
		id            int64
		filePath      string
		fileName      string
		statusStr     string
		discoveredRaw string
		checkedRaw    string
		fileSize      sql.NullInt64
		modifiedRaw   sql.NullString
		templateID    sql.NullString
	)
	if err := scanner.Scan(&id, &filePath, &fileName, &statusStr, &discoveredRaw, &checkedRaw, &fileSize, &modifiedRaw, &templateID); err != nil {
		return nil, err
	}

	entry := &DiscoveredFile{
		ID:         id,
		FilePath:   filePath,
		FileName:   fileName,
		Status:     DiscoveredStatus(statusStr),
		TemplateID: templateID.String,
	}
	if discovered, err := parseTimeString(discoveredRaw); err == nil {
		entry.DiscoveredAt = discovered
	}
	if checked, err := parseTimeString(checkedRaw); err == nil {
		entry.LastCheckedAt = checked
	}
	if fileSize.Valid {
		size := fileSize.Int64
		entry.FileSize = &size
	}
	if modifiedRaw.Valid {
		if modified, err := parseTimeString(modifiedRaw.String); err == nil {
			entry.FileModifiedAt = &modified
		}
	}
	return entry, nil
}

func nullableInt64(value *int64) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}
