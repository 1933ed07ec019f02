package provenance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"curator/internal/config"
	"curator/internal/services"
)

// Store manages provenance persistence backed by SQLite. All writes are
// serialized at the storage layer; callers need no additional locking.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the provenance database and applies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, services.Wrap(services.ErrStorage, "provenance", "open", "ensure directories", err)
	}
	return OpenPath(cfg.DatabasePath())
}

// OpenPath opens the store at an explicit database path.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "provenance", "open", "open sqlite db", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, services.Wrap(services.ErrStorage, "provenance", "open", fmt.Sprintf("apply pragma %q", pragma), execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// RecordOrganization creates a version-1 record plus its matching snapshot
// atomically and returns the new record id.
func (s *Store) RecordOrganization(ctx context.Context, fields NewRecord) (int64, error) {
	ctx = ensureContext(ctx)
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	var recordID int64
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		res, err := tx.ExecContext(
			ctx,
			`INSERT INTO organized_files (
                original_path, current_path, backup_path, original_name, current_name,
                template_id, category, title, tags_json, summary,
                classifier_provider, classifier_model, raw_classifier_output,
                created_at, updated_at, version
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
			fields.OriginalPath,
			fields.CurrentPath,
			nullableString(fields.BackupPath),
			baseName(fields.OriginalPath),
			baseName(fields.CurrentPath),
			nullableString(fields.TemplateID),
			nullableString(fields.Category),
			nullableString(fields.Title),
			nullableString(encodeTags(fields.Tags)),
			nullableString(fields.Summary),
			nullableString(fields.ClassifierProvider),
			nullableString(fields.ClassifierModel),
			nullableString(fields.RawClassifierOutput),
			timestamp,
			timestamp,
		)
		if err != nil {
			return fmt.Errorf("insert record: %w", err)
		}
		recordID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}

		if _, err := tx.ExecContext(
			ctx,
			snapshotUpsertSQL,
			recordID,
			1,
			fields.CurrentPath,
			baseName(fields.CurrentPath),
			nullableString(fields.Category),
			nullableString(fields.Title),
			nullableString(encodeTags(fields.Tags)),
			nullableString(fields.Summary),
			nullableString(fields.RawClassifierOutput),
			timestamp,
		); err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}
		return tx.Commit()
	})
	if err != nil {
		return 0, services.Wrap(services.ErrStorage, "provenance", "record organization", "", err)
	}
	return recordID, nil
}

// UpdateOrganization applies a partial update. The pre-update state refreshes
// the snapshot under the current version and the post-update state is stored
// under the incremented version, so both edit boundaries are durable while
// each historical version keeps exactly one snapshot.
func (s *Store) UpdateOrganization(ctx context.Context, id int64, update RecordUpdate) (*Record, error) {
	ctx = ensureContext(ctx)
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	var updated *Record
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		row := tx.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM organized_files WHERE id = ?`, id)
		record, err := scanRecord(row)
		if errors.Is(err, sql.ErrNoRows) {
			return services.Wrap(services.ErrNotFound, "provenance", "update", fmt.Sprintf("record %d", id), nil)
		}
		if err != nil {
			return fmt.Errorf("load record: %w", err)
		}

		if _, err := tx.ExecContext(
			ctx,
			snapshotUpsertSQL,
			record.ID,
			record.Version,
			record.CurrentPath,
			record.CurrentName,
			nullableString(record.Category),
			nullableString(record.Title),
			nullableString(encodeTags(record.Tags)),
			nullableString(record.Summary),
			nullableString(record.RawClassifierOutput),
			timestamp,
		); err != nil {
			return fmt.Errorf("refresh prior snapshot: %w", err)
		}

		update.apply(record)
		record.Version++
		record.UpdatedAt = now

		if _, err := tx.ExecContext(
			ctx,
			`UPDATE organized_files SET
                current_path = ?, backup_path = ?, current_name = ?, template_id = ?,
                category = ?, title = ?, tags_json = ?, summary = ?,
                raw_classifier_output = ?, updated_at = ?, version = ?
             WHERE id = ?`,
			record.CurrentPath,
			nullableString(record.BackupPath),
			record.CurrentName,
			nullableString(record.TemplateID),
			nullableString(record.Category),
			nullableString(record.Title),
			nullableString(encodeTags(record.Tags)),
			nullableString(record.Summary),
			nullableString(record.RawClassifierOutput),
			timestamp,
			record.Version,
			record.ID,
		); err != nil {
			return fmt.Errorf("update record: %w", err)
		}

		if _, err := tx.ExecContext(
			ctx,
			snapshotUpsertSQL,
			record.ID,
			record.Version,
			record.CurrentPath,
			record.CurrentName,
			nullableString(record.Category),
			nullableString(record.Title),
			nullableString(encodeTags(record.Tags)),
			nullableString(record.Summary),
			nullableString(record.RawClassifierOutput),
			timestamp,
		); err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return err
		}
		updated = record
		return nil
	})
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return nil, err
		}
		return nil, services.Wrap(services.ErrStorage, "provenance", "update organization", "", err)
	}
	return updated, nil
}

// GetByID fetches a record by identifier. A missing record returns nil.
func (s *Store) GetByID(ctx context.Context, id int64) (*Record, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM organized_files WHERE id = ?`, id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "provenance", "get record", "", err)
	}
	return record, nil
}

// DeleteRecord removes the record and all its snapshots.
func (s *Store) DeleteRecord(ctx context.Context, id int64) error {
	ctx = ensureContext(ctx)
	var affected int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM organized_files WHERE id = ?`, id)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return services.Wrap(services.ErrStorage, "provenance", "delete record", "", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "provenance", "delete", fmt.Sprintf("record %d", id), nil)
	}
	return nil
}

// List returns all records ordered by creation time.
func (s *Store) List(ctx context.Context) ([]*Record, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT `+recordColumns+` FROM organized_files ORDER BY created_at`)
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "provenance", "list records", "", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// Search performs case-insensitive substring matching over title, summary,
// category, and current name.
func (s *Store) Search(ctx context.Context, query string) ([]*Record, error) {
	ctx = ensureContext(ctx)
	needle := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+recordColumns+` FROM organized_files
         WHERE LOWER(COALESCE(title, '')) LIKE ?
            OR LOWER(COALESCE(summary, '')) LIKE ?
            OR LOWER(COALESCE(category, '')) LIKE ?
            OR LOWER(current_name) LIKE ?
         ORDER BY created_at`,
		needle, needle, needle, needle,
	)
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "provenance", "search records", "", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// History returns all snapshots for a record ordered by version.
func (s *Store) History(ctx context.Context, recordID int64) ([]*Snapshot, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT record_id, version, path, name, category, title, tags_json, summary, raw_output, created_at
         FROM file_versions WHERE record_id = ? ORDER BY version`,
		recordID,
	)
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "provenance", "history", "", err)
	}
	defer rows.Close()

	var snapshots []*Snapshot
	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			return nil, services.Wrap(services.ErrStorage, "provenance", "history", "scan snapshot", err)
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, rows.Err()
}

const snapshotUpsertSQL = `INSERT INTO file_versions (
        record_id, version, path, name, category, title, tags_json, summary, raw_output, created_at
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    ON CONFLICT(record_id, version) DO UPDATE SET
        path = excluded.path, name = excluded.name, category = excluded.category,
        title = excluded.title, tags_json = excluded.tags_json,
        summary = excluded.summary, raw_output = excluded.raw_output`

const recordColumns = "id, original_path, current_path, backup_path, original_name, current_name, template_id, category, title, tags_json, summary, classifier_provider, classifier_model, raw_classifier_output, created_at, updated_at, version"

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		id           int64
		originalPath string
		currentPath  string
		backupPath   sql.NullString
		originalName string
		currentName  string
		templateID   sql.NullString
		category     sql.NullString
		title        sql.NullString
		tagsJSON     sql.NullString
		summary      sql.NullString
		provider     sql.NullString
		model        sql.NullString
		rawOutput    sql.NullString
		createdRaw   string
		updatedRaw   string
		version      int
	)

	if err := scanner.Scan(
		&id, &originalPath, &currentPath, &backupPath, &originalName, &currentName,
		&templateID, &category, &title, &tagsJSON, &summary,
		&provider, &model, &rawOutput, &createdRaw, &updatedRaw, &version,
	); err != nil {
		return nil, err
	}

	record := &Record{
		ID:                  id,
		OriginalPath:        originalPath,
		CurrentPath:         currentPath,
		BackupPath:          backupPath.String,
		OriginalName:        originalName,
		CurrentName:         currentName,
		TemplateID:          templateID.String,
		Category:            category.String,
		Title:               title.String,
		Tags:                decodeTags(tagsJSON.String),
		Summary:             summary.String,
		ClassifierProvider:  provider.String,
		ClassifierModel:     model.String,
		RawClassifierOutput: rawOutput.String,
		Version:             version,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		record.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		record.UpdatedAt = updated
	}
	return record, nil
}

func scanSnapshot(scanner interface{ Scan(dest ...any) error }) (*Snapshot, error) {
	var (
		recordID   int64
		version    int
		path       string
		name       string
		category   sql.NullString
		title      sql.NullString
		tagsJSON   sql.NullString
		summary    sql.NullString
		rawOutput  sql.NullString
		createdRaw string
	)
	if err := scanner.Scan(&recordID, &version, &path, &name, &category, &title, &tagsJSON, &summary, &rawOutput, &createdRaw); err != nil {
		return nil, err
	}
	snapshot := &Snapshot{
		RecordID:  recordID,
		Version:   version,
		Path:      path,
		Name:      name,
		Category:  category.String,
		Title:     title.String,
		Tags:      decodeTags(tagsJSON.String),
		Summary:   summary.String,
		RawOutput: rawOutput.String,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		snapshot.CreatedAt = created
	}
	return snapshot, nil
}

func collectRecords(rows *sql.Rows) ([]*Record, error) {
	var records []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, services.Wrap(services.ErrStorage, "provenance", "scan record", "", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
