package provenance

import (
	"context"
	_ "embed"
	"fmt"

	"curator/internal/services"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Additive columns are applied
// in ensureColumns so existing databases keep loading.
const schemaVersion = 1

// additiveColumns lists nullable columns introduced after a table first
// shipped. Rows created before the column existed scan as null.
var additiveColumns = map[string][]string{
	"discovered_files": {
		"file_size INTEGER",
		"file_modified_at TEXT",
		"template_id TEXT",
	},
}

func (s *Store) initSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return services.Wrap(services.ErrStorage, "provenance", "init schema", "begin tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return services.Wrap(services.ErrStorage, "provenance", "init schema", "create schema", err)
	}

	var count int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM schema_version").Scan(&count); err != nil {
		return services.Wrap(services.ErrStorage, "provenance", "init schema", "read schema version", err)
	}
	if count == 0 {
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return services.Wrap(services.ErrStorage, "provenance", "init schema", "record schema version", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return services.Wrap(services.ErrStorage, "provenance", "init schema", "commit", err)
	}

	return s.ensureColumns(ctx)
}

// ensureColumns adds any additive columns missing from older databases.
func (s *Store) ensureColumns(ctx context.Context) error {
	for table, columns := range additiveColumns {
		existing, err := s.tableColumns(ctx, table)
		if err != nil {
			return err
		}
		for _, definition := range columns {
			name := columnName(definition)
			if _, ok := existing[name]; ok {
				continue
			}
			alter := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", table, definition)
			if _, err := s.db.ExecContext(ctx, alter); err != nil {
				return services.Wrap(services.ErrStorage, "provenance", "migrate", fmt.Sprintf("add column %s.%s", table, name), err)
			}
		}
	}
	return nil
}

func (s *Store) tableColumns(ctx context.Context, table string) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "provenance", "migrate", "table info", err)
	}
	defer rows.Close()

	columns := make(map[string]struct{})
	for rows.Next() {
		var (
			cid     int
			name    string
			typeStr string
			notNull int
			dflt    any
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typeStr, &notNull, &dflt, &pk); err != nil {
			return nil, services.Wrap(services.ErrStorage, "provenance", "migrate", "scan table info", err)
		}
		columns[name] = struct{}{}
	}
	return columns, rows.Err()
}

func columnName(definition string) string {
	for i, r := range definition {
		if r == ' ' {
			return definition[:i]
		}
	}
	return definition
}
