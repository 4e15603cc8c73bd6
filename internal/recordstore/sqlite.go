package recordstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/garnizeh/jobboard/internal/db"
)

// posColumn keeps insertion order; it never appears in records.
const posColumn = "_pos"

// SQLiteBackend stores each schema as one SQL table whose columns are the
// schema fields, all TEXT.
type SQLiteBackend struct {
	db *db.DB
}

// NewSQLiteBackend returns a backend on an open database.
func NewSQLiteBackend(d *db.DB) *SQLiteBackend {
	return &SQLiteBackend{db: d}
}

var _ Backend = (*SQLiteBackend)(nil)

func (b *SQLiteBackend) Initialize(ctx context.Context, s Schema) error {
	cols := make([]string, 0, len(s.Fields)+1)
	cols = append(cols, quoteIdent(posColumn)+" INTEGER PRIMARY KEY")
	for _, f := range s.Fields {
		cols = append(cols, quoteIdent(f)+" TEXT NOT NULL DEFAULT ''")
	}
	q := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quoteIdent(s.Name), strings.Join(cols, ", "))
	if _, err := b.db.Exec(ctx, q); err != nil {
		return fmt.Errorf("create table %s: %w", s.Name, err)
	}

	// A table written under an older schema gains the fields it lacks;
	// existing rows read them as empty.
	existing, err := b.columns(ctx, s.Name)
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(existing))
	for _, c := range existing {
		have[c] = true
	}
	for _, f := range s.Fields {
		if have[f] {
			continue
		}
		alter := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s TEXT NOT NULL DEFAULT ''", quoteIdent(s.Name), quoteIdent(f))
		if _, err := b.db.Exec(ctx, alter); err != nil {
			return fmt.Errorf("add column %s.%s: %w", s.Name, f, err)
		}
	}
	return nil
}

func (b *SQLiteBackend) Load(ctx context.Context, s Schema) ([]Record, error) {
	cols, err := b.columns(ctx, s.Name)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return []Record{}, nil
	}

	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdent(c)
	}
	q := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", strings.Join(quoted, ", "), quoteIdent(s.Name), quoteIdent(posColumn))
	rows, err := b.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", s.Name, err)
	}
	defer rows.Close()

	records := []Record{}
	vals := make([]sql.NullString, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &MalformedRecordError{Table: s.Name, Line: len(records) + 1, Detail: err.Error()}
		}
		rec := make(Record, len(cols))
		for i, c := range cols {
			rec[c] = vals[i].String
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", s.Name, err)
	}
	return records, nil
}

func (b *SQLiteBackend) Save(ctx context.Context, s Schema, records []Record) error {
	if err := b.Initialize(ctx, s); err != nil {
		return err
	}

	cols := make([]string, 0, len(s.Fields)+1)
	marks := make([]string, 0, len(s.Fields)+1)
	cols = append(cols, quoteIdent(posColumn))
	marks = append(marks, "?")
	for _, f := range s.Fields {
		cols = append(cols, quoteIdent(f))
		marks = append(marks, "?")
	}
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quoteIdent(s.Name), strings.Join(cols, ", "), strings.Join(marks, ", "))

	return b.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+quoteIdent(s.Name)); err != nil {
			return fmt.Errorf("clear %s: %w", s.Name, err)
		}
		stmt, err := tx.PrepareContext(ctx, insert)
		if err != nil {
			return fmt.Errorf("prepare insert %s: %w", s.Name, err)
		}
		defer stmt.Close()

		args := make([]any, len(s.Fields)+1)
		for i, rec := range records {
			args[0] = i + 1
			for j, v := range s.Row(rec) {
				args[j+1] = v
			}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("insert %s row %d: %w", s.Name, i+1, err)
			}
		}
		return nil
	})
}

// columns lists the table's data columns in declaration order, or nothing
// when the table does not exist.
func (b *SQLiteBackend) columns(ctx context.Context, table string) ([]string, error) {
	rows, err := b.db.Query(ctx, "SELECT name FROM pragma_table_info(?) ORDER BY cid", table)
	if err != nil {
		return nil, fmt.Errorf("table info %s: %w", table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		if name != posColumn {
			cols = append(cols, name)
		}
	}
	return cols, rows.Err()
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
