// Package dataset reads the precomputed review table (parquet or CSV) through
// an in-memory DuckDB connection.
package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	// DuckDB driver, used only for its parquet and CSV table functions
	_ "github.com/duckdb/duckdb-go/v2"
)

type Reader struct {
	db   *sql.DB
	path string
}

func Open(path string) (*Reader, error) {
	if path == "" {
		return nil, fmt.Errorf("dataset path is empty")
	}
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	return &Reader{db: db, path: path}, nil
}

func (r *Reader) Close() error { return r.db.Close() }

// source returns the table function for the file type. Paths are embedded as
// string literals because table functions do not take bind parameters.
func (r *Reader) source() string {
	lit := "'" + strings.ReplaceAll(r.path, "'", "''") + "'"
	switch strings.ToLower(filepath.Ext(r.path)) {
	case ".csv", ".tsv":
		return "read_csv_auto(" + lit + ", header = true)"
	case ".json", ".ndjson":
		return "read_json_auto(" + lit + ")"
	default:
		return "read_parquet(" + lit + ")"
	}
}

// LoadAll returns every row keyed by column name. Values keep the driver's
// types (string, float64, int64, time.Time, nil).
func (r *Reader) LoadAll(ctx context.Context) ([]map[string]any, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT * FROM "+r.source())
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.path, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []map[string]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", r.path, err)
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			row[strings.ToLower(c)] = vals[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
