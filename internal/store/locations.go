package store

import (
	"context"
	"database/sql"
	"strings"
)

// KnownLocations loads the raw-to-canonical location table. Rows here
// extend (and are overridden by) the config's known_locations map.
func KnownLocations(ctx context.Context, db *sql.DB) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT raw, canonical FROM known_locations;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var raw, canonical string
		if err := rows.Scan(&raw, &canonical); err != nil {
			return nil, err
		}
		out[strings.ToLower(strings.TrimSpace(raw))] = canonical
	}
	return out, rows.Err()
}

// UpsertKnownLocation records a normalization learned at runtime so the
// next batch resolves the same raw string without scraping heuristics.
func UpsertKnownLocation(ctx context.Context, db *sql.DB, raw, canonical string) error {
	_, err := db.ExecContext(ctx, `
INSERT INTO known_locations(raw, canonical) VALUES(?, ?)
ON CONFLICT(raw) DO UPDATE SET canonical = excluded.canonical;`,
		strings.ToLower(strings.TrimSpace(raw)), canonical)
	return err
}
