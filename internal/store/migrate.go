package store

import (
	"database/sql"
	"fmt"
)

func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}

	if v >= 1 {
		return tx.Commit()
	}

	// ---- Schema v1: tables ----

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS job_posts (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  link TEXT NOT NULL,
  original_link TEXT NOT NULL DEFAULT '',
  title TEXT NOT NULL DEFAULT '',
  company TEXT NOT NULL DEFAULT '',
  location TEXT NOT NULL DEFAULT '',
  snippet TEXT NOT NULL DEFAULT '',
  source TEXT NOT NULL DEFAULT '',
  posted_time TEXT,
  scraped_at TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  requirements TEXT NOT NULL DEFAULT '',
  responsibilities TEXT NOT NULL DEFAULT '',
  keywords TEXT NOT NULL DEFAULT '[]',
  status TEXT NOT NULL DEFAULT 'pending',
  validated INTEGER NOT NULL DEFAULT 0,
  validated_date TEXT,
  fields_updated TEXT NOT NULL DEFAULT '[]',
  last_validated_by TEXT NOT NULL DEFAULT '',
  validation_notes TEXT NOT NULL DEFAULT '',
  error_reason TEXT NOT NULL DEFAULT '',
  is_user_reported INTEGER NOT NULL DEFAULT 0
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS known_locations (
  raw TEXT PRIMARY KEY,
  canonical TEXT NOT NULL
);
`); err != nil {
		return err
	}

	// ---- Schema v1: indexes ----

	if _, err := tx.Exec(`
CREATE UNIQUE INDEX IF NOT EXISTS idx_job_posts_link
ON job_posts(link);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_job_posts_validation
ON job_posts(validated, status);
`); err != nil {
		return err
	}

	// Back-compat for dev DBs created before these columns landed.
	if !columnExists(tx, "job_posts", "snippet") {
		if _, err := tx.Exec(`ALTER TABLE job_posts ADD COLUMN snippet TEXT NOT NULL DEFAULT '';`); err != nil {
			return err
		}
	}
	if !columnExists(tx, "job_posts", "is_user_reported") {
		if _, err := tx.Exec(`ALTER TABLE job_posts ADD COLUMN is_user_reported INTEGER NOT NULL DEFAULT 0;`); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`PRAGMA user_version = 1;`); err != nil {
		return err
	}

	return tx.Commit()
}

func columnExists(q interface {
	QueryRow(query string, args ...any) *sql.Row
}, table, col string) bool {
	query := fmt.Sprintf(`
SELECT 1
FROM pragma_table_info('%s')
WHERE name = ?
LIMIT 1;
`, table)

	var one int
	err := q.QueryRow(query, col).Scan(&one)
	return err == nil
}
