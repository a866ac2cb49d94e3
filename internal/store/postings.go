package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/domain"
)

var ErrNotFound = errors.New("posting not found")

const postingColumns = `
id, link, original_link, title, company, location, snippet, source,
posted_time, scraped_at, description, requirements, responsibilities,
keywords, status, validated, validated_date, fields_updated,
last_validated_by, validation_notes, error_reason, is_user_reported`

// PendingBatch returns up to limit unvalidated postings whose link
// matches any of the LIKE patterns, oldest first so stale rows do not
// starve.
func PendingBatch(ctx context.Context, db *sql.DB, patterns []string, limit int) ([]domain.JobPosting, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	likes := make([]string, 0, len(patterns))
	args := make([]any, 0, len(patterns)+1)
	for _, p := range patterns {
		likes = append(likes, "link LIKE ?")
		args = append(args, p)
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
SELECT %s
FROM job_posts
WHERE validated = 0 AND status = 'pending' AND (%s)
ORDER BY id ASC
LIMIT ?;
`, postingColumns, strings.Join(likes, " OR "))

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.JobPosting
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func GetPosting(ctx context.Context, db *sql.DB, id int64) (domain.JobPosting, error) {
	query := fmt.Sprintf(`SELECT %s FROM job_posts WHERE id = ?;`, postingColumns)
	row := db.QueryRowContext(ctx, query, id)
	p, err := scanPosting(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.JobPosting{}, ErrNotFound
	}
	return p, err
}

// InsertPosting exists for tests and for seeding; the discovery process
// that normally creates rows lives outside this service.
func InsertPosting(ctx context.Context, db *sql.DB, p *domain.JobPosting) error {
	if p.Status == "" {
		p.Status = domain.StatusPending
	}
	keywords, _ := json.Marshal(emptySlice(p.Keywords))
	fields, _ := json.Marshal(emptySlice(p.FieldsUpdated))
	res, err := db.ExecContext(ctx, `
INSERT INTO job_posts(
  link, original_link, title, company, location, snippet, source,
  posted_time, scraped_at, description, requirements, responsibilities,
  keywords, status, validated, validated_date, fields_updated,
  last_validated_by, validation_notes, error_reason, is_user_reported
) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?);`,
		p.Link, p.OriginalLink, p.Title, p.Company, p.Location, p.Snippet, p.Source,
		nullableTime(p.PostedTime), p.ScrapedAt.UTC().Format(time.RFC3339),
		p.Description, p.Requirements, p.Responsibilities,
		string(keywords), string(p.Status), boolInt(p.Validated),
		nullableTime(p.ValidatedDate), string(fields),
		p.LastValidatedBy, p.ValidationNotes, p.ErrorReason, boolInt(p.IsUserReported),
	)
	if err != nil {
		return err
	}
	p.ID, _ = res.LastInsertId()
	return nil
}

func updatePosting(ctx context.Context, tx *sql.Tx, p *domain.JobPosting) error {
	keywords, _ := json.Marshal(emptySlice(p.Keywords))
	fields, _ := json.Marshal(emptySlice(p.FieldsUpdated))
	res, err := tx.ExecContext(ctx, `
UPDATE job_posts SET
  link = ?, original_link = ?, title = ?, company = ?, location = ?,
  snippet = ?, source = ?, posted_time = ?, scraped_at = ?,
  description = ?, requirements = ?, responsibilities = ?, keywords = ?,
  status = ?, validated = ?, validated_date = ?, fields_updated = ?,
  last_validated_by = ?, validation_notes = ?, error_reason = ?,
  is_user_reported = ?
WHERE id = ?;`,
		p.Link, p.OriginalLink, p.Title, p.Company, p.Location,
		p.Snippet, p.Source, nullableTime(p.PostedTime),
		p.ScrapedAt.UTC().Format(time.RFC3339),
		p.Description, p.Requirements, p.Responsibilities, string(keywords),
		string(p.Status), boolInt(p.Validated), nullableTime(p.ValidatedDate),
		string(fields), p.LastValidatedBy, p.ValidationNotes, p.ErrorReason,
		boolInt(p.IsUserReported), p.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPosting(row rowScanner) (domain.JobPosting, error) {
	var (
		p             domain.JobPosting
		status        string
		validated     int
		userReported  int
		postedTime    sql.NullString
		validatedDate sql.NullString
		scrapedAt     string
		keywordsJSON  string
		fieldsJSON    string
	)
	if err := row.Scan(
		&p.ID, &p.Link, &p.OriginalLink, &p.Title, &p.Company, &p.Location,
		&p.Snippet, &p.Source, &postedTime, &scrapedAt,
		&p.Description, &p.Requirements, &p.Responsibilities,
		&keywordsJSON, &status, &validated, &validatedDate, &fieldsJSON,
		&p.LastValidatedBy, &p.ValidationNotes, &p.ErrorReason, &userReported,
	); err != nil {
		return domain.JobPosting{}, err
	}
	p.Status = domain.Status(status)
	p.Validated = validated != 0
	p.IsUserReported = userReported != 0
	p.PostedTime = parseNullableTime(postedTime)
	p.ValidatedDate = parseNullableTime(validatedDate)
	if t, err := time.Parse(time.RFC3339, scrapedAt); err == nil {
		p.ScrapedAt = t
	}
	_ = json.Unmarshal([]byte(keywordsJSON), &p.Keywords)
	_ = json.Unmarshal([]byte(fieldsJSON), &p.FieldsUpdated)
	return p, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func parseNullableTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func emptySlice(xs []string) []string {
	if xs == nil {
		return []string{}
	}
	return xs
}
