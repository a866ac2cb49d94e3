package store

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/domain"
)

// WithPosting runs fn against a mutable copy of one posting inside a
// transaction and persists whatever fn left behind. If the update or
// commit fails the posting is stamped commit_error on a fresh statement
// so the failure is visible in the table rather than silently retried
// forever.
func WithPosting(ctx context.Context, db *sql.DB, log *slog.Logger, id int64, fn func(p *domain.JobPosting) error) error {
	p, err := GetPosting(ctx, db, id)
	if err != nil {
		return err
	}
	if err := fn(&p); err != nil {
		return err
	}

	if err := commitPosting(ctx, db, &p); err != nil {
		log.Error("posting commit failed", "id", id, "err", err)
		stampCommitError(ctx, db, log, id)
		return err
	}
	return nil
}

func commitPosting(ctx context.Context, db *sql.DB, p *domain.JobPosting) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := updatePosting(ctx, tx, p); err != nil {
		return err
	}
	return tx.Commit()
}

// stampCommitError runs outside the failed transaction. Best effort: if
// even this write fails there is nothing left to do but log.
func stampCommitError(ctx context.Context, db *sql.DB, log *slog.Logger, id int64) {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := db.ExecContext(ctx, `
UPDATE job_posts
SET status = ?, validated = 1, validated_date = ?
WHERE id = ?;`,
		string(domain.StatusCommitError), now, id)
	if err != nil {
		log.Error("could not stamp commit_error", "id", id, "err", err)
	}
}
