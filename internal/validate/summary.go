package validate

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/ai"
	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/domain"
	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/store"
)

// Summarize turns a validated posting's description into one friendly
// paragraph for listing previews.
func Summarize(ctx context.Context, db *sql.DB, provider ai.Provider, id int64) (string, error) {
	p, err := store.GetPosting(ctx, db, id)
	if err != nil {
		return "", err
	}
	if p.Status != domain.StatusValid {
		return "", fmt.Errorf("posting %d is not validated (status %q)", id, p.Status)
	}
	if strings.TrimSpace(p.Description) == "" {
		return "", fmt.Errorf("posting %d has no description to summarize", id)
	}

	res, err := provider.Complete(ctx, ai.SummarizeRequest(p.Title, p.Company, p.Description))
	if err != nil {
		return "", fmt.Errorf("summarize posting %d: %w", id, err)
	}
	return strings.TrimSpace(res.Content), nil
}
