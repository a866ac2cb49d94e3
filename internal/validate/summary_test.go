package validate

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/ai"
	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/domain"
	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/store"
)

type stubProvider struct {
	lastReq ai.Request
	content string
	err     error
}

func (s *stubProvider) Complete(ctx context.Context, req ai.Request) (ai.Result, error) {
	s.lastReq = req
	if s.err != nil {
		return ai.Result{}, s.err
	}
	return ai.Result{Content: s.content}, nil
}

func summaryTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.Migrate(db.Pool))
	return db
}

func TestSummarizeValidatedPosting(t *testing.T) {
	db := summaryTestDB(t)
	p := &domain.JobPosting{
		Link:        "https://boards.greenhouse.io/acme/jobs/1",
		Title:       "Backend Engineer",
		Company:     "Acme",
		Description: "<p>Build the payments platform.</p>",
		Status:      domain.StatusValid,
		ScrapedAt:   time.Now().UTC(),
	}
	require.NoError(t, store.InsertPosting(context.Background(), db.Pool, p))

	provider := &stubProvider{content: "  Acme is hiring a Backend Engineer.  "}
	got, err := Summarize(context.Background(), db.Pool, provider, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme is hiring a Backend Engineer.", got)
	assert.Contains(t, provider.lastReq.User, "Backend Engineer")
	assert.Contains(t, provider.lastReq.User, "Acme")
}

func TestSummarizeRejectsUnvalidatedPosting(t *testing.T) {
	db := summaryTestDB(t)
	p := &domain.JobPosting{
		Link:        "https://boards.greenhouse.io/acme/jobs/2",
		Description: "<p>Something</p>",
		ScrapedAt:   time.Now().UTC(),
	}
	require.NoError(t, store.InsertPosting(context.Background(), db.Pool, p))

	_, err := Summarize(context.Background(), db.Pool, &stubProvider{content: "x"}, p.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not validated")
}

func TestSummarizeMissingPosting(t *testing.T) {
	db := summaryTestDB(t)
	_, err := Summarize(context.Background(), db.Pool, &stubProvider{content: "x"}, 999)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSummarizeProviderFailure(t *testing.T) {
	db := summaryTestDB(t)
	p := &domain.JobPosting{
		Link:        "https://boards.greenhouse.io/acme/jobs/3",
		Title:       "SRE",
		Company:     "Acme",
		Description: "<p>Keep it up.</p>",
		Status:      domain.StatusValid,
		ScrapedAt:   time.Now().UTC(),
	}
	require.NoError(t, store.InsertPosting(context.Background(), db.Pool, p))

	_, err := Summarize(context.Background(), db.Pool, &stubProvider{err: errors.New("rate limited")}, p.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}
