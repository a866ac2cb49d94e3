package validate

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/browser"
	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/domain"
	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/events"
	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/store"
)

type fakeValidator struct {
	name        string
	link        string
	validateOK  bool
	validateErr error
	attempt     domain.ValidationAttempt
	meta        map[string]any
	metaErr     error
	session     browser.Session
	useSession  bool
	sessionErr  error
}

func (f *fakeValidator) Name() string                       { return f.name }
func (f *fakeValidator) Link() string                       { return f.link }
func (f *fakeValidator) UsesSession() bool                  { return f.useSession }
func (f *fakeValidator) SetSession(s browser.Session)       { f.session = s }
func (f *fakeValidator) Attempt() *domain.ValidationAttempt { return &f.attempt }
func (f *fakeValidator) CanonicalLink() string              { return f.link }

func (f *fakeValidator) Validate(ctx context.Context) (bool, error) {
	return f.validateOK, f.validateErr
}

func (f *fakeValidator) ExtractMetadata(ctx context.Context) (map[string]any, error) {
	return f.meta, f.metaErr
}

func (f *fakeValidator) NewSession(ctx context.Context) (browser.Session, error) {
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	return &stubSession{}, nil
}

type stubSession struct{ closed bool }

func (s *stubSession) Navigate(ctx context.Context, url string) error { return nil }
func (s *stubSession) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	return nil
}
func (s *stubSession) PageSource(ctx context.Context) (string, error) { return "", nil }
func (s *stubSession) CurrentURL(ctx context.Context) (string, error) { return "", nil }
func (s *stubSession) Close() error                                   { s.closed = true; return nil }

func testOrchestrator(t *testing.T, build func(link string) Validator) (*Orchestrator, *sql.DB) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.Migrate(db.Pool))

	registry := &Registry{rules: []Rule{{
		Name:  "fake",
		Match: func(host string) bool { return strings.Contains(host, "fakeboard.example") },
		Build: build,
	}}}

	return &Orchestrator{
		DB:            db.Pool,
		Registry:      registry,
		Hub:           events.NewHub(),
		Log:           slog.New(slog.NewTextHandler(io.Discard, nil)),
		BatchSize:     5,
		LinkPatterns:  []string{"%fakeboard.example%", "%nowhere.example%"},
		AllowedFields: AllowedFields,
	}, db.Pool
}

func insertPending(t *testing.T, db *sql.DB, link string) int64 {
	t.Helper()
	p := &domain.JobPosting{Link: link, ScrapedAt: time.Now().UTC()}
	require.NoError(t, store.InsertPosting(context.Background(), db, p))
	return p.ID
}

func TestRunBatchValidPosting(t *testing.T) {
	orch, db := testOrchestrator(t, func(link string) Validator {
		return &fakeValidator{
			name:       "fake",
			link:       link,
			validateOK: true,
			meta: map[string]any{
				"title":       "Backend Engineer",
				"company":     "Acme",
				"location":    "Tel Aviv",
				"description": "<p>Build.</p>",
			},
		}
	})
	id := insertPending(t, db, "https://jobs.fakeboard.example/acme/1")

	results, err := orch.RunBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Equal(t, string(domain.StatusValid), results[0].Status)

	row, err := store.GetPosting(context.Background(), db, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusValid, row.Status)
	assert.True(t, row.Validated)
	assert.NotNil(t, row.ValidatedDate)
	assert.Equal(t, "fake", row.LastValidatedBy)
	assert.Equal(t, "Backend Engineer", row.Title)
	assert.ElementsMatch(t, []string{"title", "company", "location", "description"}, row.FieldsUpdated)
}

func TestRunBatchClassifiedRejection(t *testing.T) {
	orch, db := testOrchestrator(t, func(link string) Validator {
		return &fakeValidator{
			name: "fake",
			link: link,
			attempt: domain.ValidationAttempt{
				JobStatus:   domain.StatusCompanyPage,
				ErrorReason: "link resolves to a company landing page, not a job",
			},
		}
	})
	id := insertPending(t, db, "https://jobs.fakeboard.example/acme")

	_, err := orch.RunBatch(context.Background())
	require.NoError(t, err)

	row, err := store.GetPosting(context.Background(), db, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompanyPage, row.Status)
	assert.True(t, row.Validated, "every terminal status marks the row validated")
	assert.Contains(t, row.ErrorReason, "landing page")
}

func TestRunBatchFailsOpenOnUnclassifiedError(t *testing.T) {
	orch, db := testOrchestrator(t, func(link string) Validator {
		return &fakeValidator{name: "fake", link: link, validateErr: errors.New("tls handshake torn down")}
	})
	id := insertPending(t, db, "https://jobs.fakeboard.example/acme/2")

	results, err := orch.RunBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, string(domain.StatusPending), results[0].Status)

	row, err := store.GetPosting(context.Background(), db, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, row.Status)
	assert.False(t, row.Validated, "fail-open leaves the row eligible for a later run")
}

func TestRunBatchNoValidator(t *testing.T) {
	orch, db := testOrchestrator(t, func(link string) Validator { return nil })
	id := insertPending(t, db, "https://jobs.nowhere.example/acme/3")

	_, err := orch.RunBatch(context.Background())
	require.NoError(t, err)

	row, err := store.GetPosting(context.Background(), db, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNoValidator, row.Status)
	assert.True(t, row.Validated)
}

func TestRunBatchRegionRejection(t *testing.T) {
	orch, db := testOrchestrator(t, func(link string) Validator {
		return &fakeValidator{
			name:       "fake",
			link:       link,
			validateOK: true,
			metaErr:    &domain.RegionRejectedError{Location: "Berlin", Region: "Israel"},
		}
	})
	id := insertPending(t, db, "https://jobs.fakeboard.example/acme/4")

	_, err := orch.RunBatch(context.Background())
	require.NoError(t, err)

	row, err := store.GetPosting(context.Background(), db, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusValidationFailed, row.Status)
	assert.True(t, row.Validated)
	assert.Contains(t, row.ErrorReason, "Berlin")
}

func TestRunBatchSchemaRejection(t *testing.T) {
	orch, db := testOrchestrator(t, func(link string) Validator {
		return &fakeValidator{
			name:       "fake",
			link:       link,
			validateOK: true,
			meta:       map[string]any{"description": "<p>x</p><script>y()</script>"},
		}
	})
	id := insertPending(t, db, "https://jobs.fakeboard.example/acme/5")

	_, err := orch.RunBatch(context.Background())
	require.NoError(t, err)

	row, err := store.GetPosting(context.Background(), db, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, row.Status)
	assert.True(t, row.Validated)
	assert.Contains(t, row.ValidationNotes, "description")
	assert.Empty(t, row.Description, "rejected metadata is not applied")
}

func TestRunBatchSharesBrowserSession(t *testing.T) {
	var built []*fakeValidator
	orch, db := testOrchestrator(t, func(link string) Validator {
		v := &fakeValidator{name: "fake", link: link, useSession: true, validateOK: true,
			meta: map[string]any{"title": "Engineer role", "description": "<p>w</p>"}}
		built = append(built, v)
		return v
	})
	insertPending(t, db, "https://jobs.fakeboard.example/a/1")
	insertPending(t, db, "https://jobs.fakeboard.example/b/2")

	_, err := orch.RunBatch(context.Background())
	require.NoError(t, err)

	require.Len(t, built, 2)
	require.NotNil(t, built[0].session)
	assert.Same(t, built[0].session, built[1].session, "one session per validator type per batch")
	assert.True(t, built[0].session.(*stubSession).closed, "batch teardown closes the session")
}

func TestRunBatchSessionUnavailable(t *testing.T) {
	orch, db := testOrchestrator(t, func(link string) Validator {
		return &fakeValidator{name: "fake", link: link, useSession: true, sessionErr: errors.New("chrome failed to start")}
	})
	id := insertPending(t, db, "https://jobs.fakeboard.example/a/9")

	_, err := orch.RunBatch(context.Background())
	require.NoError(t, err)

	row, err := store.GetPosting(context.Background(), db, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDriverError, row.Status)
	assert.True(t, row.Validated)
}

func TestRunOneNotFound(t *testing.T) {
	orch, _ := testOrchestrator(t, func(link string) Validator { return nil })
	_, err := orch.RunOne(context.Background(), 424242)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRunBatchSkipsValidatedRows(t *testing.T) {
	orch, db := testOrchestrator(t, func(link string) Validator {
		t.Fatal("no validator should be built for an already validated row")
		return nil
	})
	p := &domain.JobPosting{
		Link:      "https://jobs.fakeboard.example/done/1",
		ScrapedAt: time.Now().UTC(),
		Status:    domain.StatusValid,
		Validated: true,
	}
	require.NoError(t, store.InsertPosting(context.Background(), db, p))

	results, err := orch.RunBatch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, results)
}
