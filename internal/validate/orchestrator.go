package validate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/browser"
	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/domain"
	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/events"
	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/store"
)

// Result is what one posting's validation pass produced, in the shape
// the HTTP layer and SSE stream report it.
type Result struct {
	ID            int64      `json:"id"`
	ValidatedBy   string     `json:"validatedBy,omitempty"`
	Status        string     `json:"status"`
	ValidatedDate *time.Time `json:"validatedDate,omitempty"`
	Success       bool       `json:"success"`
	FieldsUpdated []string   `json:"fieldsUpdated,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	CanonicalLink string     `json:"canonicalLink,omitempty"`
}

// Orchestrator runs the validation state machine over pending postings.
// One orchestrator serves the whole process; each batch gets its own
// session pool.
type Orchestrator struct {
	DB            *sql.DB
	Registry      *Registry
	Hub           *events.Hub
	Log           *slog.Logger
	BatchSize     int
	LinkPatterns  []string
	AllowedFields []string

	// Now is swappable in tests.
	Now func() time.Time
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now().UTC()
}

// RunBatch validates the next batch of pending postings. Browser
// sessions are shared across the batch by validator type and always torn
// down before return, even on panic paths out of individual postings.
func (o *Orchestrator) RunBatch(ctx context.Context) ([]Result, error) {
	runID := uuid.NewString()
	log := o.Log.With("run_id", runID)

	batch, err := store.PendingBatch(ctx, o.DB, o.LinkPatterns, o.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("load pending batch: %w", err)
	}
	log.Info("validation batch loaded", "count", len(batch))
	o.Hub.Publish(events.MakeEvent(runID, events.TypeBatchStarted, 1, map[string]any{"count": len(batch)}))

	pool := browser.NewPool(log)
	defer pool.CloseAll()

	results := make([]Result, 0, len(batch))
	for _, p := range batch {
		res := o.processOne(ctx, log, pool, p)
		results = append(results, res)
		o.Hub.Publish(events.MakeEvent(runID, events.TypeJobValidated, 1, res))
	}

	o.Hub.Publish(events.MakeEvent(runID, events.TypeBatchFinished, 1, map[string]any{"count": len(results)}))
	return results, nil
}

// RunOne validates a single posting by id regardless of its link
// pattern, for the synchronous per-job endpoint.
func (o *Orchestrator) RunOne(ctx context.Context, id int64) (Result, error) {
	p, err := store.GetPosting(ctx, o.DB, id)
	if err != nil {
		return Result{}, err
	}
	pool := browser.NewPool(o.Log)
	defer pool.CloseAll()
	return o.processOne(ctx, o.Log, pool, p), nil
}

// processOne drives one posting through resolve, validate, extract,
// apply, commit. Classified outcomes commit a terminal status;
// unclassified errors fail open and leave the row pending.
func (o *Orchestrator) processOne(ctx context.Context, log *slog.Logger, pool *browser.Pool, p domain.JobPosting) Result {
	log = log.With("id", p.ID, "link", p.Link)

	v, err := o.Registry.For(p.Link)
	if err != nil {
		var unsupported *domain.UnsupportedSourceError
		if errors.As(err, &unsupported) {
			log.Info("no validator for source", "domain", unsupported.Domain)
			return o.commit(ctx, log, p.ID, v, domain.ValidationAttempt{
				JobStatus:   domain.StatusNoValidator,
				ErrorReason: err.Error(),
			})
		}
		log.Error("validator resolution failed", "err", err)
		return o.pendingResult(p.ID, err)
	}

	if v.UsesSession() {
		factory, ok := v.(SessionFactory)
		if !ok {
			log.Error("validator wants a session but cannot create one", "validator", v.Name())
			return o.pendingResult(p.ID, fmt.Errorf("validator %s has no session factory", v.Name()))
		}
		session, err := pool.GetOrCreate(ctx, v.Name(), factory.NewSession)
		if err != nil {
			log.Warn("browser session unavailable", "err", err)
			return o.commit(ctx, log, p.ID, v, domain.ValidationAttempt{
				JobStatus:   domain.StatusDriverError,
				ErrorReason: fmt.Sprintf("browser session unavailable: %v", err),
			})
		}
		v.SetSession(session)
	}

	ok, err := v.Validate(ctx)
	if err != nil {
		// Unclassified failure: leave the row pending for a later run.
		log.Error("validation failed open", "validator", v.Name(), "err", err)
		return o.pendingResult(p.ID, err)
	}
	if !ok {
		attempt := *v.Attempt()
		attempt.OrDefaults()
		log.Info("validation rejected", "validator", v.Name(), "status", attempt.JobStatus, "reason", attempt.ErrorReason)
		return o.commit(ctx, log, p.ID, v, attempt)
	}

	meta, err := v.ExtractMetadata(ctx)
	if err != nil {
		var rejected *domain.RegionRejectedError
		if errors.As(err, &rejected) {
			log.Info("posting rejected by region", "location", rejected.Location)
			return o.commit(ctx, log, p.ID, v, domain.ValidationAttempt{
				JobStatus:   domain.StatusValidationFailed,
				ErrorReason: rejected.Error(),
			})
		}
		log.Error("extraction failed open", "validator", v.Name(), "err", err)
		return o.pendingResult(p.ID, err)
	}

	var result Result
	commitErr := store.WithPosting(ctx, o.DB, log, p.ID, func(row *domain.JobPosting) error {
		if err := ApplyMetadata(row, meta, o.AllowedFields); err != nil {
			var schemaErr *domain.SchemaValidationError
			if errors.As(err, &schemaErr) {
				now := o.now()
				row.Status = domain.StatusError
				row.Validated = true
				row.ValidatedDate = &now
				row.LastValidatedBy = v.Name()
				row.ValidationNotes = err.Error()
				row.ErrorReason = err.Error()
				result = resultFrom(row, v)
				return nil
			}
			return err
		}
		now := o.now()
		row.Status = domain.StatusValid
		row.Validated = true
		row.ValidatedDate = &now
		row.LastValidatedBy = v.Name()
		row.ErrorReason = ""
		result = resultFrom(row, v)
		result.Success = true
		return nil
	})
	if commitErr != nil {
		log.Error("could not commit validation result", "err", commitErr)
		return Result{ID: p.ID, Status: string(domain.StatusCommitError), Notes: commitErr.Error()}
	}
	log.Info("posting validated", "status", result.Status, "fields", result.FieldsUpdated)
	return result
}

// commit records a classified terminal outcome. Every terminal status
// marks the row validated so it never re-enters a batch.
func (o *Orchestrator) commit(ctx context.Context, log *slog.Logger, id int64, v Validator, attempt domain.ValidationAttempt) Result {
	var result Result
	err := store.WithPosting(ctx, o.DB, log, id, func(row *domain.JobPosting) error {
		now := o.now()
		row.Status = attempt.JobStatus
		row.Validated = true
		row.ValidatedDate = &now
		row.ErrorReason = attempt.ErrorReason
		row.ValidationNotes = attempt.ErrorReason
		if v != nil {
			row.LastValidatedBy = v.Name()
		}
		result = resultFrom(row, v)
		return nil
	})
	if err != nil {
		return Result{ID: id, Status: string(domain.StatusCommitError), Notes: err.Error()}
	}
	return result
}

// pendingResult reports a fail-open outcome: nothing was written, the
// row is still pending.
func (o *Orchestrator) pendingResult(id int64, err error) Result {
	return Result{ID: id, Status: string(domain.StatusPending), Notes: err.Error()}
}

func resultFrom(row *domain.JobPosting, v Validator) Result {
	r := Result{
		ID:            row.ID,
		Status:        string(row.Status),
		ValidatedDate: row.ValidatedDate,
		FieldsUpdated: row.FieldsUpdated,
		Notes:         row.ValidationNotes,
	}
	if v != nil {
		r.ValidatedBy = v.Name()
		r.CanonicalLink = v.CanonicalLink()
	}
	return r
}
