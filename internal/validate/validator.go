package validate

import (
	"context"

	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/browser"
	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/domain"
)

// Validator checks whether a link is a genuine, open job posting for one
// source family and extracts structured fields from it.
//
// Validate returning (false, nil) is a classified outcome: the validator
// has recorded a terminal status and reason on its Attempt. A non-nil
// error is unclassified and makes the orchestrator fail open, leaving
// the record untouched.
type Validator interface {
	Name() string
	Link() string

	UsesSession() bool
	SetSession(s browser.Session)

	Validate(ctx context.Context) (bool, error)
	// ExtractMetadata is callable only after a successful Validate. A
	// *domain.RegionRejectedError return is the tagged short-circuit for
	// out-of-region postings, not an unexpected failure.
	ExtractMetadata(ctx context.Context) (map[string]any, error)

	Attempt() *domain.ValidationAttempt
	// CanonicalLink is the preferred job URL after any embed-link rewrite.
	CanonicalLink() string
}

// SessionFactory is implemented by validators whose pages need
// client-side rendering; the pool calls it once per validator type.
type SessionFactory interface {
	NewSession(ctx context.Context) (browser.Session, error)
}
