package domain

import "time"

// Status is the lifecycle state of a JobPosting. Every state other than
// StatusPending is terminal for a validation run; a posting never
// transitions back to pending once it has left.
type Status string

const (
	StatusPending          Status = "pending"
	StatusValid            Status = "valid"
	StatusValidationFailed Status = "validation failed"
	StatusNoValidator      Status = "no validator"
	StatusDriverError      Status = "driver error"
	StatusCompanyPage      Status = "company page"
	StatusError            Status = "error"
	StatusCommitError      Status = "commit_error"
)

// JobPosting is a previously discovered job link plus whatever metadata
// validation has extracted for it. Rows are created by the discovery
// process with status=pending; the validation orchestrator is the only
// mutator after that.
type JobPosting struct {
	ID           int64
	Link         string // unique canonical URL
	OriginalLink string // preserved once, the first time Link is rewritten

	Title            string
	Company          string
	Location         string
	Snippet          string
	Source           string
	PostedTime       *time.Time
	ScrapedAt        time.Time
	Description      string
	Requirements     string
	Responsibilities string
	Keywords         []string

	Status          Status
	Validated       bool
	ValidatedDate   *time.Time
	FieldsUpdated   []string // field names touched by the most recent validation pass
	LastValidatedBy string
	ValidationNotes string
	ErrorReason     string

	IsUserReported bool
}

// ValidationAttempt is the scratch state one validator accumulates while
// running a single posting. It is never persisted; the orchestrator reads
// it after Validate returns false and discards it.
type ValidationAttempt struct {
	ErrorReason string
	JobStatus   Status
}

// OrDefaults fills the attempt with the generic failure disposition when
// the validator did not set one.
func (a *ValidationAttempt) OrDefaults() {
	if a.JobStatus == "" {
		a.JobStatus = StatusError
	}
	if a.ErrorReason == "" {
		a.ErrorReason = "validation failed"
	}
}
