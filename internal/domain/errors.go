package domain

import "fmt"

// UnsupportedSourceError means no validator exists for the link's domain.
// Terminal and not retryable.
type UnsupportedSourceError struct {
	Domain string
}

func (e *UnsupportedSourceError) Error() string {
	return fmt.Sprintf("no validator implemented for domain: %s", e.Domain)
}

// RegionRejectedError is the tagged result of an extraction whose
// location resolved outside the target region. It short-circuits the
// extraction step without being treated as an unexpected failure.
type RegionRejectedError struct {
	Location string
	Region   string
}

func (e *RegionRejectedError) Error() string {
	return fmt.Sprintf("job location %q is not in %s", e.Location, e.Region)
}

// SchemaValidationError means extracted metadata failed shape or
// content-safety checks. Field updates are skipped; the record is marked
// with StatusError and the reason recorded in validation notes.
type SchemaValidationError struct {
	Field  string
	Reason string
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("metadata field %q rejected: %s", e.Field, e.Reason)
}
