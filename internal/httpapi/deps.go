package httpapi

import (
	"context"
	"database/sql"
	"sync/atomic"

	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/events"
	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/validate"
)

type Deps struct {
	DB *sql.DB

	Hub *events.Hub

	// Atomic store of httpapi.RunStatus
	RunStatus *atomic.Value

	// Validation entrypoints (inject for testability)
	RunBatch func(ctx context.Context) ([]validate.Result, error)
	RunOne   func(ctx context.Context, id int64) (validate.Result, error)

	// Summarize produces the seeker-facing paragraph for one posting.
	Summarize func(ctx context.Context, id int64) (string, error)

	// Keyring writers for the two API keys
	SetOpenAIKey   func(key string) error
	SetOpenCageKey func(key string) error
}
