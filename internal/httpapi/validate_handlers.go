package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/store"
	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/validate"
)

type ValidateHandler struct {
	RunStatus *atomic.Value // httpapi.RunStatus
	RunBatch  func(ctx context.Context) ([]validate.Result, error)
	RunOne    func(ctx context.Context, id int64) (validate.Result, error)
}

func (h ValidateHandler) Status(w http.ResponseWriter, r *http.Request) {
	st := h.RunStatus.Load().(RunStatus)
	writeJSON(w, st)
}

// Run kicks off one batch asynchronously. A second POST while a batch is
// in flight is a no-op; the shared browser sessions allow one run at a
// time.
func (h ValidateHandler) Run(w http.ResponseWriter, r *http.Request) {
	st := h.RunStatus.Load().(RunStatus)
	if st.Running {
		writeJSON(w, map[string]any{"ok": false, "msg": "already running"})
		return
	}

	h.RunStatus.Store(RunStatus{
		LastRunAt: time.Now().Format(time.RFC3339),
		Running:   true,
		LastError: "",
		LastOkAt:  st.LastOkAt,
	})

	go func() {
		// Batch runs detach from the request; a closed client connection
		// must not abort validation mid-commit.
		results, err := h.RunBatch(context.Background())

		now := time.Now().Format(time.RFC3339)
		next := h.RunStatus.Load().(RunStatus)
		next.Running = false
		next.LastRunAt = now
		next.LastProcessed = len(results)
		if err != nil {
			next.LastError = err.Error()
		} else {
			next.LastError = ""
			next.LastOkAt = now
		}
		h.RunStatus.Store(next)
	}()

	writeJSON(w, map[string]any{"ok": true})
}

// RunOneByPath validates a single posting synchronously: /validate/jobs/{id}
func (h ValidateHandler) RunOneByPath(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/validate/jobs/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, r, http.StatusBadRequest, "bad_id", "invalid posting id")
		return
	}

	res, err := h.RunOne(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			WriteError(w, r, http.StatusNotFound, "not_found", "posting not found")
			return
		}
		WriteError(w, r, http.StatusInternalServerError, "validate_failed", err.Error())
		return
	}
	writeJSON(w, res)
}
