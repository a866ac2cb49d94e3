package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/store"
)

type SummaryHandler struct {
	Summarize func(ctx context.Context, id int64) (string, error)
}

// GetByPath serves GET /jobs/{id}/summary: a one-paragraph seeker-facing
// summary generated from the posting's validated description.
func (h SummaryHandler) GetByPath(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/jobs/")
	idStr, ok := strings.CutSuffix(rest, "/summary")
	if !ok {
		http.NotFound(w, r)
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, r, http.StatusBadRequest, "bad_id", "invalid posting id")
		return
	}

	summary, err := h.Summarize(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			WriteError(w, r, http.StatusNotFound, "not_found", "posting not found")
			return
		}
		WriteError(w, r, http.StatusBadGateway, "summary_failed", err.Error())
		return
	}
	writeJSON(w, map[string]any{"id": id, "summary": summary})
}
