package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"
)

type HealthHandler struct {
	DB *sql.DB
}

func (h HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"ok": true})
}

// HealthDB probes the schema, not just the connection: a missing or
// corrupt job_posts table should fail the check even when sqlite opens.
func (h HealthHandler) HealthDB(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	var n int
	if err := h.DB.QueryRowContext(ctx, `SELECT count(*) FROM job_posts;`).Scan(&n); err != nil {
		WriteJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	writeJSON(w, map[string]any{"ok": true, "postings": n})
}
