package httpapi

import "net/http"

// NewMux returns the raw mux so main() can still attach /shutdown (needs srv+token).
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	// Validation
	vh := ValidateHandler{
		RunStatus: d.RunStatus,
		RunBatch:  d.RunBatch,
		RunOne:    d.RunOne,
	}
	mux.HandleFunc("/validate/run", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: vh.Run,
	}))
	mux.HandleFunc("/validate/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: vh.Status,
	}))
	mux.HandleFunc("/validate/jobs/", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: vh.RunOneByPath, // expects /validate/jobs/{id}
	}))

	// Health
	hh := HealthHandler{DB: d.DB}
	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.Health,
	}))
	mux.HandleFunc("/health/db", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.HealthDB,
	}))

	// Secrets
	sh := SecretsHandler{SetOpenAIKey: d.SetOpenAIKey, SetOpenCageKey: d.SetOpenCageKey}
	mux.HandleFunc("/api/secrets/openai", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.SetOpenAI,
	}))
	mux.HandleFunc("/api/secrets/opencage", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.SetOpenCage,
	}))

	// Summaries
	smh := SummaryHandler{Summarize: d.Summarize}
	mux.HandleFunc("/jobs/", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: smh.GetByPath, // expects /jobs/{id}/summary
	}))

	// SSE events
	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	return mux
}
