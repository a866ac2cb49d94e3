package httpapi

import "net/http"

// writeJSON is the 200-OK shorthand handlers use for success bodies.
func writeJSON(w http.ResponseWriter, v any) {
	WriteJSON(w, http.StatusOK, v)
}

// methodMux dispatches on HTTP method and rejects everything else with
// 405 plus an Allow header.
func methodMux(m map[string]http.HandlerFunc) http.HandlerFunc {
	allow := ""
	for method := range m {
		if allow != "" {
			allow += ", "
		}
		allow += method
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if h, ok := m[r.Method]; ok {
			h(w, r)
			return
		}
		w.Header().Set("Allow", allow)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
