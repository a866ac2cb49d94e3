package httpapi

import (
	"encoding/json"
	"net/http"
)

type SecretsHandler struct {
	SetOpenAIKey   func(key string) error
	SetOpenCageKey func(key string) error
}

type setKeyReq struct {
	Key string `json:"key"`
}

func (h SecretsHandler) SetOpenAI(w http.ResponseWriter, r *http.Request) {
	h.set(w, r, h.SetOpenAIKey)
}

func (h SecretsHandler) SetOpenCage(w http.ResponseWriter, r *http.Request) {
	h.set(w, r, h.SetOpenCageKey)
}

func (h SecretsHandler) set(w http.ResponseWriter, r *http.Request, store func(string) error) {
	var req setKeyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Key == "" {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := store(req.Key); err != nil {
		http.Error(w, "failed to store key: "+err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
