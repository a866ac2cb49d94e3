// Package events fans validation progress out to SSE subscribers.
package events

import (
	"encoding/json"
	"time"
)

// Event types published during a validation run.
const (
	TypeBatchStarted  = "batch_started"
	TypeJobValidated  = "job_validated"
	TypeBatchFinished = "batch_finished"
)

type Event struct {
	Type    string          `json:"type"`
	Version int             `json:"v"`
	At      time.Time       `json:"at"`
	RunID   string          `json:"run_id,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func MakeEvent(runID, typ string, v int, data any) string {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	e := Event{
		Type:    typ,
		Version: v,
		At:      time.Now().UTC(),
		RunID:   runID,
		Data:    raw,
	}
	b, _ := json.Marshal(e)
	return string(b)
}
