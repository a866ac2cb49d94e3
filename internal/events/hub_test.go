package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesSubscribers(t *testing.T) {
	h := NewHub()
	a := h.Subscribe()
	b := h.Subscribe()
	defer h.Unsubscribe(a)
	defer h.Unsubscribe(b)

	h.Publish("hello")

	assert.Equal(t, "hello", <-a)
	assert.Equal(t, "hello", <-b)
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	defer h.Unsubscribe(ch)

	// Fill the buffered channel past capacity; Publish must not block.
	for i := 0; i < 50; i++ {
		h.Publish("evt")
	}
	assert.Len(t, ch, cap(ch))
}

func TestMakeEvent(t *testing.T) {
	raw := MakeEvent("run-1", TypeJobValidated, 1, map[string]any{"id": 7})

	var e Event
	require.NoError(t, json.Unmarshal([]byte(raw), &e))
	assert.Equal(t, TypeJobValidated, e.Type)
	assert.Equal(t, "run-1", e.RunID)
	assert.Equal(t, 1, e.Version)

	var data map[string]any
	require.NoError(t, json.Unmarshal(e.Data, &data))
	assert.Equal(t, float64(7), data["id"])
}
