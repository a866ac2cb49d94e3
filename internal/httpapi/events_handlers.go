package httpapi

import (
	"fmt"
	"net/http"

	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/events"
)

// EventsHandler streams validation progress over server-sent events.
type EventsHandler struct {
	Hub *events.Hub
}

func (h EventsHandler) ServeSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, r, http.StatusInternalServerError, "stream_unsupported", "streaming unsupported")
		return
	}

	hdr := w.Header()
	hdr.Set("Content-Type", "text/event-stream")
	hdr.Set("Cache-Control", "no-cache")
	hdr.Set("Connection", "keep-alive")
	hdr.Set("Access-Control-Allow-Origin", "*")

	ch := h.Hub.Subscribe()
	defer h.Hub.Unsubscribe(ch)

	send := func(payload string) {
		fmt.Fprintf(w, "event: message\ndata: %s\n\n", payload)
		flusher.Flush()
	}

	// Opening ping so clients know the stream is live before the first
	// run publishes anything.
	send(events.MakeEvent("", "ping", 1, nil))

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, open := <-ch:
			if !open {
				return
			}
			send(msg)
		}
	}
}
