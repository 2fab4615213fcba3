package router

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/smartbudget/smartbudget-server/internal/events"
)

// streamEvents relays change events and notifications to the dashboard shell
// over server-sent events. The stream is independent of session state so the
// preview dashboard also receives market refreshes.
func (h *handlers) streamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "streaming unsupported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()

	var changeCh <-chan events.Event
	if h.bus != nil {
		ch, cancel := h.bus.Subscribe(ctx, events.TopicExpenses, events.TopicGroups, events.TopicMarket)
		defer cancel()
		changeCh = ch
	}

	noteCh, cancelNotes := h.emitter.Subscribe()
	defer cancelNotes()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, open := <-changeCh:
			if !open {
				changeCh = nil
				continue
			}
			h.writeSSE(w, flusher, ev.Topic, ev)

		case note, open := <-noteCh:
			if !open {
				return
			}
			h.writeSSE(w, flusher, "notification", note)
		}
	}
}

func (h *handlers) writeSSE(w http.ResponseWriter, flusher http.Flusher, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Error("failed to encode sse payload", slog.String("event", event), slog.Any("error", err))
		return
	}

	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	flusher.Flush()
}
