package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/fieldwork/pkg/savestate"
)

// SubscribeEvents handles GET /v1/drafts/{draftID}/events.
// It streams a save-state event with the current snapshot and one per change,
// and ends when the draft is deleted.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	tracker, err := s.svc.Tracker(r.Context(), chi.URLParam(r, "draftID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := tracker.Subscribe()
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	if err := writeSnapshot(w, tracker.Snapshot()); err != nil {
		s.logger.Error("Failed to encode save state", "err", err)
		return
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case snap, ok := <-ch:
			if !ok {
				return
			}
			if err := writeSnapshot(w, snap); err != nil {
				s.logger.Error("Failed to encode save state", "err", err)
				return
			}
			flusher.Flush()
		}
	}
}

func writeSnapshot(w http.ResponseWriter, snap savestate.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: save-state\ndata: %s\n\n", data)
	return err
}
