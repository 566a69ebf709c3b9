// Package health provides the HTTP handlers for liveness, readiness, and the
// live session status view.
package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/voxscore/voxscore/internal/score"
)

// checkTimeout bounds how long a single readiness check may take.
const checkTimeout = 5 * time.Second

// Checker probes one dependency (the score store, the audio device).
// A nil error means the dependency is ready.
type Checker func(ctx context.Context) error

// SessionStatus is the JSON document served by the status endpoint.
type SessionStatus struct {
	// State is the controller state: idle, starting, recording, stopping.
	State string `json:"state"`

	// Recording reports whether a session is currently capturing audio.
	Recording bool `json:"recording"`

	// Error carries the last session-ending failure, if any.
	Error string `json:"error,omitempty"`

	// Score is the most recent snapshot, live or final.
	Score *score.Snapshot `json:"score,omitempty"`
}

// Healthz returns a liveness handler. It answers 200 as long as the process
// can serve HTTP at all.
func Healthz() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// Readyz returns a readiness handler that runs every named check. Any
// failing check yields 503 with the failures listed per name.
func Readyz(checks map[string]Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		defer cancel()

		failures := map[string]string{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				failures[name] = err.Error()
			}
		}

		if len(failures) > 0 {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status":   "unavailable",
				"failures": failures,
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// Status returns a handler serving the live session view. source is called
// per request so the response always reflects the current session.
func Status(source func() SessionStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, source())
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("health: encode response", "err", err)
	}
}
