package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/attributes", s.handleGetAttributes)
		r.Put("/attributes", s.handleUpdateAttributes)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}

// handleStatus returns the sensor's connection state and publish counters.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.Stats())
}

// handleGetAttributes returns the current attribute values.
func (s *Server) handleGetAttributes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.Attributes().Snapshot())
}

// handleUpdateAttributes applies a local attribute update.
//
// The body is the same flat mapping the platform pushes, e.g.
// {"interval": 10, "enabled": false}. Keys that fail validation are
// reported in the response without aborting the rest of the update.
func (s *Server) handleUpdateAttributes(w http.ResponseWriter, r *http.Request) {
	var update map[string]any
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if len(update) == 0 {
		writeBadRequest(w, "empty attribute update")
		return
	}

	result := s.controller.Attributes().ApplyUpdate(update)

	invalid := make(map[string]string, len(result.Invalid))
	for key, err := range result.Invalid {
		invalid[key] = err.Error()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"applied":    result.Applied,
		"invalid":    invalid,
		"attributes": s.controller.Attributes().Snapshot(),
	})
}
