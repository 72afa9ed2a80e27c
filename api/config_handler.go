// Package api: configuration endpoints.
package api

import (
	"net/http"

	"github.com/seenimoa/edgarlens/internal/config"
)

// handleGetConfigKeys reports which API keys are set, masked.
func (s *Server) handleGetConfigKeys(w http.ResponseWriter, r *http.Request) {
	if s.cfg == nil {
		writeError(w, http.StatusServiceUnavailable, "no configuration loaded")
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    config.CheckAPIKeys(s.cfg),
	})
}
