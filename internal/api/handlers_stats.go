package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleLookupStats(w http.ResponseWriter, r *http.Request) {
	stats := s.fetcher.Stats()
	if stats == nil {
		jsonError(w, "lookup stats unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"provider":    s.cfg.LookupProvider,
		"queue_depth": s.orchestrator.QueueDepth(),
		"stats":       stats.Snapshot(),
	})
}
