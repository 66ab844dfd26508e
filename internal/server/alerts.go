package server

import (
	"net/http"
	"strconv"
)

// handleAlertCheck runs one stock evaluation cycle on demand and returns
// the partitioned batches. An upstream-fetch failure is logged and yields
// empty batches, not an error status.
func (s *Server) handleAlertCheck(w http.ResponseWriter, r *http.Request) {
	result, err := s.watcher.CheckStockLevels(r.Context())
	if err != nil {
		s.logger.Error("manual stock check failed", "error", err)
	}
	s.writeJSON(w, http.StatusOK, result)
}

// handleAlertHistory returns the persisted alert table, most recent first.
func (s *Server) handleAlertHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}

	history, err := s.store.ListAlerts(r.Context(), limit)
	if err != nil {
		s.writeStorageError(w, err, "uyarı bulunamadı")
		return
	}
	s.writeJSON(w, http.StatusOK, history)
}

// handleAlertsDispatched returns the in-memory dispatch ledger.
func (s *Server) handleAlertsDispatched(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.watcher.History())
}
