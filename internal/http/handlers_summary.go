package http

import (
	"net/http"
	"strings"

	"fintrack/internal/core"
)

// GET /api/summary[?date=YYYY-MM-DD&granularity=day|week|month]
// Defaults to today and month.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ref, err := queryDate(r, "date", s.today())
	if err != nil {
		writeError(w, r, err)
		return
	}
	g := core.GranularityMonth
	if raw := strings.TrimSpace(r.URL.Query().Get("granularity")); raw != "" {
		if g, err = core.ParseGranularity(raw); err != nil {
			writeError(w, r, err)
			return
		}
	}

	summary, err := s.svc.Reports.Summary(r.Context(), ref, g)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
