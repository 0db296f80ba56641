package api

import (
	"bytes"
	"net/http"

	"github.com/okian/lodge/internal/domain/fallback"
	"github.com/okian/lodge/pkg/logger"
)

// HandleCalendar handles GET /calendar.ics. Placeholder events are left out
// unless ?placeholders=true.
func (s *Server) HandleCalendar(w http.ResponseWriter, r *http.Request) {
	events := s.svc.State().Events
	if r.URL.Query().Get("placeholders") != "true" {
		kept := events[:0:0]
		for _, ev := range events {
			if !fallback.IsFallback(ev.ID) {
				kept = append(kept, ev)
			}
		}
		events = kept
	}

	var buf bytes.Buffer
	if err := s.calendar.Encode(&buf, events); err != nil {
		s.logger.Error(r.Context(), "calendar encode failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="lodge.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
