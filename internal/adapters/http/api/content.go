package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/okian/lodge/internal/domain/model"
	"github.com/okian/lodge/internal/domain/transform"
)

// maxListLimit caps ?limit on list routes.
const maxListLimit = 500

// HandleState handles GET /api/state.
func (s *Server) HandleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.State())
}

// HandleListEvents handles GET /api/events?gameType=&from=&to=&limit=.
// from is inclusive, to exclusive.
func (s *Server) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	gameType, err := gameTypeParam(q.Get("gameType"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	from, err := s.dateParam("from", q.Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	to, err := s.dateParam("to", q.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	limit, err := limitParam(q.Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	events := s.svc.State().Events
	out := make([]model.CalendarEvent, 0, len(events))
	for _, ev := range events {
		if gameType != "" && ev.GameType != gameType {
			continue
		}
		if !from.IsZero() && ev.Date.Before(from) {
			continue
		}
		if !to.IsZero() && !ev.Date.Before(to) {
			continue
		}
		out = append(out, ev)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGetEvent handles GET /api/events/{id}.
func (s *Server) HandleGetEvent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ev, ok := s.svc.Event(id)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", fmt.Errorf("event %q: %w", id, ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// HandleListGameMasters handles GET /api/gamemasters?game=.
func (s *Server) HandleListGameMasters(w http.ResponseWriter, r *http.Request) {
	game, err := gameTypeParam(r.URL.Query().Get("game"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	gms := s.svc.State().GameMasters
	out := make([]model.GameMaster, 0, len(gms))
	for _, gm := range gms {
		if game != "" && !gm.Runs(game) {
			continue
		}
		out = append(out, gm)
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGetGameMaster handles GET /api/gamemasters/{id}.
func (s *Server) HandleGetGameMaster(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	gm, ok := s.svc.GameMaster(id)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", fmt.Errorf("game master %q: %w", id, ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, gm)
}

// HandleListNews handles GET /api/news?limit=N. News is newest first.
func (s *Server) HandleListNews(w http.ResponseWriter, r *http.Request) {
	limit, err := limitParam(r.URL.Query().Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	news := s.svc.State().News
	if limit > 0 && len(news) > limit {
		news = news[:limit]
	}
	if news == nil {
		news = []model.NewsArticle{}
	}
	writeJSON(w, http.StatusOK, news)
}

// HandleRefresh handles POST /api/refresh and returns the resulting state.
func (s *Server) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	s.svc.RefreshContent(r.Context())
	writeJSON(w, http.StatusOK, s.svc.State())
}

// HandleRetry handles POST /api/retry. The request blocks for the backoff
// delay; a cancelled request abandons the attempt.
func (s *Server) HandleRetry(w http.ResponseWriter, r *http.Request) {
	s.svc.RetryLoad(r.Context())
	writeJSON(w, http.StatusOK, s.svc.State())
}

// HandleClearError handles POST /api/error/clear.
func (s *Server) HandleClearError(w http.ResponseWriter, _ *http.Request) {
	s.svc.ClearError()
	writeJSON(w, http.StatusOK, s.svc.State())
}

func gameTypeParam(raw string) (model.GameType, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	g, ok := model.ParseGameType(raw)
	if !ok {
		return "", fmt.Errorf("%w: unknown game type %q", ErrBadRequest, raw)
	}
	return g, nil
}

func (s *Server) dateParam(name, raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, nil
	}
	t, ok := transform.ParseDateString(raw, s.loc)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: invalid %s date %q", ErrBadRequest, name, raw)
	}
	return t, nil
}

// limitParam returns 0 when no limit was requested.
func limitParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: limit must be a positive integer", ErrBadRequest)
	}
	if n > maxListLimit {
		return 0, fmt.Errorf("%w: limit exceeds %d", ErrBadRequest, maxListLimit)
	}
	return n, nil
}
