// Package api exposes the content state over JSON and iCalendar routes.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/okian/lodge/internal/adapters/ical"
	service "github.com/okian/lodge/internal/app"
	"github.com/okian/lodge/internal/domain/model"
	"github.com/okian/lodge/pkg/logger"
)

// ContentService is the slice of the content service the handlers need.
type ContentService interface {
	State() service.ContentState
	Event(id string) (model.CalendarEvent, bool)
	GameMaster(id string) (model.GameMaster, bool)
	RefreshContent(ctx context.Context)
	RetryLoad(ctx context.Context)
	ClearError()
}

// Option configures a Server.
type Option func(*Server)

// WithCalendarEncoder replaces the default iCalendar encoder.
func WithCalendarEncoder(e *ical.Encoder) Option {
	return func(s *Server) {
		if e != nil {
			s.calendar = e
		}
	}
}

// WithLogger sets the logger used for write failures and server errors.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLocation sets the zone used to interpret date-only query filters.
func WithLocation(loc *time.Location) Option {
	return func(s *Server) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// Server wires HTTP routes for the content API.
type Server struct {
	svc      ContentService
	calendar *ical.Encoder
	logger   logger.Logger
	loc      *time.Location
}

// NewServer creates a new API server.
func NewServer(svc ContentService, opts ...Option) *Server {
	s := &Server{
		svc:      svc,
		calendar: ical.NewEncoder(),
		logger:   logger.Nop(),
		loc:      time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("GET /healthz", s.instrument("healthz", HandleHealth))
	mux.HandleFunc("GET /api/state", s.instrument("state", s.HandleState))
	mux.HandleFunc("GET /api/events", s.instrument("events", s.HandleListEvents))
	mux.HandleFunc("GET /api/events/{id}", s.instrument("event", s.HandleGetEvent))
	mux.HandleFunc("GET /api/gamemasters", s.instrument("gamemasters", s.HandleListGameMasters))
	mux.HandleFunc("GET /api/gamemasters/{id}", s.instrument("gamemaster", s.HandleGetGameMaster))
	mux.HandleFunc("GET /api/news", s.instrument("news", s.HandleListNews))
	mux.HandleFunc("POST /api/refresh", s.instrument("refresh", s.HandleRefresh))
	mux.HandleFunc("POST /api/retry", s.instrument("retry", s.HandleRetry))
	mux.HandleFunc("POST /api/error/clear", s.instrument("error_clear", s.HandleClearError))
	mux.HandleFunc("GET /calendar.ics", s.instrument("calendar", s.HandleCalendar))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
