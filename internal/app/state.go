package service

import (
	"time"

	"github.com/okian/lodge/internal/domain/model"
)

// ErrorKind categorizes the error shown to consumers.
type ErrorKind string

// Error kinds.
const (
	ErrorPartial    ErrorKind = "partial"
	ErrorFallback   ErrorKind = "fallback"
	ErrorMaxRetries ErrorKind = "max_retries"
	ErrorCritical   ErrorKind = "critical"
)

// User-facing messages per error kind.
const (
	MessagePartial    = "Some content could not be loaded. Showing available content alongside placeholders."
	MessageFallback   = "Unable to load content right now. Showing cached information."
	MessageMaxRetries = "Maximum retries reached. Please reload the page to try again."
	MessageCritical   = "Content could not be loaded. Please reload the page."
)

// StateError is the consumer-visible error of the last load cycle.
type StateError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *StateError) Error() string { return e.Message }

func newStateError(kind ErrorKind) *StateError {
	msg := map[ErrorKind]string{
		ErrorPartial:    MessagePartial,
		ErrorFallback:   MessageFallback,
		ErrorMaxRetries: MessageMaxRetries,
		ErrorCritical:   MessageCritical,
	}[kind]
	return &StateError{Kind: kind, Message: msg}
}

// Outcome is how the last committed load cycle ended.
type Outcome string

// Cycle outcomes.
const (
	OutcomeIdle     Outcome = "idle"
	OutcomeSuccess  Outcome = "success"
	OutcomePartial  Outcome = "partial"
	OutcomeFallback Outcome = "fallback"
	OutcomeCritical Outcome = "critical"
)

// ContentState is the read-only view consumers render from.
type ContentState struct {
	Events             []model.CalendarEvent `json:"events"`
	GameMasters        []model.GameMaster    `json:"gamemasters"`
	News               []model.NewsArticle   `json:"news"`
	Loading            bool                  `json:"loading"`
	Error              *StateError           `json:"error"`
	RetryCount         int                   `json:"retryCount"`
	IsOffline          bool                  `json:"isOffline"`
	HasPartialData     bool                  `json:"hasPartialData"`
	Outcome            Outcome               `json:"outcome"`
	Generation         uint64                `json:"generation"`
	CycleID            string                `json:"cycleId,omitempty"`
	LoadedAt           time.Time             `json:"loadedAt"`
	SelectedEvent      *model.CalendarEvent  `json:"selectedEvent,omitempty"`
	SelectedGameMaster *model.GameMaster     `json:"selectedGameMaster,omitempty"`
}

// clone copies slices and selections so callers cannot mutate service state.
func (s ContentState) clone() ContentState {
	out := s
	out.Events = copyOf(s.Events)
	out.GameMasters = copyOf(s.GameMasters)
	out.News = copyOf(s.News)
	if s.Error != nil {
		e := *s.Error
		out.Error = &e
	}
	if s.SelectedEvent != nil {
		ev := *s.SelectedEvent
		out.SelectedEvent = &ev
	}
	if s.SelectedGameMaster != nil {
		gm := *s.SelectedGameMaster
		out.SelectedGameMaster = &gm
	}
	return out
}

// copyOf never returns nil so empty lists encode as [] rather than null.
func copyOf[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}
