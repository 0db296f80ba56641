// Package ical renders calendar events as an iCalendar feed.
package ical

import (
	"io"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/okian/lodge/internal/domain/model"
)

// Defaults for Encoder.
const (
	DefaultName     = "Lodge Events"
	DefaultProdID   = "-//lodge//content//EN"
	DefaultDuration = 4 * time.Hour
	uidDomain       = "@lodge"
)

// Option configures an Encoder.
type Option func(*Encoder)

// WithName sets the calendar display name.
func WithName(name string) Option {
	return func(e *Encoder) {
		if name != "" {
			e.name = name
		}
	}
}

// WithDuration sets the length given to every event, which carry no end time.
func WithDuration(d time.Duration) Option {
	return func(e *Encoder) {
		if d > 0 {
			e.duration = d
		}
	}
}

// WithClock sets the clock used for DTSTAMP.
func WithClock(now func() time.Time) Option {
	return func(e *Encoder) {
		if now != nil {
			e.now = now
		}
	}
}

// Encoder builds VCALENDAR documents.
type Encoder struct {
	name     string
	duration time.Duration
	now      func() time.Time
}

// NewEncoder creates an Encoder.
func NewEncoder(opts ...Option) *Encoder {
	e := &Encoder{name: DefaultName, duration: DefaultDuration, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Calendar converts events into a calendar. Events without a valid date are
// skipped.
func (e *Encoder) Calendar(events []model.CalendarEvent) *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(DefaultProdID)
	cal.SetName(e.name)
	cal.SetXWRCalName(e.name)

	stamp := e.now().UTC()
	for _, ev := range events {
		if !model.ValidDate(ev.Date) {
			continue
		}
		ve := cal.AddEvent(ev.ID + uidDomain)
		ve.SetDtStampTime(stamp)
		ve.SetStartAt(ev.Date)
		ve.SetEndAt(ev.Date.Add(e.duration))
		ve.SetSummary(ev.Title)
		if ev.Description != "" {
			ve.SetDescription(ev.Description)
		}
		if ev.Location != "" {
			ve.SetLocation(ev.Location)
		}
		if ev.GameType != "" {
			ve.SetProperty(ics.ComponentPropertyCategories, string(ev.GameType))
		}
		if ev.GameMaster != "" {
			ve.SetProperty(ics.ComponentProperty("X-LODGE-GAMEMASTER"), ev.GameMaster)
		}
	}
	return cal
}

// Encode writes the events as an iCalendar document to w.
func (e *Encoder) Encode(w io.Writer, events []model.CalendarEvent) error {
	_, err := io.WriteString(w, e.Calendar(events).Serialize())
	return err
}
