// Package recurrence expands RRULE-based events into dated occurrences.
package recurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/okian/lodge/internal/domain/model"
	"github.com/teambition/rrule-go"
)

// DefaultMaxOccurrences caps how many occurrences a single rule may produce.
const DefaultMaxOccurrences = 64

// ErrInvalidRule is returned for recurrence strings rrule-go cannot parse.
var ErrInvalidRule = errors.New("invalid recurrence rule")

// Window is the half-open range [Start, End) occurrences are collected from.
type Window struct {
	Start time.Time
	End   time.Time
}

// Horizon returns the window starting at the beginning of now's day and
// spanning days days.
func Horizon(now time.Time, days int) Window {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return Window{Start: start, End: start.AddDate(0, 0, days)}
}

func normalize(rule string) string {
	rule = strings.TrimSpace(rule)
	if len(rule) >= 6 && strings.EqualFold(rule[:6], "RRULE:") {
		rule = rule[6:]
	}
	return rule
}

// Validate checks that rule parses as an RRULE body, with or without the
// "RRULE:" prefix.
func Validate(rule string) error {
	if _, err := rrule.StrToRRule(normalize(rule)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	return nil
}

// Expand returns the occurrences of ev inside w. Each occurrence copies ev,
// takes the occurrence instant as Date, an id of "<id>-<YYYYMMDD>" and an
// empty Recurrence. An event without a rule is returned unchanged. When the
// rule has no occurrence inside the window the base event is kept so the
// calendar still lists it.
func Expand(ev model.CalendarEvent, w Window, limit int) ([]model.CalendarEvent, error) {
	if ev.Recurrence == "" || !model.ValidDate(ev.Date) {
		return []model.CalendarEvent{ev}, nil
	}
	if limit <= 0 {
		limit = DefaultMaxOccurrences
	}

	r, err := rrule.StrToRRule(normalize(ev.Recurrence))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRule, ev.ID, err)
	}
	r.DTStart(ev.Date)

	loc := ev.Date.Location()
	times := r.Between(w.Start.In(loc), w.End.In(loc), true)
	if len(times) == 0 {
		return []model.CalendarEvent{ev}, nil
	}
	if len(times) > limit {
		times = times[:limit]
	}

	out := make([]model.CalendarEvent, 0, len(times))
	for _, t := range times {
		if !t.Before(w.End) {
			continue
		}
		occ := ev
		occ.ID = fmt.Sprintf("%s-%s", ev.ID, t.Format("20060102"))
		occ.Date = t
		occ.Recurrence = ""
		out = append(out, occ)
	}
	return out, nil
}

// ExpandAll expands every event in events, keeping the base event when its
// rule fails to expand. The returned errors list one entry per failed rule.
func ExpandAll(events []model.CalendarEvent, w Window, limit int) ([]model.CalendarEvent, []error) {
	out := make([]model.CalendarEvent, 0, len(events))
	var errs []error
	for _, ev := range events {
		occ, err := Expand(ev, w, limit)
		if err != nil {
			errs = append(errs, err)
			out = append(out, ev)
			continue
		}
		out = append(out, occ...)
	}
	return out, errs
}
