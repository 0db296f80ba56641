package transform

import (
	"strings"
	"time"

	"github.com/okian/lodge/internal/domain/model"
)

// zonedLayouts carry their own offset.
var zonedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
}

// localLayouts are interpreted in the transformer's location. ISO forms are
// tried before the US-style calendar forms.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"1-2-2006",
}

// ParseDate interprets a header value as an instant. Time values decoded by
// the YAML layer are accepted as-is. The boolean is false when nothing
// matched; the returned time is then the zero sentinel.
func ParseDate(v model.Value, loc *time.Location) (time.Time, bool) {
	if t, ok := v.Time(); ok {
		return t, !t.IsZero()
	}
	if v.Kind() != model.KindString {
		return time.Time{}, false
	}
	return ParseDateString(v.String(), loc)
}

// ParseDateString tries every supported layout in order.
func ParseDateString(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
