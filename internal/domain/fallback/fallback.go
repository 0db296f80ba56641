// Package fallback supplies placeholder content used when real content is
// missing or too sparse, and the helpers that merge it with real records.
package fallback

import (
	"strings"
	"time"

	"github.com/okian/lodge/internal/domain/model"
)

// Version identifies the placeholder dataset. Bump it whenever the records below change.
const Version = "2025.1"

// IDPrefix marks every placeholder record.
const IDPrefix = "fallback-"

// MinRealRecords is the number of real records at which placeholders are no longer merged in.
const MinRealRecords = 2

// Provider returns placeholder content per category.
type Provider interface {
	Events() ([]model.CalendarEvent, error)
	GameMasters() ([]model.GameMaster, error)
	News() ([]model.NewsArticle, error)
}

// Option configures a Static provider.
type Option func(*Static)

// WithClock sets the clock placeholder dates are anchored to.
func WithClock(now func() time.Time) Option {
	return func(s *Static) {
		if now != nil {
			s.now = now
		}
	}
}

// Static is the built-in Provider. Its records are fixed; event dates are
// placed on the coming weeks so the calendar never shows stale placeholders.
type Static struct {
	now func() time.Time
}

// NewStatic creates the built-in provider.
func NewStatic(opts ...Option) *Static {
	s := &Static{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Static) weeksOut(n int) time.Time {
	now := s.now().UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 18, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, 7*n)
}

// Events returns one placeholder session per game type.
func (s *Static) Events() ([]model.CalendarEvent, error) {
	return []model.CalendarEvent{
		{
			ID:          IDPrefix + "event-pathfinder",
			Title:       "Pathfinder Society Game Night",
			Date:        s.weeksOut(1),
			Description: "Pathfinder Society scenarios for new and returning players.",
			Content:     "Pregenerated characters are available. Check back soon for the full schedule.",
			GameType:    model.GamePathfinder,
			MaxPlayers:  6,
		},
		{
			ID:          IDPrefix + "event-starfinder",
			Title:       "Starfinder Society Game Night",
			Date:        s.weeksOut(2),
			Description: "Starfinder Society scenarios aboard the lodge's starship.",
			Content:     "Pregenerated characters are available. Check back soon for the full schedule.",
			GameType:    model.GameStarfinder,
			MaxPlayers:  6,
		},
		{
			ID:          IDPrefix + "event-legacy",
			Title:       "Open Table Night",
			Date:        s.weeksOut(3),
			Description: "Legacy scenarios and open tables.",
			Content:     "Bring a game or join one. Check back soon for the full schedule.",
			GameType:    model.GameLegacy,
		},
	}, nil
}

// GameMasters returns the placeholder roster.
func (s *Static) GameMasters() ([]model.GameMaster, error) {
	return []model.GameMaster{
		{
			ID:    IDPrefix + "gm-lodge",
			Name:  "Lodge Venture-Officers",
			Games: model.GameTypes(),
			Bio:   "Our venture-officers coordinate every table. The full roster will be back shortly.",
		},
	}, nil
}

// News returns the placeholder feed.
func (s *Static) News() ([]model.NewsArticle, error) {
	return []model.NewsArticle{
		{
			ID:      IDPrefix + "news-welcome",
			Title:   "Welcome to the Lodge",
			Date:    s.weeksOut(0),
			Excerpt: "We run organized play every week. News will appear here as soon as it is available.",
			Content: "We run organized play every week. News will appear here as soon as it is available.",
		},
	}, nil
}

// IsFallback reports whether id belongs to a placeholder record.
func IsFallback(id string) bool {
	return strings.HasPrefix(id, IDPrefix)
}

// IsFallbackContent reports whether any item is a placeholder. An empty
// slice is not fallback content.
func IsFallbackContent[T model.Identifiable](items []T) bool {
	for _, it := range items {
		if IsFallback(it.RecordID()) {
			return true
		}
	}
	return false
}

// MergeWithFallback merges with the default MinRealRecords threshold.
func MergeWithFallback[T model.Identifiable](loaded, fb []T) []T {
	return MergeWithFallbackN(loaded, fb, MinRealRecords)
}

// MergeWithFallbackN returns loaded unchanged when it holds at least threshold
// records. Otherwise it returns loaded followed by every fallback record whose
// id does not already appear in loaded. Loaded records always come first.
func MergeWithFallbackN[T model.Identifiable](loaded, fb []T, threshold int) []T {
	if len(loaded) >= threshold {
		return loaded
	}
	seen := make(map[string]struct{}, len(loaded))
	out := make([]T, 0, len(loaded)+len(fb))
	for _, r := range loaded {
		seen[r.RecordID()] = struct{}{}
		out = append(out, r)
	}
	for _, f := range fb {
		if _, dup := seen[f.RecordID()]; dup {
			continue
		}
		out = append(out, f)
	}
	return out
}
