package model

import (
	"strings"
	"time"
)

// GameType is the organized-play system an event or game master runs.
type GameType string

// Supported game types.
const (
	GamePathfinder GameType = "Pathfinder"
	GameStarfinder GameType = "Starfinder"
	GameLegacy     GameType = "Legacy"
)

// GameTypes lists every supported game type.
func GameTypes() []GameType {
	return []GameType{GamePathfinder, GameStarfinder, GameLegacy}
}

// ParseGameType matches s case-insensitively against the supported game types.
func ParseGameType(s string) (GameType, bool) {
	s = strings.TrimSpace(s)
	for _, g := range GameTypes() {
		if strings.EqualFold(s, string(g)) {
			return g, true
		}
	}
	return "", false
}

// ValidDate reports whether t is a usable instant. The zero time is the
// invalid-date sentinel produced when a date cannot be parsed.
func ValidDate(t time.Time) bool {
	return !t.IsZero()
}

// Identifiable is implemented by every content record.
type Identifiable interface {
	RecordID() string
}

// CalendarEvent is a lodge game session or meetup.
type CalendarEvent struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	GameMaster  string    `json:"gamemaster,omitempty"`
	GameType    GameType  `json:"gameType"`
	MaxPlayers  int       `json:"maxPlayers,omitempty"`
	Location    string    `json:"location,omitempty"`
	// Recurrence is an RRULE such as "FREQ=WEEKLY;COUNT=4". Expanded
	// occurrences carry an empty Recurrence.
	Recurrence string `json:"recurrence,omitempty"`
}

// RecordID implements Identifiable.
func (e CalendarEvent) RecordID() string { return e.ID }

// GameMaster is a member of the lodge's game-master roster.
type GameMaster struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	OrganizedPlayID string     `json:"organizedPlayId"`
	Games           []GameType `json:"games"`
	Bio             string     `json:"bio"`
	Avatar          string     `json:"avatar,omitempty"`
}

// RecordID implements Identifiable.
func (g GameMaster) RecordID() string { return g.ID }

// Runs reports whether the game master runs the given game type.
func (g GameMaster) Runs(t GameType) bool {
	for _, have := range g.Games {
		if have == t {
			return true
		}
	}
	return false
}

// NewsArticle is an entry in the lodge news feed.
type NewsArticle struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Date    time.Time `json:"date"`
	Excerpt string    `json:"excerpt"`
	Content string    `json:"content"`
	Author  string    `json:"author,omitempty"`
}

// RecordID implements Identifiable.
func (n NewsArticle) RecordID() string { return n.ID }
