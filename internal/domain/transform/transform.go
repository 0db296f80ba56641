// Package transform maps parsed front-matter records into typed content.
//
// Every field is coerced explicitly. A missing or invalid required field is
// replaced by a documented default and reported as an error Issue; an invalid
// optional field is replaced by its default and reported as a warning. Neither
// stops a record from being produced. Only an unexpected fault while building
// a record is returned as a *model.ParseError.
package transform

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/okian/lodge/internal/domain/model"
	"github.com/okian/lodge/internal/domain/recurrence"
)

// Defaults substituted for missing required fields.
const (
	DefaultEventTitle      = "Untitled Event"
	DefaultArticleTitle    = "Untitled Article"
	DefaultGameMasterName  = "Unknown Game Master"
	DefaultExcerptLength   = 150
	defaultIDWhenAnonymous = "untitled"
)

// Result carries a transformed record together with its validation issues.
type Result[T any] struct {
	Record   T
	Errors   []model.Issue
	Warnings []model.Issue
}

// Valid reports whether no required field had to be defaulted.
func (r Result[T]) Valid() bool { return len(r.Errors) == 0 }

// Issues returns errors followed by warnings.
func (r Result[T]) Issues() []model.Issue {
	out := make([]model.Issue, 0, len(r.Errors)+len(r.Warnings))
	out = append(out, r.Errors...)
	return append(out, r.Warnings...)
}

func (r *Result[T]) errorf(file, field, format string, args ...any) {
	r.Errors = append(r.Errors, model.Issue{File: file, Field: field, Severity: model.SeverityError, Message: fmt.Sprintf(format, args...)})
}

func (r *Result[T]) warnf(file, field, format string, args ...any) {
	r.Warnings = append(r.Warnings, model.Issue{File: file, Field: field, Severity: model.SeverityWarning, Message: fmt.Sprintf(format, args...)})
}

// Option applies a configuration option to the Transformer.
type Option func(*Transformer)

// WithExcerptLength sets how many characters of stripped content form a derived excerpt.
func WithExcerptLength(n int) Option {
	return func(t *Transformer) {
		if n > 0 {
			t.excerptLength = n
		}
	}
}

// WithLocation sets the zone used for dates written without an offset.
func WithLocation(loc *time.Location) Option {
	return func(t *Transformer) {
		if loc != nil {
			t.loc = loc
		}
	}
}

// Transformer converts parsed records into events, game masters and news articles.
type Transformer struct {
	excerptLength int
	loc           *time.Location
}

// New creates a Transformer with configuration options.
func New(opts ...Option) *Transformer {
	t := &Transformer{
		excerptLength: DefaultExcerptLength,
		loc:           time.UTC,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ToEvent builds a CalendarEvent.
func (t *Transformer) ToEvent(p model.ParsedRecord, filename string) (res Result[model.CalendarEvent], err error) {
	defer recoverParse(filename, &err)

	ev := model.CalendarEvent{Content: p.Body}

	ev.Title = t.requiredText(&res, p, filename, "title", DefaultEventTitle)
	ev.ID = recordID(p, filename, ev.Title)
	ev.Date = t.requiredDate(&res, p, filename, "date")

	if v, ok := p.Lookup("description"); ok && strings.TrimSpace(v.String()) != "" {
		ev.Description = strings.TrimSpace(v.String())
	} else {
		ev.Description = Excerpt(p.Body, t.excerptLength)
		res.warnf(filename, "description", "missing description; derived from content")
	}

	if v, ok := p.Lookup("gamemaster"); ok {
		ev.GameMaster = strings.TrimSpace(v.String())
	}
	if v, ok := p.Lookup("location"); ok {
		ev.Location = strings.TrimSpace(v.String())
	}

	ev.GameType = InferGameType(ev.Title, p.Body)
	if v, ok := p.Lookup("gameType"); ok && !v.IsNull() {
		if g, valid := model.ParseGameType(v.String()); valid {
			ev.GameType = g
		} else {
			res.warnf(filename, "gameType", "unknown game type %q; inferred %s", v.String(), ev.GameType)
		}
	}

	if v, ok := p.Lookup("maxPlayers"); ok && !v.IsNull() {
		if n, valid := v.Int(); valid && n > 0 {
			ev.MaxPlayers = n
		} else {
			res.warnf(filename, "maxPlayers", "maxPlayers must be a positive whole number, got %q", v.String())
		}
	}

	if v, ok := p.Lookup("recurrence"); ok && strings.TrimSpace(v.String()) != "" {
		rule := strings.TrimSpace(v.String())
		if verr := recurrence.Validate(rule); verr != nil {
			res.warnf(filename, "recurrence", "ignoring recurrence: %v", verr)
		} else {
			ev.Recurrence = rule
		}
	}

	res.Record = ev
	return res, nil
}

// ToGameMaster builds a GameMaster.
func (t *Transformer) ToGameMaster(p model.ParsedRecord, filename string) (res Result[model.GameMaster], err error) {
	defer recoverParse(filename, &err)

	gm := model.GameMaster{}

	// "title" is accepted when "name" is absent.
	nameKey := "name"
	if _, ok := p.Lookup(nameKey); !ok {
		if _, ok := p.Lookup("title"); ok {
			nameKey = "title"
		}
	}
	gm.Name = t.requiredText(&res, p, filename, nameKey, DefaultGameMasterName)
	gm.ID = recordID(p, filename, gm.Name)

	if v, ok := p.Lookup("organizedPlayId"); ok && strings.TrimSpace(v.String()) != "" {
		gm.OrganizedPlayID = strings.TrimSpace(v.String())
	} else {
		res.warnf(filename, "organizedPlayId", "missing organized play id")
	}

	seen := map[model.GameType]bool{}
	if v, ok := p.Lookup("games"); ok {
		for _, entry := range v.List() {
			g, valid := model.ParseGameType(entry)
			if !valid {
				res.warnf(filename, "games", "dropping unknown game %q", entry)
				continue
			}
			if !seen[g] {
				seen[g] = true
				gm.Games = append(gm.Games, g)
			}
		}
	}
	if len(gm.Games) == 0 {
		res.warnf(filename, "games", "no supported games listed")
		gm.Games = []model.GameType{}
	}

	if v, ok := p.Lookup("bio"); ok && strings.TrimSpace(v.String()) != "" {
		gm.Bio = strings.TrimSpace(v.String())
	} else {
		gm.Bio = strings.TrimSpace(p.Body)
	}
	if gm.Bio == "" {
		res.warnf(filename, "bio", "missing bio")
	}

	if v, ok := p.Lookup("avatar"); ok && strings.TrimSpace(v.String()) != "" {
		avatar := strings.TrimSpace(v.String())
		if looksLikeImageRef(avatar) {
			gm.Avatar = avatar
		} else {
			res.warnf(filename, "avatar", "avatar %q is neither a URL nor an absolute path", avatar)
		}
	}

	res.Record = gm
	return res, nil
}

// ToNewsArticle builds a NewsArticle.
func (t *Transformer) ToNewsArticle(p model.ParsedRecord, filename string) (res Result[model.NewsArticle], err error) {
	defer recoverParse(filename, &err)

	n := model.NewsArticle{Content: p.Body}

	n.Title = t.requiredText(&res, p, filename, "title", DefaultArticleTitle)
	n.ID = recordID(p, filename, n.Title)
	n.Date = t.requiredDate(&res, p, filename, "date")

	if v, ok := p.Lookup("excerpt"); ok && strings.TrimSpace(v.String()) != "" {
		n.Excerpt = strings.TrimSpace(v.String())
	} else {
		n.Excerpt = Excerpt(p.Body, t.excerptLength)
	}
	if strings.TrimSpace(p.Body) == "" {
		res.warnf(filename, "content", "article has no content")
	}

	if v, ok := p.Lookup("author"); ok {
		n.Author = strings.TrimSpace(v.String())
	}

	res.Record = n
	return res, nil
}

// issueSink is satisfied by every *Result[T].
type issueSink interface {
	errorf(file, field, format string, args ...any)
}

func (t *Transformer) requiredText(r issueSink, p model.ParsedRecord, file, field, def string) string {
	v, ok := p.Lookup(field)
	if !ok || v.IsNull() {
		r.errorf(file, field, "missing %s; using %q", field, def)
		return def
	}
	s := strings.TrimSpace(v.String())
	if s == "" {
		r.errorf(file, field, "empty %s; using %q", field, def)
		return def
	}
	return s
}

func (t *Transformer) requiredDate(r issueSink, p model.ParsedRecord, file, field string) time.Time {
	v, ok := p.Lookup(field)
	if !ok || v.IsNull() {
		r.errorf(file, field, "missing %s", field)
		return time.Time{}
	}
	d, valid := ParseDate(v, t.loc)
	if !valid {
		r.errorf(file, field, "invalid %s %q", field, v.String())
		return time.Time{}
	}
	return d
}

// InferGameType scans title and body for a game system name. Starfinder wins
// over Pathfinder; anything else is Legacy.
func InferGameType(title, body string) model.GameType {
	text := strings.ToLower(title + " " + body)
	switch {
	case strings.Contains(text, "starfinder"):
		return model.GameStarfinder
	case strings.Contains(text, "pathfinder"):
		return model.GamePathfinder
	default:
		return model.GameLegacy
	}
}

// IDFromFilename strips directories and the extension: "events/pfs-night.md" -> "pfs-night".
func IDFromFilename(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, path.Ext(base))
}

func recordID(p model.ParsedRecord, filename, title string) string {
	if v, ok := p.Lookup("id"); ok && strings.TrimSpace(v.String()) != "" {
		return strings.TrimSpace(v.String())
	}
	if id := IDFromFilename(filename); id != "" {
		return id
	}
	if slug := Slug(title); slug != "" {
		return slug
	}
	return defaultIDWhenAnonymous
}

// Slug lowercases s and joins its alphanumeric runs with dashes.
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func looksLikeImageRef(s string) bool {
	return strings.HasPrefix(s, "/") || strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://")
}

func recoverParse(file string, err *error) {
	if r := recover(); r != nil {
		*err = &model.ParseError{File: file, Err: fmt.Errorf("%v", r)}
	}
}
