package service_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/lodge/internal/adapters/source"
	"github.com/okian/lodge/internal/domain/model"
	"github.com/okian/lodge/internal/domain/transform"
	"github.com/okian/lodge/pkg/logger"
)

var fixedNow = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func init() {
	// Initialize logging for tests
	if err := logger.Init(logger.WithOutput(io.Discard)); err != nil {
		panic(err)
	}
	_ = logger.SetLevelString("debug")
}

// sleepRecorder is a Sleeper that records delays instead of waiting.
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
	err    error
}

func (r *sleepRecorder) Sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	return r.err
}

func (r *sleepRecorder) Delays() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.delays...)
}

// countingSource counts fetches per category and delegates to next.
type countingSource struct {
	next  source.Source
	total atomic.Int64
}

func (c *countingSource) Fetch(ctx context.Context, cat model.Category) ([]model.RawRecord, error) {
	c.total.Add(1)
	return c.next.Fetch(ctx, cat)
}

// panickyNews fails every news record with a panic.
type panickyNews struct {
	*transform.Transformer
}

func (panickyNews) ToNewsArticle(model.ParsedRecord, string) (transform.Result[model.NewsArticle], error) {
	panic("corrupt news record")
}

// brokenProvider is a placeholder provider that always fails.
type brokenProvider struct{}

var errNoPlaceholders = errors.New("placeholders missing")

func (brokenProvider) Events() ([]model.CalendarEvent, error)   { return nil, errNoPlaceholders }
func (brokenProvider) GameMasters() ([]model.GameMaster, error) { return nil, errNoPlaceholders }
func (brokenProvider) News() ([]model.NewsArticle, error)       { return nil, errNoPlaceholders }

func event(file, title, date string) model.RawRecord {
	return model.RawRecord{
		Filename: "events/" + file,
		Content:  "---\ntitle: " + title + "\ndate: " + date + "\ndescription: d\n---\nbody",
	}
}

func gm(file, name string) model.RawRecord {
	return model.RawRecord{
		Filename: "gamemasters/" + file,
		Content:  "---\nname: " + name + "\norganizedPlayId: \"1\"\ngames: Pathfinder\n---\nbio",
	}
}

func article(file, title, date string) model.RawRecord {
	return model.RawRecord{
		Filename: "news/" + file,
		Content:  "---\ntitle: " + title + "\ndate: " + date + "\n---\nSome news.",
	}
}

// fullRegistry has two real records in every category.
func fullRegistry() *source.Registry {
	r := source.NewRegistry()
	r.Put(model.CategoryEvents,
		event("b.md", "Starfinder Night", "2026-11-02"),
		event("a.md", "Pathfinder Night", "2026-11-01"),
	)
	r.Put(model.CategoryGameMasters, gm("zed.md", "Zed"), gm("amy.md", "Amy"))
	r.Put(model.CategoryNews,
		article("old.md", "Old", "2026-01-01"),
		article("new.md", "New", "2026-10-01"),
	)
	return r
}

type logEntry struct {
	msg    string
	fields map[string]any
}

// recordingLogger keeps debug entries so tests can inspect log fields.
type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (r *recordingLogger) Debug(_ context.Context, msg string, fields ...logger.Field) {
	e := logEntry{msg: msg, fields: make(map[string]any, len(fields))}
	for _, f := range fields {
		e.fields[f.Key] = f.Value
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

func (r *recordingLogger) Info(context.Context, string, ...logger.Field)  {}
func (r *recordingLogger) Warn(context.Context, string, ...logger.Field)  {}
func (r *recordingLogger) Error(context.Context, string, ...logger.Field) {}
func (r *recordingLogger) Fatal(context.Context, string, ...logger.Field) {}
func (r *recordingLogger) Named(string) logger.Logger                     { return r }
func (r *recordingLogger) With(...logger.Field) logger.Logger             { return r }

func (r *recordingLogger) find(msg string) (logEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.msg == msg {
			return e, true
		}
	}
	return logEntry{}, false
}
