package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/okian/lodge/internal/adapters/cache"
	"github.com/okian/lodge/internal/adapters/source"
	"github.com/okian/lodge/internal/domain/dedupe"
	"github.com/okian/lodge/internal/domain/fallback"
	"github.com/okian/lodge/internal/domain/frontmatter"
	"github.com/okian/lodge/internal/domain/model"
	"github.com/okian/lodge/internal/domain/recurrence"
	"github.com/okian/lodge/internal/domain/transform"
	"github.com/okian/lodge/pkg/logger"
	"github.com/okian/lodge/pkg/metrics"
)

// Defaults for the loader.
const (
	DefaultRecurrenceHorizonDays = 90
	nanosecondsPerMillisecond    = 1e6
)

// Transformer turns parsed records into typed content.
type Transformer interface {
	ToEvent(p model.ParsedRecord, filename string) (transform.Result[model.CalendarEvent], error)
	ToGameMaster(p model.ParsedRecord, filename string) (transform.Result[model.GameMaster], error)
	ToNewsArticle(p model.ParsedRecord, filename string) (transform.Result[model.NewsArticle], error)
}

// LoaderOption applies a configuration option to the Loader.
type LoaderOption func(*Loader)

// WithLoaderLogger sets the loader's logger.
func WithLoaderLogger(l logger.Logger) LoaderOption {
	return func(ld *Loader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// WithLoaderTransformer replaces the default transformer.
func WithLoaderTransformer(t Transformer) LoaderOption {
	return func(ld *Loader) {
		if t != nil {
			ld.transformer = t
		}
	}
}

// WithLoaderFallback replaces the built-in placeholder provider.
func WithLoaderFallback(p fallback.Provider) LoaderOption {
	return func(ld *Loader) {
		if p != nil {
			ld.fallback = p
		}
	}
}

// WithLoaderCacheTTL sets how long a loaded category stays cached.
func WithLoaderCacheTTL(ttl time.Duration) LoaderOption {
	return func(ld *Loader) {
		if ttl > 0 {
			ld.ttl = ttl
		}
	}
}

// WithLoaderMinRealRecords sets the merge threshold below which placeholders are added.
func WithLoaderMinRealRecords(n int) LoaderOption {
	return func(ld *Loader) {
		if n >= 0 {
			ld.minReal = n
		}
	}
}

// WithLoaderRecurrenceHorizon sets how many days ahead recurring events are expanded.
func WithLoaderRecurrenceHorizon(days int) LoaderOption {
	return func(ld *Loader) {
		if days > 0 {
			ld.horizonDays = days
		}
	}
}

// WithLoaderClock sets the clock used for recurrence expansion.
func WithLoaderClock(now func() time.Time) LoaderOption {
	return func(ld *Loader) {
		if now != nil {
			ld.now = now
		}
	}
}

// Loader loads one category at a time: cache lookup, fetch, parse,
// transform, validate, merge with placeholders, sort and cache.
type Loader struct {
	source      source.Source
	cache       *cache.Cache
	transformer Transformer
	fallback    fallback.Provider
	logger      logger.Logger
	ttl         time.Duration
	minReal     int
	horizonDays int
	now         func() time.Time
}

// NewLoader creates a Loader over src that caches into c.
func NewLoader(src source.Source, c *cache.Cache, opts ...LoaderOption) *Loader {
	ld := &Loader{
		source:      src,
		cache:       c,
		transformer: transform.New(),
		fallback:    fallback.NewStatic(),
		logger:      logger.Nop(),
		ttl:         cache.DefaultTTL,
		minReal:     fallback.MinRealRecords,
		horizonDays: DefaultRecurrenceHorizonDays,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(ld)
	}
	if ld.cache == nil {
		ld.cache = cache.New()
	}
	return ld
}

// LoadCalendarEvents returns events ordered by date, oldest first. Recurring
// events are expanded within the recurrence horizon.
func (l *Loader) LoadCalendarEvents(ctx context.Context) ([]model.CalendarEvent, error) {
	return loadCategory(ctx, l, model.CategoryEvents, categoryFuncs[model.CalendarEvent]{
		build: l.transformer.ToEvent,
		keep:  func(e model.CalendarEvent) bool { return model.ValidDate(e.Date) },
		expand: func(events []model.CalendarEvent) []model.CalendarEvent {
			out, errs := recurrence.ExpandAll(events, recurrence.Horizon(l.now(), l.horizonDays), 0)
			for _, err := range errs {
				l.logger.Warn(ctx, "recurrence not expanded", logger.Error(err))
			}
			return out
		},
		placeholders: l.fallback.Events,
		less: func(a, b model.CalendarEvent) bool {
			if !a.Date.Equal(b.Date) {
				return a.Date.Before(b.Date)
			}
			return a.ID < b.ID
		},
	})
}

// LoadGameMasters returns game masters ordered by name.
func (l *Loader) LoadGameMasters(ctx context.Context) ([]model.GameMaster, error) {
	return loadCategory(ctx, l, model.CategoryGameMasters, categoryFuncs[model.GameMaster]{
		build:        l.transformer.ToGameMaster,
		placeholders: l.fallback.GameMasters,
		less: func(a, b model.GameMaster) bool {
			an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
			if an != bn {
				return an < bn
			}
			return a.ID < b.ID
		},
	})
}

// LoadNewsArticles returns articles ordered by date, newest first.
func (l *Loader) LoadNewsArticles(ctx context.Context) ([]model.NewsArticle, error) {
	return loadCategory(ctx, l, model.CategoryNews, categoryFuncs[model.NewsArticle]{
		build:        l.transformer.ToNewsArticle,
		keep:         func(n model.NewsArticle) bool { return model.ValidDate(n.Date) },
		placeholders: l.fallback.News,
		less: func(a, b model.NewsArticle) bool {
			if !a.Date.Equal(b.Date) {
				return a.Date.After(b.Date)
			}
			return a.ID < b.ID
		},
	})
}

// ClearCache drops every cached category. Loads already in flight will not
// cache their results.
func (l *Loader) ClearCache() {
	l.cache.Clear()
}

// supersede keeps loads already in flight from caching their results while
// leaving cached categories readable.
func (l *Loader) supersede() {
	l.cache.Advance()
}

type categoryFuncs[T model.Identifiable] struct {
	build        func(model.ParsedRecord, string) (transform.Result[T], error)
	keep         func(T) bool
	expand       func([]T) []T
	placeholders func() ([]T, error)
	less         func(a, b T) bool
}

func loadCategory[T model.Identifiable](ctx context.Context, l *Loader, c model.Category, fn categoryFuncs[T]) (out []T, err error) {
	key := string(c)
	if cached, ok, cerr := cache.GetAs[[]T](l.cache, key); cerr != nil {
		l.logger.Warn(ctx, "discarding cache entry", logger.String("category", key), logger.Error(cerr))
	} else if ok {
		metrics.RecordCategoryLoad(key, "cached")
		return append([]T(nil), cached...), nil
	}

	epoch := l.cache.Epoch()
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, &model.LoadFailure{Category: c, Err: fmt.Errorf("panic: %v", r)}
		}
		metrics.RecordCategoryLoadLatency(key, float64(time.Since(start).Nanoseconds())/nanosecondsPerMillisecond)
		if err != nil {
			metrics.RecordCategoryLoad(key, "failed")
			metrics.RecordErrorByComponent("loader", key)
			l.logger.Error(ctx, "category failed to load", logger.String("category", key), logger.Error(err))
			return
		}
		metrics.RecordCategoryLoad(key, "loaded")
	}()

	raws, err := l.source.Fetch(ctx, c)
	if err != nil {
		return nil, &model.LoadFailure{Category: c, Err: err}
	}

	records := make([]T, 0, len(raws))
	ids := dedupe.New(dedupe.WithCapacity(len(raws)))
	failed := 0
	for _, raw := range raws {
		res, perr := safeBuild(fn.build, raw)
		if perr != nil {
			failed++
			metrics.RecordParseError(key)
			l.logger.Warn(ctx, "skipping record", logger.String("category", key), logger.String("file", raw.Filename), logger.Error(perr))
			continue
		}
		l.logIssues(ctx, c, res.Errors, res.Warnings)
		if fn.keep != nil && !fn.keep(res.Record) {
			l.logger.Warn(ctx, "dropping record without a valid date", logger.String("category", key), logger.String("file", raw.Filename))
			continue
		}
		if first, dup := ids.SeenAndRecord(res.Record.RecordID(), raw.Filename); dup {
			metrics.RecordValidationIssue(key, string(model.SeverityError))
			l.logger.Warn(ctx, "dropping record with duplicate id",
				logger.String("category", key),
				logger.String("file", raw.Filename),
				logger.String("id", res.Record.RecordID()),
				logger.String("first", first))
			continue
		}
		records = append(records, res.Record)
	}
	if len(raws) > 0 && failed == len(raws) {
		return nil, &model.LoadFailure{Category: c, Err: model.ErrNoValidRecords}
	}

	if fn.expand != nil {
		var dropped []T
		records, dropped = dedupe.Unique(fn.expand(records))
		for _, d := range dropped {
			l.logger.Warn(ctx, "dropping expanded occurrence with duplicate id", logger.String("category", key), logger.String("id", d.RecordID()))
		}
	}

	loaded := len(records)
	if placeholders, perr := fn.placeholders(); perr != nil {
		l.logger.Warn(ctx, "placeholder content unavailable", logger.String("category", key), logger.Error(perr))
	} else {
		records = fallback.MergeWithFallbackN(records, placeholders, l.minReal)
	}
	if len(records) > loaded {
		metrics.RecordFallbackSubstitution(key)
	}

	sort.SliceStable(records, func(i, j int) bool { return fn.less(records[i], records[j]) })

	if !l.cache.SetIfEpoch(key, records, l.ttl, epoch) {
		l.logger.Debug(ctx, "not caching superseded load", logger.String("category", key))
	}
	l.logger.Debug(ctx, "category loaded",
		logger.String("category", key),
		logger.Int("records", loaded),
		logger.Int("ids", ids.Size()),
		logger.Int("placeholders", len(records)-loaded),
		logger.Int("skipped", failed),
	)
	return append([]T(nil), records...), nil
}

// safeBuild turns a panicking transformer into a *model.ParseError so one
// bad record cannot take down its category.
func safeBuild[T any](build func(model.ParsedRecord, string) (transform.Result[T], error), raw model.RawRecord) (res transform.Result[T], err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &model.ParseError{File: raw.Filename, Err: fmt.Errorf("%v", r)}
		}
	}()
	return build(frontmatter.Parse(raw), raw.Filename)
}

func (l *Loader) logIssues(ctx context.Context, c model.Category, errs, warns []model.Issue) {
	for _, i := range errs {
		metrics.RecordValidationIssue(string(c), string(i.Severity))
		l.logger.Warn(ctx, "validation error", logger.String("file", i.File), logger.String("field", i.Field), logger.String("issue", i.Message))
	}
	for _, i := range warns {
		metrics.RecordValidationIssue(string(c), string(i.Severity))
		l.logger.Debug(ctx, "validation warning", logger.String("file", i.File), logger.String("field", i.Field), logger.String("issue", i.Message))
	}
}
