// Package service orchestrates content loading for the lodge site: it runs
// load cycles over the three content categories, substitutes placeholder
// content on failure, retries with backoff and owns the ContentState
// consumers render from.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/lodge/internal/adapters/cache"
	"github.com/okian/lodge/internal/adapters/source"
	"github.com/okian/lodge/internal/domain/fallback"
	"github.com/okian/lodge/internal/domain/model"
	"github.com/okian/lodge/pkg/logger"
	"github.com/okian/lodge/pkg/metrics"
)

// Defaults for retry behavior.
const (
	DefaultMaxRetries     = 3
	DefaultRetryBaseDelay = time.Second
)

// Refresh triggers, used as metric labels.
const (
	triggerManual    = "manual"
	triggerScheduled = "scheduled"
)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// ContextSleeper is the default Sleeper.
func ContextSleeper(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Service owns the content state.
type Service struct {
	mu    sync.RWMutex
	state ContentState
	gen   uint64

	loader     *Loader
	cache      *cache.Cache
	fallback   fallback.Provider
	loaderOpts []LoaderOption

	maxRetries int
	retryBase  time.Duration
	sleep      Sleeper
	online     func() bool
	now        func() time.Time

	refreshSpec string
	refresher   *Refresher
	started     bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCache shares an existing cache with the service.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithCacheTTL sets how long loaded categories stay cached.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.loaderOpts = append(s.loaderOpts, WithLoaderCacheTTL(ttl))
	}
}

// WithTransformer replaces the record transformer.
func WithTransformer(t Transformer) Option {
	return func(s *Service) {
		s.loaderOpts = append(s.loaderOpts, WithLoaderTransformer(t))
	}
}

// WithFallbackProvider replaces the placeholder provider.
func WithFallbackProvider(p fallback.Provider) Option {
	return func(s *Service) {
		if p != nil {
			s.fallback = p
		}
	}
}

// WithMinRealRecords sets how many real records a category needs before
// placeholders stop being merged in.
func WithMinRealRecords(n int) Option {
	return func(s *Service) {
		s.loaderOpts = append(s.loaderOpts, WithLoaderMinRealRecords(n))
	}
}

// WithRecurrenceHorizon sets how many days ahead recurring events are expanded.
func WithRecurrenceHorizon(days int) Option {
	return func(s *Service) {
		s.loaderOpts = append(s.loaderOpts, WithLoaderRecurrenceHorizon(days))
	}
}

// WithMaxRetries sets how many retries RetryLoad allows.
func WithMaxRetries(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

// WithRetryBaseDelay sets the first backoff delay; attempt n waits base*2^(n-1).
func WithRetryBaseDelay(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.retryBase = d
		}
	}
}

// WithSleeper replaces the backoff sleeper, e.g. with a recorder in tests.
func WithSleeper(fn Sleeper) Option {
	return func(s *Service) {
		if fn != nil {
			s.sleep = fn
		}
	}
}

// WithConnectivityProbe sets the function consulted for IsOffline.
func WithConnectivityProbe(online func() bool) Option {
	return func(s *Service) {
		if online != nil {
			s.online = online
		}
	}
}

// WithClock sets the service clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRefreshSchedule enables scheduled refreshes on a standard cron spec.
func WithRefreshSchedule(spec string) Option {
	return func(s *Service) {
		s.refreshSpec = spec
	}
}

// New constructs a Service reading from src.
func New(src source.Source, opts ...Option) *Service {
	s := &Service{
		state:      ContentState{Outcome: OutcomeIdle},
		maxRetries: DefaultMaxRetries,
		retryBase:  DefaultRetryBaseDelay,
		sleep:      ContextSleeper,
		online:     func() bool { return true },
		now:        time.Now,
		logger:     logger.Nop(),
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	if s.cache == nil {
		s.cache = cache.New()
	}
	if s.fallback == nil {
		s.fallback = fallback.NewStatic(fallback.WithClock(s.now))
	}
	loaderOpts := append([]LoaderOption{
		WithLoaderLogger(s.logger.Named("loader")),
		WithLoaderFallback(s.fallback),
		WithLoaderClock(s.now),
	}, s.loaderOpts...)
	s.loader = NewLoader(src, s.cache, loaderOpts...)

	return s
}

// Loader exposes the per-category loader.
func (s *Service) Loader() *Loader { return s.loader }

// Start runs the first load cycle and, when a schedule is configured,
// starts scheduled refreshes.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.mu.Unlock()

	s.logger.Info(ctx, "starting content service...")
	s.LoadContent(ctx)

	if s.refreshSpec != "" {
		r, err := NewRefresher(s, s.refreshSpec, WithRefresherLogger(s.logger.Named("refresher")))
		if err != nil {
			return err
		}
		r.Start(ctx)
		s.mu.Lock()
		s.refresher = r
		s.mu.Unlock()
	}

	st := s.State()
	s.logger.Info(ctx, "content service started",
		logger.String("outcome", string(st.Outcome)),
		logger.Int("events", len(st.Events)),
		logger.Int("gamemasters", len(st.GameMasters)),
		logger.Int("news", len(st.News)),
	)
	return nil
}

// Stop halts scheduled refreshes.
func (s *Service) Stop() {
	s.mu.Lock()
	r := s.refresher
	s.refresher = nil
	wasStarted := s.started
	s.started = false
	s.mu.Unlock()

	if !wasStarted {
		return
	}
	if r != nil {
		<-r.Stop().Done()
	}
	s.logger.Info(context.Background(), "content service stopped")
}

// State returns a snapshot of the content state.
func (s *Service) State() ContentState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// LoadContent runs a load cycle over every category.
func (s *Service) LoadContent(ctx context.Context) {
	gen := s.begin()
	s.runCycle(ctx, gen)
}

// RefreshContent clears the cache, resets the retry counter and reloads.
func (s *Service) RefreshContent(ctx context.Context) {
	s.refresh(ctx, triggerManual)
}

func (s *Service) refresh(ctx context.Context, trigger string) {
	metrics.RecordRefresh(trigger)
	s.loader.ClearCache()
	s.mu.Lock()
	s.state.RetryCount = 0
	s.mu.Unlock()
	s.logger.Info(ctx, "refreshing content", logger.String("trigger", trigger))
	s.LoadContent(ctx)
}

// RetryLoad reloads after an exponential backoff. Once the retry limit is
// reached it fetches nothing, leaves RetryCount as is and reports
// ErrorMaxRetries.
func (s *Service) RetryLoad(ctx context.Context) {
	s.mu.Lock()
	if s.state.RetryCount >= s.maxRetries {
		s.state.Error = newStateError(ErrorMaxRetries)
		count := s.state.RetryCount
		s.mu.Unlock()
		metrics.RecordRetryExhausted()
		s.logger.Warn(ctx, "retry refused", logger.Int("retryCount", count), logger.Int("maxRetries", s.maxRetries))
		return
	}
	s.state.RetryCount++
	attempt := s.state.RetryCount
	s.mu.Unlock()

	metrics.RecordRetry()
	gen := s.begin()
	delay := s.Backoff(attempt)
	s.logger.Info(ctx, "retrying content load", logger.Int("attempt", attempt), logger.Duration("delay", delay))

	if err := s.sleep(ctx, delay); err != nil {
		s.mu.Lock()
		if s.gen == gen {
			s.state.Loading = false
		}
		s.mu.Unlock()
		s.logger.Warn(ctx, "retry abandoned", logger.Int("attempt", attempt), logger.Error(err))
		return
	}
	s.runCycle(ctx, gen)
}

// Backoff returns the delay before retry attempt n (1-based).
func (s *Service) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return s.retryBase << (attempt - 1)
}

// ClearError removes the current error without touching content.
func (s *Service) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Error = nil
}

// SelectEvent selects the event with id. An empty id clears the selection.
// It reports whether the event exists.
func (s *Service) SelectEvent(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		s.state.SelectedEvent = nil
		return true
	}
	for i := range s.state.Events {
		if s.state.Events[i].ID == id {
			ev := s.state.Events[i]
			s.state.SelectedEvent = &ev
			return true
		}
	}
	return false
}

// SelectGameMaster selects the game master with id. An empty id clears the
// selection. It reports whether the game master exists.
func (s *Service) SelectGameMaster(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		s.state.SelectedGameMaster = nil
		return true
	}
	for i := range s.state.GameMasters {
		if s.state.GameMasters[i].ID == id {
			gm := s.state.GameMasters[i]
			s.state.SelectedGameMaster = &gm
			return true
		}
	}
	return false
}

// Event returns the event with id from the current state.
func (s *Service) Event(id string) (model.CalendarEvent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ev := range s.state.Events {
		if ev.ID == id {
			return ev, true
		}
	}
	return model.CalendarEvent{}, false
}

// GameMaster returns the game master with id from the current state.
func (s *Service) GameMaster(id string) (model.GameMaster, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, gm := range s.state.GameMasters {
		if gm.ID == id {
			return gm, true
		}
	}
	return model.GameMaster{}, false
}

// begin claims a new generation and marks the state as loading.
func (s *Service) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.loader.supersede()
	s.state.Loading = true
	s.state.Generation = s.gen
	s.state.CycleID = uuid.NewString()
	return s.gen
}

type cycleResult struct {
	events      []model.CalendarEvent
	gameMasters []model.GameMaster
	news        []model.NewsArticle
	failed      []model.Category
}

// runCycle loads all categories concurrently and commits the result if gen
// is still the newest generation.
func (s *Service) runCycle(ctx context.Context, gen uint64) {
	log := s.logger.With(logger.Uint64("generation", gen))
	offline := !s.online()

	res, outcome, err := s.collect(ctx)
	if err != nil {
		log.Error(ctx, "load cycle failed; substituting placeholders", logger.Error(err))
		res, err = s.allPlaceholders()
		outcome = OutcomeFallback
		if err != nil {
			log.Error(ctx, "placeholder content unavailable", logger.Error(err))
			outcome = OutcomeCritical
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		metrics.RecordStaleCycle()
		log.Debug(ctx, "discarding stale load cycle", logger.Uint64("current", s.gen))
		return
	}

	st := &s.state
	st.Loading = false
	st.IsOffline = offline
	st.Outcome = outcome
	st.LoadedAt = s.now()
	st.HasPartialData = outcome == OutcomePartial
	switch outcome {
	case OutcomeSuccess:
		st.Error = nil
		st.RetryCount = 0
	case OutcomePartial:
		st.Error = newStateError(ErrorPartial)
	case OutcomeFallback:
		st.Error = newStateError(ErrorFallback)
	case OutcomeCritical:
		st.Error = newStateError(ErrorCritical)
	}
	if outcome != OutcomeCritical {
		st.Events, st.GameMasters, st.News = res.events, res.gameMasters, res.news
		st.SelectedEvent = reselect(st.SelectedEvent, st.Events)
		st.SelectedGameMaster = reselect(st.SelectedGameMaster, st.GameMasters)
	}

	metrics.RecordLoadCycle(string(outcome), st.LoadedAt)
	metrics.UpdateRecordsServed(string(model.CategoryEvents), len(st.Events))
	metrics.UpdateRecordsServed(string(model.CategoryGameMasters), len(st.GameMasters))
	metrics.UpdateRecordsServed(string(model.CategoryNews), len(st.News))

	failed := make([]string, 0, len(res.failed))
	for _, c := range res.failed {
		failed = append(failed, string(c))
	}
	log.Info(ctx, "load cycle committed",
		logger.String("cycle", st.CycleID),
		logger.String("outcome", string(outcome)),
		logger.Strings("failed", failed),
		logger.Bool("offline", offline),
	)
}

// collect runs the three category loads and substitutes placeholders for
// failed ones. A panic outside the per-category isolation, or a placeholder
// provider that fails, is returned as an error.
func (s *Service) collect(ctx context.Context) (res cycleResult, outcome Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("critical: %v", r)
		}
	}()

	var (
		wg                         sync.WaitGroup
		eventsErr, gmsErr, newsErr error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		res.events, eventsErr = s.loader.LoadCalendarEvents(ctx)
	}()
	go func() {
		defer wg.Done()
		res.gameMasters, gmsErr = s.loader.LoadGameMasters(ctx)
	}()
	go func() {
		defer wg.Done()
		res.news, newsErr = s.loader.LoadNewsArticles(ctx)
	}()
	wg.Wait()

	if eventsErr != nil {
		res.failed = append(res.failed, model.CategoryEvents)
		if res.events, err = s.fallback.Events(); err != nil {
			return res, "", placeholderErr(model.CategoryEvents, err)
		}
	}
	if gmsErr != nil {
		res.failed = append(res.failed, model.CategoryGameMasters)
		if res.gameMasters, err = s.fallback.GameMasters(); err != nil {
			return res, "", placeholderErr(model.CategoryGameMasters, err)
		}
	}
	if newsErr != nil {
		res.failed = append(res.failed, model.CategoryNews)
		if res.news, err = s.fallback.News(); err != nil {
			return res, "", placeholderErr(model.CategoryNews, err)
		}
	}
	for _, c := range res.failed {
		metrics.RecordFallbackSubstitution(string(c))
	}

	switch len(res.failed) {
	case 0:
		return res, OutcomeSuccess, nil
	case len(model.Categories()):
		return res, OutcomeFallback, nil
	default:
		return res, OutcomePartial, nil
	}
}

// allPlaceholders is the last resort after a critical failure.
func (s *Service) allPlaceholders() (res cycleResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("placeholder provider panicked: %v", r)
		}
	}()
	res.failed = model.Categories()
	if res.events, err = s.fallback.Events(); err != nil {
		return res, err
	}
	if res.gameMasters, err = s.fallback.GameMasters(); err != nil {
		return res, err
	}
	res.news, err = s.fallback.News()
	return res, err
}

func placeholderErr(c model.Category, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrPlaceholdersUnavailable, c, err)
}

// reselect keeps a selection pointing at the freshly loaded copy of the same
// record, or clears it when the record is gone.
func reselect[T model.Identifiable](sel *T, items []T) *T {
	if sel == nil {
		return nil
	}
	id := (*sel).RecordID()
	for i := range items {
		if items[i].RecordID() == id {
			v := items[i]
			return &v
		}
	}
	return nil
}
