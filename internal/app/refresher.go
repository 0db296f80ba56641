package service

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/okian/lodge/pkg/logger"
)

// RefresherOption applies a configuration option to the Refresher.
type RefresherOption func(*Refresher)

// WithRefresherLogger sets the refresher's logger.
func WithRefresherLogger(l logger.Logger) RefresherOption {
	return func(r *Refresher) {
		if l != nil {
			r.logger = l
		}
	}
}

// Refresher refreshes a Service on a cron schedule.
type Refresher struct {
	svc    *Service
	spec   string
	cron   *cron.Cron
	logger logger.Logger
}

// NewRefresher validates spec (standard five-field cron or a descriptor such
// as "@every 15m") and prepares the schedule.
func NewRefresher(svc *Service, spec string, opts ...RefresherOption) (*Refresher, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSchedule, spec, err)
	}
	r := &Refresher{
		svc:    svc,
		spec:   spec,
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Start schedules refreshes that run with ctx until Stop is called.
func (r *Refresher) Start(ctx context.Context) {
	// spec was validated in NewRefresher.
	_, _ = r.cron.AddFunc(r.spec, func() { r.Run(ctx) })
	r.cron.Start()
	r.logger.Info(ctx, "scheduled refresh enabled", logger.String("schedule", r.spec))
}

// Run performs one scheduled refresh.
func (r *Refresher) Run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	r.svc.refresh(ctx, triggerScheduled)
}

// Stop stops the schedule. The returned context is done once a running
// refresh has finished.
func (r *Refresher) Stop() context.Context {
	return r.cron.Stop()
}
