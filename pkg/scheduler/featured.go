package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"diynow/pkg/domain"
	"diynow/pkg/logger"
	"diynow/pkg/sink"
)

// Discoverer runs one crawl session into a sink.
type Discoverer interface {
	Discover(ctx context.Context, keyword string, out sink.Sink) ([]domain.ProjectRecord, error)
}

// FeaturedRefresher periodically runs a broad crawl and stores it as the
// featured set served by the home page.
type FeaturedRefresher struct {
	cron     *cron.Cron
	schedule string
	svc      Discoverer
	out      sink.Sink
	timeout  time.Duration
	logger   logger.Logger
	cancel   context.CancelFunc
	initial  sync.WaitGroup // first refresh, launched outside cron
}

// NewFeaturedRefresher validates schedule (standard five-field spec or a
// descriptor such as "@every 6h"). timeout bounds a single refresh.
func NewFeaturedRefresher(schedule string, svc Discoverer, out sink.Sink, timeout time.Duration, log logger.Logger) (*FeaturedRefresher, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid featured schedule %q: %w", schedule, err)
	}
	return &FeaturedRefresher{
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLogger{log}),
			cron.SkipIfStillRunning(cronLogger{log}),
		)),
		schedule: schedule,
		svc:      svc,
		out:      out,
		timeout:  timeout,
		logger:   log,
	}, nil
}

// Start schedules the job and triggers a first refresh in the background.
func (r *FeaturedRefresher) Start(ctx context.Context) error {
	ctx, r.cancel = context.WithCancel(ctx)

	if _, err := r.cron.AddFunc(r.schedule, func() { r.run(ctx) }); err != nil {
		r.cancel()
		return fmt.Errorf("failed to schedule featured refresh: %w", err)
	}
	r.cron.Start()
	r.initial.Add(1)
	go func() {
		defer r.initial.Done()
		r.run(ctx)
	}()

	r.logger.Info("featured refresher started", logger.String("schedule", r.schedule))
	return nil
}

// Stop cancels a running refresh and waits for it to return.
func (r *FeaturedRefresher) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	<-r.cron.Stop().Done()
	r.initial.Wait()
	r.logger.Info("featured refresher stopped")
}

// Refresh runs one broad crawl into the featured sink.
func (r *FeaturedRefresher) Refresh(ctx context.Context) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	records, err := r.svc.Discover(ctx, "", r.out)
	if err != nil {
		return err
	}
	r.logger.Info("featured projects refreshed",
		logger.Int("records", len(records)),
		logger.Duration("elapsed", time.Since(start)))
	return nil
}

func (r *FeaturedRefresher) run(ctx context.Context) {
	if err := r.Refresh(ctx); err != nil && ctx.Err() == nil {
		r.logger.Error("failed to refresh featured projects", logger.Error(err))
	}
}

// cronLogger adapts logger.Logger to cron's logging interface.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugf("cron: %s %v", msg, keysAndValues)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, logger.Error(err), logger.String("context", fmt.Sprint(keysAndValues...)))
}
