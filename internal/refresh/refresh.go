// Package refresh keeps the store's categories and stats current while the
// web surface is running. Item pages are left alone: they depend on the
// filters of whichever view asked for them.
package refresh

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const (
	otelScope   = "kvault/refresh"
	spanRun     = "refresh.run"
	metricRuns  = "kvault.refresh.runs"
	minInterval = time.Second
)

// Fetcher is the part of the store the refresher drives.
// Implemented by [store.Store].
type Fetcher interface {
	FetchCategories(ctx context.Context)
	FetchStats(ctx context.Context)
}

// Refresher re-fetches categories and stats on a fixed interval. Create one
// with [New] and start it with [Refresher.Run].
type Refresher struct {
	fetcher  Fetcher
	interval time.Duration
	log      *slog.Logger

	// OTel instruments, no-op when telemetry is disabled.
	tracer  trace.Tracer
	cntRuns metric.Int64Counter
}

// New creates a Refresher. Intervals below one second are raised to one
// second.
func New(fetcher Fetcher, interval time.Duration, logger *slog.Logger) *Refresher {
	if interval < minInterval {
		interval = minInterval
	}
	cnt, err := otel.Meter(otelScope).Int64Counter(metricRuns,
		metric.WithDescription("Number of background refresh passes"))
	if err != nil {
		logger.Error("creating OTel counter", "name", metricRuns, "error", err)
		cnt = noop.Int64Counter{}
	}
	return &Refresher{
		fetcher:  fetcher,
		interval: interval,
		log:      logger,
		tracer:   otel.Tracer(otelScope),
		cntRuns:  cnt,
	}
}

// RunOnce performs a single refresh pass.
func (r *Refresher) RunOnce(ctx context.Context) {
	ctx, span := r.tracer.Start(ctx, spanRun)
	defer span.End()

	start := time.Now()
	r.fetcher.FetchCategories(ctx)
	r.fetcher.FetchStats(ctx)

	r.cntRuns.Add(ctx, 1)
	span.SetAttributes(attribute.Int64("refresh.duration_ms", time.Since(start).Milliseconds()))
	r.log.Debug("refresh pass complete", "duration", time.Since(start))
}

// Run refreshes immediately and then on every tick until ctx is cancelled.
func (r *Refresher) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			r.log.Info("refresher shutting down")
			return ctx.Err()
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}
