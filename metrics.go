package changestream

import (
	"context"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the OpenTelemetry instruments a ResumableCursor reports
// against. Every method has a nil-receiver-safe no-op, so a cursor built
// without WithMetrics pays nothing beyond the nil check.
type Metrics struct {
	resumes       metric.Int64Counter
	fetchDuration metric.Float64Histogram
	fetchErrors   metric.Int64Counter
	activeResumes atomic.Int64
}

// NewMetrics registers the change-stream instruments against meter. It
// returns an error only if instrument creation itself fails; a nil Metrics
// is always a valid, inert alternative.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	resumes, err := meter.Int64Counter(
		"mongodb.changestream.resumes",
		metric.WithDescription("Number of times a resumable cursor re-executed its aggregation after a retryable error."),
		metric.WithUnit("{resume}"),
	)
	if err != nil {
		return nil, err
	}

	fetchDuration, err := meter.Float64Histogram(
		"mongodb.changestream.fetch.duration",
		metric.WithDescription("Duration of a single Next/TryNext call, including any resumes it performed."),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	fetchErrors, err := meter.Int64Counter(
		"mongodb.changestream.fetch.errors",
		metric.WithDescription("Number of Next/TryNext calls that returned an error to the caller."),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	m := &Metrics{resumes: resumes, fetchDuration: fetchDuration, fetchErrors: fetchErrors}

	_, err = meter.Int64ObservableGauge(
		"mongodb.changestream.resumes.active",
		metric.WithDescription("Number of cursors currently mid-resume across this process."),
		metric.WithUnit("{cursor}"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(m.activeResumes.Load())
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Metrics) recordResumeStart(ctx context.Context) {
	if m == nil {
		return
	}
	m.resumes.Add(ctx, 1)
	m.activeResumes.Add(1)
}

func (m *Metrics) recordResumeEnd() {
	if m == nil {
		return
	}
	m.activeResumes.Add(-1)
}

func (m *Metrics) recordFetch(ctx context.Context, start time.Time) {
	if m == nil {
		return
	}
	m.fetchDuration.Record(ctx, time.Since(start).Seconds())
}

func (m *Metrics) recordFetchError(ctx context.Context) {
	if m == nil {
		return
	}
	m.fetchErrors.Add(ctx, 1)
}
