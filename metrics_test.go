package changestream

import (
	"context"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestMetricsRecordResume(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewMetrics(provider.Meter("changestream_test"))
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	ctx := context.Background()
	m.recordResumeStart(ctx)
	m.recordResumeStart(ctx)
	m.recordResumeEnd()

	var data metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &data); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	var sawCounter, sawGauge bool
	for _, sm := range data.ScopeMetrics {
		for _, metric := range sm.Metrics {
			switch metric.Name {
			case "mongodb.changestream.resumes":
				sawCounter = true
				sum, ok := metric.Data.(metricdata.Sum[int64])
				if !ok || len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 2 {
					t.Fatalf("resumes counter = %#v, want a single data point with value 2", metric.Data)
				}
			case "mongodb.changestream.resumes.active":
				sawGauge = true
				gauge, ok := metric.Data.(metricdata.Gauge[int64])
				if !ok || len(gauge.DataPoints) != 1 || gauge.DataPoints[0].Value != 1 {
					t.Fatalf("active-resumes gauge = %#v, want a single data point with value 1", metric.Data)
				}
			}
		}
	}
	if !sawCounter {
		t.Fatalf("resumes counter not reported")
	}
	if !sawGauge {
		t.Fatalf("active-resumes gauge not reported")
	}
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.recordResumeStart(ctx)
	m.recordResumeEnd()
	m.recordFetchError(ctx)
	m.recordFetch(ctx, time.Now())
}
