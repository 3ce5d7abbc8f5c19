package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const scheduleMeterName = "schedule.service"

// ApplyMetrics records plan application outcomes.
type ApplyMetrics struct {
	applies         metric.Int64Counter
	entriesInserted metric.Int64Counter
	entriesSkipped  metric.Int64Counter
	entriesDropped  metric.Int64Counter
	applyDuration   metric.Float64Histogram
}

func NewApplyMetrics() (*ApplyMetrics, error) {
	meter := otel.Meter(scheduleMeterName)

	applies, err := meter.Int64Counter(
		"schedule_plan_applies_total",
		metric.WithDescription("Total number of plan applications"),
		metric.WithUnit("{apply}"),
	)
	if err != nil {
		return nil, err
	}

	entriesInserted, err := meter.Int64Counter(
		"schedule_entries_inserted_total",
		metric.WithDescription("Schedule entries written by plan applications"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}

	entriesSkipped, err := meter.Int64Counter(
		"schedule_entries_skipped_total",
		metric.WithDescription("Candidate entries skipped as duplicates"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}

	entriesDropped, err := meter.Int64Counter(
		"schedule_entries_dropped_total",
		metric.WithDescription("Plan entries dropped during expansion as invalid"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}

	applyDuration, err := meter.Float64Histogram(
		"schedule_plan_apply_duration_seconds",
		metric.WithDescription("Time spent applying a plan"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5,
		),
	)
	if err != nil {
		return nil, err
	}

	return &ApplyMetrics{
		applies:         applies,
		entriesInserted: entriesInserted,
		entriesSkipped:  entriesSkipped,
		entriesDropped:  entriesDropped,
		applyDuration:   applyDuration,
	}, nil
}

// RecordApply is nil-safe so services can run without metrics.
func (m *ApplyMetrics) RecordApply(ctx context.Context, planType string, replace bool, outcome string, inserted, skipped, dropped int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("plan_type", planType),
		attribute.Bool("replace", replace),
	)
	m.applies.Add(ctx, 1, metric.WithAttributes(
		attribute.String("plan_type", planType),
		attribute.Bool("replace", replace),
		attribute.String("outcome", outcome),
	))
	m.entriesInserted.Add(ctx, int64(inserted), attrs)
	m.entriesSkipped.Add(ctx, int64(skipped), attrs)
	m.entriesDropped.Add(ctx, int64(dropped), attrs)
	m.applyDuration.Record(ctx, duration.Seconds(), attrs)
}
