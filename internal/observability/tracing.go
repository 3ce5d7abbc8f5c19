package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const scheduleTracerName = "alcyxob/fitness-schedule/internal/service"

func ScheduleTracer() trace.Tracer {
	return otel.Tracer(scheduleTracerName)
}

func StartApplySpan(ctx context.Context, userID, planID string, replace bool) (context.Context, trace.Span) {
	return ScheduleTracer().Start(ctx, "schedule.apply_plan",
		trace.WithAttributes(
			attribute.String("user_id", userID),
			attribute.String("plan_id", planID),
			attribute.Bool("replace", replace),
		),
	)
}

func StartMergeSpan(ctx context.Context, candidates int, start, end string) (context.Context, trace.Span) {
	return ScheduleTracer().Start(ctx, "schedule.merge",
		trace.WithAttributes(
			attribute.Int("candidates", candidates),
			attribute.String("span.start", start),
			attribute.String("span.end", end),
		),
	)
}

// EndSpan records err on the span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
