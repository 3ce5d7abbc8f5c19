package service

import (
	"alcyxob/fitness-schedule/internal/domain"
	"alcyxob/fitness-schedule/internal/lock"
	"alcyxob/fitness-schedule/internal/observability"
	"alcyxob/fitness-schedule/internal/repository"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ApplyResult summarizes one plan application.
type ApplyResult struct {
	Inserted  int         `json:"count"`
	Total     int         `json:"total"`
	Skipped   int         `json:"skipped"`
	StartDate domain.Date `json:"startDate"`
	EndDate   domain.Date `json:"endDate"`
}

// ApplyService materializes plans into user schedules.
type ApplyService interface {
	// ApplyPlan expands the active plan planID from startDate into userID's
	// schedule. startDate is required; it may be "YYYY-MM-DD" or a timestamp.
	ApplyPlan(ctx context.Context, userID primitive.ObjectID, planID, startDate string, replace bool) (*ApplyResult, error)
}

type applyService struct {
	plans   repository.PlanRepository
	merger  *Merger
	locker  lock.Locker
	metrics *observability.ApplyMetrics
	loc     *time.Location
	now     func() time.Time
}

// NewApplyService creates the plan application service. metrics may be nil.
func NewApplyService(
	plans repository.PlanRepository,
	schedules repository.ScheduleRepository,
	tx repository.TxRunner,
	locker lock.Locker,
	metrics *observability.ApplyMetrics,
	loc *time.Location,
) ApplyService {
	return &applyService{
		plans:   plans,
		merger:  NewMerger(schedules, tx),
		locker:  locker,
		metrics: metrics,
		loc:     loc,
		now:     time.Now,
	}
}

func (s *applyService) ApplyPlan(ctx context.Context, userID primitive.ObjectID, planID, startDate string, replace bool) (res *ApplyResult, err error) {
	began := s.now()
	ctx, span := observability.StartApplySpan(ctx, userID.Hex(), planID, replace)
	defer func() { observability.EndSpan(span, err) }()

	if userID.IsZero() {
		return nil, fmt.Errorf("%w: user is required", ErrInvalidArgument)
	}
	if planID == "" {
		return nil, fmt.Errorf("%w: planId is required", ErrInvalidArgument)
	}
	planOID, err := primitive.ObjectIDFromHex(planID)
	if err != nil {
		return nil, fmt.Errorf("%w: planId %q is not a valid id", ErrInvalidArgument, planID)
	}
	if startDate == "" {
		return nil, fmt.Errorf("%w: startDate is required", ErrInvalidArgument)
	}
	start, err := domain.ParseDate(startDate, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: startDate: %v", ErrInvalidArgument, err)
	}

	plan, err := s.plans.GetActiveByID(ctx, planOID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("%w: load plan: %v", ErrDependencyFailure, err)
	}

	exp := Expand(plan, start)
	for _, d := range exp.Dropped {
		slog.WarnContext(ctx, "dropping invalid plan entry",
			slog.String("plan_id", planID),
			slog.Int("entry_index", d.Index),
			slog.String("error", d.Reason.Error()),
		)
	}

	release, err := s.locker.Acquire(ctx, userID.Hex())
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, ErrApplyInProgress
		}
		return nil, fmt.Errorf("%w: acquire lock: %v", ErrDependencyFailure, err)
	}
	defer func() {
		if relErr := release(context.WithoutCancel(ctx)); relErr != nil {
			slog.WarnContext(ctx, "failed to release apply lock",
				slog.String("user_id", userID.Hex()),
				slog.String("error", relErr.Error()),
			)
		}
	}()

	entries := buildEntries(userID, plan, exp.Candidates, s.now().UTC())

	mergeCtx, mergeSpan := observability.StartMergeSpan(ctx, len(entries), exp.Span.Start.String(), exp.Span.End.String())
	inserted, err := s.merger.Merge(mergeCtx, userID, exp.Span, entries, replace)
	observability.EndSpan(mergeSpan, err)
	if err != nil {
		s.metrics.RecordApply(ctx, string(plan.Type), replace, "error", 0, 0, len(exp.Dropped), s.now().Sub(began))
		return nil, fmt.Errorf("%w: merge schedule: %v", ErrDependencyFailure, err)
	}

	res = &ApplyResult{
		Inserted:  inserted,
		Total:     len(entries),
		Skipped:   len(entries) - inserted,
		StartDate: exp.Span.Start,
		EndDate:   exp.Span.End,
	}
	s.metrics.RecordApply(ctx, string(plan.Type), replace, "ok", res.Inserted, res.Skipped, len(exp.Dropped), s.now().Sub(began))

	slog.InfoContext(ctx, "plan applied",
		slog.String("user_id", userID.Hex()),
		slog.String("plan_id", planID),
		slog.String("plan_type", string(plan.Type)),
		slog.Bool("replace", replace),
		slog.Int("inserted", res.Inserted),
		slog.Int("skipped", res.Skipped),
		slog.String("start", res.StartDate.String()),
		slog.String("end", res.EndDate.String()),
	)
	return res, nil
}
