package service

import (
	"alcyxob/fitness-schedule/internal/domain"
	"fmt"
)

// Candidate is a plan entry pinned to a concrete date.
type Candidate struct {
	Date  domain.Date
	Entry domain.PlanEntry
}

// Span is the inclusive date range one plan application covers.
type Span struct {
	Start domain.Date
	End   domain.Date
}

// DroppedEntry is a plan entry that could not be placed on the calendar.
type DroppedEntry struct {
	Index  int
	Reason error
}

// Expansion is the outcome of laying a plan out from a start date.
type Expansion struct {
	Candidates []Candidate
	Span       Span
	Dropped    []DroppedEntry
}

// Expand lays plan out on the calendar starting at start.
//
//   - daily: every entry lands on start.
//   - weekly: each entry lands on the first date >= start with its weekday.
//   - monthly: day N lands on start+(N-1); there is no month alignment.
//
// Invalid entries are reported in Dropped and expansion continues.
// Candidates keep plan entry order.
func Expand(plan *domain.Plan, start domain.Date) Expansion {
	exp := Expansion{
		Candidates: make([]Candidate, 0, len(plan.Entries)),
		Span: Span{
			Start: start,
			End:   start.AddDays(plan.Type.SpanDays() - 1),
		},
	}

	for i, raw := range plan.Entries {
		entry, err := normalizeEntry(plan, raw)
		if err != nil {
			exp.Dropped = append(exp.Dropped, DroppedEntry{Index: i, Reason: err})
			continue
		}

		offset, err := dayOffset(plan.Type, entry, start)
		if err != nil {
			exp.Dropped = append(exp.Dropped, DroppedEntry{Index: i, Reason: err})
			continue
		}

		exp.Candidates = append(exp.Candidates, Candidate{
			Date:  start.AddDays(offset),
			Entry: entry,
		})
	}
	return exp
}

// normalizeEntry resolves day and slot aliases, then validates the entry
// against the plan type.
func normalizeEntry(plan *domain.Plan, e domain.PlanEntry) (domain.PlanEntry, error) {
	if plan.Type == domain.PlanWeekly && e.DayOfWeek != "" {
		wd, err := domain.ParseWeekday(string(e.DayOfWeek))
		if err != nil {
			return e, fmt.Errorf("%w: %v", domain.ErrInvalidEntry, err)
		}
		e.DayOfWeek = wd
	}
	if plan.Category == domain.CategoryMeal && e.Subtype != "" {
		slot, err := domain.ParseMealSlot(string(e.Subtype))
		if err != nil {
			return e, fmt.Errorf("%w: %v", domain.ErrInvalidEntry, err)
		}
		e.Subtype = slot
	}
	if err := domain.ValidateEntry(plan.Type, plan.Category, e); err != nil {
		return e, err
	}
	return e, nil
}

func dayOffset(planType domain.PlanType, e domain.PlanEntry, start domain.Date) (int, error) {
	switch planType {
	case domain.PlanDaily:
		return 0, nil
	case domain.PlanWeekly:
		target, ok := e.DayOfWeek.TimeWeekday()
		if !ok {
			return 0, fmt.Errorf("%w: day of week %q", domain.ErrInvalidEntry, e.DayOfWeek)
		}
		return (int(target) - int(start.Weekday()) + 7) % 7, nil
	case domain.PlanMonthly:
		return e.DayNumber - 1, nil
	}
	return 0, fmt.Errorf("%w: plan type %q", domain.ErrInvalidEntry, planType)
}
