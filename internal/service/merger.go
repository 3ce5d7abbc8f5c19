package service

import (
	"alcyxob/fitness-schedule/internal/domain"
	"alcyxob/fitness-schedule/internal/repository"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Merger reconciles expanded candidates with a user's stored schedule.
type Merger struct {
	schedules repository.ScheduleRepository
	tx        repository.TxRunner
}

func NewMerger(schedules repository.ScheduleRepository, tx repository.TxRunner) *Merger {
	return &Merger{schedules: schedules, tx: tx}
}

// Merge writes entries into the user's schedule and returns how many were
// written.
//
// With replace set, every entry of the user inside span is deleted first and
// all entries are inserted. Otherwise entries whose identity key is already
// stored are left alone. In both modes later duplicates within entries are
// dropped in favour of the first occurrence.
func (m *Merger) Merge(ctx context.Context, userID primitive.ObjectID, span Span, entries []domain.ScheduleEntry, replace bool) (int, error) {
	unique := dedupe(entries)

	if replace {
		var inserted int
		err := m.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			if _, err := m.schedules.DeleteInRange(ctx, userID, span.Start, span.End); err != nil {
				return err
			}
			n, err := m.schedules.InsertMany(ctx, unique)
			if err != nil {
				return err
			}
			inserted = n
			return nil
		})
		if err != nil {
			return 0, err
		}
		return inserted, nil
	}

	existing, err := m.schedules.FindInRange(ctx, userID, span.Start, span.End)
	if err != nil {
		return 0, err
	}
	stored := make(map[domain.IdentityKey]struct{}, len(existing))
	for i := range existing {
		stored[existing[i].Key()] = struct{}{}
	}

	fresh := make([]domain.ScheduleEntry, 0, len(unique))
	for i := range unique {
		if _, ok := stored[unique[i].Key()]; ok {
			continue
		}
		fresh = append(fresh, unique[i])
	}
	if len(fresh) == 0 {
		return 0, nil
	}
	// The unique index catches anything inserted since the lookup.
	return m.schedules.InsertMany(ctx, fresh)
}

func dedupe(entries []domain.ScheduleEntry) []domain.ScheduleEntry {
	seen := make(map[domain.IdentityKey]struct{}, len(entries))
	out := make([]domain.ScheduleEntry, 0, len(entries))
	for i := range entries {
		key := entries[i].Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, entries[i])
	}
	return out
}

// buildEntries turns candidates into schedule entries owned by userID.
func buildEntries(userID primitive.ObjectID, plan *domain.Plan, candidates []Candidate, now time.Time) []domain.ScheduleEntry {
	planID := plan.ID
	entries := make([]domain.ScheduleEntry, 0, len(candidates))
	for _, c := range candidates {
		entries = append(entries, domain.ScheduleEntry{
			UserID:    userID,
			PlanID:    &planID,
			Category:  plan.Category,
			ItemRef:   c.Entry.ItemRef,
			Subtype:   c.Entry.Subtype,
			Date:      c.Date,
			Time:      c.Entry.Time,
			Status:    domain.StatusPending,
			CreatedAt: now,
		})
	}
	return entries
}
