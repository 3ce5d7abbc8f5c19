package service

import (
	"alcyxob/fitness-schedule/internal/domain"
	"alcyxob/fitness-schedule/internal/repository"
	"alcyxob/fitness-schedule/internal/storage"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxRangeDays bounds schedule listings.
const MaxRangeDays = 92

// NewEntryInput describes a single item a user adds to their schedule by hand.
type NewEntryInput struct {
	Category domain.Category
	ItemRef  primitive.ObjectID
	Subtype  string
	Date     string
	Time     string
	Note     string
}

// ScheduleService manages a user's own schedule entries.
type ScheduleService interface {
	ListRange(ctx context.Context, userID primitive.ObjectID, from, to domain.Date) ([]domain.ScheduleEntry, error)
	GetDay(ctx context.Context, userID primitive.ObjectID, date domain.Date) ([]domain.ScheduleItem, error)
	GetEntry(ctx context.Context, userID, entryID primitive.ObjectID) (*domain.ScheduleEntry, error)
	AddEntry(ctx context.Context, userID primitive.ObjectID, in NewEntryInput) (*domain.ScheduleEntry, error)
	UpdateStatus(ctx context.Context, userID, entryID primitive.ObjectID, status domain.EntryStatus) error
	RemoveEntry(ctx context.Context, userID, entryID primitive.ObjectID) error
	ClearDay(ctx context.Context, userID primitive.ObjectID, date domain.Date) (int64, error)
}

type scheduleService struct {
	schedules repository.ScheduleRepository
	items     repository.ItemRepository
	media     storage.MediaStorage
	loc       *time.Location
}

func NewScheduleService(
	schedules repository.ScheduleRepository,
	items repository.ItemRepository,
	media storage.MediaStorage,
	loc *time.Location,
) ScheduleService {
	return &scheduleService{
		schedules: schedules,
		items:     items,
		media:     media,
		loc:       loc,
	}
}

func (s *scheduleService) ListRange(ctx context.Context, userID primitive.ObjectID, from, to domain.Date) ([]domain.ScheduleEntry, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: range end %s is before start %s", ErrInvalidArgument, to, from)
	}
	if from.DaysUntil(to) >= MaxRangeDays {
		return nil, fmt.Errorf("%w: range exceeds %d days", ErrInvalidArgument, MaxRangeDays)
	}
	entries, err := s.schedules.FindInRange(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: list schedule: %v", ErrDependencyFailure, err)
	}
	return entries, nil
}

// GetDay returns one day's entries joined with catalogue names and image links.
// Entries whose item has disappeared from the catalogue are still returned.
func (s *scheduleService) GetDay(ctx context.Context, userID primitive.ObjectID, date domain.Date) ([]domain.ScheduleItem, error) {
	entries, err := s.schedules.FindInRange(ctx, userID, date, date)
	if err != nil {
		return nil, fmt.Errorf("%w: load day: %v", ErrDependencyFailure, err)
	}

	refs := map[domain.Category][]primitive.ObjectID{}
	for _, e := range entries {
		refs[e.Category] = append(refs[e.Category], e.ItemRef)
	}

	catalogue := map[primitive.ObjectID]domain.Item{}
	for category, ids := range refs {
		if !category.Valid() {
			continue
		}
		items, err := s.items.GetByIDs(ctx, category, ids)
		if err != nil {
			return nil, fmt.Errorf("%w: load items: %v", ErrDependencyFailure, err)
		}
		for _, it := range items {
			catalogue[it.ID] = it
		}
	}

	out := make([]domain.ScheduleItem, 0, len(entries))
	for _, e := range entries {
		view := domain.ScheduleItem{ScheduleEntry: e}
		if it, ok := catalogue[e.ItemRef]; ok {
			view.ItemName = it.Name
			if it.ImageKey != "" {
				url, err := s.media.GeneratePresignedDownloadURL(ctx, it.ImageKey, 0)
				if err != nil {
					slog.WarnContext(ctx, "failed to presign item image",
						slog.String("item_id", it.ID.Hex()),
						slog.String("error", err.Error()),
					)
				}
				view.ImageURL = url
			}
		}
		out = append(out, view)
	}
	return out, nil
}

// GetEntry hides entries owned by other users behind ErrEntryNotFound.
func (s *scheduleService) GetEntry(ctx context.Context, userID, entryID primitive.ObjectID) (*domain.ScheduleEntry, error) {
	entry, err := s.schedules.GetByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("%w: get entry: %v", ErrDependencyFailure, err)
	}
	if entry.UserID != userID {
		return nil, ErrEntryNotFound
	}
	return entry, nil
}

func (s *scheduleService) AddEntry(ctx context.Context, userID primitive.ObjectID, in NewEntryInput) (*domain.ScheduleEntry, error) {
	if !in.Category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidArgument, in.Category)
	}
	if in.ItemRef.IsZero() {
		return nil, fmt.Errorf("%w: itemRef is required", ErrInvalidArgument)
	}
	date, err := domain.ParseDate(in.Date, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: date: %v", ErrInvalidArgument, err)
	}

	var slot domain.MealSlot
	switch in.Category {
	case domain.CategoryMeal:
		slot, err = domain.ParseMealSlot(in.Subtype)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
	case domain.CategoryTraining:
		if in.Subtype != "" {
			return nil, fmt.Errorf("%w: training entries take no subtype", ErrInvalidArgument)
		}
	}

	items, err := s.items.GetByIDs(ctx, in.Category, []primitive.ObjectID{in.ItemRef})
	if err != nil {
		return nil, fmt.Errorf("%w: load item: %v", ErrDependencyFailure, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: unknown %s item %s", ErrInvalidArgument, in.Category, in.ItemRef.Hex())
	}

	entry := &domain.ScheduleEntry{
		UserID:   userID,
		Category: in.Category,
		ItemRef:  in.ItemRef,
		Subtype:  slot,
		Date:     date,
		Time:     in.Time,
		Note:     in.Note,
		Status:   domain.StatusPending,
	}

	if _, err := s.schedules.FindByIdentity(ctx, entry.Key()); err == nil {
		return nil, ErrEntryExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: check existing: %v", ErrDependencyFailure, err)
	}

	id, err := s.schedules.Insert(ctx, entry)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEntryExists
		}
		return nil, fmt.Errorf("%w: insert entry: %v", ErrDependencyFailure, err)
	}
	entry.ID = id
	return entry, nil
}

func (s *scheduleService) UpdateStatus(ctx context.Context, userID, entryID primitive.ObjectID, status domain.EntryStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, status)
	}
	if err := s.schedules.UpdateStatus(ctx, entryID, userID, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrEntryNotFound
		}
		return fmt.Errorf("%w: update status: %v", ErrDependencyFailure, err)
	}
	return nil
}

func (s *scheduleService) RemoveEntry(ctx context.Context, userID, entryID primitive.ObjectID) error {
	if err := s.schedules.Delete(ctx, entryID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrEntryNotFound
		}
		return fmt.Errorf("%w: delete entry: %v", ErrDependencyFailure, err)
	}
	return nil
}

func (s *scheduleService) ClearDay(ctx context.Context, userID primitive.ObjectID, date domain.Date) (int64, error) {
	deleted, err := s.schedules.DeleteInRange(ctx, userID, date, date)
	if err != nil {
		return 0, fmt.Errorf("%w: clear day: %v", ErrDependencyFailure, err)
	}
	return deleted, nil
}
