package mongo

import (
	"alcyxob/fitness-schedule/internal/domain"
	"alcyxob/fitness-schedule/internal/repository"
	"alcyxob/fitness-schedule/internal/testutil"
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newEntry(userID, itemRef primitive.ObjectID, date string, slot domain.MealSlot) domain.ScheduleEntry {
	return domain.ScheduleEntry{
		UserID:   userID,
		ItemRef:  itemRef,
		Category: domain.CategoryMeal,
		Subtype:  slot,
		Date:     domain.MustParseDate(date),
	}
}

func TestScheduleRepositoryInsertManySkipsDuplicates(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	db, cleanup := testutil.SetupMongoContainer(ctx, t)
	defer cleanup()

	EnsureScheduleIndexes(ctx, db.Collection(scheduleCollectionName))
	repo := NewMongoScheduleRepository(db)

	user := primitive.NewObjectID()
	item := primitive.NewObjectID()

	first := []domain.ScheduleEntry{
		newEntry(user, item, "2025-01-06", domain.SlotBreakfast),
		newEntry(user, item, "2025-01-07", domain.SlotBreakfast),
	}
	inserted, err := repo.InsertMany(ctx, first)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inserted != 2 {
		t.Fatalf("expected 2 inserted, got %d", inserted)
	}

	second := []domain.ScheduleEntry{
		newEntry(user, item, "2025-01-07", domain.SlotBreakfast),
		newEntry(user, item, "2025-01-07", domain.SlotLunch),
		newEntry(user, item, "2025-01-08", domain.SlotBreakfast),
	}
	inserted, err = repo.InsertMany(ctx, second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inserted != 2 {
		t.Errorf("expected 2 inserted, got %d", inserted)
	}

	count, err := db.Collection(scheduleCollectionName).CountDocuments(ctx, bson.M{"userId": user})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 4 {
		t.Errorf("expected 4 documents, got %d", count)
	}
}

func TestScheduleRepositoryRangeQueries(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	db, cleanup := testutil.SetupMongoContainer(ctx, t)
	defer cleanup()

	EnsureScheduleIndexes(ctx, db.Collection(scheduleCollectionName))
	repo := NewMongoScheduleRepository(db)

	user := primitive.NewObjectID()
	other := primitive.NewObjectID()
	item := primitive.NewObjectID()

	entries := []domain.ScheduleEntry{
		newEntry(user, item, "2025-01-31", domain.SlotDinner),
		newEntry(user, item, "2025-02-01", domain.SlotDinner),
		newEntry(user, item, "2025-02-15", domain.SlotDinner),
		newEntry(user, item, "2025-03-02", domain.SlotDinner),
		newEntry(user, item, "2025-03-03", domain.SlotDinner),
		newEntry(other, item, "2025-02-10", domain.SlotDinner),
	}
	if _, err := repo.InsertMany(ctx, entries); err != nil {
		t.Fatalf("seed: %v", err)
	}

	from, to := domain.MustParseDate("2025-02-01"), domain.MustParseDate("2025-03-02")

	found, err := repo.FindInRange(ctx, user, from, to)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(found) != 3 {
		t.Fatalf("expected 3 entries in range, got %d", len(found))
	}
	if found[0].Date != from || found[2].Date != to {
		t.Errorf("range bounds not inclusive or unsorted: %v .. %v", found[0].Date, found[2].Date)
	}

	deleted, err := repo.DeleteInRange(ctx, user, from, to)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted != 3 {
		t.Errorf("expected 3 deleted, got %d", deleted)
	}

	remaining, err := repo.FindInRange(ctx, other, from, to)
	if err != nil {
		t.Fatalf("find other: %v", err)
	}
	if len(remaining) != 1 {
		t.Errorf("other user's entries must survive, got %d", len(remaining))
	}
}

func TestScheduleRepositoryRangeIncludesDatetimeRecords(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	db, cleanup := testutil.SetupMongoContainer(ctx, t)
	defer cleanup()

	repo := NewMongoScheduleRepository(db)
	user := primitive.NewObjectID()
	item := primitive.NewObjectID()

	old := []interface{}{
		bson.M{"userId": user, "itemRef": item, "category": "meal", "subtype": "lunch", "status": "pending",
			"date": time.Date(2025, 1, 6, 23, 30, 0, 0, time.UTC)},
		bson.M{"userId": user, "itemRef": item, "category": "meal", "subtype": "lunch", "status": "pending",
			"date": time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)},
	}
	if _, err := db.Collection(scheduleCollectionName).InsertMany(ctx, old); err != nil {
		t.Fatalf("seed datetime records: %v", err)
	}
	if _, err := repo.InsertMany(ctx, []domain.ScheduleEntry{newEntry(user, item, "2025-01-08", domain.SlotDinner)}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	from, to := domain.MustParseDate("2025-01-06"), domain.MustParseDate("2025-01-12")

	found, err := repo.FindInRange(ctx, user, from, to)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("expected 2 entries in range, got %d", len(found))
	}
	if found[0].Date.String() != "2025-01-06" || found[1].Date.String() != "2025-01-08" {
		t.Errorf("unexpected order: %v, %v", found[0].Date, found[1].Date)
	}

	deleted, err := repo.DeleteInRange(ctx, user, from, to)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted != 2 {
		t.Errorf("expected 2 deleted, got %d", deleted)
	}

	count, err := db.Collection(scheduleCollectionName).CountDocuments(ctx, bson.M{"userId": user})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("the record after the range must survive, got %d documents", count)
	}
}

func TestScheduleRepositorySingleEntryLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	db, cleanup := testutil.SetupMongoContainer(ctx, t)
	defer cleanup()

	EnsureScheduleIndexes(ctx, db.Collection(scheduleCollectionName))
	repo := NewMongoScheduleRepository(db)

	user := primitive.NewObjectID()
	entry := newEntry(user, primitive.NewObjectID(), "2025-05-05", "")
	entry.Category = domain.CategoryTraining

	id, err := repo.Insert(ctx, &entry)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	dup := entry
	dup.ID = primitive.NilObjectID
	if _, err := repo.Insert(ctx, &dup); !errors.Is(err, repository.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}

	got, err := repo.FindByIdentity(ctx, entry.Key())
	if err != nil {
		t.Fatalf("find by identity: %v", err)
	}
	if got.ID != id || got.Status != domain.StatusPending {
		t.Errorf("unexpected entry %+v", got)
	}

	if err := repo.UpdateStatus(ctx, id, primitive.NewObjectID(), domain.StatusDone); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign user, got %v", err)
	}
	if err := repo.UpdateStatus(ctx, id, user, domain.StatusDone); err != nil {
		t.Fatalf("update status: %v", err)
	}
	got, err = repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.StatusDone {
		t.Errorf("expected done, got %s", got.Status)
	}

	if err := repo.Delete(ctx, id, user); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, id); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}
