package service

import (
	"alcyxob/fitness-schedule/internal/domain"
	"alcyxob/fitness-schedule/internal/lock"
	"alcyxob/fitness-schedule/internal/repository"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/mock/gomock"
)

type applyFixture struct {
	svc       *applyService
	plans     *repository.MockPlanRepository
	schedules *memSchedules
}

func newApplyFixture(t *testing.T, loc *time.Location) *applyFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	plans := repository.NewMockPlanRepository(ctrl)
	schedules := &memSchedules{}

	svc := NewApplyService(plans, schedules, directTx{}, lock.NewNoopLocker(), nil, loc).(*applyService)
	svc.now = func() time.Time { return time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC) }

	return &applyFixture{svc: svc, plans: plans, schedules: schedules}
}

func (f *applyFixture) expectPlan(plan *domain.Plan) {
	f.plans.EXPECT().GetActiveByID(gomock.Any(), plan.ID).Return(plan, nil).AnyTimes()
}

func dailyMealPlan(refs ...primitive.ObjectID) *domain.Plan {
	slots := []domain.MealSlot{domain.SlotBreakfast, domain.SlotLunch, domain.SlotDinner, domain.SlotSnack}
	entries := make([]domain.PlanEntry, 0, len(refs))
	for i, ref := range refs {
		entries = append(entries, domain.PlanEntry{ItemRef: ref, Subtype: slots[i%len(slots)]})
	}
	return &domain.Plan{
		ID:       primitive.NewObjectID(),
		Name:     "Clean eating",
		Type:     domain.PlanDaily,
		Category: domain.CategoryMeal,
		Entries:  entries,
		IsActive: true,
	}
}

func TestApplyPlan_WeeklyFromMonday(t *testing.T) {
	f := newApplyFixture(t, time.UTC)
	user := primitive.NewObjectID()
	ref := primitive.NewObjectID()
	plan := &domain.Plan{
		ID:       primitive.NewObjectID(),
		Name:     "Midweek",
		Type:     domain.PlanWeekly,
		Category: domain.CategoryTraining,
		Entries:  []domain.PlanEntry{{DayOfWeek: domain.Wednesday, ItemRef: ref, Time: "07:00"}},
		IsActive: true,
	}
	f.expectPlan(plan)

	res, err := f.svc.ApplyPlan(context.Background(), user, plan.ID.Hex(), "2025-01-06", false)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, 0, res.Skipped)
	assert.Equal(t, "2025-01-06", res.StartDate.String())
	assert.Equal(t, "2025-01-12", res.EndDate.String())

	stored := f.schedules.all()
	require.Len(t, stored, 1)
	assert.Equal(t, "2025-01-08", stored[0].Date.String())
	assert.Equal(t, user, stored[0].UserID)
	assert.Equal(t, ref, stored[0].ItemRef)
	assert.Equal(t, domain.StatusPending, stored[0].Status)
	assert.Equal(t, "07:00", stored[0].Time)
	require.NotNil(t, stored[0].PlanID)
	assert.Equal(t, plan.ID, *stored[0].PlanID)
}

func TestApplyPlan_MonthlyCrossesMonthEnd(t *testing.T) {
	f := newApplyFixture(t, time.UTC)
	ref := primitive.NewObjectID()
	plan := &domain.Plan{
		ID:       primitive.NewObjectID(),
		Name:     "Thirty days",
		Type:     domain.PlanMonthly,
		Category: domain.CategoryTraining,
		Entries:  []domain.PlanEntry{{DayNumber: 1, ItemRef: ref}, {DayNumber: 30, ItemRef: ref}},
		IsActive: true,
	}
	f.expectPlan(plan)

	res, err := f.svc.ApplyPlan(context.Background(), primitive.NewObjectID(), plan.ID.Hex(), "2025-02-01", false)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, "2025-03-02", res.EndDate.String())

	var dates []string
	for _, e := range f.schedules.all() {
		dates = append(dates, e.Date.String())
	}
	assert.ElementsMatch(t, []string{"2025-02-01", "2025-03-02"}, dates)
}

func TestApplyPlan_SkipModeIsIdempotent(t *testing.T) {
	f := newApplyFixture(t, time.UTC)
	user := primitive.NewObjectID()
	plan := dailyMealPlan(primitive.NewObjectID(), primitive.NewObjectID())
	f.expectPlan(plan)

	first, err := f.svc.ApplyPlan(context.Background(), user, plan.ID.Hex(), "2025-01-10", false)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Inserted)
	assert.Equal(t, 0, first.Skipped)

	second, err := f.svc.ApplyPlan(context.Background(), user, plan.ID.Hex(), "2025-01-10", false)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 2, second.Total)
	assert.Equal(t, 2, second.Skipped)
	assert.Len(t, f.schedules.all(), 2)
}

func TestApplyPlan_ReplaceModeIsIdempotent(t *testing.T) {
	f := newApplyFixture(t, time.UTC)
	user := primitive.NewObjectID()
	plan := dailyMealPlan(primitive.NewObjectID(), primitive.NewObjectID())
	f.expectPlan(plan)

	for i := 0; i < 2; i++ {
		res, err := f.svc.ApplyPlan(context.Background(), user, plan.ID.Hex(), "2025-01-10", true)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Inserted)
		assert.Equal(t, 0, res.Skipped)
	}
	assert.Len(t, f.schedules.all(), 2)
}

func TestApplyPlan_ReplaceOnlyTouchesSpanAndUser(t *testing.T) {
	f := newApplyFixture(t, time.UTC)
	user := primitive.NewObjectID()
	other := primitive.NewObjectID()
	plan := dailyMealPlan(primitive.NewObjectID())
	f.expectPlan(plan)

	seed := []domain.ScheduleEntry{
		{UserID: user, ItemRef: primitive.NewObjectID(), Category: domain.CategoryTraining, Date: domain.MustParseDate("2025-01-10")},
		{UserID: user, ItemRef: primitive.NewObjectID(), Category: domain.CategoryTraining, Date: domain.MustParseDate("2025-01-11")},
		{UserID: other, ItemRef: primitive.NewObjectID(), Category: domain.CategoryTraining, Date: domain.MustParseDate("2025-01-10")},
	}
	_, err := f.schedules.InsertMany(context.Background(), seed)
	require.NoError(t, err)

	res, err := f.svc.ApplyPlan(context.Background(), user, plan.ID.Hex(), "2025-01-10", true)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)

	mine, _ := f.schedules.FindInRange(context.Background(), user, domain.MustParseDate("2025-01-01"), domain.MustParseDate("2025-01-31"))
	require.Len(t, mine, 2)
	theirs, _ := f.schedules.FindInRange(context.Background(), other, domain.MustParseDate("2025-01-10"), domain.MustParseDate("2025-01-10"))
	assert.Len(t, theirs, 1)

	for _, e := range mine {
		if e.Date.String() == "2025-01-10" {
			assert.Equal(t, plan.Entries[0].ItemRef, e.ItemRef)
		}
	}
}

func TestApplyPlan_SkipModeKeepsExistingEntries(t *testing.T) {
	f := newApplyFixture(t, time.UTC)
	user := primitive.NewObjectID()
	ref := primitive.NewObjectID()
	plan := dailyMealPlan(ref, primitive.NewObjectID())
	f.expectPlan(plan)

	_, err := f.schedules.Insert(context.Background(), &domain.ScheduleEntry{
		UserID:   user,
		Category: domain.CategoryMeal,
		ItemRef:  ref,
		Subtype:  domain.SlotBreakfast,
		Date:     domain.MustParseDate("2025-01-10"),
		Status:   domain.StatusDone,
	})
	require.NoError(t, err)

	res, err := f.svc.ApplyPlan(context.Background(), user, plan.ID.Hex(), "2025-01-10", false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 1, res.Skipped)

	existing, err := f.schedules.FindByIdentity(context.Background(), domain.IdentityKey{
		UserID: user, ItemRef: ref, Date: domain.MustParseDate("2025-01-10"), Subtype: domain.SlotBreakfast,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, existing.Status)
}

func TestApplyPlan_InBatchDuplicatesCountAsSkipped(t *testing.T) {
	f := newApplyFixture(t, time.UTC)
	ref := primitive.NewObjectID()
	plan := &domain.Plan{
		ID:       primitive.NewObjectID(),
		Name:     "Double breakfast",
		Type:     domain.PlanDaily,
		Category: domain.CategoryMeal,
		Entries: []domain.PlanEntry{
			{ItemRef: ref, Subtype: domain.SlotBreakfast, Time: "07:00"},
			{ItemRef: ref, Subtype: domain.SlotBreakfast, Time: "08:00"},
		},
		IsActive: true,
	}
	f.expectPlan(plan)

	for _, replace := range []bool{true, false} {
		f.schedules.entries = nil
		res, err := f.svc.ApplyPlan(context.Background(), primitive.NewObjectID(), plan.ID.Hex(), "2025-01-10", replace)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Inserted)
		assert.Equal(t, 2, res.Total)
		assert.Equal(t, 1, res.Skipped)

		stored := f.schedules.all()
		require.Len(t, stored, 1)
		assert.Equal(t, "07:00", stored[0].Time, "first occurrence wins")
	}
}

func TestApplyPlan_InvalidEntriesAreNotCounted(t *testing.T) {
	f := newApplyFixture(t, time.UTC)
	ref := primitive.NewObjectID()
	plan := &domain.Plan{
		ID:       primitive.NewObjectID(),
		Name:     "Sloppy",
		Type:     domain.PlanMonthly,
		Category: domain.CategoryTraining,
		Entries:  []domain.PlanEntry{{DayNumber: 1, ItemRef: ref}, {DayNumber: 45, ItemRef: ref}},
		IsActive: true,
	}
	f.expectPlan(plan)

	res, err := f.svc.ApplyPlan(context.Background(), primitive.NewObjectID(), plan.ID.Hex(), "2025-01-10", false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, 0, res.Skipped)
}

func TestApplyPlan_TimestampStartUsesConfiguredZone(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	require.NoError(t, err)
	f := newApplyFixture(t, loc)
	plan := dailyMealPlan(primitive.NewObjectID())
	f.expectPlan(plan)

	res, err := f.svc.ApplyPlan(context.Background(), primitive.NewObjectID(), plan.ID.Hex(), "2025-01-05T20:00:00Z", false)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-06", res.StartDate.String())

	res, err = f.svc.ApplyPlan(context.Background(), primitive.NewObjectID(), plan.ID.Hex(), "2025-01-05", false)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-05", res.StartDate.String())
}

func TestApplyPlan_InputErrors(t *testing.T) {
	tests := []struct {
		name      string
		user      primitive.ObjectID
		planID    string
		startDate string
	}{
		{"missing user", primitive.NilObjectID, primitive.NewObjectID().Hex(), "2025-01-06"},
		{"missing plan id", primitive.NewObjectID(), "", "2025-01-06"},
		{"malformed plan id", primitive.NewObjectID(), "not-an-id", "2025-01-06"},
		{"missing start date", primitive.NewObjectID(), primitive.NewObjectID().Hex(), ""},
		{"malformed start date", primitive.NewObjectID(), primitive.NewObjectID().Hex(), "next tuesday"},
		{"impossible start date", primitive.NewObjectID(), primitive.NewObjectID().Hex(), "2025-02-30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// No plan lookup is expected; gomock fails the test on any call.
			f := newApplyFixture(t, time.UTC)
			_, err := f.svc.ApplyPlan(context.Background(), tt.user, tt.planID, tt.startDate, false)
			assert.ErrorIs(t, err, ErrInvalidArgument)
			assert.Empty(t, f.schedules.all())
		})
	}
}

func TestApplyPlan_PlanNotFound(t *testing.T) {
	f := newApplyFixture(t, time.UTC)
	f.plans.EXPECT().GetActiveByID(gomock.Any(), gomock.Any()).Return(nil, repository.ErrNotFound)

	_, err := f.svc.ApplyPlan(context.Background(), primitive.NewObjectID(), primitive.NewObjectID().Hex(), "2025-01-06", false)
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestApplyPlan_PlanLookupFailure(t *testing.T) {
	f := newApplyFixture(t, time.UTC)
	f.plans.EXPECT().GetActiveByID(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection reset"))

	_, err := f.svc.ApplyPlan(context.Background(), primitive.NewObjectID(), primitive.NewObjectID().Hex(), "2025-01-06", false)
	assert.ErrorIs(t, err, ErrDependencyFailure)
}

func TestApplyPlan_LockBusy(t *testing.T) {
	f := newApplyFixture(t, time.UTC)
	f.svc.locker = busyLocker{}
	plan := dailyMealPlan(primitive.NewObjectID())
	f.expectPlan(plan)

	_, err := f.svc.ApplyPlan(context.Background(), primitive.NewObjectID(), plan.ID.Hex(), "2025-01-06", false)
	assert.ErrorIs(t, err, ErrApplyInProgress)
	assert.Empty(t, f.schedules.all())
}

func TestApplyPlan_WriteFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	plans := repository.NewMockPlanRepository(ctrl)
	schedules := repository.NewMockScheduleRepository(ctrl)
	tx := repository.NewMockTxRunner(ctrl)

	plan := dailyMealPlan(primitive.NewObjectID())
	plans.EXPECT().GetActiveByID(gomock.Any(), plan.ID).Return(plan, nil).Times(2)

	svc := NewApplyService(plans, schedules, tx, lock.NewNoopLocker(), nil, time.UTC)

	t.Run("replace", func(t *testing.T) {
		tx.EXPECT().WithinTransaction(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, fn func(context.Context) error) error { return fn(ctx) })
		schedules.EXPECT().DeleteInRange(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(0), nil)
		schedules.EXPECT().InsertMany(gomock.Any(), gomock.Any()).Return(0, errors.New("write concern timeout"))

		_, err := svc.ApplyPlan(context.Background(), primitive.NewObjectID(), plan.ID.Hex(), "2025-01-06", true)
		assert.ErrorIs(t, err, ErrDependencyFailure)
	})

	t.Run("skip", func(t *testing.T) {
		schedules.EXPECT().FindInRange(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("cursor killed"))

		_, err := svc.ApplyPlan(context.Background(), primitive.NewObjectID(), plan.ID.Hex(), "2025-01-06", false)
		assert.ErrorIs(t, err, ErrDependencyFailure)
	})
}
