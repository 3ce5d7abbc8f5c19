package service

import (
	"alcyxob/fitness-schedule/internal/domain"
	"alcyxob/fitness-schedule/internal/repository"
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanService manages the plan catalogue.
type PlanService interface {
	ListPlans(ctx context.Context, filter repository.PlanFilter) ([]domain.Plan, error)
	GetPlan(ctx context.Context, id primitive.ObjectID) (*domain.Plan, error)
	CreatePlan(ctx context.Context, plan *domain.Plan) (*domain.Plan, error)
	UpdatePlan(ctx context.Context, plan *domain.Plan) (*domain.Plan, error)
	DeletePlan(ctx context.Context, id primitive.ObjectID) error
}

type planService struct {
	plans repository.PlanRepository
	items repository.ItemRepository
}

func NewPlanService(plans repository.PlanRepository, items repository.ItemRepository) PlanService {
	return &planService{plans: plans, items: items}
}

func (s *planService) ListPlans(ctx context.Context, filter repository.PlanFilter) ([]domain.Plan, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown plan type %q", ErrInvalidArgument, filter.Type)
	}
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidArgument, filter.Category)
	}
	plans, err := s.plans.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: list plans: %v", ErrDependencyFailure, err)
	}
	return plans, nil
}

func (s *planService) GetPlan(ctx context.Context, id primitive.ObjectID) (*domain.Plan, error) {
	plan, err := s.plans.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("%w: get plan: %v", ErrDependencyFailure, err)
	}
	return plan, nil
}

func (s *planService) CreatePlan(ctx context.Context, plan *domain.Plan) (*domain.Plan, error) {
	if err := s.prepare(ctx, plan); err != nil {
		return nil, err
	}

	id, err := s.plans.Create(ctx, plan)
	if err != nil {
		return nil, fmt.Errorf("%w: create plan: %v", ErrDependencyFailure, err)
	}
	plan.ID = id
	return plan, nil
}

func (s *planService) UpdatePlan(ctx context.Context, plan *domain.Plan) (*domain.Plan, error) {
	if plan.ID.IsZero() {
		return nil, fmt.Errorf("%w: plan id is required", ErrInvalidArgument)
	}
	if err := s.prepare(ctx, plan); err != nil {
		return nil, err
	}

	if err := s.plans.Update(ctx, plan); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("%w: update plan: %v", ErrDependencyFailure, err)
	}
	return s.GetPlan(ctx, plan.ID)
}

func (s *planService) DeletePlan(ctx context.Context, id primitive.ObjectID) error {
	if err := s.plans.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPlanNotFound
		}
		return fmt.Errorf("%w: delete plan: %v", ErrDependencyFailure, err)
	}
	return nil
}

// prepare canonicalizes aliases, validates the plan and checks that every
// referenced catalogue item exists.
func (s *planService) prepare(ctx context.Context, plan *domain.Plan) error {
	plan.Name = strings.TrimSpace(plan.Name)
	for i := range plan.Entries {
		e := &plan.Entries[i]
		if e.DayOfWeek != "" {
			wd, err := domain.ParseWeekday(string(e.DayOfWeek))
			if err != nil {
				return fmt.Errorf("%w: entry %d: %v", ErrInvalidArgument, i, err)
			}
			e.DayOfWeek = wd
		}
		if e.Subtype != "" {
			slot, err := domain.ParseMealSlot(string(e.Subtype))
			if err != nil {
				return fmt.Errorf("%w: entry %d: %v", ErrInvalidArgument, i, err)
			}
			e.Subtype = slot
		}
	}
	if err := plan.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	return s.ensureItemsExist(ctx, plan.Category, plan.ItemRefs())
}

func (s *planService) ensureItemsExist(ctx context.Context, category domain.Category, refs []primitive.ObjectID) error {
	items, err := s.items.GetByIDs(ctx, category, refs)
	if err != nil {
		return fmt.Errorf("%w: load items: %v", ErrDependencyFailure, err)
	}
	found := make(map[primitive.ObjectID]struct{}, len(items))
	for _, it := range items {
		found[it.ID] = struct{}{}
	}

	var missing []string
	for _, ref := range refs {
		if _, ok := found[ref]; !ok {
			missing = append(missing, ref.Hex())
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: unknown %s items: %s", ErrInvalidArgument, category, strings.Join(missing, ", "))
	}
	return nil
}
