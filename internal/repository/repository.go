package repository

//go:generate mockgen -source=repository.go -destination=repository_mock.go -package=repository

import (
	"alcyxob/fitness-schedule/internal/domain"
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicate    = RepositoryError("duplicate key")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// PlanFilter narrows plan listings. Zero fields do not filter.
type PlanFilter struct {
	Type       domain.PlanType
	Category   domain.Category
	Goal       string
	Level      string
	ActiveOnly bool
}

// PlanRepository defines the interface for interacting with plan templates.
type PlanRepository interface {
	Create(ctx context.Context, plan *domain.Plan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Plan, error)
	// GetActiveByID returns ErrNotFound for inactive plans too.
	GetActiveByID(ctx context.Context, id primitive.ObjectID) (*domain.Plan, error)
	List(ctx context.Context, filter PlanFilter) ([]domain.Plan, error)
	Update(ctx context.Context, plan *domain.Plan) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ScheduleRepository defines the interface for a user's dated schedule entries.
// Date ranges are inclusive on both ends.
type ScheduleRepository interface {
	FindInRange(ctx context.Context, userID primitive.ObjectID, from, to domain.Date) ([]domain.ScheduleEntry, error)
	FindByIdentity(ctx context.Context, key domain.IdentityKey) (*domain.ScheduleEntry, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ScheduleEntry, error)
	DeleteInRange(ctx context.Context, userID primitive.ObjectID, from, to domain.Date) (int64, error)
	// InsertMany writes entries, skipping any whose identity key already
	// exists, and reports how many were written.
	InsertMany(ctx context.Context, entries []domain.ScheduleEntry) (int, error)
	// Insert returns ErrDuplicate when the identity key already exists.
	Insert(ctx context.Context, entry *domain.ScheduleEntry) (primitive.ObjectID, error)
	UpdateStatus(ctx context.Context, id, userID primitive.ObjectID, status domain.EntryStatus) error
	Delete(ctx context.Context, id, userID primitive.ObjectID) error
}

// ItemRepository reads the training and meal catalogues.
type ItemRepository interface {
	GetByIDs(ctx context.Context, category domain.Category, ids []primitive.ObjectID) ([]domain.Item, error)
}

// TxRunner runs fn atomically where the backing store allows it.
type TxRunner interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
