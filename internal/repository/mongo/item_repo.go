package mongo

import (
	"alcyxob/fitness-schedule/internal/domain"
	"alcyxob/fitness-schedule/internal/repository"
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	trainingCollectionName = "trainings"
	mealCollectionName     = "meals"
)

// mongoItemRepository reads the catalogue collections, one per category.
type mongoItemRepository struct {
	collections map[domain.Category]*mongo.Collection
}

// NewMongoItemRepository creates a new catalogue repository.
func NewMongoItemRepository(db *mongo.Database) repository.ItemRepository {
	return &mongoItemRepository{
		collections: map[domain.Category]*mongo.Collection{
			domain.CategoryTraining: db.Collection(trainingCollectionName),
			domain.CategoryMeal:     db.Collection(mealCollectionName),
		},
	}
}

// GetByIDs returns the items that exist among ids. Missing ids are simply absent.
func (r *mongoItemRepository) GetByIDs(ctx context.Context, category domain.Category, ids []primitive.ObjectID) ([]domain.Item, error) {
	collection, ok := r.collections[category]
	if !ok {
		return nil, fmt.Errorf("unknown item category %q", category)
	}
	if len(ids) == 0 {
		return []domain.Item{}, nil
	}

	cursor, err := collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := []domain.Item{}
	if err = cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Category = category
	}
	return items, nil
}
