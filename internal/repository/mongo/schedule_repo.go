package mongo

import (
	"alcyxob/fitness-schedule/internal/domain"
	"alcyxob/fitness-schedule/internal/repository"
	"context"
	"errors"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const scheduleCollectionName = "schedules"

// duplicate key error codes reported by mongod
var duplicateKeyCodes = map[int]struct{}{11000: {}, 11001: {}, 12582: {}}

// mongoScheduleRepository implements repository.ScheduleRepository
type mongoScheduleRepository struct {
	collection *mongo.Collection
}

// NewMongoScheduleRepository creates a new schedule repository.
func NewMongoScheduleRepository(db *mongo.Database) repository.ScheduleRepository {
	return &mongoScheduleRepository{
		collection: db.Collection(scheduleCollectionName),
	}
}

// Dates are stored as "YYYY-MM-DD" strings so lexical range filters are date order.
// Older records hold a BSON datetime instead; those are matched by the UTC
// instants of the same calendar days, the zone Date decodes them in.
func rangeFilter(userID primitive.ObjectID, from, to domain.Date) bson.M {
	return bson.M{
		"userId": userID,
		"$or": bson.A{
			bson.M{"date": bson.M{"$gte": from, "$lte": to}},
			bson.M{"date": bson.M{"$gte": from.In(time.UTC), "$lt": to.AddDays(1).In(time.UTC)}},
		},
	}
}

func (r *mongoScheduleRepository) FindInRange(ctx context.Context, userID primitive.ObjectID, from, to domain.Date) ([]domain.ScheduleEntry, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "time", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, rangeFilter(userID, from, to), findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	entries := []domain.ScheduleEntry{}
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	// mongo sorts strings before datetimes
	slices.SortStableFunc(entries, func(a, b domain.ScheduleEntry) int {
		return a.Date.Compare(b.Date)
	})
	return entries, nil
}

func (r *mongoScheduleRepository) FindByIdentity(ctx context.Context, key domain.IdentityKey) (*domain.ScheduleEntry, error) {
	filter := bson.M{
		"userId":  key.UserID,
		"itemRef": key.ItemRef,
		"date":    key.Date,
		"subtype": key.Subtype,
	}
	var entry domain.ScheduleEntry
	if err := r.collection.FindOne(ctx, filter).Decode(&entry); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func (r *mongoScheduleRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ScheduleEntry, error) {
	var entry domain.ScheduleEntry
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&entry); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func (r *mongoScheduleRepository) DeleteInRange(ctx context.Context, userID primitive.ObjectID, from, to domain.Date) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, rangeFilter(userID, from, to))
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// InsertMany performs an unordered bulk insert. Documents rejected by the
// unique identity index are not counted and do not fail the call.
func (r *mongoScheduleRepository) InsertMany(ctx context.Context, entries []domain.ScheduleEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	docs := make([]interface{}, len(entries))
	for i := range entries {
		prepareEntry(&entries[i], now)
		docs[i] = entries[i]
	}

	result, err := r.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err == nil {
		return len(result.InsertedIDs), nil
	}

	var bulkErr mongo.BulkWriteException
	if errors.As(err, &bulkErr) && bulkErr.WriteConcernError == nil && onlyDuplicateKeys(bulkErr.WriteErrors) {
		return len(entries) - len(bulkErr.WriteErrors), nil
	}
	return 0, err
}

func onlyDuplicateKeys(writeErrors []mongo.BulkWriteError) bool {
	if len(writeErrors) == 0 {
		return false
	}
	for _, we := range writeErrors {
		if _, ok := duplicateKeyCodes[we.Code]; !ok {
			return false
		}
	}
	return true
}

func (r *mongoScheduleRepository) Insert(ctx context.Context, entry *domain.ScheduleEntry) (primitive.ObjectID, error) {
	prepareEntry(entry, time.Now().UTC())

	result, err := r.collection.InsertOne(ctx, entry)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted schedule ID")
	}
	return insertedID, nil
}

func prepareEntry(entry *domain.ScheduleEntry, now time.Time) {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	if entry.Status == "" {
		entry.Status = domain.StatusPending
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now
}

func (r *mongoScheduleRepository) UpdateStatus(ctx context.Context, id, userID primitive.ObjectID, status domain.EntryStatus) error {
	update := bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now().UTC()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id, "userId": userID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes an entry only if it belongs to userID.
func (r *mongoScheduleRepository) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureScheduleIndexes creates necessary indexes. Call during startup.
func EnsureScheduleIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "userId", Value: 1},
				{Key: "itemRef", Value: 1},
				{Key: "date", Value: 1},
				{Key: "subtype", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("schedule_identity"),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index(),
		},
	})
}
