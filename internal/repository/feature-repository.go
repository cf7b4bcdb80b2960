package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bigdady147/Eddy-Hub/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type FeatureRepository struct {
	collection *mongo.Collection
}

func NewFeatureRepository(db *mongo.Database) *FeatureRepository {
	return &FeatureRepository{
		collection: db.Collection("Feature"),
	}
}

// EnsureIndexes creates the unique index on the feature key. Safe to call on
// every start.
func (r *FeatureRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create feature key index: %w", err)
	}
	return nil
}

func (r *FeatureRepository) New(ctx context.Context, feature *models.Feature) (*models.Feature, error) {
	if feature.ID.IsZero() {
		feature.ID = bson.NewObjectID()
	}

	currentTime := int(time.Now().Unix())
	if feature.CreatedAt == 0 {
		feature.CreatedAt = currentTime
	}
	feature.UpdatedAt = currentTime

	_, err := r.collection.InsertOne(ctx, feature)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("failed to insert feature: %w", err)
	}
	return feature, nil
}

func (r *FeatureRepository) FindByID(ctx context.Context, id bson.ObjectID) (*models.Feature, error) {
	var feature models.Feature
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&feature)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &feature, nil
}

func (r *FeatureRepository) FindByKey(ctx context.Context, key string) (*models.Feature, error) {
	var feature models.Feature
	err := r.collection.FindOne(ctx, bson.M{"key": key}).Decode(&feature)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &feature, nil
}

// FindActive lists the catalog in creation order.
func (r *FeatureRepository) FindActive(ctx context.Context) ([]*models.Feature, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"isActive": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var features []*models.Feature
	if err = cursor.All(ctx, &features); err != nil {
		return nil, err
	}
	return features, nil
}
