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

type RequestRepository struct {
	collection *mongo.Collection
}

func NewRequestRepository(db *mongo.Database) *RequestRepository {
	return &RequestRepository{
		collection: db.Collection("FeatureRequest"),
	}
}

func (r *RequestRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "featureId", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "requestedAt", Value: -1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "status", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create feature request indexes: %w", err)
	}
	return nil
}

func (r *RequestRepository) New(ctx context.Context, request *models.FeatureRequest) (*models.FeatureRequest, error) {
	if request.ID.IsZero() {
		request.ID = bson.NewObjectID()
	}
	if request.RequestedAt == 0 {
		request.RequestedAt = int(time.Now().Unix())
	}
	request.Status = models.RequestStatusPending

	_, err := r.collection.InsertOne(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("failed to insert feature request: %w", err)
	}
	return request, nil
}

func (r *RequestRepository) FindByID(ctx context.Context, id bson.ObjectID) (*models.FeatureRequest, error) {
	var request models.FeatureRequest
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&request)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

func (r *RequestRepository) FindPendingByUserAndFeature(ctx context.Context, userID, featureID bson.ObjectID) (*models.FeatureRequest, error) {
	var request models.FeatureRequest
	err := r.collection.FindOne(ctx, bson.M{
		"userId":    userID,
		"featureId": featureID,
		"status":    models.RequestStatusPending,
	}).Decode(&request)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

// FindByUserWithFeatures lists the user's requests newest first with the
// feature hydrated.
func (r *RequestRepository) FindByUserWithFeatures(ctx context.Context, userID bson.ObjectID) ([]*models.FeatureRequest, error) {
	pipeline := append(
		mongo.Pipeline{
			bson.D{{Key: "$match", Value: bson.M{"userId": userID}}},
		},
		requestLookupStages(false)...,
	)
	pipeline = append(pipeline, newestFirstStage())
	return r.aggregate(ctx, pipeline)
}

// Find lists requests for the admin surface: optional status filter,
// newest first, paginated, user and feature hydrated.
func (r *RequestRepository) Find(ctx context.Context, status string, page, limit int) ([]*models.FeatureRequest, error) {
	match := bson.M{}
	if status != "" {
		match["status"] = status
	}

	pipeline := append(
		mongo.Pipeline{
			bson.D{{Key: "$match", Value: match}},
		},
		requestLookupStages(true)...,
	)
	pipeline = append(pipeline, newestFirstStage())
	if page > 0 && limit > 0 {
		pipeline = append(pipeline,
			bson.D{{Key: "$skip", Value: int64((page - 1) * limit)}},
			bson.D{{Key: "$limit", Value: int64(limit)}},
		)
	}
	return r.aggregate(ctx, pipeline)
}

// DeleteOwnedPending removes the request only when it belongs to userID and
// is still pending, returning the removed document. The ownership and status
// checks live in the filter so a resolved or foreign request is never
// deleted, even under concurrent review.
func (r *RequestRepository) DeleteOwnedPending(ctx context.Context, id, userID bson.ObjectID) (*models.FeatureRequest, error) {
	filter := bson.M{
		"_id":    id,
		"userId": userID,
		"status": models.RequestStatusPending,
	}

	var request models.FeatureRequest
	err := r.collection.FindOneAndDelete(ctx, filter).Decode(&request)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to delete feature request: %w", err)
	}
	return &request, nil
}

// ResolveFromPending moves the request from pending to the given terminal
// status with a compare-and-swap on status: the pending precondition is in
// the filter, so two concurrent reviews can never both succeed. Returns nil
// when the request is absent or no longer pending.
func (r *RequestRepository) ResolveFromPending(ctx context.Context, id bson.ObjectID, status string, review *models.Review) (*models.FeatureRequest, error) {
	filter := bson.M{"_id": id, "status": models.RequestStatusPending}
	update := bson.M{"$set": bson.M{"status": status, "review": review}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var request models.FeatureRequest
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&request)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve feature request: %w", err)
	}
	return &request, nil
}

func (r *RequestRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	return r.collection.CountDocuments(ctx, filter)
}

func (r *RequestRepository) aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]*models.FeatureRequest, error) {
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var requests []*models.FeatureRequest
	if err = cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

func newestFirstStage() bson.D {
	return bson.D{{Key: "$sort", Value: bson.D{
		{Key: "requestedAt", Value: -1},
		{Key: "_id", Value: -1},
	}}}
}

func requestLookupStages(withUser bool) []bson.D {
	stages := []bson.D{
		{{Key: "$lookup", Value: bson.M{
			"from":         "Feature",
			"localField":   "featureId",
			"foreignField": "_id",
			"as":           "feature",
		}}},
		{{Key: "$unwind", Value: bson.M{
			"path":                       "$feature",
			"preserveNullAndEmptyArrays": true,
		}}},
	}
	if withUser {
		stages = append(stages,
			bson.D{{Key: "$lookup", Value: bson.M{
				"from":         "User",
				"localField":   "userId",
				"foreignField": "_id",
				"as":           "user",
			}}},
			bson.D{{Key: "$unwind", Value: bson.M{
				"path":                       "$user",
				"preserveNullAndEmptyArrays": true,
			}}},
		)
	}
	return stages
}
