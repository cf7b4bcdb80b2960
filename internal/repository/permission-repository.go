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

type PermissionRepository struct {
	collection *mongo.Collection
}

func NewPermissionRepository(db *mongo.Database) *PermissionRepository {
	return &PermissionRepository{
		collection: db.Collection("Permission"),
	}
}

// EnsureIndexes creates the unique compound index on (userId, featureId).
// This index is the concurrency safety net for Upsert: conflicting grants
// for the same pair serialize through it instead of app-level locking.
func (r *PermissionRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "featureId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "featureId", Value: 1}, {Key: "isActive", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create permission indexes: %w", err)
	}
	return nil
}

// Upsert grants the (user, feature) pair: it reactivates an existing row or
// inserts a new one, never creating a second row for the pair. Returns the
// post-update document.
func (r *PermissionRepository) Upsert(ctx context.Context, userID, featureID, grantedBy bson.ObjectID) (*models.Permission, error) {
	currentTime := int(time.Now().Unix())

	filter := bson.M{"userId": userID, "featureId": featureID}
	set := bson.M{"isActive": true, "updatedAt": currentTime}
	if !grantedBy.IsZero() {
		set["grantedBy"] = grantedBy
	}
	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"_id":       bson.NewObjectID(),
			"userId":    userID,
			"featureId": featureID,
			"createdAt": currentTime,
		},
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var permission models.Permission
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&permission)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert permission: %w", err)
	}
	return &permission, nil
}

// Revoke deactivates the pair's row. Returns nil when no row exists.
func (r *PermissionRepository) Revoke(ctx context.Context, userID, featureID bson.ObjectID) (*models.Permission, error) {
	filter := bson.M{"userId": userID, "featureId": featureID}
	update := bson.M{"$set": bson.M{"isActive": false, "updatedAt": int(time.Now().Unix())}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var permission models.Permission
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&permission)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to revoke permission: %w", err)
	}
	return &permission, nil
}

func (r *PermissionRepository) RevokeAll(ctx context.Context, userID bson.ObjectID) error {
	filter := bson.M{"userId": userID, "isActive": true}
	update := bson.M{"$set": bson.M{"isActive": false, "updatedAt": int(time.Now().Unix())}}

	_, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to revoke user permissions: %w", err)
	}
	return nil
}

// ActiveExists reports whether an active row exists for the pair. It does
// not inspect the referenced feature; callers resolve feature activity first.
func (r *PermissionRepository) ActiveExists(ctx context.Context, userID, featureID bson.ObjectID) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{
		"userId":    userID,
		"featureId": featureID,
		"isActive":  true,
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PermissionRepository) FindByUserAndFeature(ctx context.Context, userID, featureID bson.ObjectID) (*models.Permission, error) {
	pipeline := append(
		mongo.Pipeline{
			bson.D{{Key: "$match", Value: bson.M{"userId": userID, "featureId": featureID}}},
		},
		featureLookupStages()...,
	)
	permissions, err := r.aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	if len(permissions) == 0 {
		return nil, nil
	}
	return permissions[0], nil
}

// FindActiveByUserWithFeatures returns the user's active grants with the
// referenced feature hydrated.
func (r *PermissionRepository) FindActiveByUserWithFeatures(ctx context.Context, userID bson.ObjectID) ([]*models.Permission, error) {
	pipeline := append(
		mongo.Pipeline{
			bson.D{{Key: "$match", Value: bson.M{"userId": userID, "isActive": true}}},
		},
		featureLookupStages()...,
	)
	return r.aggregate(ctx, pipeline)
}

// FindAllByUserWithFeatures returns every row for the user, revoked included,
// newest first.
func (r *PermissionRepository) FindAllByUserWithFeatures(ctx context.Context, userID bson.ObjectID) ([]*models.Permission, error) {
	pipeline := append(
		mongo.Pipeline{
			bson.D{{Key: "$match", Value: bson.M{"userId": userID}}},
		},
		featureLookupStages()...,
	)
	pipeline = append(pipeline, bson.D{{Key: "$sort", Value: bson.D{
		{Key: "createdAt", Value: -1},
		{Key: "_id", Value: -1},
	}}})
	return r.aggregate(ctx, pipeline)
}

func (r *PermissionRepository) FindActiveByFeature(ctx context.Context, featureID bson.ObjectID) ([]*models.Permission, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"featureId": featureID, "isActive": true})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var permissions []*models.Permission
	if err = cursor.All(ctx, &permissions); err != nil {
		return nil, err
	}
	return permissions, nil
}

// Delete removes the pair's row outright. Distinct from Revoke and meant for
// administrative cleanup only.
func (r *PermissionRepository) Delete(ctx context.Context, userID, featureID bson.ObjectID) (bool, error) {
	result, err := r.collection.DeleteOne(ctx, bson.M{"userId": userID, "featureId": featureID})
	if err != nil {
		return false, fmt.Errorf("failed to delete permission: %w", err)
	}
	return result.DeletedCount > 0, nil
}

func (r *PermissionRepository) DeleteAllForUser(ctx context.Context, userID bson.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"userId": userID})
	if err != nil {
		return fmt.Errorf("failed to delete user permissions: %w", err)
	}
	return nil
}

func (r *PermissionRepository) Counts(ctx context.Context) (total, active int64, err error) {
	total, err = r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, 0, err
	}
	active, err = r.collection.CountDocuments(ctx, bson.M{"isActive": true})
	if err != nil {
		return 0, 0, err
	}
	return total, active, nil
}

func (r *PermissionRepository) aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]*models.Permission, error) {
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var permissions []*models.Permission
	if err = cursor.All(ctx, &permissions); err != nil {
		return nil, err
	}
	return permissions, nil
}

// featureLookupStages hydrates the "feature" field from the Feature
// collection. Rows whose feature no longer resolves keep a nil feature.
func featureLookupStages() []bson.D {
	return []bson.D{
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
}
