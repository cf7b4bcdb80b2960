package service

import (
	"context"

	"github.com/bigdady147/Eddy-Hub/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Storage interfaces the services depend on. The mongo repositories satisfy
// them in production; tests substitute in-memory fakes.

type FeatureStore interface {
	New(ctx context.Context, feature *models.Feature) (*models.Feature, error)
	FindByID(ctx context.Context, id bson.ObjectID) (*models.Feature, error)
	FindByKey(ctx context.Context, key string) (*models.Feature, error)
	FindActive(ctx context.Context) ([]*models.Feature, error)
}

type PermissionStore interface {
	Upsert(ctx context.Context, userID, featureID, grantedBy bson.ObjectID) (*models.Permission, error)
	Revoke(ctx context.Context, userID, featureID bson.ObjectID) (*models.Permission, error)
	RevokeAll(ctx context.Context, userID bson.ObjectID) error
	ActiveExists(ctx context.Context, userID, featureID bson.ObjectID) (bool, error)
	FindByUserAndFeature(ctx context.Context, userID, featureID bson.ObjectID) (*models.Permission, error)
	FindActiveByUserWithFeatures(ctx context.Context, userID bson.ObjectID) ([]*models.Permission, error)
	FindAllByUserWithFeatures(ctx context.Context, userID bson.ObjectID) ([]*models.Permission, error)
	FindActiveByFeature(ctx context.Context, featureID bson.ObjectID) ([]*models.Permission, error)
	Delete(ctx context.Context, userID, featureID bson.ObjectID) (bool, error)
	DeleteAllForUser(ctx context.Context, userID bson.ObjectID) error
	Counts(ctx context.Context) (total, active int64, err error)
}

type RequestStore interface {
	New(ctx context.Context, request *models.FeatureRequest) (*models.FeatureRequest, error)
	FindByID(ctx context.Context, id bson.ObjectID) (*models.FeatureRequest, error)
	FindPendingByUserAndFeature(ctx context.Context, userID, featureID bson.ObjectID) (*models.FeatureRequest, error)
	FindByUserWithFeatures(ctx context.Context, userID bson.ObjectID) ([]*models.FeatureRequest, error)
	Find(ctx context.Context, status string, page, limit int) ([]*models.FeatureRequest, error)
	DeleteOwnedPending(ctx context.Context, id, userID bson.ObjectID) (*models.FeatureRequest, error)
	ResolveFromPending(ctx context.Context, id bson.ObjectID, status string, review *models.Review) (*models.FeatureRequest, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
}

type UserStore interface {
	New(ctx context.Context, user *models.User) (*models.User, error)
	FindByID(ctx context.Context, id bson.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error)
	FindByResetToken(ctx context.Context, tokenHash string) (*models.User, error)
	FindAll(ctx context.Context, page, limit int) ([]*models.User, error)
	UpdateFields(ctx context.Context, id bson.ObjectID, fields bson.M) error
	ClearResetToken(ctx context.Context, id bson.ObjectID, passwordHash string) error
}
