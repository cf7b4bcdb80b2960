package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/bigdady147/Eddy-Hub/internal/apperror"
	"github.com/bigdady147/Eddy-Hub/internal/events"
	"github.com/bigdady147/Eddy-Hub/internal/models"
	"github.com/bigdady147/Eddy-Hub/internal/repository"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.mongodb.org/mongo-driver/v2/bson"
)

var (
	permissionGrants = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feature_permission_grants_total",
			Help: "Total number of permission grants (including reactivations)",
		},
	)

	permissionRevokes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feature_permission_revokes_total",
			Help: "Total number of permission revocations",
		},
	)
)

const permissionCacheTTL = 30 * time.Second

type PermissionService struct {
	permissions    PermissionStore
	features       FeatureStore
	users          UserStore
	cache          *repository.RedisRepo
	eventPublisher events.Publisher
}

func NewPermissionService(permissions PermissionStore, features FeatureStore, users UserStore, cache *repository.RedisRepo, eventPublisher events.Publisher) *PermissionService {
	return &PermissionService{
		permissions:    permissions,
		features:       features,
		users:          users,
		cache:          cache,
		eventPublisher: eventPublisher,
	}
}

// Grant upserts the (user, feature) permission. Granting an already-active
// pair is a no-op observationally; an inactive row is reactivated in place.
func (ps *PermissionService) Grant(ctx context.Context, userID, featureID, grantedBy string) (*models.Permission, error) {
	userOID, err := parseObjectID(userID, "userId")
	if err != nil {
		return nil, err
	}
	featureOID, err := parseObjectID(featureID, "featureId")
	if err != nil {
		return nil, err
	}

	var grantedByOID bson.ObjectID
	if grantedBy != "" {
		grantedByOID, err = parseObjectID(grantedBy, "grantedBy")
		if err != nil {
			return nil, err
		}
	}

	return ps.GrantByID(ctx, userOID, featureOID, grantedByOID)
}

// GrantByID is the resolved-ID grant path shared with the request workflow.
func (ps *PermissionService) GrantByID(ctx context.Context, userID, featureID, grantedBy bson.ObjectID) (*models.Permission, error) {
	feature, err := ps.features.FindByID(ctx, featureID)
	if err != nil {
		return nil, fmt.Errorf("error resolving feature: %w", err)
	}
	if feature == nil {
		return nil, apperror.NotFound("feature not found")
	}

	user, err := ps.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error resolving user: %w", err)
	}
	if user == nil {
		return nil, apperror.NotFound("user not found")
	}

	permission, err := ps.permissions.Upsert(ctx, userID, featureID, grantedBy)
	if err != nil {
		return nil, err
	}
	permission.Feature = feature

	permissionGrants.Inc()
	ps.invalidateCache(ctx, userID, featureID)

	if ps.eventPublisher != nil {
		if err := ps.eventPublisher.PublishPermissionGranted(ctx, userID.Hex(), featureID.Hex(), feature.Key, grantedBy.Hex()); err != nil {
			log.Printf("Warning: Failed to publish permission granted event: %v", err)
		}
	}

	return permission, nil
}

// GrantMultiple grants each feature independently: unknown or malformed
// feature references are skipped, not fatal.
func (ps *PermissionService) GrantMultiple(ctx context.Context, userID string, featureIDs []string, grantedBy string) ([]*models.Permission, error) {
	if len(featureIDs) == 0 {
		return nil, apperror.Validation("featureIds must be a non-empty array")
	}

	permissions := make([]*models.Permission, 0, len(featureIDs))
	for _, featureID := range featureIDs {
		permission, err := ps.Grant(ctx, userID, featureID, grantedBy)
		if err != nil {
			kind := apperror.KindOf(err)
			if kind == apperror.KindValidation || kind == apperror.KindNotFound {
				log.Printf("Skipping grant of feature %s: %v", featureID, err)
				continue
			}
			return nil, err
		}
		permissions = append(permissions, permission)
	}
	return permissions, nil
}

// Revoke deactivates the grant. The row is kept as an audit record.
func (ps *PermissionService) Revoke(ctx context.Context, userID, featureID string) (*models.Permission, error) {
	userOID, err := parseObjectID(userID, "userId")
	if err != nil {
		return nil, err
	}
	featureOID, err := parseObjectID(featureID, "featureId")
	if err != nil {
		return nil, err
	}

	permission, err := ps.permissions.Revoke(ctx, userOID, featureOID)
	if err != nil {
		return nil, err
	}
	if permission == nil {
		return nil, apperror.NotFound("permission not found")
	}

	permissionRevokes.Inc()
	ps.invalidateCache(ctx, userOID, featureOID)

	if ps.eventPublisher != nil {
		if err := ps.eventPublisher.PublishPermissionRevoked(ctx, userID, featureID); err != nil {
			log.Printf("Warning: Failed to publish permission revoked event: %v", err)
		}
	}

	return permission, nil
}

// RevokeAll deactivates every grant the user holds. Used when an account is
// deactivated.
func (ps *PermissionService) RevokeAll(ctx context.Context, userID string) error {
	userOID, err := parseObjectID(userID, "userId")
	if err != nil {
		return err
	}

	// Collect the active rows first so their cache entries can be dropped.
	active, err := ps.permissions.FindActiveByUserWithFeatures(ctx, userOID)
	if err != nil {
		return err
	}

	if err := ps.permissions.RevokeAll(ctx, userOID); err != nil {
		return err
	}

	for _, permission := range active {
		ps.invalidateCache(ctx, userOID, permission.FeatureID)
	}
	return nil
}

// HasPermission resolves featureKeyOrID against the catalog by key first,
// then by id when the value parses as one. Key match is authoritative. An
// inactive feature never grants access, whatever the permission row says.
func (ps *PermissionService) HasPermission(ctx context.Context, userID, featureKeyOrID string) (bool, error) {
	userOID, err := parseObjectID(userID, "userId")
	if err != nil {
		return false, err
	}

	feature, err := ps.features.FindByKey(ctx, featureKeyOrID)
	if err != nil {
		return false, err
	}
	if feature == nil {
		featureOID, idErr := bson.ObjectIDFromHex(featureKeyOrID)
		if idErr != nil {
			return false, nil
		}
		feature, err = ps.features.FindByID(ctx, featureOID)
		if err != nil {
			return false, err
		}
	}
	if feature == nil || !feature.IsActive {
		return false, nil
	}

	cacheKey := permissionCacheKey(userOID, feature.ID)
	var cached bool
	if err := ps.cache.GetStruct(ctx, cacheKey, &cached); err == nil {
		return cached, nil
	}

	allowed, err := ps.permissions.ActiveExists(ctx, userOID, feature.ID)
	if err != nil {
		return false, err
	}

	if err := ps.cache.SaveStruct(ctx, cacheKey, allowed, permissionCacheTTL); err != nil {
		log.Printf("Warning: Failed to cache permission check: %v", err)
	}

	return allowed, nil
}

// GetUserFeatures lists the features the user can currently access.
func (ps *PermissionService) GetUserFeatures(ctx context.Context, userID string) ([]*models.Feature, error) {
	userOID, err := parseObjectID(userID, "userId")
	if err != nil {
		return nil, err
	}

	permissions, err := ps.permissions.FindActiveByUserWithFeatures(ctx, userOID)
	if err != nil {
		return nil, err
	}

	features := make([]*models.Feature, 0, len(permissions))
	for _, permission := range permissions {
		if permission.Feature != nil && permission.Feature.IsActive {
			features = append(features, permission.Feature)
		}
	}
	return features, nil
}

// GetUserPermissionIDs lists the feature ids behind the user's active grants.
func (ps *PermissionService) GetUserPermissionIDs(ctx context.Context, userID string) ([]string, error) {
	features, err := ps.GetUserFeatures(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(features))
	for _, feature := range features {
		ids = append(ids, feature.ID.Hex())
	}
	return ids, nil
}

// GetAllUserPermissions lists every row for the user, revoked included.
func (ps *PermissionService) GetAllUserPermissions(ctx context.Context, userID string) ([]*models.Permission, error) {
	userOID, err := parseObjectID(userID, "userId")
	if err != nil {
		return nil, err
	}
	return ps.permissions.FindAllByUserWithFeatures(ctx, userOID)
}

// GetUsersByFeature lists users holding an active grant for the feature.
func (ps *PermissionService) GetUsersByFeature(ctx context.Context, featureID string) ([]*models.User, error) {
	featureOID, err := parseObjectID(featureID, "featureId")
	if err != nil {
		return nil, err
	}

	permissions, err := ps.permissions.FindActiveByFeature(ctx, featureOID)
	if err != nil {
		return nil, err
	}

	users := make([]*models.User, 0, len(permissions))
	for _, permission := range permissions {
		user, err := ps.users.FindByID(ctx, permission.UserID)
		if err != nil {
			return nil, err
		}
		if user != nil {
			users = append(users, user)
		}
	}
	return users, nil
}

func (ps *PermissionService) GetPermissionDetail(ctx context.Context, userID, featureID string) (*models.Permission, error) {
	userOID, err := parseObjectID(userID, "userId")
	if err != nil {
		return nil, err
	}
	featureOID, err := parseObjectID(featureID, "featureId")
	if err != nil {
		return nil, err
	}

	permission, err := ps.permissions.FindByUserAndFeature(ctx, userOID, featureOID)
	if err != nil {
		return nil, err
	}
	if permission == nil {
		return nil, apperror.NotFound("permission not found")
	}
	return permission, nil
}

// DeletePermission removes the row outright. Administrative escape hatch;
// Revoke is the normal path.
func (ps *PermissionService) DeletePermission(ctx context.Context, userID, featureID string) error {
	userOID, err := parseObjectID(userID, "userId")
	if err != nil {
		return err
	}
	featureOID, err := parseObjectID(featureID, "featureId")
	if err != nil {
		return err
	}

	deleted, err := ps.permissions.Delete(ctx, userOID, featureOID)
	if err != nil {
		return err
	}
	if !deleted {
		return apperror.NotFound("permission not found")
	}

	ps.invalidateCache(ctx, userOID, featureOID)
	return nil
}

func (ps *PermissionService) GetStats(ctx context.Context) (*models.PermissionStats, error) {
	total, active, err := ps.permissions.Counts(ctx)
	if err != nil {
		return nil, err
	}
	return &models.PermissionStats{
		TotalPermissions:    total,
		ActivePermissions:   active,
		InactivePermissions: total - active,
	}, nil
}

func (ps *PermissionService) invalidateCache(ctx context.Context, userID, featureID bson.ObjectID) {
	if err := ps.cache.Delete(ctx, permissionCacheKey(userID, featureID)); err != nil {
		log.Printf("Warning: Failed to invalidate permission cache: %v", err)
	}
}

func permissionCacheKey(userID, featureID bson.ObjectID) string {
	return fmt.Sprintf("feature-gate:perm:%s:%s", userID.Hex(), featureID.Hex())
}

func parseObjectID(value, field string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(value)
	if err != nil {
		return bson.ObjectID{}, apperror.Validation(fmt.Sprintf("%s is not a valid id", field))
	}
	return oid, nil
}
