package service

import (
	"context"
	"sort"
	"time"

	"github.com/bigdady147/Eddy-Hub/internal/models"
	"github.com/bigdady147/Eddy-Hub/internal/repository"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// In-memory stand-ins for the mongo repositories.

type fakeFeatureStore struct {
	features []*models.Feature
}

func (f *fakeFeatureStore) New(ctx context.Context, feature *models.Feature) (*models.Feature, error) {
	for _, existing := range f.features {
		if existing.Key == feature.Key {
			return nil, repository.ErrDuplicateKey
		}
	}
	if feature.ID.IsZero() {
		feature.ID = bson.NewObjectID()
	}
	f.features = append(f.features, feature)
	return feature, nil
}

func (f *fakeFeatureStore) FindByID(ctx context.Context, id bson.ObjectID) (*models.Feature, error) {
	for _, feature := range f.features {
		if feature.ID == id {
			return feature, nil
		}
	}
	return nil, nil
}

func (f *fakeFeatureStore) FindByKey(ctx context.Context, key string) (*models.Feature, error) {
	for _, feature := range f.features {
		if feature.Key == key {
			return feature, nil
		}
	}
	return nil, nil
}

func (f *fakeFeatureStore) FindActive(ctx context.Context) ([]*models.Feature, error) {
	var active []*models.Feature
	for _, feature := range f.features {
		if feature.IsActive {
			active = append(active, feature)
		}
	}
	return active, nil
}

type pairKey struct {
	user    bson.ObjectID
	feature bson.ObjectID
}

type fakePermissionStore struct {
	rows map[pairKey]*models.Permission
}

func newFakePermissionStore() *fakePermissionStore {
	return &fakePermissionStore{rows: make(map[pairKey]*models.Permission)}
}

func (f *fakePermissionStore) Upsert(ctx context.Context, userID, featureID, grantedBy bson.ObjectID) (*models.Permission, error) {
	key := pairKey{userID, featureID}
	if row, ok := f.rows[key]; ok {
		row.IsActive = true
		if !grantedBy.IsZero() {
			row.GrantedBy = grantedBy
		}
		row.UpdatedAt = int(time.Now().Unix())
		return row, nil
	}
	row := &models.Permission{
		ID:        bson.NewObjectID(),
		UserID:    userID,
		FeatureID: featureID,
		IsActive:  true,
		GrantedBy: grantedBy,
		CreatedAt: int(time.Now().Unix()),
	}
	f.rows[key] = row
	return row, nil
}

func (f *fakePermissionStore) Revoke(ctx context.Context, userID, featureID bson.ObjectID) (*models.Permission, error) {
	row, ok := f.rows[pairKey{userID, featureID}]
	if !ok {
		return nil, nil
	}
	row.IsActive = false
	return row, nil
}

func (f *fakePermissionStore) RevokeAll(ctx context.Context, userID bson.ObjectID) error {
	for _, row := range f.rows {
		if row.UserID == userID {
			row.IsActive = false
		}
	}
	return nil
}

func (f *fakePermissionStore) ActiveExists(ctx context.Context, userID, featureID bson.ObjectID) (bool, error) {
	row, ok := f.rows[pairKey{userID, featureID}]
	return ok && row.IsActive, nil
}

func (f *fakePermissionStore) FindByUserAndFeature(ctx context.Context, userID, featureID bson.ObjectID) (*models.Permission, error) {
	row, ok := f.rows[pairKey{userID, featureID}]
	if !ok {
		return nil, nil
	}
	return row, nil
}

func (f *fakePermissionStore) FindActiveByUserWithFeatures(ctx context.Context, userID bson.ObjectID) ([]*models.Permission, error) {
	var result []*models.Permission
	for _, row := range f.rows {
		if row.UserID == userID && row.IsActive {
			result = append(result, row)
		}
	}
	return result, nil
}

func (f *fakePermissionStore) FindAllByUserWithFeatures(ctx context.Context, userID bson.ObjectID) ([]*models.Permission, error) {
	var result []*models.Permission
	for _, row := range f.rows {
		if row.UserID == userID {
			result = append(result, row)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt > result[j].CreatedAt
	})
	return result, nil
}

func (f *fakePermissionStore) FindActiveByFeature(ctx context.Context, featureID bson.ObjectID) ([]*models.Permission, error) {
	var result []*models.Permission
	for _, row := range f.rows {
		if row.FeatureID == featureID && row.IsActive {
			result = append(result, row)
		}
	}
	return result, nil
}

func (f *fakePermissionStore) Delete(ctx context.Context, userID, featureID bson.ObjectID) (bool, error) {
	key := pairKey{userID, featureID}
	if _, ok := f.rows[key]; !ok {
		return false, nil
	}
	delete(f.rows, key)
	return true, nil
}

func (f *fakePermissionStore) DeleteAllForUser(ctx context.Context, userID bson.ObjectID) error {
	for key, row := range f.rows {
		if row.UserID == userID {
			delete(f.rows, key)
		}
	}
	return nil
}

func (f *fakePermissionStore) Counts(ctx context.Context) (int64, int64, error) {
	var total, active int64
	for _, row := range f.rows {
		total++
		if row.IsActive {
			active++
		}
	}
	return total, active, nil
}

type fakeRequestStore struct {
	requests []*models.FeatureRequest
}

func (f *fakeRequestStore) New(ctx context.Context, request *models.FeatureRequest) (*models.FeatureRequest, error) {
	if request.ID.IsZero() {
		request.ID = bson.NewObjectID()
	}
	if request.RequestedAt == 0 {
		request.RequestedAt = int(time.Now().Unix())
	}
	request.Status = models.RequestStatusPending
	f.requests = append(f.requests, request)
	return request, nil
}

func (f *fakeRequestStore) FindByID(ctx context.Context, id bson.ObjectID) (*models.FeatureRequest, error) {
	for _, request := range f.requests {
		if request.ID == id {
			return request, nil
		}
	}
	return nil, nil
}

func (f *fakeRequestStore) FindPendingByUserAndFeature(ctx context.Context, userID, featureID bson.ObjectID) (*models.FeatureRequest, error) {
	for _, request := range f.requests {
		if request.UserID == userID && request.FeatureID == featureID && request.Status == models.RequestStatusPending {
			return request, nil
		}
	}
	return nil, nil
}

func (f *fakeRequestStore) FindByUserWithFeatures(ctx context.Context, userID bson.ObjectID) ([]*models.FeatureRequest, error) {
	var result []*models.FeatureRequest
	for _, request := range f.requests {
		if request.UserID == userID {
			result = append(result, request)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].RequestedAt > result[j].RequestedAt
	})
	return result, nil
}

func (f *fakeRequestStore) Find(ctx context.Context, status string, page, limit int) ([]*models.FeatureRequest, error) {
	var result []*models.FeatureRequest
	for _, request := range f.requests {
		if status == "" || request.Status == status {
			result = append(result, request)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].RequestedAt > result[j].RequestedAt
	})
	if page > 0 && limit > 0 {
		start := (page - 1) * limit
		if start >= len(result) {
			return nil, nil
		}
		end := start + limit
		if end > len(result) {
			end = len(result)
		}
		result = result[start:end]
	}
	return result, nil
}

func (f *fakeRequestStore) DeleteOwnedPending(ctx context.Context, id, userID bson.ObjectID) (*models.FeatureRequest, error) {
	for i, request := range f.requests {
		if request.ID == id && request.UserID == userID && request.Status == models.RequestStatusPending {
			f.requests = append(f.requests[:i], f.requests[i+1:]...)
			return request, nil
		}
	}
	return nil, nil
}

func (f *fakeRequestStore) ResolveFromPending(ctx context.Context, id bson.ObjectID, status string, review *models.Review) (*models.FeatureRequest, error) {
	for _, request := range f.requests {
		if request.ID == id && request.Status == models.RequestStatusPending {
			request.Status = status
			request.Review = review
			return request, nil
		}
	}
	return nil, nil
}

func (f *fakeRequestStore) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	for _, request := range f.requests {
		if status == "" || request.Status == status {
			count++
		}
	}
	return count, nil
}

type fakeUserStore struct {
	users []*models.User
}

func (f *fakeUserStore) New(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	f.users = append(f.users, user)
	return user, nil
}

func (f *fakeUserStore) FindByID(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	for _, user := range f.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	for _, user := range f.users {
		if user.Username == username || user.Email == email {
			return user, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) FindByResetToken(ctx context.Context, tokenHash string) (*models.User, error) {
	for _, user := range f.users {
		if user.ResetPasswordToken == tokenHash && user.ResetPasswordExpire > int(time.Now().Unix()) {
			return user, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) FindAll(ctx context.Context, page, limit int) ([]*models.User, error) {
	return f.users, nil
}

func (f *fakeUserStore) UpdateFields(ctx context.Context, id bson.ObjectID, fields bson.M) error {
	user, _ := f.FindByID(ctx, id)
	if user == nil {
		return nil
	}
	if v, ok := fields["isActive"].(bool); ok {
		user.IsActive = v
	}
	if v, ok := fields["resetPasswordToken"].(string); ok {
		user.ResetPasswordToken = v
	}
	if v, ok := fields["resetPasswordExpire"].(int); ok {
		user.ResetPasswordExpire = v
	}
	return nil
}

func (f *fakeUserStore) ClearResetToken(ctx context.Context, id bson.ObjectID, passwordHash string) error {
	user, _ := f.FindByID(ctx, id)
	if user == nil {
		return nil
	}
	user.PasswordHash = passwordHash
	user.ResetPasswordToken = ""
	user.ResetPasswordExpire = 0
	return nil
}

// Interface conformance checks.
var (
	_ FeatureStore    = (*fakeFeatureStore)(nil)
	_ PermissionStore = (*fakePermissionStore)(nil)
	_ RequestStore    = (*fakeRequestStore)(nil)
	_ UserStore       = (*fakeUserStore)(nil)
)

// Shared fixture helpers.

func newTestFeature(key string, active bool) *models.Feature {
	return &models.Feature{
		ID:       bson.NewObjectID(),
		Key:      key,
		Name:     models.LocalizedText{Vi: key, En: key},
		IsActive: active,
	}
}

func newTestUser(role string) *models.User {
	return &models.User{
		ID:       bson.NewObjectID(),
		Username: "u-" + bson.NewObjectID().Hex()[:8],
		Email:    bson.NewObjectID().Hex() + "@test.local",
		Role:     role,
		IsActive: true,
	}
}
