package service

import (
	"context"
	"testing"

	"github.com/bigdady147/Eddy-Hub/internal/apperror"
	"github.com/bigdady147/Eddy-Hub/internal/models"
	"github.com/bigdady147/Eddy-Hub/internal/repository"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type requestFixture struct {
	features    *fakeFeatureStore
	permissions *fakePermissionStore
	requests    *fakeRequestStore
	users       *fakeUserStore
	permSvc     *PermissionService
	service     *RequestService
}

func newRequestFixture() *requestFixture {
	features := &fakeFeatureStore{}
	permissions := newFakePermissionStore()
	requests := &fakeRequestStore{}
	users := &fakeUserStore{}
	permSvc := NewPermissionService(permissions, features, users, repository.NewRedisRepo(nil), nil)
	accessSvc := NewAccessService(permSvc)
	return &requestFixture{
		features:    features,
		permissions: permissions,
		requests:    requests,
		users:       users,
		permSvc:     permSvc,
		service:     NewRequestService(requests, features, accessSvc, permSvc, nil),
	}
}

func (fx *requestFixture) addUser(t *testing.T, role string) *models.User {
	t.Helper()
	user := newTestUser(role)
	fx.users.users = append(fx.users.users, user)
	return user
}

func (fx *requestFixture) addFeature(t *testing.T, key string) *models.Feature {
	t.Helper()
	feature := newTestFeature(key, true)
	fx.features.features = append(fx.features.features, feature)
	return feature
}

func TestSubmitBulk(t *testing.T) {
	ctx := context.Background()
	fx := newRequestFixture()
	user := fx.addUser(t, models.RoleUser)

	granted := fx.addFeature(t, "expense_manager")
	pending := fx.addFeature(t, "word_to_pdf")
	fresh := fx.addFeature(t, "json_parse")

	if _, err := fx.permSvc.GrantByID(ctx, user.ID, granted.ID, bson.ObjectID{}); err != nil {
		t.Fatalf("seed grant: %v", err)
	}
	existing, err := fx.requests.New(ctx, &models.FeatureRequest{UserID: user.ID, FeatureID: pending.ID})
	if err != nil {
		t.Fatalf("seed pending request: %v", err)
	}

	result, err := fx.service.SubmitBulk(ctx, user, []string{
		granted.ID.Hex(),        // already accessible, skipped
		pending.ID.Hex(),        // pending exists, reused
		fresh.ID.Hex(),          // new request
		"not-an-id",             // malformed, skipped
		bson.NewObjectID().Hex(), // unknown feature, skipped
	}, "please")
	if err != nil {
		t.Fatalf("SubmitBulk: %v", err)
	}

	if result.Created != 1 {
		t.Errorf("Created = %d, want 1", result.Created)
	}
	if len(result.Requests) != 2 {
		t.Fatalf("len(Requests) = %d, want 2", len(result.Requests))
	}
	if result.Requests[0].ID != existing.ID {
		t.Error("pending request should be reused, not recreated")
	}
	if result.Requests[1].FeatureID != fresh.ID {
		t.Error("new request should target the ungated feature")
	}
	if result.Requests[1].Status != models.RequestStatusPending {
		t.Errorf("new request status = %q, want pending", result.Requests[1].Status)
	}
	if result.Requests[1].RequestMessage != "please" {
		t.Errorf("request message = %q", result.Requests[1].RequestMessage)
	}
}

func TestSubmitBulkEmpty(t *testing.T) {
	fx := newRequestFixture()
	user := fx.addUser(t, models.RoleUser)

	_, err := fx.service.SubmitBulk(context.Background(), user, nil, "")
	if apperror.KindOf(err) != apperror.KindValidation {
		t.Errorf("expected Validation, got %v", err)
	}
}

func TestSubmitBulkAdminNeedsNothing(t *testing.T) {
	ctx := context.Background()
	fx := newRequestFixture()
	admin := fx.addUser(t, models.RoleAdmin)
	feature := fx.addFeature(t, "keyboard_tester")

	result, err := fx.service.SubmitBulk(ctx, admin, []string{feature.ID.Hex()}, "")
	if err != nil {
		t.Fatalf("SubmitBulk: %v", err)
	}
	if result.Created != 0 || len(result.Requests) != 0 {
		t.Errorf("admin already has access, expected no requests: %+v", result)
	}
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	fx := newRequestFixture()
	owner := fx.addUser(t, models.RoleUser)
	stranger := fx.addUser(t, models.RoleUser)
	feature := fx.addFeature(t, "pdf_to_word")

	request, err := fx.requests.New(ctx, &models.FeatureRequest{UserID: owner.ID, FeatureID: feature.ID})
	if err != nil {
		t.Fatalf("seed request: %v", err)
	}

	t.Run("stranger cannot cancel", func(t *testing.T) {
		_, err := fx.service.Cancel(ctx, request.ID.Hex(), stranger)
		if apperror.KindOf(err) != apperror.KindNotFound {
			t.Errorf("expected NotFound, got %v", err)
		}
	})

	t.Run("owner cancels pending", func(t *testing.T) {
		cancelled, err := fx.service.Cancel(ctx, request.ID.Hex(), owner)
		if err != nil {
			t.Fatalf("Cancel: %v", err)
		}
		if cancelled.ID != request.ID {
			t.Error("cancelled the wrong request")
		}
		if len(fx.requests.requests) != 0 {
			t.Error("cancel should remove the request")
		}
	})

	t.Run("resolved request cannot be cancelled", func(t *testing.T) {
		admin := fx.addUser(t, models.RoleAdmin)
		resolved, err := fx.requests.New(ctx, &models.FeatureRequest{UserID: owner.ID, FeatureID: feature.ID})
		if err != nil {
			t.Fatalf("seed request: %v", err)
		}
		if _, err := fx.service.Approve(ctx, resolved.ID.Hex(), admin, ""); err != nil {
			t.Fatalf("Approve: %v", err)
		}
		_, err = fx.service.Cancel(ctx, resolved.ID.Hex(), owner)
		if apperror.KindOf(err) != apperror.KindNotFound {
			t.Errorf("expected NotFound, got %v", err)
		}
	})
}

func TestApprove(t *testing.T) {
	ctx := context.Background()
	fx := newRequestFixture()
	user := fx.addUser(t, models.RoleUser)
	admin := fx.addUser(t, models.RoleAdmin)
	feature := fx.addFeature(t, "expense_manager")

	request, err := fx.requests.New(ctx, &models.FeatureRequest{UserID: user.ID, FeatureID: feature.ID})
	if err != nil {
		t.Fatalf("seed request: %v", err)
	}

	approved, err := fx.service.Approve(ctx, request.ID.Hex(), admin, "welcome aboard")
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}

	if approved.Status != models.RequestStatusApproved {
		t.Errorf("status = %q, want approved", approved.Status)
	}
	if approved.Review == nil {
		t.Fatal("approved request must carry a review")
	}
	if approved.Review.ReviewedBy != admin.ID {
		t.Error("review should record the approving admin")
	}
	if approved.Review.ResponseMessage != "welcome aboard" {
		t.Errorf("response message = %q", approved.Review.ResponseMessage)
	}

	has, err := fx.permSvc.HasPermission(ctx, user.ID.Hex(), feature.Key)
	if err != nil {
		t.Fatalf("HasPermission: %v", err)
	}
	if !has {
		t.Error("approval must grant the permission")
	}

	t.Run("second approve is rejected", func(t *testing.T) {
		_, err := fx.service.Approve(ctx, request.ID.Hex(), admin, "")
		if apperror.KindOf(err) != apperror.KindInvalidState {
			t.Errorf("expected InvalidState, got %v", err)
		}
	})
}

func TestReject(t *testing.T) {
	ctx := context.Background()
	fx := newRequestFixture()
	user := fx.addUser(t, models.RoleUser)
	admin := fx.addUser(t, models.RoleAdmin)
	feature := fx.addFeature(t, "controller_tester")

	request, err := fx.requests.New(ctx, &models.FeatureRequest{UserID: user.ID, FeatureID: feature.ID})
	if err != nil {
		t.Fatalf("seed request: %v", err)
	}

	rejected, err := fx.service.Reject(ctx, request.ID.Hex(), admin, "not yet")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}

	if rejected.Status != models.RequestStatusRejected {
		t.Errorf("status = %q, want rejected", rejected.Status)
	}
	if rejected.Review == nil || rejected.Review.ResponseMessage != "not yet" {
		t.Errorf("review = %+v", rejected.Review)
	}

	has, err := fx.permSvc.HasPermission(ctx, user.ID.Hex(), feature.Key)
	if err != nil {
		t.Fatalf("HasPermission: %v", err)
	}
	if has {
		t.Error("rejection must not grant the permission")
	}

	t.Run("rejected request cannot be approved", func(t *testing.T) {
		_, err := fx.service.Approve(ctx, request.ID.Hex(), admin, "")
		if apperror.KindOf(err) != apperror.KindInvalidState {
			t.Errorf("expected InvalidState, got %v", err)
		}
	})
}

func TestReviewUnknownRequest(t *testing.T) {
	ctx := context.Background()
	fx := newRequestFixture()
	admin := fx.addUser(t, models.RoleAdmin)

	tests := []struct {
		name      string
		requestID string
		wantKind  apperror.Kind
	}{
		{"unknown id", bson.NewObjectID().Hex(), apperror.KindNotFound},
		{"malformed id", "nope", apperror.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := fx.service.Approve(ctx, tt.requestID, admin, ""); apperror.KindOf(err) != tt.wantKind {
				t.Errorf("Approve: kind = %v, want %v", apperror.KindOf(err), tt.wantKind)
			}
			if _, err := fx.service.Reject(ctx, tt.requestID, admin, ""); apperror.KindOf(err) != tt.wantKind {
				t.Errorf("Reject: kind = %v, want %v", apperror.KindOf(err), tt.wantKind)
			}
		})
	}
}

func TestGetAllRequestsStatusFilter(t *testing.T) {
	ctx := context.Background()
	fx := newRequestFixture()
	user := fx.addUser(t, models.RoleUser)
	admin := fx.addUser(t, models.RoleAdmin)

	for i, key := range []string{"a_feature", "b_feature", "c_feature"} {
		feature := fx.addFeature(t, key)
		request, err := fx.requests.New(ctx, &models.FeatureRequest{UserID: user.ID, FeatureID: feature.ID})
		if err != nil {
			t.Fatalf("seed request: %v", err)
		}
		if i == 0 {
			if _, err := fx.service.Reject(ctx, request.ID.Hex(), admin, ""); err != nil {
				t.Fatalf("reject: %v", err)
			}
		}
	}

	pending, err := fx.service.GetAllRequests(ctx, &models.RequestListFilter{Status: models.RequestStatusPending})
	if err != nil {
		t.Fatalf("GetAllRequests(pending): %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("pending requests = %d, want 2", len(pending))
	}

	all, err := fx.service.GetAllRequests(ctx, nil)
	if err != nil {
		t.Fatalf("GetAllRequests(nil): %v", err)
	}
	if len(all) != 3 {
		t.Errorf("all requests = %d, want 3", len(all))
	}

	if _, err := fx.service.GetAllRequests(ctx, &models.RequestListFilter{Status: "cancelled"}); apperror.KindOf(err) != apperror.KindValidation {
		t.Errorf("unknown status should be Validation, got %v", err)
	}
}

func TestGetMyRequestsNewestFirst(t *testing.T) {
	ctx := context.Background()
	fx := newRequestFixture()
	user := fx.addUser(t, models.RoleUser)

	older := fx.addFeature(t, "old_feature")
	newer := fx.addFeature(t, "new_feature")

	if _, err := fx.requests.New(ctx, &models.FeatureRequest{UserID: user.ID, FeatureID: older.ID, RequestedAt: 100}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := fx.requests.New(ctx, &models.FeatureRequest{UserID: user.ID, FeatureID: newer.ID, RequestedAt: 200}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	mine, err := fx.service.GetMyRequests(ctx, user)
	if err != nil {
		t.Fatalf("GetMyRequests: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("len = %d, want 2", len(mine))
	}
	if mine[0].FeatureID != newer.ID {
		t.Error("requests should be ordered newest first")
	}
}

func TestRequestStats(t *testing.T) {
	ctx := context.Background()
	fx := newRequestFixture()
	user := fx.addUser(t, models.RoleUser)
	admin := fx.addUser(t, models.RoleAdmin)

	var ids []bson.ObjectID
	for _, key := range []string{"a_feature", "b_feature", "c_feature"} {
		feature := fx.addFeature(t, key)
		request, err := fx.requests.New(ctx, &models.FeatureRequest{UserID: user.ID, FeatureID: feature.ID})
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		ids = append(ids, request.ID)
	}
	if _, err := fx.service.Approve(ctx, ids[0].Hex(), admin, ""); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := fx.service.Reject(ctx, ids[1].Hex(), admin, ""); err != nil {
		t.Fatalf("reject: %v", err)
	}

	stats, err := fx.service.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.Total != 3 || stats.Pending != 1 || stats.Approved != 1 || stats.Rejected != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
