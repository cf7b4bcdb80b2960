package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/bigdady147/Eddy-Hub/internal/apperror"
	"github.com/bigdady147/Eddy-Hub/internal/models"
	"github.com/bigdady147/Eddy-Hub/internal/repository"

	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/crypto/bcrypt"
)

func newUserService(users *fakeUserStore, revoker PermissionRevoker) *UserService {
	return NewUserService(users, repository.NewRedisRepo(nil), &Mailer{}, revoker, nil, "http://localhost:5173")
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	store := &fakeUserStore{}
	service := newUserService(store, nil)

	created, err := service.Register(ctx, &models.RegisterRequest{
		Username: "alice",
		Email:    "alice@test.local",
		Password: "s3cret-pass",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if created.Role != models.RoleUser {
		t.Errorf("new accounts get the user role, got %q", created.Role)
	}
	if !created.IsActive {
		t.Error("new accounts start active")
	}
	if created.PasswordHash == "s3cret-pass" {
		t.Error("password must be stored hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("s3cret-pass")); err != nil {
		t.Errorf("stored hash does not match the password: %v", err)
	}

	t.Run("duplicate username", func(t *testing.T) {
		_, err := service.Register(ctx, &models.RegisterRequest{
			Username: "alice",
			Email:    "other@test.local",
			Password: "whatever",
		})
		if apperror.KindOf(err) != apperror.KindValidation {
			t.Errorf("expected Validation, got %v", err)
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := service.Register(ctx, &models.RegisterRequest{
			Username: "bob",
			Email:    "alice@test.local",
			Password: "whatever",
		})
		if apperror.KindOf(err) != apperror.KindValidation {
			t.Errorf("expected Validation, got %v", err)
		}
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	store := &fakeUserStore{}
	service := newUserService(store, nil)

	hash, err := bcrypt.GenerateFromPassword([]byte("right-password"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	active := &models.User{
		ID:           bson.NewObjectID(),
		Username:     "alice",
		Email:        "alice@test.local",
		PasswordHash: string(hash),
		Role:         models.RoleUser,
		IsActive:     true,
	}
	inactive := &models.User{
		ID:           bson.NewObjectID(),
		Username:     "mallory",
		Email:        "mallory@test.local",
		PasswordHash: string(hash),
		Role:         models.RoleUser,
		IsActive:     false,
	}
	store.users = append(store.users, active, inactive)

	tests := []struct {
		name     string
		email    string
		password string
		wantKind apperror.Kind
	}{
		{"valid credentials", "alice@test.local", "right-password", apperror.KindUnknown},
		{"wrong password", "alice@test.local", "wrong-password", apperror.KindUnauthorized},
		{"unknown email", "ghost@test.local", "right-password", apperror.KindUnauthorized},
		{"deactivated account", "mallory@test.local", "right-password", apperror.KindForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := service.Login(ctx, tt.email, tt.password)
			if tt.wantKind == apperror.KindUnknown {
				if err != nil {
					t.Fatalf("Login: %v", err)
				}
				if user.Email != tt.email {
					t.Errorf("logged in as %q", user.Email)
				}
				return
			}
			if apperror.KindOf(err) != tt.wantKind {
				t.Errorf("kind = %v, want %v (err: %v)", apperror.KindOf(err), tt.wantKind, err)
			}
		})
	}
}

func TestResetPasswordFlow(t *testing.T) {
	ctx := context.Background()
	store := &fakeUserStore{}
	service := newUserService(store, nil)

	user := &models.User{
		ID:       bson.NewObjectID(),
		Username: "alice",
		Email:    "alice@test.local",
		IsActive: true,
	}
	store.users = append(store.users, user)

	// Plant a token the way ForgotPassword stores it: only the hash is kept.
	rawToken := "0123456789abcdef0123456789abcdef01234567"
	tokenHash := sha256.Sum256([]byte(rawToken))
	user.ResetPasswordToken = hex.EncodeToString(tokenHash[:])
	user.ResetPasswordExpire = int(time.Now().Add(5 * time.Minute).Unix())

	if err := service.ResetPassword(ctx, rawToken, "brand-new-pass"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("brand-new-pass")); err != nil {
		t.Errorf("new password not stored: %v", err)
	}
	if user.ResetPasswordToken != "" || user.ResetPasswordExpire != 0 {
		t.Error("reset token must be cleared after use")
	}

	t.Run("token is single use", func(t *testing.T) {
		err := service.ResetPassword(ctx, rawToken, "another-pass")
		if apperror.KindOf(err) != apperror.KindValidation {
			t.Errorf("expected Validation, got %v", err)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		user.ResetPasswordToken = hex.EncodeToString(tokenHash[:])
		user.ResetPasswordExpire = int(time.Now().Add(-time.Minute).Unix())
		err := service.ResetPassword(ctx, rawToken, "another-pass")
		if apperror.KindOf(err) != apperror.KindValidation {
			t.Errorf("expected Validation, got %v", err)
		}
	})
}

func TestForgotPasswordStoresHashedToken(t *testing.T) {
	ctx := context.Background()
	store := &fakeUserStore{}
	service := newUserService(store, nil)

	user := &models.User{ID: bson.NewObjectID(), Email: "alice@test.local", IsActive: true}
	store.users = append(store.users, user)

	if err := service.ForgotPassword(ctx, "alice@test.local"); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	if user.ResetPasswordToken == "" {
		t.Error("reset token hash should be stored")
	}
	if user.ResetPasswordExpire <= int(time.Now().Unix()) {
		t.Error("reset token should expire in the future")
	}

	if err := service.ForgotPassword(ctx, "ghost@test.local"); apperror.KindOf(err) != apperror.KindNotFound {
		t.Errorf("unknown email should be NotFound, got %v", err)
	}
}

type recordingRevoker struct {
	revokedUserIDs []string
}

func (r *recordingRevoker) RevokeAll(ctx context.Context, userID string) error {
	r.revokedUserIDs = append(r.revokedUserIDs, userID)
	return nil
}

func TestDeactivateUserRevokesPermissions(t *testing.T) {
	ctx := context.Background()
	store := &fakeUserStore{}
	revoker := &recordingRevoker{}
	service := newUserService(store, revoker)

	user := newTestUser(models.RoleUser)
	store.users = append(store.users, user)

	if err := service.DeactivateUser(ctx, user.ID.Hex()); err != nil {
		t.Fatalf("DeactivateUser: %v", err)
	}
	if user.IsActive {
		t.Error("user should be inactive")
	}
	if len(revoker.revokedUserIDs) != 1 || revoker.revokedUserIDs[0] != user.ID.Hex() {
		t.Errorf("RevokeAll calls = %v", revoker.revokedUserIDs)
	}

	if err := service.ActivateUser(ctx, user.ID.Hex()); err != nil {
		t.Fatalf("ActivateUser: %v", err)
	}
	if !user.IsActive {
		t.Error("user should be active again")
	}

	if err := service.DeactivateUser(ctx, bson.NewObjectID().Hex()); apperror.KindOf(err) != apperror.KindNotFound {
		t.Errorf("unknown user should be NotFound, got %v", err)
	}
}
