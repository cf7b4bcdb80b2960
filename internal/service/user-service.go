package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/bigdady147/Eddy-Hub/internal/apperror"
	"github.com/bigdady147/Eddy-Hub/internal/events"
	"github.com/bigdady147/Eddy-Hub/internal/models"
	"github.com/bigdady147/Eddy-Hub/internal/repository"

	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/crypto/bcrypt"
)

const (
	maxFailedLogins  = 10
	loginLockMinutes = 10
	resetTokenTTL    = 10 * time.Minute
)

// PermissionRevoker is the slice of the permission service user
// deactivation needs.
type PermissionRevoker interface {
	RevokeAll(ctx context.Context, userID string) error
}

type UserService struct {
	users          UserStore
	cache          *repository.RedisRepo
	mailer         *Mailer
	revoker        PermissionRevoker
	eventPublisher events.Publisher
	feAddress      string

	mu                  sync.Mutex
	failedLoginAttempts map[string]*failedLoginAttempt
}

type failedLoginAttempt struct {
	failedAt     int64
	failedNumber int
}

func NewUserService(users UserStore, cache *repository.RedisRepo, mailer *Mailer, revoker PermissionRevoker, eventPublisher events.Publisher, feAddress string) *UserService {
	return &UserService{
		users:               users,
		cache:               cache,
		mailer:              mailer,
		revoker:             revoker,
		eventPublisher:      eventPublisher,
		feAddress:           feAddress,
		failedLoginAttempts: make(map[string]*failedLoginAttempt),
	}
}

func (us *UserService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	existing, err := us.users.FindByUsernameOrEmail(ctx, req.Username, req.Email)
	if err != nil {
		return nil, fmt.Errorf("error checking existing user: %w", err)
	}
	if existing != nil {
		return nil, apperror.Validation("Username or Email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Role:         models.RoleUser,
		IsActive:     true,
	}

	created, err := us.users.New(ctx, user)
	if err != nil {
		// The unique index closes the race between the existence check and
		// the insert.
		if err == repository.ErrDuplicateKey {
			return nil, apperror.Validation("Username or Email already exists")
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	log.Printf("New user registered: %s", created.Username)

	if us.eventPublisher != nil {
		if err := us.eventPublisher.PublishUserRegistered(ctx, created.ID.Hex(), created.Username, created.Email); err != nil {
			log.Printf("Warning: Failed to publish user registered event: %v", err)
		}
	}

	return created, nil
}

func (us *UserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	lockKey := "feature-gate:lock-user:" + email
	if us.cache.GetInt(ctx, lockKey) != 0 {
		return nil, apperror.Unauthorized("Account temporarily locked, try again later")
	}

	user, err := us.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("error finding user: %w", err)
	}
	if user == nil {
		return nil, apperror.Unauthorized("Invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		us.recordFailedLogin(ctx, email, lockKey)
		return nil, apperror.Unauthorized("Invalid credentials")
	}

	if !user.IsActive {
		return nil, apperror.Forbidden("Account is deactivated")
	}

	us.mu.Lock()
	delete(us.failedLoginAttempts, email)
	us.mu.Unlock()

	return user, nil
}

func (us *UserService) recordFailedLogin(ctx context.Context, email, lockKey string) {
	loginTime := time.Now().UnixMilli()

	us.mu.Lock()
	attempt := us.failedLoginAttempts[email]
	if attempt == nil {
		attempt = &failedLoginAttempt{}
		us.failedLoginAttempts[email] = attempt
	}
	lastFailedAt := attempt.failedAt
	attempt.failedAt = loginTime
	attempt.failedNumber++
	failedNumber := attempt.failedNumber
	us.mu.Unlock()

	if loginTime-lastFailedAt < 1000 && lastFailedAt != 0 {
		log.Printf("WARN: Suspicious login activity for %s, instant lock activated", email)
		us.cache.SaveInt(ctx, lockKey, loginTime, loginLockMinutes*time.Minute)
		return
	}
	if failedNumber > maxFailedLogins {
		log.Printf("User %s failed login %d times, locked for %d minutes", email, failedNumber, loginLockMinutes)
		us.cache.SaveInt(ctx, lockKey, loginTime, loginLockMinutes*time.Minute)
	}
}

func (us *UserService) GetByID(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	user, err := us.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NotFound("User not found")
	}
	return user, nil
}

// ForgotPassword stores a hashed single-use token and mails the reset link.
// The raw token never touches storage.
func (us *UserService) ForgotPassword(ctx context.Context, email string) error {
	user, err := us.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return apperror.NotFound("User not found with this email")
	}

	raw := make([]byte, 20)
	if _, err := rand.Read(raw); err != nil {
		return fmt.Errorf("error generating reset token: %w", err)
	}
	resetToken := hex.EncodeToString(raw)
	tokenHash := sha256.Sum256([]byte(resetToken))

	err = us.users.UpdateFields(ctx, user.ID, bson.M{
		"resetPasswordToken":  hex.EncodeToString(tokenHash[:]),
		"resetPasswordExpire": int(time.Now().Add(resetTokenTTL).Unix()),
	})
	if err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/reset-password/%s", us.feAddress, resetToken)
	if err := us.mailer.SendPasswordReset(user.Email, resetURL); err != nil {
		log.Printf("Warning: Failed to send reset mail to %s: %v", user.Email, err)
	}
	return nil
}

func (us *UserService) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	tokenHash := sha256.Sum256([]byte(resetToken))

	user, err := us.users.FindByResetToken(ctx, hex.EncodeToString(tokenHash[:]))
	if err != nil {
		return err
	}
	if user == nil {
		return apperror.Validation("Invalid or expired reset token")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}

	return us.users.ClearResetToken(ctx, user.ID, string(hash))
}

func (us *UserService) ListUsers(ctx context.Context, page, limit int) ([]*models.User, error) {
	return us.users.FindAll(ctx, page, limit)
}

// DeactivateUser disables the account and revokes every permission it holds.
func (us *UserService) DeactivateUser(ctx context.Context, id string) error {
	userOID, err := parseObjectID(id, "userId")
	if err != nil {
		return err
	}

	user, err := us.users.FindByID(ctx, userOID)
	if err != nil {
		return err
	}
	if user == nil {
		return apperror.NotFound("User not found")
	}

	if err := us.users.UpdateFields(ctx, userOID, bson.M{"isActive": false}); err != nil {
		return err
	}

	if us.revoker != nil {
		if err := us.revoker.RevokeAll(ctx, userOID.Hex()); err != nil {
			return fmt.Errorf("error revoking permissions for deactivated user: %w", err)
		}
	}
	return nil
}

func (us *UserService) ActivateUser(ctx context.Context, id string) error {
	userOID, err := parseObjectID(id, "userId")
	if err != nil {
		return err
	}

	user, err := us.users.FindByID(ctx, userOID)
	if err != nil {
		return err
	}
	if user == nil {
		return apperror.NotFound("User not found")
	}

	return us.users.UpdateFields(ctx, userOID, bson.M{"isActive": true})
}
