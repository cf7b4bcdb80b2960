package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	// UserRegistered is emitted when a new account is created
	UserRegistered EventType = "user.registered"
	// PermissionGranted is emitted when a (user, feature) grant is created or reactivated
	PermissionGranted EventType = "permission.granted"
	// PermissionRevoked is emitted when a grant is deactivated
	PermissionRevoked EventType = "permission.revoked"
	// RequestSubmitted is emitted per newly created feature request
	RequestSubmitted EventType = "feature-request.submitted"
	// RequestApproved / RequestRejected are emitted on admin review
	RequestApproved EventType = "feature-request.approved"
	RequestRejected EventType = "feature-request.rejected"
)

type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp int64     `json:"timestamp"`
	Version   string    `json:"version"`
}

func newBaseEvent(eventType EventType) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().Unix(),
		Version:   "1.0",
	}
}

type UserRegisteredEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func NewUserRegisteredEvent(userID, username, email string) *UserRegisteredEvent {
	return &UserRegisteredEvent{
		BaseEvent: newBaseEvent(UserRegistered),
		UserID:    userID,
		Username:  username,
		Email:     email,
	}
}

func (e *UserRegisteredEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

type PermissionEvent struct {
	BaseEvent
	UserID     string `json:"user_id"`
	FeatureID  string `json:"feature_id"`
	FeatureKey string `json:"feature_key,omitempty"`
	GrantedBy  string `json:"granted_by,omitempty"`
}

func NewPermissionGrantedEvent(userID, featureID, featureKey, grantedBy string) *PermissionEvent {
	return &PermissionEvent{
		BaseEvent:  newBaseEvent(PermissionGranted),
		UserID:     userID,
		FeatureID:  featureID,
		FeatureKey: featureKey,
		GrantedBy:  grantedBy,
	}
}

func NewPermissionRevokedEvent(userID, featureID string) *PermissionEvent {
	return &PermissionEvent{
		BaseEvent: newBaseEvent(PermissionRevoked),
		UserID:    userID,
		FeatureID: featureID,
	}
}

func (e *PermissionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

type RequestEvent struct {
	BaseEvent
	RequestID  string `json:"request_id"`
	UserID     string `json:"user_id"`
	FeatureID  string `json:"feature_id"`
	ReviewedBy string `json:"reviewed_by,omitempty"`
}

func NewRequestSubmittedEvent(requestID, userID, featureID string) *RequestEvent {
	return &RequestEvent{
		BaseEvent: newBaseEvent(RequestSubmitted),
		RequestID: requestID,
		UserID:    userID,
		FeatureID: featureID,
	}
}

func NewRequestResolvedEvent(eventType EventType, requestID, userID, featureID, reviewedBy string) *RequestEvent {
	return &RequestEvent{
		BaseEvent:  newBaseEvent(eventType),
		RequestID:  requestID,
		UserID:     userID,
		FeatureID:  featureID,
		ReviewedBy: reviewedBy,
	}
}

func (e *RequestEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}
