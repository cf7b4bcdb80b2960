package models

import (
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID                  bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Username            string        `bson:"username" json:"username" validate:"required"`
	Email               string        `bson:"email" json:"email" validate:"required,email"`
	PasswordHash        string        `bson:"passwordHash" json:"-"`
	FullName            string        `bson:"fullName,omitempty" json:"fullName"`
	Avatar              string        `bson:"avatar,omitempty" json:"avatar"`
	Role                string        `bson:"role" json:"role"`
	IsActive            bool          `bson:"isActive" json:"isActive"`
	ResetPasswordToken  string        `bson:"resetPasswordToken,omitempty" json:"-"`
	ResetPasswordExpire int           `bson:"resetPasswordExpire,omitempty" json:"-"`
	CreatedAt           int           `bson:"createdAt" json:"createdAt"`
	UpdatedAt           int           `bson:"updatedAt" json:"updatedAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// LocalizedText carries the vi/en display strings the catalog exposes.
type LocalizedText struct {
	Vi string `bson:"vi" json:"vi"`
	En string `bson:"en" json:"en"`
}

type Feature struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Key         string        `bson:"key" json:"key" validate:"required"`
	Name        LocalizedText `bson:"name" json:"name"`
	Description LocalizedText `bson:"description,omitempty" json:"description"`
	Icon        string        `bson:"icon" json:"icon"`
	IsActive    bool          `bson:"isActive" json:"isActive"`
	CreatedAt   int           `bson:"createdAt" json:"createdAt"`
	UpdatedAt   int           `bson:"updatedAt" json:"updatedAt"`
}

// Permission is the durable (user, feature) grant. Rows are revoked by
// flipping isActive, never deleted, so the audit trail survives. A unique
// compound index on (userId, featureId) keeps the pair single-rowed.
type Permission struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    bson.ObjectID `bson:"userId" json:"userId"`
	FeatureID bson.ObjectID `bson:"featureId" json:"featureId"`
	IsActive  bool          `bson:"isActive" json:"isActive"`
	GrantedBy bson.ObjectID `bson:"grantedBy,omitempty" json:"grantedBy,omitempty"`
	CreatedAt int           `bson:"createdAt" json:"createdAt"`
	UpdatedAt int           `bson:"updatedAt" json:"updatedAt"`

	// Populated on reads that join the referenced documents.
	Feature *Feature `bson:"feature,omitempty" json:"feature,omitempty"`
	User    *User    `bson:"user,omitempty" json:"user,omitempty"`
}

const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusRejected = "rejected"
)

// Review records the admin decision on a feature request. It is present
// exactly when the request has left pending, so an approved request without
// a reviewer cannot be represented.
type Review struct {
	ReviewedBy      bson.ObjectID `bson:"reviewedBy" json:"reviewedBy"`
	ReviewedAt      int           `bson:"reviewedAt" json:"reviewedAt"`
	ResponseMessage string        `bson:"responseMessage,omitempty" json:"responseMessage,omitempty"`
}

type FeatureRequest struct {
	ID             bson.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         bson.ObjectID `bson:"userId" json:"userId"`
	FeatureID      bson.ObjectID `bson:"featureId" json:"featureId"`
	Status         string        `bson:"status" json:"status"`
	RequestMessage string        `bson:"requestMessage,omitempty" json:"requestMessage,omitempty"`
	RequestedAt    int           `bson:"requestedAt" json:"requestedAt"`
	Review         *Review       `bson:"review,omitempty" json:"review,omitempty"`

	Feature *Feature `bson:"feature,omitempty" json:"feature,omitempty"`
	User    *User    `bson:"user,omitempty" json:"user,omitempty"`
}

func (r *FeatureRequest) IsPending() bool {
	return r.Status == RequestStatusPending
}

type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Role     string `json:"role"`
}
