package models

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"fullName"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}

type CreateFeatureRequest struct {
	Key         string        `json:"key" validate:"required"`
	Name        LocalizedText `json:"name"`
	Description LocalizedText `json:"description"`
	Icon        string        `json:"icon"`
}

type GrantPermissionRequest struct {
	UserID    string `json:"userId" validate:"required"`
	FeatureID string `json:"featureId" validate:"required"`
	GrantedBy string `json:"grantedBy"`
}

type GrantMultipleRequest struct {
	UserID     string   `json:"userId" validate:"required"`
	FeatureIDs []string `json:"featureIds" validate:"required,min=1"`
	GrantedBy  string   `json:"grantedBy"`
}

type RevokePermissionRequest struct {
	UserID    string `json:"userId" validate:"required"`
	FeatureID string `json:"featureId" validate:"required"`
}

type RevokeAllRequest struct {
	UserID string `json:"userId" validate:"required"`
}

type BulkFeatureRequest struct {
	FeatureIDs     []string `json:"featureIds" validate:"required,min=1"`
	RequestMessage string   `json:"requestMessage"`
}

type ReviewRequest struct {
	ResponseMessage string `json:"responseMessage"`
}

// BulkSubmitResult reports a bulk submission: Created counts only the rows
// inserted by this call, Requests also echoes reused pending requests.
type BulkSubmitResult struct {
	Created  int               `json:"created"`
	Requests []*FeatureRequest `json:"requests"`
}

type PermissionStats struct {
	TotalPermissions    int64 `json:"totalPermissions"`
	ActivePermissions   int64 `json:"activePermissions"`
	InactivePermissions int64 `json:"inactivePermissions"`
}

type RequestStats struct {
	Total    int64 `json:"total"`
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
}

type RequestListFilter struct {
	Status string
	Page   int
	Limit  int
}
