package service

import (
	"context"

	"github.com/bigdady147/Eddy-Hub/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var accessChecks = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "feature_access_checks_total",
		Help: "Total number of feature access checks",
	},
	[]string{"result"}, // allowed/denied/admin
)

// PermissionChecker is the slice of the permission service the access
// checker needs.
type PermissionChecker interface {
	HasPermission(ctx context.Context, userID, featureKeyOrID string) (bool, error)
}

// AccessService is the single gate every protected feature goes through.
type AccessService struct {
	permissions PermissionChecker
}

func NewAccessService(permissions PermissionChecker) *AccessService {
	return &AccessService{permissions: permissions}
}

// CanAccess answers whether the user may use the feature right now. Admins
// bypass the permission store unconditionally. No side effects.
func (as *AccessService) CanAccess(ctx context.Context, user *models.User, featureKeyOrID string) (bool, error) {
	if user.IsAdmin() {
		accessChecks.WithLabelValues("admin").Inc()
		return true, nil
	}

	allowed, err := as.permissions.HasPermission(ctx, user.ID.Hex(), featureKeyOrID)
	if err != nil {
		return false, err
	}

	if allowed {
		accessChecks.WithLabelValues("allowed").Inc()
	} else {
		accessChecks.WithLabelValues("denied").Inc()
	}
	return allowed, nil
}
