package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/bigdady147/Eddy-Hub/internal/apperror"
	"github.com/bigdady147/Eddy-Hub/internal/events"
	"github.com/bigdady147/Eddy-Hub/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.mongodb.org/mongo-driver/v2/bson"
)

var (
	requestsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feature_requests_submitted_total",
			Help: "Total number of feature requests created",
		},
	)

	requestsResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feature_requests_resolved_total",
			Help: "Total number of feature requests resolved by an admin",
		},
		[]string{"status"},
	)
)

const defaultRequestPageSize = 50

// AccessChecker is the slice of the access service the workflow needs to
// avoid duplicate grants on submission.
type AccessChecker interface {
	CanAccess(ctx context.Context, user *models.User, featureKeyOrID string) (bool, error)
}

// PermissionGranter commits the grant when a request is approved.
type PermissionGranter interface {
	GrantByID(ctx context.Context, userID, featureID, grantedBy bson.ObjectID) (*models.Permission, error)
}

// RequestService runs the pending -> approved/rejected state machine for
// feature requests.
type RequestService struct {
	requests       RequestStore
	features       FeatureStore
	access         AccessChecker
	granter        PermissionGranter
	eventPublisher events.Publisher
}

func NewRequestService(requests RequestStore, features FeatureStore, access AccessChecker, granter PermissionGranter, eventPublisher events.Publisher) *RequestService {
	return &RequestService{
		requests:       requests,
		features:       features,
		access:         access,
		granter:        granter,
		eventPublisher: eventPublisher,
	}
}

// SubmitBulk handles each requested feature independently: features the user
// can already access are skipped, an existing pending request is reused, and
// only otherwise is a new pending request created. Per-item misses are data,
// not errors; only a storage failure aborts the call.
func (rs *RequestService) SubmitBulk(ctx context.Context, user *models.User, featureIDs []string, requestMessage string) (*models.BulkSubmitResult, error) {
	if len(featureIDs) == 0 {
		return nil, apperror.Validation("featureIds must be a non-empty array")
	}

	result := &models.BulkSubmitResult{Requests: []*models.FeatureRequest{}}

	for _, featureID := range featureIDs {
		featureOID, err := bson.ObjectIDFromHex(featureID)
		if err != nil {
			log.Printf("Skipping feature request for invalid id %q", featureID)
			continue
		}

		feature, err := rs.features.FindByID(ctx, featureOID)
		if err != nil {
			return nil, err
		}
		if feature == nil {
			log.Printf("Skipping feature request for unknown feature %s", featureID)
			continue
		}

		allowed, err := rs.access.CanAccess(ctx, user, featureOID.Hex())
		if err != nil {
			return nil, err
		}
		if allowed {
			continue
		}

		existing, err := rs.requests.FindPendingByUserAndFeature(ctx, user.ID, featureOID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			result.Requests = append(result.Requests, existing)
			continue
		}

		request, err := rs.requests.New(ctx, &models.FeatureRequest{
			UserID:         user.ID,
			FeatureID:      featureOID,
			RequestMessage: requestMessage,
			RequestedAt:    int(time.Now().Unix()),
		})
		if err != nil {
			return nil, err
		}

		result.Created++
		result.Requests = append(result.Requests, request)
		requestsSubmitted.Inc()

		if rs.eventPublisher != nil {
			if err := rs.eventPublisher.PublishRequestSubmitted(ctx, request.ID.Hex(), user.ID.Hex(), featureOID.Hex()); err != nil {
				log.Printf("Warning: Failed to publish request submitted event: %v", err)
			}
		}
	}

	return result, nil
}

// Cancel removes the caller's own pending request. Resolved requests and
// other users' requests are invisible to this operation.
func (rs *RequestService) Cancel(ctx context.Context, requestID string, user *models.User) (*models.FeatureRequest, error) {
	requestOID, err := parseObjectID(requestID, "requestId")
	if err != nil {
		return nil, err
	}

	request, err := rs.requests.DeleteOwnedPending(ctx, requestOID, user.ID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, apperror.NotFound("Request not found or cannot be cancelled")
	}
	return request, nil
}

// Approve grants the permission, then flips the request to approved with a
// compare-and-swap on the pending status. The grant is idempotent, so the
// status write is retried on transient failure rather than rolled back.
func (rs *RequestService) Approve(ctx context.Context, requestID string, admin *models.User, responseMessage string) (*models.FeatureRequest, error) {
	request, err := rs.findPending(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if _, err := rs.granter.GrantByID(ctx, request.UserID, request.FeatureID, admin.ID); err != nil {
		return nil, fmt.Errorf("error granting permission for request %s: %w", requestID, err)
	}

	review := &models.Review{
		ReviewedBy:      admin.ID,
		ReviewedAt:      int(time.Now().Unix()),
		ResponseMessage: responseMessage,
	}

	resolved, err := rs.resolveWithRetry(ctx, request.ID, models.RequestStatusApproved, review)
	if err != nil {
		return nil, err
	}
	if resolved == nil {
		// Lost the race to another reviewer after the grant went through.
		// The grant itself is harmless to keep; report the stale state.
		return nil, apperror.InvalidState("Only pending requests can be approved")
	}

	requestsResolved.WithLabelValues(models.RequestStatusApproved).Inc()

	if rs.eventPublisher != nil {
		if err := rs.eventPublisher.PublishRequestResolved(ctx, true, resolved.ID.Hex(), resolved.UserID.Hex(), resolved.FeatureID.Hex(), admin.ID.Hex()); err != nil {
			log.Printf("Warning: Failed to publish request approved event: %v", err)
		}
	}

	return resolved, nil
}

// Reject flips the request to rejected. No permission side effect.
func (rs *RequestService) Reject(ctx context.Context, requestID string, admin *models.User, responseMessage string) (*models.FeatureRequest, error) {
	request, err := rs.findPending(ctx, requestID)
	if err != nil {
		return nil, err
	}

	review := &models.Review{
		ReviewedBy:      admin.ID,
		ReviewedAt:      int(time.Now().Unix()),
		ResponseMessage: responseMessage,
	}

	resolved, err := rs.requests.ResolveFromPending(ctx, request.ID, models.RequestStatusRejected, review)
	if err != nil {
		return nil, err
	}
	if resolved == nil {
		return nil, apperror.InvalidState("Only pending requests can be rejected")
	}

	requestsResolved.WithLabelValues(models.RequestStatusRejected).Inc()

	if rs.eventPublisher != nil {
		if err := rs.eventPublisher.PublishRequestResolved(ctx, false, resolved.ID.Hex(), resolved.UserID.Hex(), resolved.FeatureID.Hex(), admin.ID.Hex()); err != nil {
			log.Printf("Warning: Failed to publish request rejected event: %v", err)
		}
	}

	return resolved, nil
}

func (rs *RequestService) GetMyRequests(ctx context.Context, user *models.User) ([]*models.FeatureRequest, error) {
	return rs.requests.FindByUserWithFeatures(ctx, user.ID)
}

func (rs *RequestService) GetAllRequests(ctx context.Context, filter *models.RequestListFilter) ([]*models.FeatureRequest, error) {
	status := ""
	page, limit := 1, defaultRequestPageSize
	if filter != nil {
		if filter.Status != "" {
			switch filter.Status {
			case models.RequestStatusPending, models.RequestStatusApproved, models.RequestStatusRejected:
				status = filter.Status
			default:
				return nil, apperror.Validation(fmt.Sprintf("unknown status %q", filter.Status))
			}
		}
		if filter.Page > 0 {
			page = filter.Page
		}
		if filter.Limit > 0 && filter.Limit <= 100 {
			limit = filter.Limit
		}
	}
	return rs.requests.Find(ctx, status, page, limit)
}

func (rs *RequestService) GetPendingRequests(ctx context.Context) ([]*models.FeatureRequest, error) {
	return rs.requests.Find(ctx, models.RequestStatusPending, 0, 0)
}

func (rs *RequestService) GetStats(ctx context.Context) (*models.RequestStats, error) {
	total, err := rs.requests.CountByStatus(ctx, "")
	if err != nil {
		return nil, err
	}
	pending, err := rs.requests.CountByStatus(ctx, models.RequestStatusPending)
	if err != nil {
		return nil, err
	}
	approved, err := rs.requests.CountByStatus(ctx, models.RequestStatusApproved)
	if err != nil {
		return nil, err
	}
	rejected, err := rs.requests.CountByStatus(ctx, models.RequestStatusRejected)
	if err != nil {
		return nil, err
	}
	return &models.RequestStats{
		Total:    total,
		Pending:  pending,
		Approved: approved,
		Rejected: rejected,
	}, nil
}

func (rs *RequestService) findPending(ctx context.Context, requestID string) (*models.FeatureRequest, error) {
	requestOID, err := parseObjectID(requestID, "requestId")
	if err != nil {
		return nil, err
	}

	request, err := rs.requests.FindByID(ctx, requestOID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, apperror.NotFound("Request not found")
	}
	if !request.IsPending() {
		return nil, apperror.InvalidState("Only pending requests can be reviewed")
	}
	return request, nil
}

func (rs *RequestService) resolveWithRetry(ctx context.Context, id bson.ObjectID, status string, review *models.Review) (*models.FeatureRequest, error) {
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		resolved, err := rs.requests.ResolveFromPending(ctx, id, status, review)
		if err == nil {
			return resolved, nil
		}
		lastErr = err
		log.Printf("Retrying status update for request %s after error: %v", id.Hex(), err)
		time.Sleep(time.Duration(attempt+1) * 100 * time.Millisecond)
	}
	return nil, lastErr
}
