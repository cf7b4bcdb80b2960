package handlers

import (
	"strconv"

	"github.com/bigdady147/Eddy-Hub/internal/middleware"
	"github.com/bigdady147/Eddy-Hub/internal/models"
	"github.com/bigdady147/Eddy-Hub/internal/service"

	"github.com/gofiber/fiber/v3"
)

type RequestHandler struct {
	requestService *service.RequestService
}

func NewRequestHandler(requestService *service.RequestService) *RequestHandler {
	return &RequestHandler{requestService: requestService}
}

func (h *RequestHandler) RegisterRoutes(app *fiber.App, authenticate, requireAdmin fiber.Handler) {
	requestGroup := app.Group("/api/feature-requests", authenticate)

	// User endpoints
	requestGroup.Post("/bulk", h.SubmitBulk)
	requestGroup.Get("/my-requests", h.MyRequests)

	// Admin endpoints; the static paths are registered before the :id routes
	requestGroup.Get("/pending", h.Pending, requireAdmin)
	requestGroup.Get("/stats", h.Stats, requireAdmin)
	requestGroup.Get("/", h.All, requireAdmin)
	requestGroup.Patch("/:id/approve", h.Approve, requireAdmin)
	requestGroup.Patch("/:id/reject", h.Reject, requireAdmin)

	requestGroup.Delete("/:id", h.Cancel)
}

func (h *RequestHandler) SubmitBulk(c fiber.Ctx) error {
	var req models.BulkFeatureRequest
	if err := bindAndValidate(c, &req); err != nil {
		return Fail(c, err)
	}

	user := middleware.CurrentUser(c)
	result, err := h.requestService.SubmitBulk(c.Context(), user, req.FeatureIDs, req.RequestMessage)
	if err != nil {
		return Fail(c, err)
	}
	return Success(c, fiber.StatusCreated, result, "Feature requests submitted")
}

func (h *RequestHandler) MyRequests(c fiber.Ctx) error {
	requests, err := h.requestService.GetMyRequests(c.Context(), middleware.CurrentUser(c))
	if err != nil {
		return Fail(c, err)
	}
	return Success(c, fiber.StatusOK, requests, "Success")
}

func (h *RequestHandler) Cancel(c fiber.Ctx) error {
	request, err := h.requestService.Cancel(c.Context(), c.Params("id"), middleware.CurrentUser(c))
	if err != nil {
		return Fail(c, err)
	}
	return Success(c, fiber.StatusOK, request, "Request cancelled")
}

func (h *RequestHandler) All(c fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	filter := &models.RequestListFilter{
		Status: c.Query("status"),
		Page:   page,
		Limit:  limit,
	}

	requests, err := h.requestService.GetAllRequests(c.Context(), filter)
	if err != nil {
		return Fail(c, err)
	}
	return Success(c, fiber.StatusOK, requests, "Success")
}

func (h *RequestHandler) Pending(c fiber.Ctx) error {
	requests, err := h.requestService.GetPendingRequests(c.Context())
	if err != nil {
		return Fail(c, err)
	}
	return Success(c, fiber.StatusOK, requests, "Success")
}

func (h *RequestHandler) Stats(c fiber.Ctx) error {
	stats, err := h.requestService.GetStats(c.Context())
	if err != nil {
		return Fail(c, err)
	}
	return Success(c, fiber.StatusOK, stats, "Success")
}

func (h *RequestHandler) Approve(c fiber.Ctx) error {
	// The response message body is optional.
	var req models.ReviewRequest
	if len(c.Body()) > 0 {
		if err := bindAndValidate(c, &req); err != nil {
			return Fail(c, err)
		}
	}

	request, err := h.requestService.Approve(c.Context(), c.Params("id"), middleware.CurrentUser(c), req.ResponseMessage)
	if err != nil {
		return Fail(c, err)
	}
	return Success(c, fiber.StatusOK, request, "Request approved")
}

func (h *RequestHandler) Reject(c fiber.Ctx) error {
	var req models.ReviewRequest
	if len(c.Body()) > 0 {
		if err := bindAndValidate(c, &req); err != nil {
			return Fail(c, err)
		}
	}

	request, err := h.requestService.Reject(c.Context(), c.Params("id"), middleware.CurrentUser(c), req.ResponseMessage)
	if err != nil {
		return Fail(c, err)
	}
	return Success(c, fiber.StatusOK, request, "Request rejected")
}
