package handlers

import (
	"fmt"

	"github.com/bigdady147/Eddy-Hub/internal/models"
	"github.com/bigdady147/Eddy-Hub/internal/service"

	"github.com/gofiber/fiber/v3"
)

type PermissionHandler struct {
	permissionService *service.PermissionService
}

func NewPermissionHandler(permissionService *service.PermissionService) *PermissionHandler {
	return &PermissionHandler{permissionService: permissionService}
}

func (h *PermissionHandler) RegisterRoutes(app *fiber.App, authenticate, requireAdmin fiber.Handler) {
	permissionGroup := app.Group("/api/permissions", authenticate)

	permissionGroup.Post("/grant", h.Grant, requireAdmin)
	permissionGroup.Post("/grant-multiple", h.GrantMultiple, requireAdmin)
	permissionGroup.Post("/revoke", h.Revoke, requireAdmin)
	permissionGroup.Post("/revoke-all", h.RevokeAll, requireAdmin)

	permissionGroup.Get("/stats", h.Stats, requireAdmin)
	permissionGroup.Get("/check/:userId/:featureKey", h.Check)

	permissionGroup.Get("/user/:userId", h.UserPermissionIDs)
	permissionGroup.Get("/user/:userId/features", h.UserFeatures)
	permissionGroup.Get("/user/:userId/all", h.AllUserPermissions)
	permissionGroup.Get("/feature/:featureId/users", h.UsersByFeature, requireAdmin)

	permissionGroup.Get("/:userId/:featureId", h.Detail, requireAdmin)
	permissionGroup.Delete("/:userId/:featureId", h.Delete, requireAdmin)
}

func (h *PermissionHandler) Grant(c fiber.Ctx) error {
	var req models.GrantPermissionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return Fail(c, err)
	}

	permission, err := h.permissionService.Grant(c.Context(), req.UserID, req.FeatureID, req.GrantedBy)
	if err != nil {
		return Fail(c, err)
	}
	return Success(c, fiber.StatusOK, permission, "Permission granted")
}

func (h *PermissionHandler) GrantMultiple(c fiber.Ctx) error {
	var req models.GrantMultipleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return Fail(c, err)
	}

	permissions, err := h.permissionService.GrantMultiple(c.Context(), req.UserID, req.FeatureIDs, req.GrantedBy)
	if err != nil {
		return Fail(c, err)
	}
	return Success(c, fiber.StatusOK, permissions, fmt.Sprintf("Granted %d permissions", len(permissions)))
}

func (h *PermissionHandler) Revoke(c fiber.Ctx) error {
	var req models.RevokePermissionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return Fail(c, err)
	}

	permission, err := h.permissionService.Revoke(c.Context(), req.UserID, req.FeatureID)
	if err != nil {
		return Fail(c, err)
	}
	return Success(c, fiber.StatusOK, permission, "Permission revoked")
}

func (h *PermissionHandler) RevokeAll(c fiber.Ctx) error {
	var req models.RevokeAllRequest
	if err := bindAndValidate(c, &req); err != nil {
		return Fail(c, err)
	}

	if err := h.permissionService.RevokeAll(c.Context(), req.UserID); err != nil {
		return Fail(c, err)
	}
	return Success(c, fiber.StatusOK, nil, "All permissions revoked")
}

func (h *PermissionHandler) Check(c fiber.Ctx) error {
	hasPermission, err := h.permissionService.HasPermission(c.Context(), c.Params("userId"), c.Params("featureKey"))
	if err != nil {
		return Fail(c, err)
	}
	return Success(c, fiber.StatusOK, fiber.Map{"hasPermission": hasPermission}, "Success")
}

func (h *PermissionHandler) UserPermissionIDs(c fiber.Ctx) error {
	ids, err := h.permissionService.GetUserPermissionIDs(c.Context(), c.Params("userId"))
	if err != nil {
		return Fail(c, err)
	}
	return Success(c, fiber.StatusOK, ids, "Success")
}

func (h *PermissionHandler) UserFeatures(c fiber.Ctx) error {
	features, err := h.permissionService.GetUserFeatures(c.Context(), c.Params("userId"))
	if err != nil {
		return Fail(c, err)
	}
	return Success(c, fiber.StatusOK, features, "Success")
}

func (h *PermissionHandler) AllUserPermissions(c fiber.Ctx) error {
	permissions, err := h.permissionService.GetAllUserPermissions(c.Context(), c.Params("userId"))
	if err != nil {
		return Fail(c, err)
	}
	return Success(c, fiber.StatusOK, permissions, "Success")
}

func (h *PermissionHandler) UsersByFeature(c fiber.Ctx) error {
	users, err := h.permissionService.GetUsersByFeature(c.Context(), c.Params("featureId"))
	if err != nil {
		return Fail(c, err)
	}
	return Success(c, fiber.StatusOK, users, "Success")
}

func (h *PermissionHandler) Detail(c fiber.Ctx) error {
	permission, err := h.permissionService.GetPermissionDetail(c.Context(), c.Params("userId"), c.Params("featureId"))
	if err != nil {
		return Fail(c, err)
	}
	return Success(c, fiber.StatusOK, permission, "Success")
}

func (h *PermissionHandler) Delete(c fiber.Ctx) error {
	if err := h.permissionService.DeletePermission(c.Context(), c.Params("userId"), c.Params("featureId")); err != nil {
		return Fail(c, err)
	}
	return Success(c, fiber.StatusOK, nil, "Permission deleted")
}

func (h *PermissionHandler) Stats(c fiber.Ctx) error {
	stats, err := h.permissionService.GetStats(c.Context())
	if err != nil {
		return Fail(c, err)
	}
	return Success(c, fiber.StatusOK, stats, "Success")
}
