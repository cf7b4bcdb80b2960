package handlers

import (
	"strconv"

	"github.com/bigdady147/Eddy-Hub/internal/service"

	"github.com/gofiber/fiber/v3"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) RegisterRoutes(app *fiber.App, authenticate, requireAdmin fiber.Handler) {
	userGroup := app.Group("/api/users", authenticate, requireAdmin)

	userGroup.Get("/", h.ListUsers)
	userGroup.Put("/:id/activate", h.ActivateUser)
	userGroup.Put("/:id/deactivate", h.DeactivateUser)
}

func (h *UserHandler) ListUsers(c fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	users, err := h.userService.ListUsers(c.Context(), page, limit)
	if err != nil {
		return Fail(c, err)
	}

	return Success(c, fiber.StatusOK, fiber.Map{
		"users": users,
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
			"count": len(users),
		},
	}, "Success")
}

func (h *UserHandler) ActivateUser(c fiber.Ctx) error {
	if err := h.userService.ActivateUser(c.Context(), c.Params("id")); err != nil {
		return Fail(c, err)
	}
	return Success(c, fiber.StatusOK, nil, "User activated")
}

// DeactivateUser disables the account and revokes all of its permissions.
func (h *UserHandler) DeactivateUser(c fiber.Ctx) error {
	if err := h.userService.DeactivateUser(c.Context(), c.Params("id")); err != nil {
		return Fail(c, err)
	}
	return Success(c, fiber.StatusOK, nil, "User deactivated")
}
