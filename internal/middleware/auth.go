package middleware

import (
	"strings"

	"github.com/bigdady147/Eddy-Hub/internal/apperror"
	"github.com/bigdady147/Eddy-Hub/internal/models"
	"github.com/bigdady147/Eddy-Hub/internal/service"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const userLocalKey = "currentUser"

// Authenticate validates the Bearer token and loads the caller into the
// request locals. The identity supplied by the credential layer is trusted
// verbatim downstream.
func Authenticate(jwtService *service.JWTService, userService *service.UserService) fiber.Handler {
	return func(c fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			return unauthorized(c, "No token provided")
		}

		claims, err := jwtService.ValidateToken(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			return unauthorized(c, "Invalid or expired token")
		}

		userID, err := bson.ObjectIDFromHex(claims.UserID)
		if err != nil {
			return unauthorized(c, "Invalid or expired token")
		}

		user, err := userService.GetByID(c.Context(), userID)
		if err != nil {
			if apperror.KindOf(err) == apperror.KindNotFound {
				return unauthorized(c, "Invalid or expired token")
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to resolve caller",
			})
		}
		if !user.IsActive {
			return unauthorized(c, "Account is deactivated")
		}

		c.Locals(userLocalKey, user)
		return c.Next()
	}
}

// RequireAdmin guards admin-only routes. Must run after Authenticate.
func RequireAdmin() fiber.Handler {
	return func(c fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil || !user.IsAdmin() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"message": "Admin access required",
			})
		}
		return c.Next()
	}
}

// CurrentUser returns the authenticated caller, or nil outside an
// authenticated route.
func CurrentUser(c fiber.Ctx) *models.User {
	user, _ := c.Locals(userLocalKey).(*models.User)
	return user
}

func unauthorized(c fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}
