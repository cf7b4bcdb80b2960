package handlers

import (
	"github.com/bigdady147/Eddy-Hub/internal/models"
	"github.com/bigdady147/Eddy-Hub/internal/service"

	"github.com/gofiber/fiber/v3"
)

type FeatureHandler struct {
	featureService *service.FeatureService
}

func NewFeatureHandler(featureService *service.FeatureService) *FeatureHandler {
	return &FeatureHandler{featureService: featureService}
}

func (h *FeatureHandler) RegisterRoutes(app *fiber.App, authenticate, requireAdmin fiber.Handler) {
	featureGroup := app.Group("/api/features", authenticate)

	featureGroup.Get("/", h.GetFeatures)
	featureGroup.Post("/", h.CreateFeature, requireAdmin)
}

// GetFeatures lists the active catalog in creation order.
func (h *FeatureHandler) GetFeatures(c fiber.Ctx) error {
	features, err := h.featureService.GetActiveFeatures(c.Context())
	if err != nil {
		return Fail(c, err)
	}
	return Success(c, fiber.StatusOK, features, "Success")
}

func (h *FeatureHandler) CreateFeature(c fiber.Ctx) error {
	var req models.CreateFeatureRequest
	if err := bindAndValidate(c, &req); err != nil {
		return Fail(c, err)
	}

	feature, err := h.featureService.CreateFeature(c.Context(), &req)
	if err != nil {
		return Fail(c, err)
	}
	return Success(c, fiber.StatusCreated, feature, "Feature created")
}
