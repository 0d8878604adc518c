package handlers

import (
	"bazaar/internal/models"
	"bazaar/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// WarehouseHandler manages the deployment's pickup warehouse. Fulfillment
// cannot run without one.
type WarehouseHandler struct {
	repo     repositories.WarehouseRepository
	validate *validator.Validate
	logger   *log.Entry
}

// NewWarehouseHandler creates a new WarehouseHandler.
func NewWarehouseHandler(repo repositories.WarehouseRepository) *WarehouseHandler {
	return &WarehouseHandler{
		repo:     repo,
		validate: validator.New(),
		logger:   log.WithField("component", "warehouse-handler"),
	}
}

// RegisterRoutes registers warehouse routes; both are admin-only.
func (h *WarehouseHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler, adminOnly fiber.Handler) {
	warehouseRoutes := router.Group("/warehouse", auth, adminOnly)
	warehouseRoutes.Get("/", h.HandleGetWarehouse)
	warehouseRoutes.Put("/", h.HandleSaveWarehouse)
}

// HandleGetWarehouse returns the configured pickup warehouse.
func (h *WarehouseHandler) HandleGetWarehouse(c *fiber.Ctx) error {
	warehouse, err := h.repo.Get()
	if err != nil {
		return orderError(c, err)
	}
	return c.JSON(warehouse)
}

// HandleSaveWarehouse creates or replaces the pickup warehouse.
func (h *WarehouseHandler) HandleSaveWarehouse(c *fiber.Ctx) error {
	var warehouse models.Warehouse
	if err := c.BodyParser(&warehouse); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(warehouse); err != nil {
		return validationError(c, err)
	}
	if err := h.repo.Save(&warehouse); err != nil {
		h.logger.WithError(err).Error("Failed to save warehouse")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not save warehouse",
		})
	}
	return c.JSON(warehouse)
}
