package handlers

import (
	"errors"
	"fmt"
	"log"

	"bizdir/internal/middleware"
	"bizdir/internal/models"
	"bizdir/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler handles the moderation and reporting routes. Routes are
// registered behind the auth middleware; the service enforces the admin
// capability itself so a non-admin token gets a 403, never a partial write.
type AdminHandler struct {
	service *services.BusinessService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(service *services.BusinessService) *AdminHandler {
	return &AdminHandler{
		service: service,
	}
}

// RegisterRoutes registers the admin routes behind the auth middleware. The
// /admin prefix is its own, so a group-level middleware stays scoped to it.
func (h *AdminHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	adminRoutes := router.Group("/admin", authRequired)
	adminRoutes.Get("/pending-businesses", h.HandlePendingBusinesses)
	adminRoutes.Patch("/business/:id", h.HandleSetStatus)
	adminRoutes.Get("/statistics", h.HandleStatistics)
}

// HandlePendingBusinesses returns the listings awaiting moderation.
func (h *AdminHandler) HandlePendingBusinesses(c *fiber.Ctx) error {
	identity := middleware.IdentityFromCtx(c)
	businesses, err := h.service.ListPending(identity)
	if err != nil {
		if errors.Is(err, models.ErrForbidden) {
			return forbiddenResponse(c)
		}
		log.Printf("Error fetching pending businesses: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Error fetching pending businesses",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"count":      len(businesses),
		"businesses": businesses,
	})
}

// SetStatusRequest represents the moderation decision body.
type SetStatusRequest struct {
	Status      string `json:"status"`
	ReviewNotes string `json:"review_notes"`
}

// HandleSetStatus applies a moderation decision to a listing.
func (h *AdminHandler) HandleSetStatus(c *fiber.Ctx) error {
	businessID := c.Params("id")

	var req SetStatusRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing status update body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	identity := middleware.IdentityFromCtx(c)
	business, err := h.service.SetStatus(businessID, identity, req.Status, req.ReviewNotes)
	if err != nil {
		log.Printf("Error updating status of business %s: %v", businessID, err)
		switch {
		case errors.Is(err, models.ErrForbidden):
			return forbiddenResponse(c)
		case errors.Is(err, models.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "Business not found",
			})
		case errors.Is(err, models.ErrInvalidStatus):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Invalid status value",
				"error":   err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Error updating business status",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"message":  fmt.Sprintf("Business %s successfully", business.Status),
		"business": business,
	})
}

// HandleStatistics returns the per-status listing counts.
func (h *AdminHandler) HandleStatistics(c *fiber.Ctx) error {
	identity := middleware.IdentityFromCtx(c)
	stats, err := h.service.Statistics(identity)
	if err != nil {
		if errors.Is(err, models.ErrForbidden) {
			return forbiddenResponse(c)
		}
		log.Printf("Error fetching statistics: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Error fetching statistics",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"stats":   stats,
	})
}

func forbiddenResponse(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"success": false,
		"message": "Access denied. Admin only.",
	})
}
