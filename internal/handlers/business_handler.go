package handlers

import (
	"errors"
	"log"

	"bizdir/internal/middleware"
	"bizdir/internal/models"
	"bizdir/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// BusinessHandler handles HTTP requests for business listings.
type BusinessHandler struct {
	service  *services.BusinessService
	validate *validator.Validate
}

// NewBusinessHandler creates a new BusinessHandler.
func NewBusinessHandler(service *services.BusinessService) *BusinessHandler {
	return &BusinessHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the listing routes. Auth middleware is attached
// per route: a group-level Use would guard the whole /business prefix,
// including the public reads. Parameter routes are registered last so they do
// not shadow the named paths.
func (h *BusinessHandler) RegisterRoutes(router fiber.Router, authRequired, optionalAuth fiber.Handler) {
	businessRoutes := router.Group("/business")

	businessRoutes.Get("/categories", h.HandleCategories)
	businessRoutes.Get("/approved", h.HandleListApproved)

	businessRoutes.Post("/create", authRequired, h.HandleCreate)
	businessRoutes.Get("/my-listings", authRequired, h.HandleMyListings)

	businessRoutes.Get("/:id", optionalAuth, h.HandleGetByID)
	businessRoutes.Delete("/:id", authRequired, h.HandleDelete)
}

// HandleCategories returns the public category directory.
func (h *BusinessHandler) HandleCategories(c *fiber.Ctx) error {
	categories, err := h.service.Categories()
	if err != nil {
		log.Printf("Error fetching categories: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Error fetching categories",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"categories": categories,
	})
}

// HandleListApproved returns approved listings, optionally filtered by the
// industry, membershipCategory and searchQuery query parameters.
func (h *BusinessHandler) HandleListApproved(c *fiber.Ctx) error {
	businesses, err := h.service.ListApproved(
		c.Query("industry"),
		c.Query("membershipCategory"),
		c.Query("searchQuery"),
	)
	if err != nil {
		log.Printf("Error fetching approved businesses: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Error fetching businesses",
			"error":   err.Error(),
		})
	}

	stripReviewNotes(businesses)
	return c.JSON(fiber.Map{
		"success":    true,
		"count":      len(businesses),
		"businesses": businesses,
	})
}

// HandleCreate submits a new listing for the authenticated user. Media
// references in the body are opaque strings previously issued by the upload
// collaborator.
func (h *BusinessHandler) HandleCreate(c *fiber.Ctx) error {
	var business models.Business
	if err := c.BodyParser(&business); err != nil {
		log.Printf("Error parsing create business request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(business); err != nil {
		return validationErrorResponse(c, err)
	}

	identity := middleware.IdentityFromCtx(c)
	created, err := h.service.Create(identity.UserID, &business)
	if err != nil {
		log.Printf("Error creating business listing: %v", err)
		if errors.Is(err, models.ErrValidation) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Error creating business listing",
				"error":   err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Error creating business listing",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":  true,
		"message":  "Business listing created successfully",
		"business": created,
	})
}

// HandleMyListings returns the authenticated user's own listings. Reviewer
// notes stay admin-only here, same as on the detail view.
func (h *BusinessHandler) HandleMyListings(c *fiber.Ctx) error {
	identity := middleware.IdentityFromCtx(c)
	businesses, err := h.service.ListOwnedBy(identity.UserID)
	if err != nil {
		log.Printf("Error fetching listings for user %s: %v", identity.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Error fetching your businesses",
			"error":   err.Error(),
		})
	}
	if !identity.IsAdmin() {
		stripReviewNotes(businesses)
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"businesses": businesses,
	})
}

// HandleGetByID returns a single listing. Listings not yet approved are
// visible only to their owner and to administrators; everyone else gets the
// same not-found answer as for a missing id. Reviewer notes stay admin-only.
func (h *BusinessHandler) HandleGetByID(c *fiber.Ctx) error {
	businessID := c.Params("id")
	business, err := h.service.GetByID(businessID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return notFoundResponse(c)
		}
		log.Printf("Error fetching business %s: %v", businessID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Error fetching business details",
			"error":   err.Error(),
		})
	}

	identity := middleware.IdentityFromCtx(c)
	if business.Status != models.StatusApproved && !identity.CanMutate(business.CreatedBy) {
		return notFoundResponse(c)
	}
	if !identity.IsAdmin() {
		business.ReviewNotes = ""
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"business": business,
	})
}

func notFoundResponse(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"success": false,
		"message": "Business not found",
	})
}

// HandleDelete deletes a listing. The service grants this to the owning user
// only.
func (h *BusinessHandler) HandleDelete(c *fiber.Ctx) error {
	businessID := c.Params("id")
	identity := middleware.IdentityFromCtx(c)

	if err := h.service.Delete(businessID, identity); err != nil {
		log.Printf("Error deleting business %s: %v", businessID, err)
		switch {
		case errors.Is(err, models.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "Business not found",
			})
		case errors.Is(err, models.ErrForbidden):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"message": "Not authorized",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Error deleting business",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Business deleted successfully",
	})
}

func stripReviewNotes(businesses []models.Business) {
	for i := range businesses {
		businesses[i].ReviewNotes = ""
	}
}
