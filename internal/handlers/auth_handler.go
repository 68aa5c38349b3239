package handlers

import (
	"errors"
	"fmt"
	"log"

	"bizdir/internal/models"
	"bizdir/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for registration and login.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
	debugRoutes bool
}

// NewAuthHandler creates a new AuthHandler. debugRoutes additionally exposes
// the admin-bootstrap and bulk user routes; never enable it in production.
func NewAuthHandler(authService *services.AuthService, debugRoutes bool) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
		debugRoutes: debugRoutes,
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)
	authRoutes.Post("/admin/login", h.HandleAdminLogin)

	if h.debugRoutes {
		authRoutes.Post("/create-admin", h.HandleCreateAdmin)
		authRoutes.Get("/users", h.HandleListUsers)
		authRoutes.Delete("/users", h.HandleDeleteUsers)
	}
}

// RegisterRequest represents the request body for registration. The admin
// flag is deliberately not part of it; admins are created through the gated
// bootstrap route only.
type RegisterRequest struct {
	Name         string `json:"name" validate:"required,min=2,max=100"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=6"`
	BusinessName string `json:"business_name" validate:"omitempty,max=255"`
	PhoneNumber  string `json:"phone_number" validate:"omitempty,max=50"`
	Address      string `json:"address" validate:"omitempty,max=255"`
}

func (r RegisterRequest) toUser() *models.User {
	return &models.User{
		Name:         r.Name,
		Email:        r.Email,
		Password:     r.Password,
		BusinessName: r.BusinessName,
		PhoneNumber:  r.PhoneNumber,
		Address:      r.Address,
	}
}

// HandleRegister handles new user registration and issues a session token.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing register request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return validationErrorResponse(c, err)
	}

	user := req.toUser()
	token, err := h.authService.Register(user)
	if err != nil {
		log.Printf("Error registering user: %v", err)
		if errors.Is(err, models.ErrEmailRegistered) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": "Registration failed",
				"error":   err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not register user",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"token":   token,
		"user":    user,
	})
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin handles standard user login and issues a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing login request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return validationErrorResponse(c, err)
	}

	token, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		log.Printf("Error during login for %s: %v", req.Email, err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Authentication failed",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   token,
	})
}

// HandleAdminLogin handles the administrator login path. Every failure mode
// answers with the same generic message so responses cannot be used to probe
// which accounts are privileged.
func (h *AuthHandler) HandleAdminLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing admin login request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return validationErrorResponse(c, err)
	}

	token, err := h.authService.AdminLogin(req.Email, req.Password)
	if err != nil {
		// Logs keep the detail; the response stays generic.
		log.Printf("Admin login failed for %s: %v", req.Email, err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Invalid credentials",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   token,
	})
}

// HandleCreateAdmin creates an administrator account. Debug routes only.
func (h *AuthHandler) HandleCreateAdmin(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return validationErrorResponse(c, err)
	}

	user := req.toUser()
	if err := h.authService.CreateAdmin(user); err != nil {
		log.Printf("Error creating admin: %v", err)
		if errors.Is(err, models.ErrEmailRegistered) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": "Admin creation failed",
				"error":   err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not create admin",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Admin created successfully",
		"user_id": user.ID,
	})
}

// HandleListUsers lists every user. Debug routes only.
func (h *AuthHandler) HandleListUsers(c *fiber.Ctx) error {
	users, err := h.authService.ListUsers()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not list users",
			"error":   err.Error(),
		})
	}
	return c.JSON(users)
}

// HandleDeleteUsers removes every user. Debug routes only.
func (h *AuthHandler) HandleDeleteUsers(c *fiber.Ctx) error {
	if err := h.authService.DeleteAllUsers(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not delete users",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message": "All users deleted",
	})
}

// validationErrorResponse renders validator failures as a per-field map.
func validationErrorResponse(c *fiber.Ctx, err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}
	errorMessages := make(map[string]string)
	for _, e := range validationErrors {
		errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation failed",
		"errors":  errorMessages,
	})
}
