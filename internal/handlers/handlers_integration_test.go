package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"bizdir/internal/handlers"
	"bizdir/internal/middleware"
	"bizdir/internal/models"
	"bizdir/internal/repositories"
	"bizdir/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupApp sets up a Fiber app for testing with in-memory SQLite and all
// handlers/services. dbName isolates each test's database.
func setupApp(dbName string) (*fiber.App, error) {
	viper.SetDefault("JWT_SECRET", "test_jwt_secret")
	viper.AutomaticEnv()
	jwtSecret := viper.GetString("JWT_SECRET")

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", dbName)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to in-memory database: %w", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Business{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	userRepo := repositories.NewGORMUserRepository(db)
	businessRepo := repositories.NewGORMBusinessRepository(db)

	authService := services.NewAuthService(userRepo, jwtSecret)
	businessService := services.NewBusinessService(businessRepo, nil) // nil event publisher

	authHandler := handlers.NewAuthHandler(authService, true) // debug routes on for admin bootstrap
	businessHandler := handlers.NewBusinessHandler(businessService)
	adminHandler := handlers.NewAdminHandler(businessService)

	app := fiber.New()

	api := app.Group("/api")
	authHandler.RegisterRoutes(api)

	authRequired := middleware.AuthRequired(authService)
	optionalAuth := middleware.OptionalAuth(authService)
	businessHandler.RegisterRoutes(api, authRequired, optionalAuth)
	adminHandler.RegisterRoutes(api, authRequired)

	return app, nil
}

// TestMain runs setup and teardown for all tests
func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	code := m.Run()
	os.Exit(code)
}

type businessEnvelope struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message"`
	Business models.Business `json:"business"`
}

type businessListEnvelope struct {
	Success    bool              `json:"success"`
	Count      int               `json:"count"`
	Businesses []models.Business `json:"businesses"`
}

func doJSON(t *testing.T, app *fiber.App, method, target, token string, body interface{}) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		assert.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1) // -1 for no timeout
	assert.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func registerUser(t *testing.T, app *fiber.App, name, email string) string {
	t.Helper()
	resp := doJSON(t, app, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": "password123",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var registerResp map[string]interface{}
	decode(t, resp, &registerResp)
	token, _ := registerResp["token"].(string)
	assert.NotEmpty(t, token)
	return token
}

func adminToken(t *testing.T, app *fiber.App, email string) string {
	t.Helper()
	resp := doJSON(t, app, http.MethodPost, "/api/auth/create-admin", "", map[string]string{
		"name":     "Admin",
		"email":    email,
		"password": "adminpass123",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/api/auth/admin/login", "", map[string]string{
		"email":    email,
		"password": "adminpass123",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var loginResp map[string]string
	decode(t, resp, &loginResp)
	assert.NotEmpty(t, loginResp["token"])
	return loginResp["token"]
}

func createListing(t *testing.T, app *fiber.App, token, name string) models.Business {
	t.Helper()
	resp := doJSON(t, app, http.MethodPost, "/api/business/create", token, map[string]interface{}{
		"business_name":       name,
		"contact_name":        "Jane Doe",
		"email":               "contact@example.com",
		"phone":               "+1-555-0100",
		"industry":            "Technology",
		"membership_category": "Prime A",
		"description":         "Cloud consulting",
		"images":              []string{"uploads/img-1.png"},
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var created businessEnvelope
	decode(t, resp, &created)
	assert.True(t, created.Success)
	assert.NotEmpty(t, created.Business.ID)
	return created.Business
}

func TestAuthRegisterAndLogin(t *testing.T) {
	app, err := setupApp("auth_register")
	assert.NoError(t, err)

	// Registration issues a token right away.
	userBody := map[string]string{
		"name":     "Test User",
		"email":    "test@example.com",
		"password": "password123",
	}
	resp := doJSON(t, app, http.MethodPost, "/api/auth/register", "", userBody)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var registerResp map[string]interface{}
	decode(t, resp, &registerResp)
	assert.Equal(t, "User registered successfully", registerResp["message"])
	assert.NotEmpty(t, registerResp["token"])

	// Duplicate email conflicts.
	resp = doJSON(t, app, http.MethodPost, "/api/auth/register", "", userBody)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Login with the registered credentials.
	resp = doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "test@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var loginResp map[string]string
	decode(t, resp, &loginResp)
	assert.NotEmpty(t, loginResp["token"])

	// Admin login with a non-admin account fails with the generic message.
	resp = doJSON(t, app, http.MethodPost, "/api/auth/admin/login", "", map[string]string{
		"email":    "test@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	var adminResp map[string]string
	decode(t, resp, &adminResp)
	assert.Equal(t, "Invalid credentials", adminResp["message"])

	// Wrong password yields the very same response body.
	resp = doJSON(t, app, http.MethodPost, "/api/auth/admin/login", "", map[string]string{
		"email":    "test@example.com",
		"password": "wrongpassword",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	var wrongResp map[string]string
	decode(t, resp, &wrongResp)
	assert.Equal(t, adminResp, wrongResp)
}

func TestModerationLifecycle(t *testing.T) {
	app, err := setupApp("moderation_lifecycle")
	assert.NoError(t, err)

	tokenA := registerUser(t, app, "Owner A", "a@x.com")
	created := createListing(t, app, tokenA, "Acme Corp")
	assert.Equal(t, models.StatusPending, created.Status)
	assert.Nil(t, created.ApprovedDate)

	// Not publicly visible before approval: the anonymous detail view answers
	// not-found, while the owner still sees their own pending listing.
	resp := doJSON(t, app, http.MethodGet, "/api/business/"+created.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/business/"+created.ID, tokenA, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var pendingDetail businessEnvelope
	decode(t, resp, &pendingDetail)
	assert.Equal(t, models.StatusPending, pendingDetail.Business.Status)

	resp = doJSON(t, app, http.MethodGet, "/api/business/approved", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var approvedList businessListEnvelope
	decode(t, resp, &approvedList)
	assert.Equal(t, 0, approvedList.Count)

	// Admin sees it in the moderation queue.
	admin := adminToken(t, app, "admin@x.com")
	resp = doJSON(t, app, http.MethodGet, "/api/admin/pending-businesses", admin, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var pendingList businessListEnvelope
	decode(t, resp, &pendingList)
	assert.Equal(t, 1, pendingList.Count)
	assert.Equal(t, created.ID, pendingList.Businesses[0].ID)

	// Approve with review notes.
	resp = doJSON(t, app, http.MethodPatch, "/api/admin/business/"+created.ID, admin, map[string]string{
		"status":       "approved",
		"review_notes": "verified phone and website",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var approved businessEnvelope
	decode(t, resp, &approved)
	assert.Equal(t, models.StatusApproved, approved.Business.Status)
	assert.NotNil(t, approved.Business.ApprovedDate)

	// The public detail view shows the approval but never the review notes.
	resp = doJSON(t, app, http.MethodGet, "/api/business/"+created.ID, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var detail businessEnvelope
	decode(t, resp, &detail)
	assert.Equal(t, models.StatusApproved, detail.Business.Status)
	assert.NotNil(t, detail.Business.ApprovedDate)
	assert.Empty(t, detail.Business.ReviewNotes)

	// Now publicly listed.
	resp = doJSON(t, app, http.MethodGet, "/api/business/approved", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &approvedList)
	assert.Equal(t, 1, approvedList.Count)
	assert.Equal(t, created.ID, approvedList.Businesses[0].ID)
	assert.Empty(t, approvedList.Businesses[0].ReviewNotes)

	// A different non-admin user cannot delete it.
	tokenB := registerUser(t, app, "Owner B", "b@x.com")
	resp = doJSON(t, app, http.MethodDelete, "/api/business/"+created.ID, tokenB, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// Neither can the admin: delete stays with the owner.
	resp = doJSON(t, app, http.MethodDelete, "/api/business/"+created.ID, admin, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// Still retrievable after the refused attempts.
	resp = doJSON(t, app, http.MethodGet, "/api/business/"+created.ID, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// The owner deletes it; it is gone afterwards.
	resp = doJSON(t, app, http.MethodDelete, "/api/business/"+created.ID, tokenA, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/business/"+created.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestAdminEndpointsRequireAdmin(t *testing.T) {
	app, err := setupApp("admin_only")
	assert.NoError(t, err)

	token := registerUser(t, app, "Regular User", "user@x.com")
	created := createListing(t, app, token, "Acme Corp")

	// Every admin route refuses a non-admin token.
	resp := doJSON(t, app, http.MethodGet, "/api/admin/pending-businesses", token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPatch, "/api/admin/business/"+created.ID, token, map[string]string{
		"status": "approved",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/admin/statistics", token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// The refused transition did not mutate the listing; the owner still sees
	// it pending, anonymous viewers get nothing.
	resp = doJSON(t, app, http.MethodGet, "/api/business/"+created.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/business/"+created.ID, token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var detail businessEnvelope
	decode(t, resp, &detail)
	assert.Equal(t, models.StatusPending, detail.Business.Status)

	// An invalid target status is rejected as input, not forbidden.
	admin := adminToken(t, app, "admin@only.com")
	resp = doJSON(t, app, http.MethodPatch, "/api/admin/business/"+created.ID, admin, map[string]string{
		"status": "review",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestProtectedEndpointsRequireToken(t *testing.T) {
	app, err := setupApp("requires_token")
	assert.NoError(t, err)

	resp := doJSON(t, app, http.MethodPost, "/api/business/create", "", map[string]string{
		"business_name": "No Token Inc",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/business/my-listings", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Malformed Authorization header.
	req := httptest.NewRequest(http.MethodGet, "/api/business/my-listings", nil)
	req.Header.Set("Authorization", "NotBearer abc")
	malformedResp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, malformedResp.StatusCode)
	malformedResp.Body.Close()

	// Public reads stay open.
	resp = doJSON(t, app, http.MethodGet, "/api/business/approved", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/business/categories", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestStatisticsEndpoint(t *testing.T) {
	app, err := setupApp("statistics")
	assert.NoError(t, err)

	token := registerUser(t, app, "Owner", "owner@stats.com")
	one := createListing(t, app, token, "One")
	two := createListing(t, app, token, "Two")
	createListing(t, app, token, "Three")

	admin := adminToken(t, app, "admin@stats.com")
	resp := doJSON(t, app, http.MethodPatch, "/api/admin/business/"+one.ID, admin, map[string]string{
		"status": "approved",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	resp = doJSON(t, app, http.MethodPatch, "/api/admin/business/"+two.ID, admin, map[string]string{
		"status": "rejected",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/admin/statistics", admin, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var statsResp struct {
		Success bool             `json:"success"`
		Stats   map[string]int64 `json:"stats"`
	}
	decode(t, resp, &statsResp)
	assert.True(t, statsResp.Success)
	assert.Equal(t, map[string]int64{
		models.StatusPending:  1,
		models.StatusApproved: 1,
		models.StatusRejected: 1,
	}, statsResp.Stats)
}

func TestCategoriesEndpoint(t *testing.T) {
	app, err := setupApp("categories")
	assert.NoError(t, err)

	// Empty directory: canonical seed list with zero counts.
	resp := doJSON(t, app, http.MethodGet, "/api/business/categories", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var catResp struct {
		Success    bool                   `json:"success"`
		Categories []models.CategoryCount `json:"categories"`
	}
	decode(t, resp, &catResp)
	assert.True(t, catResp.Success)
	assert.Len(t, catResp.Categories, 8)
	for _, category := range catResp.Categories {
		assert.Equal(t, int64(0), category.Count)
	}

	// After an approval, real industries replace the seed list.
	token := registerUser(t, app, "Owner", "owner@cat.com")
	created := createListing(t, app, token, "Acme Corp")
	admin := adminToken(t, app, "admin@cat.com")
	resp = doJSON(t, app, http.MethodPatch, "/api/admin/business/"+created.ID, admin, map[string]string{
		"status": "approved",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/business/categories", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &catResp)
	assert.Equal(t, []models.CategoryCount{{Name: "Technology", Count: 1}}, catResp.Categories)
}

func TestMyListings(t *testing.T) {
	app, err := setupApp("my_listings")
	assert.NoError(t, err)

	tokenA := registerUser(t, app, "Owner A", "a@mine.com")
	tokenB := registerUser(t, app, "Owner B", "b@mine.com")
	mine := createListing(t, app, tokenA, "Mine")
	createListing(t, app, tokenB, "Theirs")

	resp := doJSON(t, app, http.MethodGet, "/api/business/my-listings", tokenA, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var listResp businessListEnvelope
	decode(t, resp, &listResp)
	assert.Len(t, listResp.Businesses, 1)
	assert.Equal(t, "Mine", listResp.Businesses[0].BusinessName)

	// Reviewer notes stay admin-only on every owner-facing read.
	admin := adminToken(t, app, "admin@mine.com")
	resp = doJSON(t, app, http.MethodPatch, "/api/admin/business/"+mine.ID, admin, map[string]string{
		"status":       "rejected",
		"review_notes": "missing phone number",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/business/my-listings", tokenA, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &listResp)
	assert.Len(t, listResp.Businesses, 1)
	assert.Empty(t, listResp.Businesses[0].ReviewNotes)

	resp = doJSON(t, app, http.MethodGet, "/api/business/"+mine.ID, tokenA, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var detail businessEnvelope
	decode(t, resp, &detail)
	assert.Empty(t, detail.Business.ReviewNotes)

	// The admin view keeps them.
	resp = doJSON(t, app, http.MethodGet, "/api/business/"+mine.ID, admin, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &detail)
	assert.Equal(t, "missing phone number", detail.Business.ReviewNotes)
}
