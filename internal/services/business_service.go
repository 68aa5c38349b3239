package services

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"bizdir/internal/models"
	"bizdir/internal/repositories"
	"bizdir/pkg/rabbitmq"
)

// EventPublisher publishes moderation events for downstream consumers
// (notifications, audit). Satisfied by *rabbitmq.Client.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// defaultCategories seeds the public category directory while no listing has
// been approved yet. Never persisted.
var defaultCategories = []models.CategoryCount{
	{Name: "Technology", Count: 0},
	{Name: "Retail", Count: 0},
	{Name: "Manufacturing", Count: 0},
	{Name: "Healthcare", Count: 0},
	{Name: "Education", Count: 0},
	{Name: "Food & Beverage", Count: 0},
	{Name: "Professional Services", Count: 0},
	{Name: "Construction", Count: 0},
}

// BusinessService enforces the listing moderation lifecycle: the status state
// machine, the ownership rules on mutations and the admin-only reporting.
type BusinessService struct {
	repo   repositories.BusinessRepository
	events EventPublisher
}

// NewBusinessService creates a new BusinessService. events may be nil, in
// which case moderation events are not published.
func NewBusinessService(repo repositories.BusinessRepository, events EventPublisher) *BusinessService {
	return &BusinessService{
		repo:   repo,
		events: events,
	}
}

// Create submits a new listing for ownerID. The listing always enters the
// lifecycle as pending with no approval date, regardless of what the request
// carried.
func (s *BusinessService) Create(ownerID string, business *models.Business) (*models.Business, error) {
	if err := validateRequired(business); err != nil {
		return nil, err
	}

	business.ID = ""
	business.CreatedBy = ownerID
	business.Status = models.StatusPending
	business.ApprovedDate = nil
	business.ReviewNotes = ""
	if business.Priority == "" {
		business.Priority = models.PriorityMedium
	}

	if err := s.repo.Create(business); err != nil {
		return nil, fmt.Errorf("failed to create business listing: %w", err)
	}
	return business, nil
}

// GetByID retrieves a single listing.
func (s *BusinessService) GetByID(id string) (*models.Business, error) {
	return s.repo.GetByID(id)
}

// ListApproved retrieves publicly visible listings, optionally filtered by
// industry, membership category and a case-insensitive search over business
// name and description. Newest first.
func (s *BusinessService) ListApproved(industry, membershipCategory, searchQuery string) ([]models.Business, error) {
	return s.repo.FindApproved(repositories.ApprovedFilter{
		Industry:           industry,
		MembershipCategory: membershipCategory,
		SearchQuery:        searchQuery,
	})
}

// ListOwnedBy retrieves the listings owned by ownerID, newest first.
func (s *BusinessService) ListOwnedBy(ownerID string) ([]models.Business, error) {
	return s.repo.FindByOwner(ownerID)
}

// ListPending retrieves the listings awaiting moderation. Admin only.
func (s *BusinessService) ListPending(identity models.Identity) ([]models.Business, error) {
	if err := requireAdmin(identity, "listing pending businesses"); err != nil {
		return nil, err
	}
	return s.repo.FindByStatus(models.StatusPending)
}

// SetStatus applies a moderation decision. Only administrators may decide;
// the target must be approved or rejected and the listing must still be in a
// moderatable state (pending or review). The approval date is set exactly when
// a listing is approved and cleared otherwise. Review notes, if given, are
// stored verbatim.
func (s *BusinessService) SetStatus(id string, identity models.Identity, status, reviewNotes string) (*models.Business, error) {
	if err := requireAdmin(identity, "updating business status"); err != nil {
		return nil, err
	}

	if status != models.StatusApproved && status != models.StatusRejected {
		return nil, fmt.Errorf("target status %q: %w", status, models.ErrInvalidStatus)
	}

	current, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if current.Status != models.StatusPending && current.Status != models.StatusReview {
		return nil, fmt.Errorf("no transition from %q: %w", current.Status, models.ErrInvalidStatus)
	}

	var approvedDate *time.Time
	if status == models.StatusApproved {
		now := time.Now()
		approvedDate = &now
	}

	business, err := s.repo.UpdateModeration(id, status, reviewNotes, approvedDate)
	if err != nil {
		return nil, err
	}

	s.publishModerationEvent(business)
	return business, nil
}

// Delete removes a listing. Only the owning user may delete, in any status;
// administrators are deliberately not granted delete rights and moderate
// through rejection instead.
func (s *BusinessService) Delete(id string, identity models.Identity) error {
	business, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if identity.UserID != business.CreatedBy {
		return fmt.Errorf("deleting business %s: %w", id, models.ErrForbidden)
	}
	return s.repo.Delete(id)
}

// Statistics reports the number of listings per status. Admin only. The
// pending, approved and rejected buckets are always present, zero-filled when
// empty.
func (s *BusinessService) Statistics(identity models.Identity) (map[string]int64, error) {
	if err := requireAdmin(identity, "fetching statistics"); err != nil {
		return nil, err
	}

	counts, err := s.repo.CountByStatus()
	if err != nil {
		return nil, err
	}

	stats := map[string]int64{
		models.StatusPending:  0,
		models.StatusApproved: 0,
		models.StatusRejected: 0,
	}
	for status, count := range counts {
		stats[status] = count
	}
	return stats, nil
}

// Categories returns the public category directory: distinct industries of
// approved listings with counts, or the canonical seed list when the
// directory is still empty.
func (s *BusinessService) Categories() ([]models.CategoryCount, error) {
	categories, err := s.repo.ApprovedCategories()
	if err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return defaultCategories, nil
	}
	return categories, nil
}

func (s *BusinessService) publishModerationEvent(business *models.Business) {
	if s.events == nil {
		return
	}

	event := map[string]interface{}{
		"event":       "listing." + business.Status,
		"business_id": business.ID,
		"owner_id":    business.CreatedBy,
		"status":      business.Status,
	}
	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal moderation event for business %s: %v", business.ID, err)
		return
	}
	// A publish failure never fails the transition itself.
	if err := s.events.Publish(rabbitmq.ModerationQueue, body); err != nil {
		log.Printf("Warning: failed to publish moderation event for business %s: %v", business.ID, err)
	}
}

// requireAdmin gates the administrative capabilities. The switch is exhaustive
// over the role set; an unknown role is denied.
func requireAdmin(identity models.Identity, action string) error {
	switch identity.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleOwner:
		return fmt.Errorf("%s: %w", action, models.ErrForbidden)
	}
	return fmt.Errorf("%s: %w", action, models.ErrForbidden)
}

func validateRequired(business *models.Business) error {
	required := map[string]string{
		"businessName":       business.BusinessName,
		"contactName":        business.ContactName,
		"email":              business.Email,
		"phone":              business.Phone,
		"industry":           business.Industry,
		"membershipCategory": business.MembershipCategory,
	}
	for field, value := range required {
		if value == "" {
			return fmt.Errorf("field %s is required: %w", field, models.ErrValidation)
		}
	}
	return nil
}
