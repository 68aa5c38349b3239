package repositories

import (
	"time"

	"bizdir/internal/models"
)

// ApprovedFilter narrows the public approved-listing query. The literal value
// "all" on Industry or MembershipCategory means no filtering on that field,
// matching the query parameters the public directory sends.
type ApprovedFilter struct {
	Industry           string
	MembershipCategory string
	SearchQuery        string
}

// BusinessRepository defines the interface for listing data access. All
// Find* methods return results ordered newest-created-first.
type BusinessRepository interface {
	Create(business *models.Business) error
	GetByID(id string) (*models.Business, error)
	FindApproved(filter ApprovedFilter) ([]models.Business, error)
	FindByOwner(ownerID string) ([]models.Business, error)
	FindByStatus(status string) ([]models.Business, error)
	// UpdateModeration applies a moderation decision as a single store write.
	// An empty reviewNotes leaves existing notes untouched.
	UpdateModeration(id, status, reviewNotes string, approvedDate *time.Time) (*models.Business, error)
	Delete(id string) error
	CountByStatus() (map[string]int64, error)
	ApprovedCategories() ([]models.CategoryCount, error)
}
