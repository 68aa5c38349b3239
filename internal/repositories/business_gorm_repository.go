package repositories

import (
	"fmt"
	"strings"
	"time"

	"bizdir/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMBusinessRepository is a GORM implementation of BusinessRepository.
type GORMBusinessRepository struct {
	db *gorm.DB
}

// NewGORMBusinessRepository creates a new instance of GORMBusinessRepository.
func NewGORMBusinessRepository(db *gorm.DB) *GORMBusinessRepository {
	return &GORMBusinessRepository{
		db: db,
	}
}

// Create creates a new listing in the database.
func (r *GORMBusinessRepository) Create(business *models.Business) error {
	if business.ID == "" {
		business.ID = uuid.New().String()
	}
	if err := r.db.Create(business).Error; err != nil {
		return fmt.Errorf("failed to create business: %w", err)
	}
	return nil
}

// GetByID retrieves a single listing by its ID from the database.
func (r *GORMBusinessRepository) GetByID(id string) (*models.Business, error) {
	var business models.Business
	if err := r.db.First(&business, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("business with ID %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get business by ID %s: %w", id, err)
	}
	return &business, nil
}

// FindApproved retrieves approved listings matching the filter, newest first.
// The search query matches business name or description, case-insensitively.
func (r *GORMBusinessRepository) FindApproved(filter ApprovedFilter) ([]models.Business, error) {
	query := r.db.Where("status = ?", models.StatusApproved)

	if filter.Industry != "" && filter.Industry != "all" {
		query = query.Where("industry = ?", filter.Industry)
	}
	if filter.MembershipCategory != "" && filter.MembershipCategory != "all" {
		query = query.Where("membership_category = ?", filter.MembershipCategory)
	}
	if filter.SearchQuery != "" {
		pattern := "%" + strings.ToLower(filter.SearchQuery) + "%"
		query = query.Where("LOWER(business_name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var businesses []models.Business
	if err := query.Order("created_at DESC").Find(&businesses).Error; err != nil {
		return nil, fmt.Errorf("failed to find approved businesses: %w", err)
	}
	return businesses, nil
}

// FindByOwner retrieves the listings created by ownerID, newest first.
func (r *GORMBusinessRepository) FindByOwner(ownerID string) ([]models.Business, error) {
	var businesses []models.Business
	if err := r.db.Where("created_by = ?", ownerID).Order("created_at DESC").Find(&businesses).Error; err != nil {
		return nil, fmt.Errorf("failed to find businesses for owner %s: %w", ownerID, err)
	}
	return businesses, nil
}

// FindByStatus retrieves the listings in the given status, newest first.
func (r *GORMBusinessRepository) FindByStatus(status string) ([]models.Business, error) {
	var businesses []models.Business
	if err := r.db.Where("status = ?", status).Order("created_at DESC").Find(&businesses).Error; err != nil {
		return nil, fmt.Errorf("failed to find businesses with status %s: %w", status, err)
	}
	return businesses, nil
}

// UpdateModeration writes a moderation decision in a single UPDATE and returns
// the updated listing. Concurrent decisions on the same listing race at
// last-write-wins granularity, which is the store's native behavior.
func (r *GORMBusinessRepository) UpdateModeration(id, status, reviewNotes string, approvedDate *time.Time) (*models.Business, error) {
	fields := map[string]interface{}{
		"status":        status,
		"approved_date": approvedDate,
	}
	if reviewNotes != "" {
		fields["review_notes"] = reviewNotes
	}

	res := r.db.Model(&models.Business{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update status for business %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("business with ID %s: %w", id, models.ErrNotFound)
	}
	return r.GetByID(id)
}

// Delete deletes a listing by its ID from the database.
func (r *GORMBusinessRepository) Delete(id string) error {
	res := r.db.Delete(&models.Business{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete business: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("business with ID %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// CountByStatus returns the number of listings grouped by status. Statuses
// with no listings are absent from the map.
func (r *GORMBusinessRepository) CountByStatus() (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.db.Model(&models.Business{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count businesses by status: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// ApprovedCategories returns the distinct industries across approved listings,
// each with its approved-listing count.
func (r *GORMBusinessRepository) ApprovedCategories() ([]models.CategoryCount, error) {
	var categories []models.CategoryCount
	err := r.db.Model(&models.Business{}).
		Select("industry AS name, COUNT(*) AS count").
		Where("status = ?", models.StatusApproved).
		Group("industry").
		Order("industry").
		Scan(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate approved categories: %w", err)
	}
	return categories, nil
}
