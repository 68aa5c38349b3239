package repositories

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"bizdir/internal/models"

	"github.com/google/uuid"
)

// MockBusinessRepository is an in-memory implementation of BusinessRepository.
type MockBusinessRepository struct {
	businesses map[string]models.Business
	mu         sync.RWMutex
}

// NewMockBusinessRepository creates a new instance of MockBusinessRepository.
func NewMockBusinessRepository() *MockBusinessRepository {
	return &MockBusinessRepository{
		businesses: make(map[string]models.Business),
	}
}

// Create adds a new listing. A preset CreatedAt is kept so tests can control
// ordering.
func (r *MockBusinessRepository) Create(business *models.Business) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if business.ID == "" {
		business.ID = uuid.New().String()
	}
	if business.CreatedAt.IsZero() {
		business.CreatedAt = time.Now()
	}
	business.UpdatedAt = time.Now()
	r.businesses[business.ID] = *business
	return nil
}

// GetByID returns a listing by its ID.
func (r *MockBusinessRepository) GetByID(id string) (*models.Business, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	business, ok := r.businesses[id]
	if !ok {
		return nil, fmt.Errorf("business with ID %s: %w", id, models.ErrNotFound)
	}
	return &business, nil
}

// FindApproved returns approved listings matching the filter, newest first.
func (r *MockBusinessRepository) FindApproved(filter ApprovedFilter) ([]models.Business, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []models.Business
	for _, b := range r.businesses {
		if b.Status != models.StatusApproved {
			continue
		}
		if filter.Industry != "" && filter.Industry != "all" && b.Industry != filter.Industry {
			continue
		}
		if filter.MembershipCategory != "" && filter.MembershipCategory != "all" && b.MembershipCategory != filter.MembershipCategory {
			continue
		}
		if filter.SearchQuery != "" {
			needle := strings.ToLower(filter.SearchQuery)
			if !strings.Contains(strings.ToLower(b.BusinessName), needle) &&
				!strings.Contains(strings.ToLower(b.Description), needle) {
				continue
			}
		}
		matches = append(matches, b)
	}
	sortNewestFirst(matches)
	return matches, nil
}

// FindByOwner returns the listings created by ownerID, newest first.
func (r *MockBusinessRepository) FindByOwner(ownerID string) ([]models.Business, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []models.Business
	for _, b := range r.businesses {
		if b.CreatedBy == ownerID {
			matches = append(matches, b)
		}
	}
	sortNewestFirst(matches)
	return matches, nil
}

// FindByStatus returns the listings in the given status, newest first.
func (r *MockBusinessRepository) FindByStatus(status string) ([]models.Business, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []models.Business
	for _, b := range r.businesses {
		if b.Status == status {
			matches = append(matches, b)
		}
	}
	sortNewestFirst(matches)
	return matches, nil
}

// UpdateModeration applies a moderation decision to a stored listing.
func (r *MockBusinessRepository) UpdateModeration(id, status, reviewNotes string, approvedDate *time.Time) (*models.Business, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	business, ok := r.businesses[id]
	if !ok {
		return nil, fmt.Errorf("business with ID %s: %w", id, models.ErrNotFound)
	}
	business.Status = status
	business.ApprovedDate = approvedDate
	if reviewNotes != "" {
		business.ReviewNotes = reviewNotes
	}
	business.UpdatedAt = time.Now()
	r.businesses[id] = business
	return &business, nil
}

// Delete removes a listing by its ID.
func (r *MockBusinessRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.businesses[id]
	if !ok {
		return fmt.Errorf("business with ID %s: %w", id, models.ErrNotFound)
	}
	delete(r.businesses, id)
	return nil
}

// CountByStatus returns the number of listings grouped by status.
func (r *MockBusinessRepository) CountByStatus() (map[string]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int64)
	for _, b := range r.businesses {
		counts[b.Status]++
	}
	return counts, nil
}

// ApprovedCategories returns the distinct industries across approved listings
// with their counts, sorted by name.
func (r *MockBusinessRepository) ApprovedCategories() ([]models.CategoryCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int64)
	for _, b := range r.businesses {
		if b.Status == models.StatusApproved {
			counts[b.Industry]++
		}
	}

	categories := make([]models.CategoryCount, 0, len(counts))
	for name, count := range counts {
		categories = append(categories, models.CategoryCount{Name: name, Count: count})
	}
	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Name < categories[j].Name
	})
	return categories, nil
}

func sortNewestFirst(businesses []models.Business) {
	sort.SliceStable(businesses, func(i, j int) bool {
		return businesses[i].CreatedAt.After(businesses[j].CreatedAt)
	})
}
