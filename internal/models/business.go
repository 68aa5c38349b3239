package models

import (
	"time"

	"gorm.io/gorm"
)

// Listing status values. StatusReview is a reserved intermediate value: it is a
// valid source for a moderation decision but nothing transitions into it.
const (
	StatusPending  = "pending"
	StatusReview   = "review"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Listing priority values. Priority is administrator-settable and does not
// affect public visibility.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// SocialMediaLinks holds the optional per-platform profile URLs of a listing.
type SocialMediaLinks struct {
	Facebook string `json:"facebook,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	Twitter  string `json:"twitter,omitempty"`
}

// Business represents a directory listing submitted for moderation.
// ReviewNotes are written by administrators and must never reach the public
// read path; ApprovedDate is non-nil iff Status == StatusApproved.
type Business struct {
	ID                 string           `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	BusinessName       string           `json:"business_name" gorm:"type:varchar(255)" validate:"required,max=255"`
	ContactName        string           `json:"contact_name" gorm:"type:varchar(100)" validate:"required,max=100"`
	Email              string           `json:"email" gorm:"type:varchar(255)" validate:"required,email"`
	Phone              string           `json:"phone" gorm:"type:varchar(50)" validate:"required,max=50"`
	Industry           string           `json:"industry" gorm:"type:varchar(100);index" validate:"required,max=100"`
	MembershipCategory string           `json:"membership_category" gorm:"type:varchar(16)" validate:"required,oneof='Prime A' 'Prime B' 'Prime C'"`
	Description        string           `json:"description" validate:"omitempty,max=2000"`
	WebsiteURL         string           `json:"website_url" validate:"omitempty,url"`
	SocialMediaLinks   SocialMediaLinks `json:"social_media_links" gorm:"embedded;embeddedPrefix:social_"`
	Images             []string         `json:"images" gorm:"serializer:json" validate:"max=5"`
	Videos             []string         `json:"videos" gorm:"serializer:json" validate:"max=2"`
	Status             string           `json:"status" gorm:"type:varchar(16);default:pending;index"`
	Priority           string           `json:"priority" gorm:"type:varchar(16);default:medium"`
	ReviewNotes        string           `json:"review_notes,omitempty"`
	ApprovedDate       *time.Time       `json:"approved_date,omitempty"`
	CreatedBy          string           `json:"created_by" gorm:"type:varchar(36);index"`
	gorm.Model                          // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// CategoryCount pairs an industry name with its approved-listing count.
type CategoryCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}
