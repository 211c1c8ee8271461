package dto

import (
	"time"

	"github.com/noah-isme/edu-portal-api/internal/models"
)

// UpsertClassRequest creates or updates a class.
type UpsertClassRequest struct {
	Title        string     `json:"title" validate:"required,max=200"`
	Description  string     `json:"description"`
	Price        *float64   `json:"price" validate:"omitempty,min=0"`
	Capacity     *int       `json:"capacity" validate:"omitempty,min=1"`
	IsActive     *bool      `json:"isActive"`
	StartDate    *time.Time `json:"startDate"`
	EndDate      *time.Time `json:"endDate"`
	InstructorID *string    `json:"instructorId"`
}

// UpsertEventRequest creates or updates an event.
type UpsertEventRequest struct {
	Title         string     `json:"title" validate:"required,max=200"`
	Description   string     `json:"description"`
	Location      string     `json:"location"`
	Price         *float64   `json:"price" validate:"omitempty,min=0"`
	Capacity      *int       `json:"capacity" validate:"omitempty,min=1"`
	WaitlistLimit int        `json:"waitlistLimit" validate:"min=0"`
	IsActive      *bool      `json:"isActive"`
	StartDate     *time.Time `json:"startDate"`
}

// UpsertMentorRequest creates or updates a mentor profile.
type UpsertMentorRequest struct {
	UserID    string   `json:"userId" validate:"required"`
	Headline  string   `json:"headline" validate:"max=200"`
	Bio       string   `json:"bio"`
	Expertise []string `json:"expertise" validate:"dive,max=60"`
	IsActive  *bool    `json:"isActive"`
}

// UpsertAnnouncementRequest creates or updates an announcement.
type UpsertAnnouncementRequest struct {
	ClassID     *string                     `json:"classId"`
	Title       string                      `json:"title" validate:"required,max=200"`
	Content     string                      `json:"content" validate:"required"`
	Audience    models.AnnouncementAudience `json:"audience" validate:"required,oneof=ALL STUDENTS PARENTS CLASS"`
	IsPinned    bool                        `json:"isPinned"`
	PublishedAt *time.Time                  `json:"publishedAt"`
	ExpiresAt   *time.Time                  `json:"expiresAt"`
}

// ParentChildRequest asks for a link to a child account.
type ParentChildRequest struct {
	ChildEmail string `json:"childEmail" validate:"required,email"`
}

// ReviewParentChildRequest approves or rejects a link.
type ReviewParentChildRequest struct {
	RelationshipID string                    `json:"relationshipId" validate:"required"`
	Status         models.RelationshipStatus `json:"status" validate:"required,oneof=APPROVED REJECTED"`
}
