package models

import "time"

// Event is a one-off session such as a workshop or open day.
type Event struct {
	ID            string     `db:"id" json:"id"`
	Title         string     `db:"title" json:"title"`
	Description   string     `db:"description" json:"description"`
	Location      string     `db:"location" json:"location"`
	Price         *float64   `db:"price" json:"price,omitempty"`
	Capacity      *int       `db:"capacity" json:"capacity,omitempty"`
	CurrentCount  int        `db:"current_count" json:"currentCount"`
	WaitlistLimit int        `db:"waitlist_limit" json:"waitlistLimit"`
	IsActive      bool       `db:"is_active" json:"isActive"`
	StartDate     *time.Time `db:"start_date" json:"startDate,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updatedAt"`
}

// Offering projects the event for the reconciler.
func (e *Event) Offering() Offering {
	return Offering{
		Kind:         OfferingEvent,
		ID:           e.ID,
		Title:        e.Title,
		Price:        e.Price,
		Capacity:     e.Capacity,
		CurrentCount: e.CurrentCount,
		IsActive:     e.IsActive,
	}
}

// EventFilter defines filter criteria for listing events.
type EventFilter struct {
	Search     string
	ActiveOnly bool
	Upcoming   bool
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
