package models

import "time"

// OfferingKind distinguishes classes from events.
type OfferingKind string

const (
	OfferingClass OfferingKind = "CLASS"
	OfferingEvent OfferingKind = "EVENT"
)

// Offering is the projection of a class or event the enrollment reconciler consumes.
type Offering struct {
	Kind         OfferingKind `json:"kind"`
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Price        *float64     `json:"price,omitempty"`
	Capacity     *int         `json:"capacity,omitempty"`
	CurrentCount int          `json:"currentCount"`
	IsActive     bool         `json:"isActive"`
}

// IsPaid reports whether the offering has a positive price.
func (o Offering) IsPaid() bool {
	return o.Price != nil && *o.Price > 0
}

// IsFull reports whether capacity is set and reached.
func (o Offering) IsFull() bool {
	return o.Capacity != nil && o.CurrentCount >= *o.Capacity
}

// PriceValue returns the price or zero.
func (o Offering) PriceValue() float64 {
	if o.Price == nil {
		return 0
	}
	return *o.Price
}

// Class represents a course a student can be enrolled in.
type Class struct {
	ID           string     `db:"id" json:"id"`
	Title        string     `db:"title" json:"title"`
	Description  string     `db:"description" json:"description"`
	Price        *float64   `db:"price" json:"price,omitempty"`
	Capacity     *int       `db:"capacity" json:"capacity,omitempty"`
	CurrentCount int        `db:"current_count" json:"currentCount"`
	IsActive     bool       `db:"is_active" json:"isActive"`
	StartDate    *time.Time `db:"start_date" json:"startDate,omitempty"`
	EndDate      *time.Time `db:"end_date" json:"endDate,omitempty"`
	InstructorID *string    `db:"instructor_id" json:"instructorId,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

// Offering projects the class for the reconciler.
func (c *Class) Offering() Offering {
	return Offering{
		Kind:         OfferingClass,
		ID:           c.ID,
		Title:        c.Title,
		Price:        c.Price,
		Capacity:     c.Capacity,
		CurrentCount: c.CurrentCount,
		IsActive:     c.IsActive,
	}
}

// ClassDetail extends Class with instructor information.
type ClassDetail struct {
	Class
	InstructorName *string `db:"instructor_name" json:"instructorName,omitempty"`
}

// ClassFilter defines filter criteria for listing classes.
type ClassFilter struct {
	Search       string
	ActiveOnly   bool
	InstructorID string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
