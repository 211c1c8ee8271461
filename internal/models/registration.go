package models

import "time"

// RegistrationType distinguishes how a seat was booked.
type RegistrationType string

const (
	RegistrationTypeIndividual RegistrationType = "INDIVIDUAL"
	RegistrationTypeGroup      RegistrationType = "GROUP"
)

// EventRegistration is the event counterpart of Enrollment.
type EventRegistration struct {
	ID               string           `db:"id" json:"id"`
	UserID           string           `db:"user_id" json:"userId"`
	EventID          string           `db:"event_id" json:"eventId"`
	Status           EnrollmentStatus `db:"status" json:"status"`
	Quantity         int              `db:"quantity" json:"quantity"`
	RegistrationType RegistrationType `db:"registration_type" json:"registrationType"`
	WaitlistPosition *int             `db:"waitlist_position" json:"waitlistPosition,omitempty"`
	CreatedAt        time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updatedAt"`
	Payment          *PaymentSummary  `db:"-" json:"payment,omitempty"`
}

// RegistrationDetail enriches a registration with user and event info.
type RegistrationDetail struct {
	EventRegistration
	UserName   string `db:"user_name" json:"userName"`
	UserEmail  string `db:"user_email" json:"userEmail"`
	EventTitle string `db:"event_title" json:"eventTitle"`
}

// RegistrationFilter provides filters for listing registrations.
type RegistrationFilter struct {
	UserID   string
	EventID  string
	Status   EnrollmentStatus
	Page     int
	PageSize int
}
