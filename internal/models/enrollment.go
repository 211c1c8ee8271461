package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment or event registration.
type EnrollmentStatus string

const (
	EnrollmentStatusPending    EnrollmentStatus = "PENDING"
	EnrollmentStatusConfirmed  EnrollmentStatus = "CONFIRMED"
	EnrollmentStatusTest       EnrollmentStatus = "TEST"
	EnrollmentStatusWaitlisted EnrollmentStatus = "WAITLISTED"
	EnrollmentStatusRejected   EnrollmentStatus = "REJECTED"
	EnrollmentStatusCancelled  EnrollmentStatus = "CANCELLED"
)

// Valid reports whether s is a known status.
func (s EnrollmentStatus) Valid() bool {
	switch s {
	case EnrollmentStatusPending, EnrollmentStatusConfirmed, EnrollmentStatusTest,
		EnrollmentStatusWaitlisted, EnrollmentStatusRejected, EnrollmentStatusCancelled:
		return true
	}
	return false
}

// Active reports whether the record blocks a new enrollment for the same user and offering.
func (s EnrollmentStatus) Active() bool {
	return s.Valid() && s != EnrollmentStatusCancelled
}

// HoldsSeat reports whether the record counts towards capacity.
func (s EnrollmentStatus) HoldsSeat() bool {
	return s == EnrollmentStatusPending || s == EnrollmentStatusConfirmed || s == EnrollmentStatusTest
}

// Enrollment links a user to a class with a status.
type Enrollment struct {
	ID        string           `db:"id" json:"id"`
	UserID    string           `db:"user_id" json:"userId"`
	ClassID   string           `db:"class_id" json:"classId"`
	ParentID  *string          `db:"parent_id" json:"parentId,omitempty"`
	Status    EnrollmentStatus `db:"status" json:"status"`
	CreatedAt time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time        `db:"updated_at" json:"updatedAt"`
	Payment   *PaymentSummary  `db:"-" json:"payment,omitempty"`
}

// EnrollmentDetail enriches Enrollment with student and class info.
type EnrollmentDetail struct {
	Enrollment
	StudentName  string   `db:"student_name" json:"studentName"`
	StudentEmail string   `db:"student_email" json:"studentEmail"`
	ClassTitle   string   `db:"class_title" json:"classTitle"`
	ClassPrice   *float64 `db:"class_price" json:"classPrice,omitempty"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	UserID    string
	ClassID   string
	ParentID  string
	Status    EnrollmentStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
