package dto

import "github.com/noah-isme/edu-portal-api/internal/models"

// CreateEnrollmentRequest enrolls the caller, or an approved child of the caller, in a class.
type CreateEnrollmentRequest struct {
	ClassID            string  `json:"classId" validate:"required"`
	StudentID          *string `json:"studentId" validate:"omitempty"`
	IsTestRegistration bool    `json:"isTestRegistration"`
}

// EnrollmentResult is returned after a successful enrollment.
type EnrollmentResult struct {
	Enrollment *models.Enrollment `json:"enrollment"`
	RedirectTo string             `json:"redirectTo"`
}

// UpdateEnrollmentStatusRequest is the admin status PATCH body.
type UpdateEnrollmentStatusRequest struct {
	Status models.EnrollmentStatus `json:"status" validate:"required,oneof=PENDING CONFIRMED TEST WAITLISTED REJECTED CANCELLED"`
}

// EnrollmentsResponse wraps the caller's enrollments.
type EnrollmentsResponse struct {
	Enrollments []models.EnrollmentDetail `json:"enrollments"`
}

// CreateRegistrationRequest registers the caller for an event.
type CreateRegistrationRequest struct {
	Quantity           int                     `json:"quantity" validate:"omitempty,min=1,max=20"`
	RegistrationType   models.RegistrationType `json:"registrationType" validate:"omitempty,oneof=INDIVIDUAL GROUP"`
	IsTestRegistration bool                    `json:"isTestRegistration"`
}

// RegistrationResult is returned after a successful registration.
type RegistrationResult struct {
	Registration *models.EventRegistration `json:"registration"`
	RedirectTo   string                    `json:"redirectTo,omitempty"`
}

// RegistrationsResponse wraps the caller's registrations.
type RegistrationsResponse struct {
	Registrations []models.RegistrationDetail `json:"registrations"`
}

// Post-enrollment navigation targets.
const (
	EnrollmentSuccessPath     = "/dashboard?enrollment=success"
	TestEnrollmentSuccessPath = "/dashboard?enrollment=success&test=true"
)

// SuccessRedirect returns the dashboard URL the client navigates to after enrolling.
func SuccessRedirect(test bool) string {
	if test {
		return TestEnrollmentSuccessPath
	}
	return EnrollmentSuccessPath
}
