package portal

import "time"

// EnrollRequest is the body of POST /api/enrollments.
type EnrollRequest struct {
	ClassID            string  `json:"classId"`
	StudentID          *string `json:"studentId,omitempty"`
	IsTestRegistration bool    `json:"isTestRegistration,omitempty"`
}

// RegisterRequest is the body of POST /api/events/{id}/registrations.
type RegisterRequest struct {
	Quantity           int    `json:"quantity,omitempty"`
	RegistrationType   string `json:"registrationType,omitempty"`
	IsTestRegistration bool   `json:"isTestRegistration,omitempty"`
}

// CheckoutRequest is the body of POST /api/create-checkout-session.
type CheckoutRequest struct {
	ClassID          string  `json:"classId,omitempty"`
	EventID          string  `json:"eventId,omitempty"`
	StudentID        *string `json:"studentId,omitempty"`
	Quantity         int     `json:"quantity,omitempty"`
	RegistrationType string  `json:"registrationType,omitempty"`
}

// Enrollment is an enrollment or registration record as returned by the API.
type Enrollment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ClassID   string    `json:"classId,omitempty"`
	EventID   string    `json:"eventId,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Action is one next step offered by the server-derived view.
type Action struct {
	Kind    string `json:"kind"`
	Label   string `json:"label"`
	Method  string `json:"method"`
	Href    string `json:"href,omitempty"`
	Enabled bool   `json:"enabled"`
}

// EnrollButton is the primary call to action of a detail page.
type EnrollButton struct {
	Visible bool   `json:"visible"`
	Enabled bool   `json:"enabled"`
	Label   string `json:"label"`
}

// EnrollmentView is the viewer-relative state of a class or event.
type EnrollmentView struct {
	OfferingKind string       `json:"offeringKind"`
	OfferingID   string       `json:"offeringId"`
	State        string       `json:"state"`
	Status       *string      `json:"status,omitempty"`
	RecordID     string       `json:"recordId,omitempty"`
	Message      string       `json:"message,omitempty"`
	EnrollButton EnrollButton `json:"enrollButton"`
	Actions      []Action     `json:"actions"`
}

// Action returns the action of kind, if offered.
func (v EnrollmentView) Action(kind string) (Action, bool) {
	for _, a := range v.Actions {
		if a.Kind == kind {
			return a, true
		}
	}
	return Action{}, false
}

// View states and action identifiers shared with the server.
const (
	StateEnrolled   = "ENROLLED"
	StatePending    = "PENDING"
	StateWaitlisted = "WAITLISTED"

	ActionEnroll          = "ENROLL"
	ActionTestRegister    = "TEST_REGISTER"
	ActionCompletePayment = "COMPLETE_PAYMENT"
	ActionLeaveClass      = "LEAVE_CLASS"

	MethodNavigate = "NAVIGATE"
	MethodCheckout = "CHECKOUT"
	MethodPost     = "POST"

	OfferingClass = "CLASS"
	OfferingEvent = "EVENT"
)
