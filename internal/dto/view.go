package dto

import "github.com/noah-isme/edu-portal-api/internal/models"

// EnrollmentState is the viewer-relative state derived for an offering.
type EnrollmentState string

const (
	StateAnonymous       EnrollmentState = "ANONYMOUS"
	StateNotEnrolled     EnrollmentState = "NOT_ENROLLED"
	StateNotEligible     EnrollmentState = "NOT_ELIGIBLE"
	StateFull            EnrollmentState = "FULL"
	StateInactive        EnrollmentState = "INACTIVE"
	StateEnrollablePaid  EnrollmentState = "ENROLLABLE_PAID"
	StateEnrollableFree  EnrollmentState = "ENROLLABLE_FREE"
	StatePaymentRequired EnrollmentState = "PAYMENT_REQUIRED"
	StatePending         EnrollmentState = "PENDING"
	StateEnrolled        EnrollmentState = "ENROLLED"
	StateWaitlisted      EnrollmentState = "WAITLISTED"
	StateRejected        EnrollmentState = "REJECTED"
)

// ActionKind names something the viewer may do next.
type ActionKind string

const (
	ActionSignIn          ActionKind = "SIGN_IN"
	ActionAskParent       ActionKind = "ASK_PARENT"
	ActionEnroll          ActionKind = "ENROLL"
	ActionTestRegister    ActionKind = "TEST_REGISTER"
	ActionCompletePayment ActionKind = "COMPLETE_PAYMENT"
	ActionViewMaterials   ActionKind = "VIEW_MATERIALS"
	ActionLeaveClass      ActionKind = "LEAVE_CLASS"
)

// ActionMethod tells the client how to carry out an action.
type ActionMethod string

const (
	MethodNavigate ActionMethod = "NAVIGATE"
	MethodCheckout ActionMethod = "CHECKOUT"
	MethodPost     ActionMethod = "POST"
	MethodNone     ActionMethod = "NONE"
)

// Action is one allowed next step.
type Action struct {
	Kind    ActionKind   `json:"kind"`
	Label   string       `json:"label"`
	Method  ActionMethod `json:"method"`
	Href    string       `json:"href,omitempty"`
	Enabled bool         `json:"enabled"`
}

// EnrollButton is the primary call to action on a detail page.
type EnrollButton struct {
	Visible bool   `json:"visible"`
	Enabled bool   `json:"enabled"`
	Label   string `json:"label"`
}

// EnrollmentView is the derived, viewer-relative state of an offering.
type EnrollmentView struct {
	OfferingKind models.OfferingKind      `json:"offeringKind"`
	OfferingID   string                   `json:"offeringId"`
	State        EnrollmentState          `json:"state"`
	Status       *models.EnrollmentStatus `json:"status,omitempty"`
	RecordID     string                   `json:"recordId,omitempty"`
	Message      string                   `json:"message,omitempty"`
	EnrollButton EnrollButton             `json:"enrollButton"`
	Actions      []Action                 `json:"actions"`
}

// Allows reports whether the view contains an enabled action of kind.
func (v EnrollmentView) Allows(kind ActionKind) bool {
	for _, a := range v.Actions {
		if a.Kind == kind && a.Enabled {
			return true
		}
	}
	return false
}

// ClassOverview aggregates everything a class detail page renders.
type ClassOverview struct {
	Class      *models.ClassDetail `json:"class"`
	Enrollment EnrollmentView      `json:"enrollment"`
	Curriculum *CurriculumResponse `json:"curriculum"`
	FullAccess bool                `json:"fullAccess"`
}

// EventOverview aggregates everything an event detail page renders.
type EventOverview struct {
	Event        *models.Event  `json:"event"`
	Registration EnrollmentView `json:"registration"`
}
