package service

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/noah-isme/edu-portal-api/internal/dto"
	"github.com/noah-isme/edu-portal-api/internal/models"
)

const (
	checkoutSessionPath = "/api/create-checkout-session"
	enrollmentsPath     = "/api/enrollments"
	loginPath           = "/login"
)

// ReconcileInput is everything the reconciler needs to derive a viewer-relative state.
type ReconcileInput struct {
	// Viewer is nil when there is no session.
	Viewer   *models.JWTClaims
	Offering models.Offering
	// Status is the latest non-cancelled record of the viewer, nil when none exists.
	Status   *models.EnrollmentStatus
	RecordID string
	// CallbackPath is where sign-in returns to.
	CallbackPath            string
	TestRegistrationEnabled bool
	// WaitlistOpen lets a full event still accept registrations onto its waitlist.
	WaitlistOpen bool
}

// DeriveEnrollmentView computes the enrollment state and next actions. It is pure:
// identical input always yields an identical view.
func DeriveEnrollmentView(in ReconcileInput) dto.EnrollmentView {
	offering := in.Offering
	status := in.Status
	if status != nil && !status.Active() {
		status = nil
	}

	view := dto.EnrollmentView{
		OfferingKind: offering.Kind,
		OfferingID:   offering.ID,
		EnrollButton: enrollButton(offering, in.WaitlistOpen),
		Actions:      []dto.Action{},
	}

	if in.Viewer == nil {
		view.State = dto.StateAnonymous
		view.Message = "Sign in to enroll"
		view.EnrollButton.Visible = false
		view.Actions = append(view.Actions, dto.Action{
			Kind:    dto.ActionSignIn,
			Label:   "Sign In",
			Method:  dto.MethodNavigate,
			Href:    signInHref(in.CallbackPath),
			Enabled: true,
		})
		return view
	}

	role := in.Viewer.Role
	isParent := role == models.RoleParent
	view.EnrollButton.Visible = isParent && status == nil

	if status != nil {
		s := *status
		view.Status = &s
		view.RecordID = in.RecordID
		return withRecord(view, offering, s, isParent, in.RecordID)
	}

	switch role {
	case models.RoleStudent:
		view.State = dto.StateNotEnrolled
		view.Message = "Ask a parent to enroll you"
		view.Actions = append(view.Actions, dto.Action{
			Kind:    dto.ActionAskParent,
			Label:   "Ask a parent to enroll you",
			Method:  dto.MethodNone,
			Enabled: true,
		})
	case models.RoleParent:
		view = parentEnrollActions(view, offering, in.TestRegistrationEnabled, in.WaitlistOpen)
	case models.RoleMentor, models.RoleInstructor, models.RoleAdmin, models.RoleT1Admin, models.RoleT2Admin, models.RoleGuest:
		view.State = dto.StateNotEligible
		view.Message = "Enrollment is available to parent accounts"
	default:
		view.State = dto.StateNotEligible
		view.Message = "Enrollment is available to parent accounts"
	}
	return view
}

func withRecord(view dto.EnrollmentView, offering models.Offering, status models.EnrollmentStatus, isParent bool, recordID string) dto.EnrollmentView {
	switch status {
	case models.EnrollmentStatusConfirmed, models.EnrollmentStatusTest:
		view.State = dto.StateEnrolled
		view.Message = "You are enrolled"
		if status == models.EnrollmentStatusTest {
			view.Message = "Test registration active"
		}
		view.Actions = append(view.Actions, dto.Action{
			Kind:    dto.ActionViewMaterials,
			Label:   "View Materials",
			Method:  dto.MethodNavigate,
			Href:    materialsHref(offering),
			Enabled: true,
		})
		if isParent {
			view.Actions = append(view.Actions, leaveAction(offering, recordID))
		}
	case models.EnrollmentStatusPending:
		if offering.IsPaid() {
			view.State = dto.StatePaymentRequired
			view.Message = "Payment is required to confirm this enrollment"
			view.Actions = append(view.Actions, dto.Action{
				Kind:    dto.ActionCompletePayment,
				Label:   "Complete Payment",
				Method:  dto.MethodCheckout,
				Href:    checkoutSessionPath,
				Enabled: true,
			})
			return view
		}
		view.State = dto.StatePending
		view.Message = "Your enrollment is pending confirmation"
	case models.EnrollmentStatusWaitlisted:
		view.State = dto.StateWaitlisted
		view.Message = "You are on the waitlist"
		if isParent {
			view.Actions = append(view.Actions, leaveAction(offering, recordID))
		}
	case models.EnrollmentStatusRejected:
		view.State = dto.StateRejected
		view.Message = "This enrollment was not approved"
	case models.EnrollmentStatusCancelled:
		// filtered out before reaching here
	}
	return view
}

func parentEnrollActions(view dto.EnrollmentView, offering models.Offering, testEnabled, waitlistOpen bool) dto.EnrollmentView {
	button := view.EnrollButton
	enroll := dto.Action{Kind: dto.ActionEnroll, Label: button.Label, Enabled: button.Enabled}

	switch {
	case offering.IsFull():
		view.State = dto.StateFull
		view.Message = "This " + offeringNoun(offering) + " is full"
		enroll.Method = dto.MethodNone
		if waitlistOpen {
			view.Message += "; join the waitlist to be offered the next free seat"
			enroll.Method = dto.MethodPost
			enroll.Href = enrollHref(offering)
		}
		view.Actions = append(view.Actions, enroll)
		return view
	case !offering.IsActive:
		view.State = dto.StateInactive
		view.Message = "Enrollment is closed"
		enroll.Method = dto.MethodNone
		view.Actions = append(view.Actions, enroll)
		return view
	case offering.IsPaid():
		view.State = dto.StateEnrollablePaid
		enroll.Method = dto.MethodCheckout
		enroll.Href = checkoutSessionPath
	default:
		view.State = dto.StateEnrollableFree
		enroll.Method = dto.MethodPost
		enroll.Href = enrollHref(offering)
	}
	view.Actions = append(view.Actions, enroll)

	if testEnabled {
		view.Actions = append(view.Actions, dto.Action{
			Kind:    dto.ActionTestRegister,
			Label:   "Test Registration",
			Method:  dto.MethodPost,
			Href:    enrollHref(offering),
			Enabled: true,
		})
	}
	return view
}

// enrollButton derives label and enabled state from the offering alone, so a full
// offering renders "Class Full" whatever the viewer's role or status.
func enrollButton(offering models.Offering, waitlistOpen bool) dto.EnrollButton {
	switch {
	case offering.IsFull() && waitlistOpen:
		return dto.EnrollButton{Enabled: true, Label: "Join Waitlist"}
	case offering.IsFull():
		return dto.EnrollButton{Enabled: false, Label: "Class Full"}
	case !offering.IsActive:
		return dto.EnrollButton{Enabled: false, Label: "Enrollment Closed"}
	case offering.IsPaid():
		return dto.EnrollButton{Enabled: true, Label: "Enroll Now - " + FormatPrice(offering.PriceValue())}
	default:
		return dto.EnrollButton{Enabled: true, Label: "Enroll Now - Free"}
	}
}

// FormatPrice renders a price the way enroll buttons show it, e.g. "$99.99".
func FormatPrice(price float64) string {
	return "$" + strconv.FormatFloat(price, 'f', 2, 64)
}

func signInHref(callback string) string {
	if callback == "" {
		return loginPath
	}
	return loginPath + "?callbackUrl=" + url.QueryEscape(callback)
}

func materialsHref(offering models.Offering) string {
	if offering.Kind == models.OfferingEvent {
		return fmt.Sprintf("/events/%s", offering.ID)
	}
	return fmt.Sprintf("/classes/%s?tab=materials", offering.ID)
}

func enrollHref(offering models.Offering) string {
	if offering.Kind == models.OfferingEvent {
		return fmt.Sprintf("/api/events/%s/registrations", offering.ID)
	}
	return enrollmentsPath
}

func leaveAction(offering models.Offering, recordID string) dto.Action {
	if offering.Kind == models.OfferingEvent {
		return dto.Action{
			Kind:    dto.ActionLeaveClass,
			Label:   "Cancel Registration",
			Method:  dto.MethodPost,
			Href:    fmt.Sprintf("/api/registrations/%s/cancel", recordID),
			Enabled: recordID != "",
		}
	}
	return dto.Action{
		Kind:    dto.ActionLeaveClass,
		Label:   "Leave Class",
		Method:  dto.MethodPost,
		Href:    fmt.Sprintf("/api/enrollments/%s/leave", recordID),
		Enabled: recordID != "",
	}
}

func offeringNoun(offering models.Offering) string {
	if offering.Kind == models.OfferingEvent {
		return "event"
	}
	return "class"
}
