package dto

import "github.com/noah-isme/edu-portal-api/internal/models"

// CheckoutRequest starts a hosted checkout for exactly one class or event.
type CheckoutRequest struct {
	ClassID          string                  `json:"classId" validate:"required_without=EventID,excluded_with=EventID"`
	EventID          string                  `json:"eventId" validate:"required_without=ClassID,excluded_with=ClassID"`
	StudentID        *string                 `json:"studentId" validate:"omitempty"`
	Quantity         int                     `json:"quantity" validate:"omitempty,min=1,max=20"`
	RegistrationType models.RegistrationType `json:"registrationType" validate:"omitempty,oneof=INDIVIDUAL GROUP"`
}

// CheckoutResponse carries either a redirect URL or a provider session id.
type CheckoutResponse struct {
	URL       string `json:"url,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// NotificationAck acknowledges a payment provider notification.
type NotificationAck struct {
	Status  string `json:"status"`
	OrderID string `json:"orderId,omitempty"`
}

// Notification acknowledgement statuses.
const (
	NotificationApplied   = "applied"
	NotificationUnchanged = "unchanged"
	NotificationIgnored   = "ignored"
)
