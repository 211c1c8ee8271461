package models

import "time"

// PaymentStatus tracks the hosted checkout outcome.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusExpired  PaymentStatus = "EXPIRED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

// Final reports whether no further provider notification may change the status, except a refund of a paid order.
func (s PaymentStatus) Final() bool {
	return s == PaymentStatusPaid || s == PaymentStatusExpired || s == PaymentStatusRefunded
}

// PaymentProviderMidtrans identifies Snap checkouts.
const PaymentProviderMidtrans = "midtrans"

// Payment is a checkout attempt for an enrollment or registration.
type Payment struct {
	ID             string        `db:"id" json:"id"`
	OrderID        string        `db:"order_id" json:"orderId"`
	EnrollmentID   *string       `db:"enrollment_id" json:"enrollmentId,omitempty"`
	RegistrationID *string       `db:"registration_id" json:"registrationId,omitempty"`
	Amount         float64       `db:"amount" json:"amount"`
	Status         PaymentStatus `db:"status" json:"status"`
	Provider       string        `db:"provider" json:"provider"`
	ProviderRef    *string       `db:"provider_ref" json:"providerRef,omitempty"`
	CheckoutURL    *string       `db:"checkout_url" json:"checkoutUrl,omitempty"`
	SessionToken   *string       `db:"session_token" json:"-"`
	CreatedAt      time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updatedAt"`
}

// Summary returns the embedded payment view used on enrollments.
func (p *Payment) Summary() *PaymentSummary {
	if p == nil {
		return nil
	}
	return &PaymentSummary{ID: p.ID, Amount: p.Amount, Status: p.Status}
}

// PaymentSummary is the payment view embedded in enrollments and registrations.
type PaymentSummary struct {
	ID     string        `db:"id" json:"id"`
	Amount float64       `db:"amount" json:"amount"`
	Status PaymentStatus `db:"status" json:"status"`
}
