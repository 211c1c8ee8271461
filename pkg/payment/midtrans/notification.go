package midtrans

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// Outcome is the settled meaning of a Midtrans transaction status.
type Outcome string

const (
	OutcomePaid          Outcome = "PAID"
	OutcomePending       Outcome = "PENDING"
	OutcomeFailed        Outcome = "FAILED"
	OutcomeExpired       Outcome = "EXPIRED"
	OutcomeRefunded      Outcome = "REFUNDED"
	// OutcomePartialRefund returns part of a settled charge; the seat stays paid.
	OutcomePartialRefund Outcome = "PARTIAL_REFUND"
	OutcomeUnknown       Outcome = "UNKNOWN"
)

// Notification is the HTTP notification body Midtrans posts after status changes.
type Notification struct {
	OrderID           string `json:"order_id" binding:"required"`
	StatusCode        string `json:"status_code" binding:"required"`
	GrossAmount       string `json:"gross_amount" binding:"required"`
	SignatureKey      string `json:"signature_key" binding:"required"`
	TransactionStatus string `json:"transaction_status" binding:"required"`
	TransactionID     string `json:"transaction_id"`
	FraudStatus       string `json:"fraud_status"`
	PaymentType       string `json:"payment_type"`
}

// Signature computes SHA512(order_id + status_code + gross_amount + server_key).
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// VerifySignature checks the notification signature against the server key.
func VerifySignature(serverKey string, n Notification) bool {
	if serverKey == "" || n.SignatureKey == "" {
		return false
	}
	expected := Signature(n.OrderID, n.StatusCode, n.GrossAmount, serverKey)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(n.SignatureKey))) == 1
}

// Outcome maps the transaction and fraud status to a settled outcome.
func (n Notification) Outcome() Outcome {
	switch strings.ToLower(n.TransactionStatus) {
	case "capture":
		switch strings.ToLower(n.FraudStatus) {
		case "", "accept":
			return OutcomePaid
		case "challenge":
			return OutcomePending
		default:
			return OutcomeFailed
		}
	case "settlement":
		return OutcomePaid
	case "pending":
		return OutcomePending
	case "deny", "cancel", "failure":
		return OutcomeFailed
	case "expire":
		return OutcomeExpired
	case "refund":
		return OutcomeRefunded
	case "partial_refund":
		return OutcomePartialRefund
	default:
		return OutcomeUnknown
	}
}
