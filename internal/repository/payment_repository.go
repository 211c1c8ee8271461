package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-portal-api/internal/models"
)

const paymentColumns = `id, order_id, enrollment_id, registration_id, amount, status, provider, provider_ref, checkout_url, session_token, created_at, updated_at`

// PaymentRepository persists checkout attempts.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts a new payment.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	payment.CreatedAt = now
	payment.UpdatedAt = now
	const query = `INSERT INTO payments (` + paymentColumns + `)
VALUES (:id, :order_id, :enrollment_id, :registration_id, :amount, :status, :provider, :provider_ref, :checkout_url, :session_token, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// FindByOrderID returns the payment for a provider order id.
func (r *PaymentRepository) FindByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, `SELECT `+paymentColumns+` FROM payments WHERE order_id = $1`, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find payment by order: %w", err)
	}
	return &payment, nil
}

// AttachSession stores the hosted checkout handle.
func (r *PaymentRepository) AttachSession(ctx context.Context, id, token, checkoutURL string) error {
	const query = `UPDATE payments SET session_token = $2, checkout_url = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, nullableString(token), nullableString(checkoutURL), time.Now().UTC()); err != nil {
		return fmt.Errorf("attach checkout session: %w", err)
	}
	return nil
}

// UpdateStatus records a provider outcome.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, id string, status models.PaymentStatus, providerRef string) error {
	const query = `UPDATE payments SET status = $2, provider_ref = COALESCE($3, provider_ref), updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, nullableString(providerRef), time.Now().UTC()); err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	return nil
}

// ExpirePending marks older pending payments for the same record as expired before a new checkout starts.
func (r *PaymentRepository) ExpirePending(ctx context.Context, enrollmentID, registrationID *string) error {
	const query = `UPDATE payments SET status = $3, updated_at = $4
WHERE status = $5 AND ((enrollment_id IS NOT NULL AND enrollment_id = $1) OR (registration_id IS NOT NULL AND registration_id = $2))`
	if _, err := r.db.ExecContext(ctx, query, enrollmentID, registrationID, models.PaymentStatusExpired, time.Now().UTC(), models.PaymentStatusPending); err != nil {
		return fmt.Errorf("expire pending payments: %w", err)
	}
	return nil
}

func nullableString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
