package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-portal-api/internal/models"
)

// ActiveEnrollmentConstraint is the partial unique index guarding one non-cancelled enrollment per user and class.
const ActiveEnrollmentConstraint = "uq_enrollments_active"

const enrollmentColumns = `e.id, e.user_id, e.class_id, e.parent_id, e.status, e.created_at, e.updated_at`

const enrollmentDetailSelect = `SELECT ` + enrollmentColumns + `,
u.full_name AS student_name, u.email AS student_email, c.title AS class_title, c.price AS class_price,
p.id AS payment_id, p.amount AS payment_amount, p.status AS payment_status
FROM enrollments e
JOIN users u ON u.id = e.user_id
JOIN classes c ON c.id = e.class_id
LEFT JOIN LATERAL (
    SELECT id, amount, status FROM payments WHERE enrollment_id = e.id ORDER BY created_at DESC LIMIT 1
) p ON TRUE`

// EnrollmentBuilder decides, under the class row lock, which enrollment to persist.
// Returning existing unchanged skips the insert.
type EnrollmentBuilder func(class *models.Class, existing *models.Enrollment) (*models.Enrollment, error)

// EnrollmentRepository handles persistence of enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

type enrollmentRow struct {
	models.EnrollmentDetail
	PaymentID     *string               `db:"payment_id"`
	PaymentAmount *float64              `db:"payment_amount"`
	PaymentStatus *models.PaymentStatus `db:"payment_status"`
}

func (row enrollmentRow) detail() models.EnrollmentDetail {
	d := row.EnrollmentDetail
	if row.PaymentID != nil {
		summary := &models.PaymentSummary{ID: *row.PaymentID}
		if row.PaymentAmount != nil {
			summary.Amount = *row.PaymentAmount
		}
		if row.PaymentStatus != nil {
			summary.Status = *row.PaymentStatus
		}
		d.Payment = summary
	}
	return d
}

func toDetails(rows []enrollmentRow) []models.EnrollmentDetail {
	out := make([]models.EnrollmentDetail, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.detail())
	}
	return out
}

var enrollmentSorts = map[string]string{
	"created_at":   "e.created_at",
	"status":       "e.status",
	"student_name": "u.full_name",
	"class_title":  "c.title",
}

// List returns enrollments filtered by the provided criteria.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	var conditions []string
	var args []interface{}

	if filter.UserID != "" {
		args = append(args, filter.UserID)
		conditions = append(conditions, fmt.Sprintf("e.user_id = $%d", len(args)))
	}
	if filter.ParentID != "" {
		args = append(args, filter.ParentID)
		conditions = append(conditions, fmt.Sprintf("e.parent_id = $%d", len(args)))
	}
	if filter.ClassID != "" {
		args = append(args, filter.ClassID)
		conditions = append(conditions, fmt.Sprintf("e.class_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", len(args)))
	}
	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	orderBy, ok := enrollmentSorts[filter.SortBy]
	if !ok {
		orderBy = "e.created_at"
	}
	page, size := normalizePage(filter.Page, filter.PageSize)
	query := fmt.Sprintf("%s%s ORDER BY %s %s LIMIT %d OFFSET %d",
		enrollmentDetailSelect, clause, orderBy, sortDirection(filter.SortOrder), size, (page-1)*size)

	var rows []enrollmentRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	countQuery := `SELECT COUNT(*) FROM enrollments e JOIN users u ON u.id = e.user_id JOIN classes c ON c.id = e.class_id` + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return toDetails(rows), total, nil
}

// ListForUser returns enrollments the user holds or made on behalf of a child, newest first.
func (r *EnrollmentRepository) ListForUser(ctx context.Context, userID string) ([]models.EnrollmentDetail, error) {
	query := enrollmentDetailSelect + ` WHERE e.user_id = $1 OR e.parent_id = $1 ORDER BY e.created_at DESC`
	var rows []enrollmentRow
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("list user enrollments: %w", err)
	}
	return toDetails(rows), nil
}

// ListRoster returns the non-cancelled enrollments of a class ordered by student name.
func (r *EnrollmentRepository) ListRoster(ctx context.Context, classID string) ([]models.EnrollmentDetail, error) {
	query := enrollmentDetailSelect + ` WHERE e.class_id = $1 AND e.status <> $2 ORDER BY u.full_name ASC`
	var rows []enrollmentRow
	if err := r.db.SelectContext(ctx, &rows, query, classID, models.EnrollmentStatusCancelled); err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}
	return toDetails(rows), nil
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments e WHERE e.id = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find enrollment: %w", err)
	}
	return &enrollment, nil
}

// FindActive returns the newest non-cancelled enrollment in classID where userID is
// the student or the enrolling parent, or sql.ErrNoRows.
func (r *EnrollmentRepository) FindActive(ctx context.Context, userID, classID string) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments e
WHERE (e.user_id = $1 OR e.parent_id = $1) AND e.class_id = $2 AND e.status <> $3
ORDER BY e.created_at DESC LIMIT 1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, userID, classID, models.EnrollmentStatusCancelled); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find active enrollment: %w", err)
	}
	return &enrollment, nil
}

func findActiveEnrollment(ctx context.Context, q sqlx.QueryerContext, userID, classID string, lock bool) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments e WHERE e.user_id = $1 AND e.class_id = $2 AND e.status <> $3 ORDER BY e.created_at DESC LIMIT 1`
	if lock {
		query += ` FOR UPDATE`
	}
	var enrollment models.Enrollment
	if err := sqlx.GetContext(ctx, q, &enrollment, query, userID, classID, models.EnrollmentStatusCancelled); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find active enrollment: %w", err)
	}
	return &enrollment, nil
}

// CreateLocked locks the class row, lets build decide on the enrollment and
// inserts it, incrementing current_count when the new record holds a seat.
func (r *EnrollmentRepository) CreateLocked(ctx context.Context, classID, userID string, build EnrollmentBuilder) (result *models.Enrollment, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin enrollment transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var class models.Class
	lockQuery := `SELECT ` + classColumns + ` FROM classes c WHERE c.id = $1 FOR UPDATE`
	if err = tx.GetContext(ctx, &class, lockQuery, classID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("lock class: %w", err)
	}

	existing, err := findActiveEnrollment(ctx, tx, userID, classID, true)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	err = nil

	enrollment, err := build(&class, existing)
	if err != nil {
		return nil, err
	}
	if existing != nil && enrollment == existing {
		if err = tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit enrollment: %w", err)
		}
		return existing, nil
	}

	now := time.Now().UTC()
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	enrollment.ClassID = classID
	enrollment.UserID = userID
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now
	const insertQuery = `INSERT INTO enrollments (id, user_id, class_id, parent_id, status, created_at, updated_at)
VALUES (:id, :user_id, :class_id, :parent_id, :status, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insertQuery, enrollment); err != nil {
		return nil, fmt.Errorf("insert enrollment: %w", err)
	}

	if enrollment.Status.HoldsSeat() {
		if err = adjustClassCount(ctx, tx, classID, 1, now); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit enrollment: %w", err)
	}
	return enrollment, nil
}

// TransitionStatus changes the status of an enrollment and keeps the class seat count in step.
// It returns the updated record and its previous status.
func (r *EnrollmentRepository) TransitionStatus(ctx context.Context, id string, status models.EnrollmentStatus) (result *models.Enrollment, previous models.EnrollmentStatus, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, "", fmt.Errorf("begin enrollment status transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var enrollment models.Enrollment
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments e WHERE e.id = $1 FOR UPDATE`
	if err = tx.GetContext(ctx, &enrollment, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", err
		}
		return nil, "", fmt.Errorf("lock enrollment: %w", err)
	}
	previous = enrollment.Status
	if previous == status {
		if err = tx.Commit(); err != nil {
			return nil, "", fmt.Errorf("commit enrollment status: %w", err)
		}
		return &enrollment, previous, nil
	}

	now := time.Now().UTC()
	if _, err = tx.ExecContext(ctx, `UPDATE enrollments SET status = $2, updated_at = $3 WHERE id = $1`, id, status, now); err != nil {
		return nil, "", fmt.Errorf("update enrollment status: %w", err)
	}
	switch {
	case previous.HoldsSeat() && !status.HoldsSeat():
		err = adjustClassCount(ctx, tx, enrollment.ClassID, -1, now)
	case !previous.HoldsSeat() && status.HoldsSeat():
		err = adjustClassCount(ctx, tx, enrollment.ClassID, 1, now)
	}
	if err != nil {
		return nil, "", err
	}

	if err = tx.Commit(); err != nil {
		return nil, "", fmt.Errorf("commit enrollment status: %w", err)
	}
	enrollment.Status = status
	enrollment.UpdatedAt = now
	return &enrollment, previous, nil
}

func adjustClassCount(ctx context.Context, tx *sqlx.Tx, classID string, delta int, now time.Time) error {
	const query = `UPDATE classes SET current_count = GREATEST(current_count + $2, 0), updated_at = $3 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, classID, delta, now); err != nil {
		return fmt.Errorf("adjust class count: %w", err)
	}
	return nil
}
