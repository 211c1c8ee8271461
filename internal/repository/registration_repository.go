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

// ActiveRegistrationConstraint is the partial unique index guarding one non-cancelled registration per user and event.
const ActiveRegistrationConstraint = "uq_event_registrations_active"

const registrationColumns = `r.id, r.user_id, r.event_id, r.status, r.quantity, r.registration_type, r.waitlist_position, r.created_at, r.updated_at`

const registrationDetailSelect = `SELECT ` + registrationColumns + `,
u.full_name AS user_name, u.email AS user_email, ev.title AS event_title
FROM event_registrations r
JOIN users u ON u.id = r.user_id
JOIN events ev ON ev.id = r.event_id`

// RegistrationBuilder decides, under the event row lock, which registration to persist.
// waitlisted is the number of registrations currently on the waitlist.
type RegistrationBuilder func(event *models.Event, existing *models.EventRegistration, waitlisted int) (*models.EventRegistration, error)

// RegistrationRepository handles persistence of event registrations.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs the repository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// List returns registrations for admin screens.
func (r *RegistrationRepository) List(ctx context.Context, filter models.RegistrationFilter) ([]models.RegistrationDetail, int, error) {
	var conditions []string
	var args []interface{}
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		conditions = append(conditions, fmt.Sprintf("r.user_id = $%d", len(args)))
	}
	if filter.EventID != "" {
		args = append(args, filter.EventID)
		conditions = append(conditions, fmt.Sprintf("r.event_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("r.status = $%d", len(args)))
	}
	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}
	page, size := normalizePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf("%s%s ORDER BY r.created_at DESC LIMIT %d OFFSET %d", registrationDetailSelect, clause, size, (page-1)*size)
	var regs []models.RegistrationDetail
	if err := r.db.SelectContext(ctx, &regs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list registrations: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM event_registrations r"+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count registrations: %w", err)
	}
	return regs, total, nil
}

// ListForUser returns the user's registrations, newest first.
func (r *RegistrationRepository) ListForUser(ctx context.Context, userID string) ([]models.RegistrationDetail, error) {
	var regs []models.RegistrationDetail
	if err := r.db.SelectContext(ctx, &regs, registrationDetailSelect+` WHERE r.user_id = $1 ORDER BY r.created_at DESC`, userID); err != nil {
		return nil, fmt.Errorf("list user registrations: %w", err)
	}
	return regs, nil
}

// FindByID returns a registration by id.
func (r *RegistrationRepository) FindByID(ctx context.Context, id string) (*models.EventRegistration, error) {
	var reg models.EventRegistration
	if err := r.db.GetContext(ctx, &reg, `SELECT `+registrationColumns+` FROM event_registrations r WHERE r.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find registration: %w", err)
	}
	return &reg, nil
}

// FindActive returns the newest non-cancelled registration of userID for eventID, or sql.ErrNoRows.
func (r *RegistrationRepository) FindActive(ctx context.Context, userID, eventID string) (*models.EventRegistration, error) {
	return findActiveRegistration(ctx, r.db, userID, eventID, false)
}

// CountWaitlisted returns how many registrations of eventID sit on the waitlist.
func (r *RegistrationRepository) CountWaitlisted(ctx context.Context, eventID string) (int, error) {
	var total int
	const query = `SELECT COUNT(*) FROM event_registrations WHERE event_id = $1 AND status = $2`
	if err := r.db.GetContext(ctx, &total, query, eventID, models.EnrollmentStatusWaitlisted); err != nil {
		return 0, fmt.Errorf("count waitlist: %w", err)
	}
	return total, nil
}

func findActiveRegistration(ctx context.Context, q sqlx.QueryerContext, userID, eventID string, lock bool) (*models.EventRegistration, error) {
	query := `SELECT ` + registrationColumns + ` FROM event_registrations r WHERE r.user_id = $1 AND r.event_id = $2 AND r.status <> $3 ORDER BY r.created_at DESC LIMIT 1`
	if lock {
		query += ` FOR UPDATE`
	}
	var reg models.EventRegistration
	if err := sqlx.GetContext(ctx, q, &reg, query, userID, eventID, models.EnrollmentStatusCancelled); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find active registration: %w", err)
	}
	return &reg, nil
}

// CreateLocked locks the event row and inserts the registration produced by build.
// Seat-holding registrations add their quantity to current_count.
func (r *RegistrationRepository) CreateLocked(ctx context.Context, eventID, userID string, build RegistrationBuilder) (result *models.EventRegistration, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin registration transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	event, err := lockEvent(ctx, tx, eventID)
	if err != nil {
		return nil, err
	}

	existing, err := findActiveRegistration(ctx, tx, userID, eventID, true)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	err = nil

	var waitlisted int
	const countQuery = `SELECT COUNT(*) FROM event_registrations WHERE event_id = $1 AND status = $2`
	if err = tx.GetContext(ctx, &waitlisted, countQuery, eventID, models.EnrollmentStatusWaitlisted); err != nil {
		return nil, fmt.Errorf("count waitlist: %w", err)
	}

	reg, err := build(event, existing, waitlisted)
	if err != nil {
		return nil, err
	}
	if existing != nil && reg == existing {
		if err = tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit registration: %w", err)
		}
		return existing, nil
	}

	now := time.Now().UTC()
	if reg.ID == "" {
		reg.ID = uuid.NewString()
	}
	reg.EventID = eventID
	reg.UserID = userID
	reg.CreatedAt = now
	reg.UpdatedAt = now
	const insertQuery = `INSERT INTO event_registrations (id, user_id, event_id, status, quantity, registration_type, waitlist_position, created_at, updated_at)
VALUES (:id, :user_id, :event_id, :status, :quantity, :registration_type, :waitlist_position, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insertQuery, reg); err != nil {
		return nil, fmt.Errorf("insert registration: %w", err)
	}
	if reg.Status.HoldsSeat() {
		if err = adjustEventCount(ctx, tx, eventID, reg.Quantity, now); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit registration: %w", err)
	}
	return reg, nil
}

// TransitionStatus changes a registration's status. When seats are released the
// waitlist is promoted in position order while capacity allows; promoted
// registrations become promoteTo. The updated record, its previous status and
// the promoted registrations are returned.
func (r *RegistrationRepository) TransitionStatus(ctx context.Context, id string, status models.EnrollmentStatus, promoteTo func(*models.Event) models.EnrollmentStatus) (result *models.EventRegistration, previous models.EnrollmentStatus, promoted []models.EventRegistration, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, "", nil, fmt.Errorf("begin registration status transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var reg models.EventRegistration
	if err = tx.GetContext(ctx, &reg, `SELECT `+registrationColumns+` FROM event_registrations r WHERE r.id = $1 FOR UPDATE`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", nil, err
		}
		return nil, "", nil, fmt.Errorf("lock registration: %w", err)
	}
	previous = reg.Status
	if previous == status {
		if err = tx.Commit(); err != nil {
			return nil, "", nil, fmt.Errorf("commit registration status: %w", err)
		}
		return &reg, previous, nil, nil
	}

	event, err := lockEvent(ctx, tx, reg.EventID)
	if err != nil {
		return nil, "", nil, err
	}

	now := time.Now().UTC()
	var position *int
	if status == models.EnrollmentStatusWaitlisted {
		position = reg.WaitlistPosition
	}
	if _, err = tx.ExecContext(ctx, `UPDATE event_registrations SET status = $2, waitlist_position = $3, updated_at = $4 WHERE id = $1`, id, status, position, now); err != nil {
		return nil, "", nil, fmt.Errorf("update registration status: %w", err)
	}

	released := previous.HoldsSeat() && !status.HoldsSeat()
	switch {
	case released:
		event.CurrentCount -= reg.Quantity
		err = adjustEventCount(ctx, tx, event.ID, -reg.Quantity, now)
	case !previous.HoldsSeat() && status.HoldsSeat():
		event.CurrentCount += reg.Quantity
		err = adjustEventCount(ctx, tx, event.ID, reg.Quantity, now)
	}
	if err != nil {
		return nil, "", nil, err
	}

	if released && promoteTo != nil {
		promoted, err = promoteWaitlist(ctx, tx, event, promoteTo(event), now)
		if err != nil {
			return nil, "", nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, "", nil, fmt.Errorf("commit registration status: %w", err)
	}
	reg.Status = status
	reg.WaitlistPosition = position
	reg.UpdatedAt = now
	return &reg, previous, promoted, nil
}

func promoteWaitlist(ctx context.Context, tx *sqlx.Tx, event *models.Event, promoteTo models.EnrollmentStatus, now time.Time) ([]models.EventRegistration, error) {
	var waiting []models.EventRegistration
	query := `SELECT ` + registrationColumns + ` FROM event_registrations r WHERE r.event_id = $1 AND r.status = $2 ORDER BY r.waitlist_position ASC, r.created_at ASC FOR UPDATE`
	if err := tx.SelectContext(ctx, &waiting, query, event.ID, models.EnrollmentStatusWaitlisted); err != nil {
		return nil, fmt.Errorf("load waitlist: %w", err)
	}

	var promoted []models.EventRegistration
	for _, candidate := range waiting {
		if event.Capacity != nil && event.CurrentCount+candidate.Quantity > *event.Capacity {
			break
		}
		if _, err := tx.ExecContext(ctx, `UPDATE event_registrations SET status = $2, waitlist_position = NULL, updated_at = $3 WHERE id = $1`, candidate.ID, promoteTo, now); err != nil {
			return nil, fmt.Errorf("promote registration: %w", err)
		}
		if err := adjustEventCount(ctx, tx, event.ID, candidate.Quantity, now); err != nil {
			return nil, err
		}
		event.CurrentCount += candidate.Quantity
		candidate.Status = promoteTo
		candidate.WaitlistPosition = nil
		candidate.UpdatedAt = now
		promoted = append(promoted, candidate)
	}
	return promoted, nil
}

func lockEvent(ctx context.Context, tx *sqlx.Tx, eventID string) (*models.Event, error) {
	var event models.Event
	if err := tx.GetContext(ctx, &event, `SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, eventID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("lock event: %w", err)
	}
	return &event, nil
}

func adjustEventCount(ctx context.Context, tx *sqlx.Tx, eventID string, delta int, now time.Time) error {
	const query = `UPDATE events SET current_count = GREATEST(current_count + $2, 0), updated_at = $3 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, eventID, delta, now); err != nil {
		return fmt.Errorf("adjust event count: %w", err)
	}
	return nil
}
