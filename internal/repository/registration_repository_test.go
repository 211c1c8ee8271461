package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-portal-api/internal/models"
)

var (
	eventRowColumns        = []string{"id", "title", "description", "location", "price", "capacity", "current_count", "waitlist_limit", "is_active", "start_date", "created_at", "updated_at"}
	registrationRowColumns = []string{"id", "user_id", "event_id", "status", "quantity", "registration_type", "waitlist_position", "created_at", "updated_at"}
)

func eventRow(id string, capacity, current int) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(eventRowColumns).
		AddRow(id, "Open Day", "", "Hall", nil, capacity, current, 10, true, nil, now, now)
}

func TestRegistrationCreateLockedWaitlistDoesNotCountSeat(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM events WHERE id = \$1 FOR UPDATE`).WithArgs("event-1").WillReturnRows(eventRow("event-1", 2, 2))
	mock.ExpectQuery(`FROM event_registrations r WHERE r.user_id = \$1 AND r.event_id = \$2`).
		WillReturnRows(sqlmock.NewRows(registrationRowColumns))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM event_registrations WHERE event_id = \$1 AND status = \$2`).
		WithArgs("event-1", models.EnrollmentStatusWaitlisted).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectExec("INSERT INTO event_registrations").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	reg, err := repo.CreateLocked(context.Background(), "event-1", "user-1", func(event *models.Event, existing *models.EventRegistration, waitlisted int) (*models.EventRegistration, error) {
		assert.Nil(t, existing)
		assert.Equal(t, 3, waitlisted)
		position := waitlisted + 1
		return &models.EventRegistration{Status: models.EnrollmentStatusWaitlisted, Quantity: 1, RegistrationType: models.RegistrationTypeIndividual, WaitlistPosition: &position}, nil
	})
	require.NoError(t, err)
	require.NotNil(t, reg.WaitlistPosition)
	assert.Equal(t, 4, *reg.WaitlistPosition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationCancelPromotesWaitlistWhileCapacityAllows(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM event_registrations r WHERE r.id = \$1 FOR UPDATE`).WithArgs("reg-1").
		WillReturnRows(sqlmock.NewRows(registrationRowColumns).AddRow("reg-1", "user-1", "event-1", "CONFIRMED", 1, "INDIVIDUAL", nil, now, now))
	mock.ExpectQuery(`FROM events WHERE id = \$1 FOR UPDATE`).WillReturnRows(eventRow("event-1", 1, 1))
	mock.ExpectExec("UPDATE event_registrations SET status").WithArgs("reg-1", models.EnrollmentStatusCancelled, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE events SET current_count").WithArgs("event-1", -1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`r.status = \$2 ORDER BY r.waitlist_position ASC`).WithArgs("event-1", models.EnrollmentStatusWaitlisted).
		WillReturnRows(sqlmock.NewRows(registrationRowColumns).
			AddRow("reg-2", "user-2", "event-1", "WAITLISTED", 1, "INDIVIDUAL", 1, now, now).
			AddRow("reg-3", "user-3", "event-1", "WAITLISTED", 1, "INDIVIDUAL", 2, now, now))
	mock.ExpectExec("UPDATE event_registrations SET status = \\$2, waitlist_position = NULL").
		WithArgs("reg-2", models.EnrollmentStatusConfirmed, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE events SET current_count").WithArgs("event-1", 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	reg, previous, promoted, err := repo.TransitionStatus(context.Background(), "reg-1", models.EnrollmentStatusCancelled, func(*models.Event) models.EnrollmentStatus {
		return models.EnrollmentStatusConfirmed
	})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusConfirmed, previous)
	assert.Equal(t, models.EnrollmentStatusCancelled, reg.Status)
	require.Len(t, promoted, 1)
	assert.Equal(t, "reg-2", promoted[0].ID)
	assert.Equal(t, models.EnrollmentStatusConfirmed, promoted[0].Status)
	assert.Nil(t, promoted[0].WaitlistPosition)
	assert.NoError(t, mock.ExpectationsWereMet())
}
