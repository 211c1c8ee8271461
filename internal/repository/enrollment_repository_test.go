package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-portal-api/internal/models"
)

var (
	classRowColumns      = []string{"id", "title", "description", "price", "capacity", "current_count", "is_active", "start_date", "end_date", "instructor_id", "created_at", "updated_at"}
	enrollmentRowColumns = []string{"id", "user_id", "class_id", "parent_id", "status", "created_at", "updated_at"}
)

func classRow(id string, price float64, capacity, current int) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(classRowColumns).
		AddRow(id, "Algebra", "", price, capacity, current, true, nil, nil, nil, now, now)
}

func TestEnrollmentCreateLockedInsertsAndCountsSeat(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM classes c WHERE c.id = \$1 FOR UPDATE`).WithArgs("class-1").
		WillReturnRows(classRow("class-1", 0, 20, 3))
	mock.ExpectQuery(`FROM enrollments e WHERE e.user_id = \$1 AND e.class_id = \$2 .* FOR UPDATE`).
		WithArgs("user-1", "class-1", models.EnrollmentStatusCancelled).
		WillReturnRows(sqlmock.NewRows(enrollmentRowColumns))
	mock.ExpectExec("INSERT INTO enrollments").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE classes SET current_count").WithArgs("class-1", 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	var seen *models.Class
	enrollment, err := repo.CreateLocked(context.Background(), "class-1", "user-1", func(class *models.Class, existing *models.Enrollment) (*models.Enrollment, error) {
		seen = class
		assert.Nil(t, existing)
		return &models.Enrollment{Status: models.EnrollmentStatusConfirmed}, nil
	})
	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.Equal(t, 3, seen.CurrentCount)
	assert.Equal(t, "class-1", enrollment.ClassID)
	assert.Equal(t, "user-1", enrollment.UserID)
	assert.NotEmpty(t, enrollment.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentCreateLockedReturnsExisting(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM classes c WHERE c.id = \$1 FOR UPDATE`).WillReturnRows(classRow("class-1", 49.5, 20, 3))
	mock.ExpectQuery(`FROM enrollments e WHERE e.user_id`).
		WillReturnRows(sqlmock.NewRows(enrollmentRowColumns).AddRow("enr-1", "user-1", "class-1", nil, "PENDING", now, now))
	mock.ExpectCommit()

	enrollment, err := repo.CreateLocked(context.Background(), "class-1", "user-1", func(_ *models.Class, existing *models.Enrollment) (*models.Enrollment, error) {
		return existing, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "enr-1", enrollment.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentCreateLockedRollsBackOnBuilderError(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM classes c WHERE c.id = \$1 FOR UPDATE`).WillReturnRows(classRow("class-1", 99.99, 20, 20))
	mock.ExpectQuery(`FROM enrollments e WHERE e.user_id`).WillReturnRows(sqlmock.NewRows(enrollmentRowColumns))
	mock.ExpectRollback()

	full := errors.New("full")
	_, err := repo.CreateLocked(context.Background(), "class-1", "user-1", func(*models.Class, *models.Enrollment) (*models.Enrollment, error) {
		return nil, full
	})
	assert.ErrorIs(t, err, full)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentCreateLockedMissingClass(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM classes c WHERE c.id = \$1 FOR UPDATE`).WillReturnRows(sqlmock.NewRows(classRowColumns))
	mock.ExpectRollback()

	_, err := repo.CreateLocked(context.Background(), "missing", "user-1", func(*models.Class, *models.Enrollment) (*models.Enrollment, error) {
		t.Fatal("builder must not run without a class")
		return nil, nil
	})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestEnrollmentTransitionReleasesSeat(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM enrollments e WHERE e.id = \$1 FOR UPDATE`).WithArgs("enr-1").
		WillReturnRows(sqlmock.NewRows(enrollmentRowColumns).AddRow("enr-1", "user-1", "class-1", nil, "CONFIRMED", now, now))
	mock.ExpectExec("UPDATE enrollments SET status").WithArgs("enr-1", models.EnrollmentStatusCancelled, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE classes SET current_count").WithArgs("class-1", -1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	enrollment, previous, err := repo.TransitionStatus(context.Background(), "enr-1", models.EnrollmentStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusConfirmed, previous)
	assert.Equal(t, models.EnrollmentStatusCancelled, enrollment.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentTransitionBetweenSeatHoldingStatesKeepsCount(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM enrollments e WHERE e.id = \$1 FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(enrollmentRowColumns).AddRow("enr-1", "user-1", "class-1", nil, "PENDING", now, now))
	mock.ExpectExec("UPDATE enrollments SET status").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, previous, err := repo.TransitionStatus(context.Background(), "enr-1", models.EnrollmentStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusPending, previous)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentListForUserAttachesPayment(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now()
	cols := append(append([]string{}, enrollmentRowColumns...), "student_name", "student_email", "class_title", "class_price", "payment_id", "payment_amount", "payment_status")
	rows := sqlmock.NewRows(cols).
		AddRow("enr-1", "child-1", "class-1", "parent-1", "PENDING", now, now, "Kid", "kid@example.com", "Algebra", 49.5, "pay-1", 49.5, "PENDING").
		AddRow("enr-2", "parent-1", "class-2", nil, "CONFIRMED", now, now, "Parent", "p@example.com", "Art", nil, nil, nil, nil)
	mock.ExpectQuery(`WHERE e.user_id = \$1 OR e.parent_id = \$1`).WithArgs("parent-1").WillReturnRows(rows)

	list, err := repo.ListForUser(context.Background(), "parent-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.NotNil(t, list[0].Payment)
	assert.Equal(t, models.PaymentStatusPending, list[0].Payment.Status)
	assert.Nil(t, list[1].Payment)
}

func TestEnrollmentFindActiveMatchesEnrollingParent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now()
	mock.ExpectQuery(`WHERE \(e.user_id = \$1 OR e.parent_id = \$1\) AND e.class_id = \$2`).
		WithArgs("parent-1", "class-1", models.EnrollmentStatusCancelled).
		WillReturnRows(sqlmock.NewRows(enrollmentRowColumns).
			AddRow("enr-1", "child-1", "class-1", "parent-1", "CONFIRMED", now, now))

	enrollment, err := repo.FindActive(context.Background(), "parent-1", "class-1")
	require.NoError(t, err)
	assert.Equal(t, "child-1", enrollment.UserID)
	assert.Equal(t, models.EnrollmentStatusConfirmed, enrollment.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentFindActiveNoRows(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery("FROM enrollments e").
		WithArgs("user-1", "class-1", models.EnrollmentStatusCancelled).
		WillReturnRows(sqlmock.NewRows(enrollmentRowColumns))

	_, err := repo.FindActive(context.Background(), "user-1", "class-1")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}
