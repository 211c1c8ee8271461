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

const mentorDetailSelect = `SELECT m.id, m.user_id, m.headline, m.bio, m.expertise, m.is_active, m.created_at, m.updated_at,
u.full_name, u.email
FROM mentor_profiles m JOIN users u ON u.id = m.user_id`

// MentorRepository persists mentor profiles.
type MentorRepository struct {
	db *sqlx.DB
}

// NewMentorRepository constructs the repository.
func NewMentorRepository(db *sqlx.DB) *MentorRepository {
	return &MentorRepository{db: db}
}

// List returns mentor profiles; activeOnly hides inactive profiles.
func (r *MentorRepository) List(ctx context.Context, activeOnly bool) ([]models.MentorDetail, error) {
	query := mentorDetailSelect
	if activeOnly {
		query += ` WHERE m.is_active = TRUE AND u.active = TRUE`
	}
	query += ` ORDER BY u.full_name ASC`
	var mentors []models.MentorDetail
	if err := r.db.SelectContext(ctx, &mentors, query); err != nil {
		return nil, fmt.Errorf("list mentors: %w", err)
	}
	return mentors, nil
}

// FindByID returns a profile by id.
func (r *MentorRepository) FindByID(ctx context.Context, id string) (*models.MentorDetail, error) {
	var mentor models.MentorDetail
	if err := r.db.GetContext(ctx, &mentor, mentorDetailSelect+` WHERE m.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find mentor: %w", err)
	}
	return &mentor, nil
}

// Create inserts a profile.
func (r *MentorRepository) Create(ctx context.Context, profile *models.MentorProfile) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	profile.CreatedAt = now
	profile.UpdatedAt = now
	const query = `INSERT INTO mentor_profiles (id, user_id, headline, bio, expertise, is_active, created_at, updated_at)
VALUES (:id, :user_id, :headline, :bio, :expertise, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("create mentor: %w", err)
	}
	return nil
}

// Update modifies a profile.
func (r *MentorRepository) Update(ctx context.Context, profile *models.MentorProfile) error {
	profile.UpdatedAt = time.Now().UTC()
	const query = `UPDATE mentor_profiles SET headline = :headline, bio = :bio, expertise = :expertise, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, profile)
	if err != nil {
		return fmt.Errorf("update mentor: %w", err)
	}
	return expectAffected(res)
}

// Delete removes a profile; the user account is untouched.
func (r *MentorRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM mentor_profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete mentor: %w", err)
	}
	return expectAffected(res)
}
