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

const curriculumColumns = `id, class_id, title, type, content_url, description, is_public, position, created_at`

// CurriculumRepository persists class content items.
type CurriculumRepository struct {
	db *sqlx.DB
}

// NewCurriculumRepository constructs the repository.
func NewCurriculumRepository(db *sqlx.DB) *CurriculumRepository {
	return &CurriculumRepository{db: db}
}

// ListByClass returns items ordered by position then creation time.
func (r *CurriculumRepository) ListByClass(ctx context.Context, classID string) ([]models.CurriculumItem, error) {
	var items []models.CurriculumItem
	query := `SELECT ` + curriculumColumns + ` FROM curriculum_items WHERE class_id = $1 ORDER BY position ASC, created_at ASC`
	if err := r.db.SelectContext(ctx, &items, query, classID); err != nil {
		return nil, fmt.Errorf("list curriculum: %w", err)
	}
	return items, nil
}

// FindByID returns an item by id.
func (r *CurriculumRepository) FindByID(ctx context.Context, id string) (*models.CurriculumItem, error) {
	var item models.CurriculumItem
	if err := r.db.GetContext(ctx, &item, `SELECT `+curriculumColumns+` FROM curriculum_items WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find curriculum item: %w", err)
	}
	return &item, nil
}

// Create inserts an item.
func (r *CurriculumRepository) Create(ctx context.Context, item *models.CurriculumItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	item.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO curriculum_items (` + curriculumColumns + `)
VALUES (:id, :class_id, :title, :type, :content_url, :description, :is_public, :position, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create curriculum item: %w", err)
	}
	return nil
}

// Update replaces an item's editable fields.
func (r *CurriculumRepository) Update(ctx context.Context, item *models.CurriculumItem) error {
	const query = `UPDATE curriculum_items SET title = :title, type = :type, content_url = :content_url,
description = :description, is_public = :is_public, position = :position WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, item)
	if err != nil {
		return fmt.Errorf("update curriculum item: %w", err)
	}
	return expectAffected(res)
}

// Delete removes an item.
func (r *CurriculumRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM curriculum_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete curriculum item: %w", err)
	}
	return expectAffected(res)
}
