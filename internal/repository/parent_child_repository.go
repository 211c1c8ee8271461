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

const parentChildDetailSelect = `SELECT pc.id, pc.parent_id, pc.child_id, pc.status, pc.created_at, pc.updated_at,
p.full_name AS parent_name, p.email AS parent_email, ch.full_name AS child_name, ch.email AS child_email
FROM parent_child_relationships pc
JOIN users p ON p.id = pc.parent_id
JOIN users ch ON ch.id = pc.child_id`

// ParentChildRepository persists parent-child links.
type ParentChildRepository struct {
	db *sqlx.DB
}

// NewParentChildRepository constructs the repository.
func NewParentChildRepository(db *sqlx.DB) *ParentChildRepository {
	return &ParentChildRepository{db: db}
}

// ListForUser returns links where the user is either the parent or the child.
func (r *ParentChildRepository) ListForUser(ctx context.Context, userID string) ([]models.ParentChildDetail, error) {
	var links []models.ParentChildDetail
	if err := r.db.SelectContext(ctx, &links, parentChildDetailSelect+` WHERE pc.parent_id = $1 OR pc.child_id = $1 ORDER BY pc.created_at DESC`, userID); err != nil {
		return nil, fmt.Errorf("list parent child links: %w", err)
	}
	return links, nil
}

// FindByID returns a link by id.
func (r *ParentChildRepository) FindByID(ctx context.Context, id string) (*models.ParentChildRelationship, error) {
	var link models.ParentChildRelationship
	const query = `SELECT id, parent_id, child_id, status, created_at, updated_at FROM parent_child_relationships WHERE id = $1`
	if err := r.db.GetContext(ctx, &link, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find parent child link: %w", err)
	}
	return &link, nil
}

// FindByPair returns the link between parent and child, or sql.ErrNoRows.
func (r *ParentChildRepository) FindByPair(ctx context.Context, parentID, childID string) (*models.ParentChildRelationship, error) {
	var link models.ParentChildRelationship
	const query = `SELECT id, parent_id, child_id, status, created_at, updated_at FROM parent_child_relationships WHERE parent_id = $1 AND child_id = $2`
	if err := r.db.GetContext(ctx, &link, query, parentID, childID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find parent child pair: %w", err)
	}
	return &link, nil
}

// IsApproved reports whether an approved link exists.
func (r *ParentChildRepository) IsApproved(ctx context.Context, parentID, childID string) (bool, error) {
	var exists bool
	const query = `SELECT EXISTS (SELECT 1 FROM parent_child_relationships WHERE parent_id = $1 AND child_id = $2 AND status = $3)`
	if err := r.db.GetContext(ctx, &exists, query, parentID, childID, models.RelationshipApproved); err != nil {
		return false, fmt.Errorf("check parent child link: %w", err)
	}
	return exists, nil
}

// Create inserts a pending link.
func (r *ParentChildRepository) Create(ctx context.Context, link *models.ParentChildRelationship) error {
	if link.ID == "" {
		link.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	link.CreatedAt = now
	link.UpdatedAt = now
	const query = `INSERT INTO parent_child_relationships (id, parent_id, child_id, status, created_at, updated_at)
VALUES (:id, :parent_id, :child_id, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, link); err != nil {
		return fmt.Errorf("create parent child link: %w", err)
	}
	return nil
}

// UpdateStatus sets the review outcome.
func (r *ParentChildRepository) UpdateStatus(ctx context.Context, id string, status models.RelationshipStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE parent_child_relationships SET status = $2, updated_at = $3 WHERE id = $1`, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update parent child link: %w", err)
	}
	return expectAffected(res)
}
