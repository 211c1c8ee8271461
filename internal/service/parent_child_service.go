package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-portal-api/internal/dto"
	"github.com/noah-isme/edu-portal-api/internal/models"
	appErrors "github.com/noah-isme/edu-portal-api/pkg/errors"
)

type parentChildRepository interface {
	ListForUser(ctx context.Context, userID string) ([]models.ParentChildDetail, error)
	FindByID(ctx context.Context, id string) (*models.ParentChildRelationship, error)
	FindByPair(ctx context.Context, parentID, childID string) (*models.ParentChildRelationship, error)
	Create(ctx context.Context, link *models.ParentChildRelationship) error
	UpdateStatus(ctx context.Context, id string, status models.RelationshipStatus) error
}

type userByEmailFinder interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// ParentChildService manages the parent-child links that gate enrolling a child.
type ParentChildService struct {
	repo      parentChildRepository
	users     userByEmailFinder
	audit     auditLogger
	validator *validator.Validate
	logger    *zap.Logger
}

// NewParentChildService constructs ParentChildService.
func NewParentChildService(repo parentChildRepository, users userByEmailFinder, audit auditLogger, validate *validator.Validate, logger *zap.Logger) *ParentChildService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ParentChildService{repo: repo, users: users, audit: audit, validator: validate, logger: logger}
}

// List returns links where the actor is parent or child.
func (s *ParentChildService) List(ctx context.Context, actor *models.JWTClaims) ([]models.ParentChildDetail, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	links, err := s.repo.ListForUser(ctx, actor.UserID)
	if err != nil {
		return nil, internalError(err, "failed to list relationships")
	}
	if links == nil {
		links = []models.ParentChildDetail{}
	}
	return links, nil
}

// Request asks to link the parent to a student account. A rejected link may be requested again.
func (s *ParentChildService) Request(ctx context.Context, actor *models.JWTClaims, req dto.ParentChildRequest) (*models.ParentChildRelationship, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid relationship request")
	}
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleParent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only parents can link child accounts")
	}

	child, err := s.users.FindByEmail(ctx, req.ChildEmail)
	if err != nil {
		return nil, lookupError(err, "no account found for that email", "failed to load child account")
	}
	if child.ID == actor.UserID || child.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrValidation, "child account must be a student account")
	}

	existing, err := s.repo.FindByPair(ctx, actor.UserID, child.ID)
	switch {
	case err == nil && existing.Status == models.RelationshipRejected:
		if err := s.repo.UpdateStatus(ctx, existing.ID, models.RelationshipPending); err != nil {
			return nil, internalError(err, "failed to reopen relationship")
		}
		existing.Status = models.RelationshipPending
		return existing, nil
	case err == nil:
		return nil, appErrors.Clone(appErrors.ErrConflict, "relationship already requested")
	case !errors.Is(err, sql.ErrNoRows):
		return nil, internalError(err, "failed to check relationship")
	}

	link := &models.ParentChildRelationship{
		ParentID: actor.UserID,
		ChildID:  child.ID,
		Status:   models.RelationshipPending,
	}
	if err := s.repo.Create(ctx, link); err != nil {
		return nil, internalError(err, "failed to create relationship")
	}
	s.logger.Info("relationship requested", zap.String("relationship_id", link.ID), zap.String("parent_id", link.ParentID))
	return link, nil
}

// Review approves or rejects a link. Only the child or an admin may review.
func (s *ParentChildService) Review(ctx context.Context, actor *models.JWTClaims, req dto.ReviewParentChildRequest) (*models.ParentChildRelationship, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid review payload")
	}
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	link, err := s.repo.FindByID(ctx, req.RelationshipID)
	if err != nil {
		return nil, lookupError(err, "relationship not found", "failed to load relationship")
	}
	if link.ChildID != actor.UserID && !actor.Role.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the child account can review this request")
	}
	if link.Status == req.Status {
		return link, nil
	}

	previous := link.Status
	if err := s.repo.UpdateStatus(ctx, link.ID, req.Status); err != nil {
		return nil, lookupError(err, "relationship not found", "failed to update relationship")
	}
	link.Status = req.Status
	s.recordAudit(ctx, actor, link, previous)
	return link, nil
}

func (s *ParentChildService) recordAudit(ctx context.Context, actor *models.JWTClaims, link *models.ParentChildRelationship, previous models.RelationshipStatus) {
	if s.audit == nil {
		return
	}
	oldValues, _ := json.Marshal(map[string]string{"status": string(previous)})
	newValues, _ := json.Marshal(map[string]string{"status": string(link.Status)})
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     userIDPtr(actor),
		Action:     models.AuditActionRelationshipReview,
		Resource:   "parent_child_relationships",
		ResourceID: &link.ID,
		OldValues:  oldValues,
		NewValues:  newValues,
		IPAddress:  "system",
		UserAgent:  "parent-child-service",
	}); err != nil {
		s.logger.Warn("failed to record relationship audit log", zap.Error(err))
	}
}
