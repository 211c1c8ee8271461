package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-portal-api/internal/dto"
	"github.com/noah-isme/edu-portal-api/internal/models"
	appErrors "github.com/noah-isme/edu-portal-api/pkg/errors"
)

type announcementRepository interface {
	List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error)
	GetByID(ctx context.Context, id string) (*models.Announcement, error)
	Create(ctx context.Context, announcement *models.Announcement) error
	Update(ctx context.Context, announcement *models.Announcement) error
	Delete(ctx context.Context, id string) error
}

// AnnouncementService handles announcement workflows.
type AnnouncementService struct {
	repo      announcementRepository
	classes   classFinder
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAnnouncementService constructs the service.
func NewAnnouncementService(repo announcementRepository, classes classFinder, validate *validator.Validate, logger *zap.Logger) *AnnouncementService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnnouncementService{repo: repo, classes: classes, validator: validate, logger: logger, now: time.Now}
}

// AudiencesFor lists the audiences a role may read. Staff see everything.
func AudiencesFor(role models.UserRole) []models.AnnouncementAudience {
	switch role {
	case models.RoleStudent:
		return []models.AnnouncementAudience{models.AnnouncementAudienceAll, models.AnnouncementAudienceStudents, models.AnnouncementAudienceClass}
	case models.RoleParent:
		return []models.AnnouncementAudience{models.AnnouncementAudienceAll, models.AnnouncementAudienceParents, models.AnnouncementAudienceClass}
	case models.RoleGuest:
		return []models.AnnouncementAudience{models.AnnouncementAudienceAll}
	case models.RoleMentor, models.RoleInstructor, models.RoleAdmin, models.RoleT1Admin, models.RoleT2Admin:
		return nil
	}
	return []models.AnnouncementAudience{models.AnnouncementAudienceAll}
}

// List returns announcements with pagination for the admin console, expired ones included.
func (s *AnnouncementService) List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, *models.Pagination, error) {
	filter.IncludeExpired = true
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list announcements")
	}
	if rows == nil {
		rows = []models.Announcement{}
	}
	return rows, newPagination(filter.Page, filter.PageSize, total), nil
}

// ForClass returns the live announcements of a class plus site-wide ones, filtered by the viewer's role.
func (s *AnnouncementService) ForClass(ctx context.Context, viewer *models.JWTClaims, classID string, page, pageSize int) ([]models.Announcement, *models.Pagination, error) {
	if viewer == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	if _, err := s.classes.FindByID(ctx, classID); err != nil {
		return nil, nil, lookupError(err, "class not found", "failed to load class")
	}
	filter := models.AnnouncementFilter{
		Audiences: AudiencesFor(viewer.Role),
		ClassID:   classID,
		Page:      page,
		PageSize:  pageSize,
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list announcements")
	}
	if rows == nil {
		rows = []models.Announcement{}
	}
	return rows, newPagination(page, pageSize, total), nil
}

// Get returns an announcement by id.
func (s *AnnouncementService) Get(ctx context.Context, id string) (*models.Announcement, error) {
	ann, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "announcement not found", "failed to get announcement")
	}
	return ann, nil
}

// Create registers a new announcement.
func (s *AnnouncementService) Create(ctx context.Context, actor *models.JWTClaims, req dto.UpsertAnnouncementRequest) (*models.Announcement, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	announcement := &models.Announcement{CreatedBy: actor.UserID}
	if err := s.apply(ctx, announcement, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, announcement); err != nil {
		return nil, internalError(err, "failed to create announcement")
	}
	return announcement, nil
}

// Update modifies an existing announcement.
func (s *AnnouncementService) Update(ctx context.Context, id string, req dto.UpsertAnnouncementRequest) (*models.Announcement, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "announcement not found", "failed to load announcement")
	}
	if err := s.apply(ctx, existing, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, lookupError(err, "announcement not found", "failed to update announcement")
	}
	return existing, nil
}

// Delete removes an announcement by id.
func (s *AnnouncementService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return lookupError(err, "announcement not found", "failed to delete announcement")
	}
	return nil
}

func (s *AnnouncementService) apply(ctx context.Context, ann *models.Announcement, req dto.UpsertAnnouncementRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid payload")
	}
	hasClass := req.ClassID != nil && *req.ClassID != ""
	if req.Audience == models.AnnouncementAudienceClass && !hasClass {
		return appErrors.Clone(appErrors.ErrValidation, "classId required for CLASS audience")
	}
	if hasClass {
		if _, err := s.classes.FindByID(ctx, *req.ClassID); err != nil {
			return lookupError(err, "class not found", "failed to load class")
		}
	}

	publishedAt := s.now().UTC()
	if req.PublishedAt != nil {
		publishedAt = req.PublishedAt.UTC()
	}
	if req.ExpiresAt != nil && !req.ExpiresAt.After(publishedAt) {
		return appErrors.Clone(appErrors.ErrValidation, "expiresAt must be after publishedAt")
	}

	ann.ClassID = nil
	if hasClass {
		ann.ClassID = req.ClassID
	}
	ann.Title = req.Title
	ann.Content = req.Content
	ann.Audience = req.Audience
	ann.IsPinned = req.IsPinned
	ann.PublishedAt = publishedAt
	ann.ExpiresAt = req.ExpiresAt
	return nil
}
