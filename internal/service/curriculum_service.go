package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-portal-api/internal/dto"
	"github.com/noah-isme/edu-portal-api/internal/models"
	appErrors "github.com/noah-isme/edu-portal-api/pkg/errors"
)

type curriculumRepository interface {
	ListByClass(ctx context.Context, classID string) ([]models.CurriculumItem, error)
	FindByID(ctx context.Context, id string) (*models.CurriculumItem, error)
	Create(ctx context.Context, item *models.CurriculumItem) error
	Update(ctx context.Context, item *models.CurriculumItem) error
	Delete(ctx context.Context, id string) error
}

type activeEnrollmentFinder interface {
	ActiveFor(ctx context.Context, userID, classID string) (*models.Enrollment, error)
}

// PartitionCurriculum splits items into typed buckets keeping input order.
// Unknown types are dropped; publicOnly keeps public items only.
func PartitionCurriculum(items []models.CurriculumItem, publicOnly bool) dto.CurriculumSections {
	sections := dto.CurriculumSections{
		Lectures:    []models.CurriculumItem{},
		Readings:    []models.CurriculumItem{},
		Videos:      []models.CurriculumItem{},
		Assignments: []models.CurriculumItem{},
	}
	for _, item := range visibleCurriculum(items, publicOnly) {
		switch item.Type {
		case models.CurriculumLecture:
			sections.Lectures = append(sections.Lectures, item)
		case models.CurriculumReading:
			sections.Readings = append(sections.Readings, item)
		case models.CurriculumVideo:
			sections.Videos = append(sections.Videos, item)
		case models.CurriculumAssignment:
			sections.Assignments = append(sections.Assignments, item)
		}
	}
	return sections
}

// visibleCurriculum keeps the items of a known type that the view may show, in input order.
func visibleCurriculum(items []models.CurriculumItem, publicOnly bool) []models.CurriculumItem {
	visible := make([]models.CurriculumItem, 0, len(items))
	for _, item := range items {
		if publicOnly && !item.IsPublic {
			continue
		}
		switch item.Type {
		case models.CurriculumLecture, models.CurriculumReading, models.CurriculumVideo, models.CurriculumAssignment:
			visible = append(visible, item)
		}
	}
	return visible
}

// CurriculumFullAccess reports whether viewer may see non-public content of class.
// Parents always get the public view; the enrolled student sees the rest.
func CurriculumFullAccess(viewer *models.JWTClaims, class *models.Class, status *models.EnrollmentStatus) bool {
	if viewer == nil {
		return false
	}
	switch {
	case viewer.Role.IsAdmin(), viewer.Role == models.RoleMentor:
		return true
	case viewer.Role == models.RoleInstructor:
		return class.InstructorID != nil && *class.InstructorID == viewer.UserID
	case viewer.Role == models.RoleParent:
		return false
	}
	if status == nil {
		return false
	}
	return *status == models.EnrollmentStatusConfirmed || *status == models.EnrollmentStatusTest
}

// CurriculumService serves and edits class curriculum.
type CurriculumService struct {
	repo        curriculumRepository
	classes     classFinder
	enrollments activeEnrollmentFinder
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCurriculumService constructs CurriculumService.
func NewCurriculumService(repo curriculumRepository, classes classFinder, enrollments activeEnrollmentFinder, validate *validator.Validate, logger *zap.Logger) *CurriculumService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CurriculumService{repo: repo, classes: classes, enrollments: enrollments, validator: validate, logger: logger}
}

// Get returns the viewer's view of a class curriculum.
func (s *CurriculumService) Get(ctx context.Context, viewer *models.JWTClaims, classID string) (*dto.CurriculumResponse, error) {
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		return nil, lookupError(err, "class not found", "failed to load class")
	}
	var status *models.EnrollmentStatus
	if viewer != nil && s.enrollments != nil {
		enrollment, err := s.enrollments.ActiveFor(ctx, viewer.UserID, classID)
		if err != nil {
			return nil, err
		}
		if enrollment != nil {
			status = &enrollment.Status
		}
	}
	return s.ForViewer(ctx, viewer, &class.Class, status)
}

// ForViewer loads and partitions the curriculum of an already loaded class.
func (s *CurriculumService) ForViewer(ctx context.Context, viewer *models.JWTClaims, class *models.Class, status *models.EnrollmentStatus) (*dto.CurriculumResponse, error) {
	items, err := s.repo.ListByClass(ctx, class.ID)
	if err != nil {
		return nil, internalError(err, "failed to load curriculum")
	}
	publicOnly := !CurriculumFullAccess(viewer, class, status)
	return &dto.CurriculumResponse{
		Items:      visibleCurriculum(items, publicOnly),
		Sections:   PartitionCurriculum(items, publicOnly),
		PublicOnly: publicOnly,
	}, nil
}

// Create adds an item to a class.
func (s *CurriculumService) Create(ctx context.Context, actor *models.JWTClaims, classID string, req dto.UpsertCurriculumItemRequest) (*models.CurriculumItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid curriculum item")
	}
	if err := s.authorize(ctx, actor, classID); err != nil {
		return nil, err
	}
	item := &models.CurriculumItem{ClassID: classID}
	applyCurriculumRequest(item, req)
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, internalError(err, "failed to create curriculum item")
	}
	return item, nil
}

// Update replaces an item of a class.
func (s *CurriculumService) Update(ctx context.Context, actor *models.JWTClaims, classID, itemID string, req dto.UpsertCurriculumItemRequest) (*models.CurriculumItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid curriculum item")
	}
	if err := s.authorize(ctx, actor, classID); err != nil {
		return nil, err
	}
	item, err := s.itemOf(ctx, classID, itemID)
	if err != nil {
		return nil, err
	}
	applyCurriculumRequest(item, req)
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, lookupError(err, "curriculum item not found", "failed to update curriculum item")
	}
	return item, nil
}

// Delete removes an item from a class.
func (s *CurriculumService) Delete(ctx context.Context, actor *models.JWTClaims, classID, itemID string) error {
	if err := s.authorize(ctx, actor, classID); err != nil {
		return err
	}
	if _, err := s.itemOf(ctx, classID, itemID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, itemID); err != nil {
		return lookupError(err, "curriculum item not found", "failed to delete curriculum item")
	}
	return nil
}

func (s *CurriculumService) itemOf(ctx context.Context, classID, itemID string) (*models.CurriculumItem, error) {
	item, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		return nil, lookupError(err, "curriculum item not found", "failed to load curriculum item")
	}
	if item.ClassID != classID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "curriculum item not found")
	}
	return item, nil
}

// authorize allows admins and the instructor of the class.
func (s *CurriculumService) authorize(ctx context.Context, actor *models.JWTClaims, classID string) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		return lookupError(err, "class not found", "failed to load class")
	}
	if actor.Role.IsAdmin() {
		return nil
	}
	if actor.Role == models.RoleInstructor && class.InstructorID != nil && *class.InstructorID == actor.UserID {
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, "only the class instructor can edit its curriculum")
}

func applyCurriculumRequest(item *models.CurriculumItem, req dto.UpsertCurriculumItemRequest) {
	item.Title = req.Title
	item.Type = req.Type
	item.ContentURL = req.ContentURL
	item.Description = req.Description
	item.IsPublic = req.IsPublic
	item.Position = req.Position
}
