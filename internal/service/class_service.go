package service

import (
	"context"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-portal-api/internal/dto"
	"github.com/noah-isme/edu-portal-api/internal/models"
	"github.com/noah-isme/edu-portal-api/pkg/cache"
	appErrors "github.com/noah-isme/edu-portal-api/pkg/errors"
)

const classCacheScope = "class"

type classRepository interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.ClassDetail, error)
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, class *models.Class) error
	Deactivate(ctx context.Context, id string) error
}

// ClassService coordinates class catalogue operations.
type ClassService struct {
	repo      classRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService constructs ClassService.
func NewClassService(repo classRepository, cacheSvc *CacheService, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, cache: cacheSvc, validator: validate, logger: logger}
}

// List returns classes with pagination metadata.
func (s *ClassService) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, *models.Pagination, error) {
	classes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list classes")
	}
	return classes, newPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a class, reading through the cache. The boolean reports a cache hit.
func (s *ClassService) Get(ctx context.Context, id string) (*models.ClassDetail, bool, error) {
	key := cache.Key(classCacheScope, id)
	var cached models.ClassDetail
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, false, lookupError(err, "class not found", "failed to load class")
	}
	_ = s.cache.Set(ctx, key, class, 0)
	return class, false, nil
}

// Create adds a new class.
func (s *ClassService) Create(ctx context.Context, req dto.UpsertClassRequest) (*models.Class, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	class := &models.Class{IsActive: true}
	applyClassRequest(class, req)
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, internalError(err, "failed to create class")
	}
	s.cache.InvalidateOffering(ctx, classCacheScope, class.ID)
	return class, nil
}

// Update modifies a class. Capacity may not drop below the seats already taken.
func (s *ClassService) Update(ctx context.Context, id string, req dto.UpsertClassRequest) (*models.Class, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "class not found", "failed to load class")
	}
	class := detail.Class
	if req.Capacity != nil && *req.Capacity < class.CurrentCount {
		return nil, appErrors.Clone(appErrors.ErrValidation, "capacity cannot be lower than current enrollment count ("+strconv.Itoa(class.CurrentCount)+")")
	}
	applyClassRequest(&class, req)
	if err := s.repo.Update(ctx, &class); err != nil {
		return nil, lookupError(err, "class not found", "failed to update class")
	}
	s.cache.InvalidateOffering(ctx, classCacheScope, id)
	return &class, nil
}

// Deactivate closes a class for new enrollments.
func (s *ClassService) Deactivate(ctx context.Context, id string) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return lookupError(err, "class not found", "failed to deactivate class")
	}
	s.cache.InvalidateOffering(ctx, classCacheScope, id)
	return nil
}

// Invalidate drops cached copies after enrollment counts change.
func (s *ClassService) Invalidate(ctx context.Context, id string) {
	s.cache.InvalidateOffering(ctx, classCacheScope, id)
}

func (s *ClassService) validate(req dto.UpsertClassRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid class payload")
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return appErrors.Clone(appErrors.ErrValidation, "endDate must be after startDate")
	}
	return nil
}

func applyClassRequest(class *models.Class, req dto.UpsertClassRequest) {
	class.Title = req.Title
	class.Description = req.Description
	class.Price = req.Price
	class.Capacity = req.Capacity
	if req.IsActive != nil {
		class.IsActive = *req.IsActive
	}
	class.StartDate = req.StartDate
	class.EndDate = req.EndDate
	class.InstructorID = req.InstructorID
}
