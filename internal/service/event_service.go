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

const eventCacheScope = "event"

type eventRepository interface {
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error)
	FindByID(ctx context.Context, id string) (*models.Event, error)
	Create(ctx context.Context, event *models.Event) error
	Update(ctx context.Context, event *models.Event) error
	Deactivate(ctx context.Context, id string) error
}

// EventService coordinates event catalogue operations.
type EventService struct {
	repo      eventRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEventService constructs EventService.
func NewEventService(repo eventRepository, cacheSvc *CacheService, validate *validator.Validate, logger *zap.Logger) *EventService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{repo: repo, cache: cacheSvc, validator: validate, logger: logger}
}

// List returns events with pagination metadata.
func (s *EventService) List(ctx context.Context, filter models.EventFilter) ([]models.Event, *models.Pagination, error) {
	events, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list events")
	}
	return events, newPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns an event, reading through the cache. The boolean reports a cache hit.
func (s *EventService) Get(ctx context.Context, id string) (*models.Event, bool, error) {
	key := cache.Key(eventCacheScope, id)
	var cached models.Event
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, false, lookupError(err, "event not found", "failed to load event")
	}
	_ = s.cache.Set(ctx, key, event, 0)
	return event, false, nil
}

// Create adds a new event.
func (s *EventService) Create(ctx context.Context, req dto.UpsertEventRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid event payload")
	}
	event := &models.Event{IsActive: true}
	applyEventRequest(event, req)
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, internalError(err, "failed to create event")
	}
	s.cache.InvalidateOffering(ctx, eventCacheScope, event.ID)
	return event, nil
}

// Update modifies an event.
func (s *EventService) Update(ctx context.Context, id string, req dto.UpsertEventRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid event payload")
	}
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "event not found", "failed to load event")
	}
	if req.Capacity != nil && *req.Capacity < event.CurrentCount {
		return nil, appErrors.Clone(appErrors.ErrValidation, "capacity cannot be lower than current registration count ("+strconv.Itoa(event.CurrentCount)+")")
	}
	applyEventRequest(event, req)
	if err := s.repo.Update(ctx, event); err != nil {
		return nil, lookupError(err, "event not found", "failed to update event")
	}
	s.cache.InvalidateOffering(ctx, eventCacheScope, id)
	return event, nil
}

// Deactivate closes an event for new registrations.
func (s *EventService) Deactivate(ctx context.Context, id string) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return lookupError(err, "event not found", "failed to deactivate event")
	}
	s.cache.InvalidateOffering(ctx, eventCacheScope, id)
	return nil
}

// Invalidate drops cached copies after registration counts change.
func (s *EventService) Invalidate(ctx context.Context, id string) {
	s.cache.InvalidateOffering(ctx, eventCacheScope, id)
}

func applyEventRequest(event *models.Event, req dto.UpsertEventRequest) {
	event.Title = req.Title
	event.Description = req.Description
	event.Location = req.Location
	event.Price = req.Price
	event.Capacity = req.Capacity
	event.WaitlistLimit = req.WaitlistLimit
	if req.IsActive != nil {
		event.IsActive = *req.IsActive
	}
	event.StartDate = req.StartDate
}
