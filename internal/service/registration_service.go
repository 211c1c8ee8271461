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
	"github.com/noah-isme/edu-portal-api/internal/repository"
	"github.com/noah-isme/edu-portal-api/pkg/database"
	appErrors "github.com/noah-isme/edu-portal-api/pkg/errors"
)

type registrationRepository interface {
	List(ctx context.Context, filter models.RegistrationFilter) ([]models.RegistrationDetail, int, error)
	ListForUser(ctx context.Context, userID string) ([]models.RegistrationDetail, error)
	FindByID(ctx context.Context, id string) (*models.EventRegistration, error)
	FindActive(ctx context.Context, userID, eventID string) (*models.EventRegistration, error)
	CountWaitlisted(ctx context.Context, eventID string) (int, error)
	CreateLocked(ctx context.Context, eventID, userID string, build repository.RegistrationBuilder) (*models.EventRegistration, error)
	TransitionStatus(ctx context.Context, id string, status models.EnrollmentStatus, promoteTo func(*models.Event) models.EnrollmentStatus) (*models.EventRegistration, models.EnrollmentStatus, []models.EventRegistration, error)
}

// RegistrationNotifier is told about every registration state change.
type RegistrationNotifier interface {
	RegistrationChanged(ctx context.Context, registration *models.EventRegistration, previous models.EnrollmentStatus)
}

// RegistrationService handles event registrations, including the waitlist.
type RegistrationService struct {
	repo      registrationRepository
	payments  pendingPaymentExpirer
	events    offeringInvalidator
	audit     auditLogger
	notifier  RegistrationNotifier
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	config    EnrollmentServiceConfig
}

// NewRegistrationService constructs RegistrationService.
func NewRegistrationService(repo registrationRepository, payments pendingPaymentExpirer, events offeringInvalidator, audit auditLogger, notifier RegistrationNotifier, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg EnrollmentServiceConfig) *RegistrationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{
		repo:      repo,
		payments:  payments,
		events:    events,
		audit:     audit,
		notifier:  notifier,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		config:    cfg,
	}
}

// List returns registrations for admin screens.
func (s *RegistrationService) List(ctx context.Context, filter models.RegistrationFilter) ([]models.RegistrationDetail, *models.Pagination, error) {
	regs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list registrations")
	}
	return regs, newPagination(filter.Page, filter.PageSize, total), nil
}

// ListMine returns the caller's registrations.
func (s *RegistrationService) ListMine(ctx context.Context, actor *models.JWTClaims) (*dto.RegistrationsResponse, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	regs, err := s.repo.ListForUser(ctx, actor.UserID)
	if err != nil {
		return nil, internalError(err, "failed to list registrations")
	}
	if regs == nil {
		regs = []models.RegistrationDetail{}
	}
	return &dto.RegistrationsResponse{Registrations: regs}, nil
}

// ActiveFor returns the viewer's non-cancelled registration for an event, or nil.
func (s *RegistrationService) ActiveFor(ctx context.Context, userID, eventID string) (*models.EventRegistration, error) {
	reg, err := s.repo.FindActive(ctx, userID, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, internalError(err, "failed to load registration")
	}
	return reg, nil
}

// WaitlistOpen reports whether a full event can still take registrations onto its waitlist.
func (s *RegistrationService) WaitlistOpen(ctx context.Context, event *models.Event) (bool, error) {
	offering := event.Offering()
	if !offering.IsActive || !offering.IsFull() || event.WaitlistLimit <= 0 {
		return false, nil
	}
	waiting, err := s.repo.CountWaitlisted(ctx, event.ID)
	if err != nil {
		return false, internalError(err, "failed to count waitlist")
	}
	return waiting < event.WaitlistLimit, nil
}

// Register books seats for the caller. A full event with room on its waitlist
// places the registration on the waitlist instead of failing.
func (s *RegistrationService) Register(ctx context.Context, actor *models.JWTClaims, eventID string, req dto.CreateRegistrationRequest) (*dto.RegistrationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid registration payload")
	}
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleParent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "ask a parent to register you")
	}
	if req.IsTestRegistration && !s.config.TestRegistrationEnabled {
		return nil, appErrors.ErrTestRegistrationDisabled
	}
	quantity, regType := registrationShape(req.Quantity, req.RegistrationType)

	reg, err := s.repo.CreateLocked(ctx, eventID, actor.UserID, func(event *models.Event, existing *models.EventRegistration, waitlisted int) (*models.EventRegistration, error) {
		if existing != nil {
			return nil, appErrors.Clone(appErrors.ErrAlreadyEnrolled, "already registered for this event")
		}
		if !event.IsActive {
			return nil, appErrors.Clone(appErrors.ErrClassInactive, "event is not accepting registrations")
		}
		reg := &models.EventRegistration{Quantity: quantity, RegistrationType: regType}
		if event.Capacity != nil && event.CurrentCount+quantity > *event.Capacity {
			if waitlisted >= event.WaitlistLimit {
				return nil, appErrors.Clone(appErrors.ErrClassFull, "event is full")
			}
			position := waitlisted + 1
			reg.Status = models.EnrollmentStatusWaitlisted
			reg.WaitlistPosition = &position
			return reg, nil
		}
		offering := event.Offering()
		switch {
		case req.IsTestRegistration:
			reg.Status = models.EnrollmentStatusTest
		case offering.IsPaid():
			return nil, appErrors.Clone(appErrors.ErrPaymentRequired, "this event requires payment; start a checkout session")
		default:
			reg.Status = models.EnrollmentStatusConfirmed
		}
		return reg, nil
	})
	if err != nil {
		return nil, s.mapCreateError(err)
	}

	s.metrics.RecordEnrollment(models.OfferingEvent, reg.Status)
	s.events.Invalidate(ctx, eventID)
	s.notify(ctx, reg, "")
	s.logger.Info("registration created",
		zap.String("registration_id", reg.ID),
		zap.String("event_id", eventID),
		zap.String("status", string(reg.Status)),
		zap.Int("quantity", reg.Quantity))

	result := &dto.RegistrationResult{Registration: reg}
	// A waitlisted registration holds no seat yet, so the client stays on the event page.
	if reg.Status != models.EnrollmentStatusWaitlisted {
		result.RedirectTo = dto.SuccessRedirect(req.IsTestRegistration)
	}
	return result, nil
}

// Cancel cancels the caller's registration and promotes the waitlist.
func (s *RegistrationService) Cancel(ctx context.Context, actor *models.JWTClaims, id string) (*models.EventRegistration, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	reg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "registration not found", "failed to load registration")
	}
	if reg.UserID != actor.UserID && !actor.Role.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "registration belongs to another user")
	}
	if reg.Status == models.EnrollmentStatusCancelled {
		return reg, nil
	}
	return s.transition(ctx, actor, id, models.EnrollmentStatusCancelled)
}

// UpdateStatus applies an admin status change.
func (s *RegistrationService) UpdateStatus(ctx context.Context, actor *models.JWTClaims, id string, req dto.UpdateEnrollmentStatusRequest) (*models.EventRegistration, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid status payload")
	}
	return s.transition(ctx, actor, id, req.Status)
}

// ApplyPayment moves a registration as a result of a payment notification.
func (s *RegistrationService) ApplyPayment(ctx context.Context, id string, status models.EnrollmentStatus) (*models.EventRegistration, error) {
	return s.transition(ctx, nil, id, status)
}

// ReleasePending cancels a registration that is still waiting on payment and
// promotes the waitlist. Registrations past PENDING are returned unchanged.
func (s *RegistrationService) ReleasePending(ctx context.Context, id string) (*models.EventRegistration, error) {
	reg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "registration not found", "failed to load registration")
	}
	if reg.Status != models.EnrollmentStatusPending {
		return reg, nil
	}
	return s.transition(ctx, nil, id, models.EnrollmentStatusCancelled)
}

func (s *RegistrationService) transition(ctx context.Context, actor *models.JWTClaims, id string, status models.EnrollmentStatus) (*models.EventRegistration, error) {
	reg, previous, promoted, err := s.repo.TransitionStatus(ctx, id, status, promotionStatus)
	if err != nil {
		return nil, lookupError(err, "registration not found", "failed to update registration")
	}
	if previous == status {
		return reg, nil
	}
	if status == models.EnrollmentStatusCancelled && s.payments != nil {
		if err := s.payments.ExpirePending(ctx, nil, &reg.ID); err != nil {
			s.logger.Warn("failed to expire pending payments", zap.String("registration_id", id), zap.Error(err))
		}
	}
	s.events.Invalidate(ctx, reg.EventID)
	s.recordAudit(ctx, actor, reg, previous)
	s.notify(ctx, reg, previous)
	for i := range promoted {
		s.logger.Info("waitlist promoted",
			zap.String("registration_id", promoted[i].ID),
			zap.String("event_id", promoted[i].EventID),
			zap.String("status", string(promoted[i].Status)))
		s.notify(ctx, &promoted[i], models.EnrollmentStatusWaitlisted)
	}
	return reg, nil
}

// promotionStatus decides what a promoted waitlist entry becomes: paid events still need checkout.
func promotionStatus(event *models.Event) models.EnrollmentStatus {
	if event.Offering().IsPaid() {
		return models.EnrollmentStatusPending
	}
	return models.EnrollmentStatusConfirmed
}

func registrationShape(quantity int, regType models.RegistrationType) (int, models.RegistrationType) {
	if quantity <= 0 {
		quantity = 1
	}
	if regType == "" {
		regType = models.RegistrationTypeIndividual
		if quantity > 1 {
			regType = models.RegistrationTypeGroup
		}
	}
	return quantity, regType
}

func (s *RegistrationService) mapCreateError(err error) error {
	var appErr *appErrors.Error
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, "event not found")
	case database.IsUniqueViolation(err, repository.ActiveRegistrationConstraint):
		return appErrors.Clone(appErrors.ErrAlreadyEnrolled, "already registered for this event")
	default:
		return internalError(err, "failed to create registration")
	}
}

func (s *RegistrationService) recordAudit(ctx context.Context, actor *models.JWTClaims, reg *models.EventRegistration, previous models.EnrollmentStatus) {
	if s.audit == nil {
		return
	}
	oldValues, _ := json.Marshal(map[string]string{"status": string(previous)})
	newValues, _ := json.Marshal(map[string]string{"status": string(reg.Status)})
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     userIDPtr(actor),
		Action:     models.AuditActionStatusChange,
		Resource:   "event_registrations",
		ResourceID: &reg.ID,
		OldValues:  oldValues,
		NewValues:  newValues,
		IPAddress:  "system",
		UserAgent:  "registration-service",
	}); err != nil {
		s.logger.Warn("failed to record registration audit log", zap.Error(err))
	}
}

func (s *RegistrationService) notify(ctx context.Context, reg *models.EventRegistration, previous models.EnrollmentStatus) {
	if s.notifier == nil {
		return
	}
	s.notifier.RegistrationChanged(ctx, reg, previous)
}
