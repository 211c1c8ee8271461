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

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	ListForUser(ctx context.Context, userID string) ([]models.EnrollmentDetail, error)
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	FindActive(ctx context.Context, userID, classID string) (*models.Enrollment, error)
	CreateLocked(ctx context.Context, classID, userID string, build repository.EnrollmentBuilder) (*models.Enrollment, error)
	TransitionStatus(ctx context.Context, id string, status models.EnrollmentStatus) (*models.Enrollment, models.EnrollmentStatus, error)
}

type relationshipChecker interface {
	IsApproved(ctx context.Context, parentID, childID string) (bool, error)
}

type pendingPaymentExpirer interface {
	ExpirePending(ctx context.Context, enrollmentID, registrationID *string) error
}

type offeringInvalidator interface {
	Invalidate(ctx context.Context, id string)
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// EnrollmentNotifier is told about every enrollment state change.
type EnrollmentNotifier interface {
	EnrollmentChanged(ctx context.Context, enrollment *models.Enrollment, previous models.EnrollmentStatus)
}

// EnrollmentServiceConfig holds enrollment feature switches.
type EnrollmentServiceConfig struct {
	TestRegistrationEnabled bool
}

// EnrollmentService orchestrates class enrollment workflows.
type EnrollmentService struct {
	repo      enrollmentRepository
	links     relationshipChecker
	payments  pendingPaymentExpirer
	classes   offeringInvalidator
	audit     auditLogger
	notifier  EnrollmentNotifier
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	config    EnrollmentServiceConfig
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, links relationshipChecker, payments pendingPaymentExpirer, classes offeringInvalidator, audit auditLogger, notifier EnrollmentNotifier, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg EnrollmentServiceConfig) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		repo:      repo,
		links:     links,
		payments:  payments,
		classes:   classes,
		audit:     audit,
		notifier:  notifier,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		config:    cfg,
	}
}

// TestRegistrationEnabled reports whether the payment bypass is reachable.
func (s *EnrollmentService) TestRegistrationEnabled() bool {
	return s.config.TestRegistrationEnabled
}

// List returns enrollments with pagination metadata.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list enrollments")
	}
	return enrollments, newPagination(filter.Page, filter.PageSize, total), nil
}

// ListMine returns the caller's enrollments, including those made for their children.
func (s *EnrollmentService) ListMine(ctx context.Context, actor *models.JWTClaims) (*dto.EnrollmentsResponse, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	enrollments, err := s.repo.ListForUser(ctx, actor.UserID)
	if err != nil {
		return nil, internalError(err, "failed to list enrollments")
	}
	if enrollments == nil {
		enrollments = []models.EnrollmentDetail{}
	}
	return &dto.EnrollmentsResponse{Enrollments: enrollments}, nil
}

// ActiveFor returns the non-cancelled enrollment in a class held by userID or
// enrolled by userID as parent, or nil.
func (s *EnrollmentService) ActiveFor(ctx context.Context, userID, classID string) (*models.Enrollment, error) {
	enrollment, err := s.repo.FindActive(ctx, userID, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, internalError(err, "failed to load enrollment")
	}
	return enrollment, nil
}

// Enroll creates a free or test enrollment. Paid classes must go through checkout.
func (s *EnrollmentService) Enroll(ctx context.Context, actor *models.JWTClaims, req dto.CreateEnrollmentRequest) (*dto.EnrollmentResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid enrollment payload")
	}
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleParent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "ask a parent to enroll you")
	}
	if req.IsTestRegistration && !s.config.TestRegistrationEnabled {
		return nil, appErrors.ErrTestRegistrationDisabled
	}

	studentID, parentID, err := resolveStudent(ctx, s.links, actor, req.StudentID)
	if err != nil {
		return nil, err
	}

	enrollment, err := s.repo.CreateLocked(ctx, req.ClassID, studentID, func(class *models.Class, existing *models.Enrollment) (*models.Enrollment, error) {
		if existing != nil {
			return nil, appErrors.Clone(appErrors.ErrAlreadyEnrolled, "already enrolled in this class")
		}
		offering := class.Offering()
		if !offering.IsActive {
			return nil, appErrors.ErrClassInactive
		}
		if offering.IsFull() {
			return nil, appErrors.ErrClassFull
		}
		status := models.EnrollmentStatusConfirmed
		switch {
		case req.IsTestRegistration:
			status = models.EnrollmentStatusTest
		case offering.IsPaid():
			return nil, appErrors.Clone(appErrors.ErrPaymentRequired, "this class requires payment; start a checkout session")
		}
		return &models.Enrollment{Status: status, ParentID: parentID}, nil
	})
	if err != nil {
		return nil, s.mapCreateError(err)
	}

	s.metrics.RecordEnrollment(models.OfferingClass, enrollment.Status)
	s.classes.Invalidate(ctx, req.ClassID)
	s.notify(ctx, enrollment, "")
	s.logger.Info("enrollment created",
		zap.String("enrollment_id", enrollment.ID),
		zap.String("class_id", enrollment.ClassID),
		zap.String("status", string(enrollment.Status)))

	return &dto.EnrollmentResult{
		Enrollment: enrollment,
		RedirectTo: dto.SuccessRedirect(req.IsTestRegistration),
	}, nil
}

// Leave cancels an enrollment on behalf of its parent or an admin. Leaving twice is a no-op.
func (s *EnrollmentService) Leave(ctx context.Context, actor *models.JWTClaims, id string) (*models.Enrollment, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "enrollment not found", "failed to load enrollment")
	}
	if !canManageEnrollment(actor, enrollment) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the enrolling parent can leave this class")
	}
	if enrollment.Status == models.EnrollmentStatusCancelled {
		return enrollment, nil
	}
	return s.transition(ctx, actor, id, models.EnrollmentStatusCancelled)
}

// UpdateStatus applies an admin status change.
func (s *EnrollmentService) UpdateStatus(ctx context.Context, actor *models.JWTClaims, id string, req dto.UpdateEnrollmentStatusRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid status payload")
	}
	return s.transition(ctx, actor, id, req.Status)
}

// ApplyPayment moves an enrollment as a result of a payment notification.
func (s *EnrollmentService) ApplyPayment(ctx context.Context, id string, status models.EnrollmentStatus) (*models.Enrollment, error) {
	return s.transition(ctx, nil, id, status)
}

// ReleasePending cancels an enrollment that is still waiting on payment, freeing its seat.
// Enrollments that moved past PENDING are returned unchanged.
func (s *EnrollmentService) ReleasePending(ctx context.Context, id string) (*models.Enrollment, error) {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "enrollment not found", "failed to load enrollment")
	}
	if enrollment.Status != models.EnrollmentStatusPending {
		return enrollment, nil
	}
	return s.transition(ctx, nil, id, models.EnrollmentStatusCancelled)
}

func (s *EnrollmentService) transition(ctx context.Context, actor *models.JWTClaims, id string, status models.EnrollmentStatus) (*models.Enrollment, error) {
	enrollment, previous, err := s.repo.TransitionStatus(ctx, id, status)
	if err != nil {
		return nil, lookupError(err, "enrollment not found", "failed to update enrollment")
	}
	if previous == status {
		return enrollment, nil
	}
	if status == models.EnrollmentStatusCancelled && s.payments != nil {
		if err := s.payments.ExpirePending(ctx, &enrollment.ID, nil); err != nil {
			s.logger.Warn("failed to expire pending payments", zap.String("enrollment_id", id), zap.Error(err))
		}
	}
	s.classes.Invalidate(ctx, enrollment.ClassID)
	s.recordAudit(ctx, actor, enrollment, previous)
	s.notify(ctx, enrollment, previous)
	return enrollment, nil
}

// resolveStudent returns whom a parent acts for. Acting for another account
// requires an approved parent-child relationship; the parent id is then recorded.
func resolveStudent(ctx context.Context, links relationshipChecker, actor *models.JWTClaims, studentID *string) (string, *string, error) {
	if studentID == nil || *studentID == "" || *studentID == actor.UserID {
		return actor.UserID, nil, nil
	}
	if links == nil {
		return "", nil, appErrors.ErrRelationshipRequired
	}
	approved, err := links.IsApproved(ctx, actor.UserID, *studentID)
	if err != nil {
		return "", nil, internalError(err, "failed to verify parent-child relationship")
	}
	if !approved {
		return "", nil, appErrors.ErrRelationshipRequired
	}
	parentID := actor.UserID
	return *studentID, &parentID, nil
}

func (s *EnrollmentService) mapCreateError(err error) error {
	var appErr *appErrors.Error
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, "class not found")
	case database.IsUniqueViolation(err, repository.ActiveEnrollmentConstraint):
		return appErrors.Clone(appErrors.ErrAlreadyEnrolled, "already enrolled in this class")
	default:
		return internalError(err, "failed to create enrollment")
	}
}

func (s *EnrollmentService) recordAudit(ctx context.Context, actor *models.JWTClaims, enrollment *models.Enrollment, previous models.EnrollmentStatus) {
	if s.audit == nil {
		return
	}
	oldValues, _ := json.Marshal(map[string]string{"status": string(previous)})
	newValues, _ := json.Marshal(map[string]string{"status": string(enrollment.Status)})
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     userIDPtr(actor),
		Action:     models.AuditActionStatusChange,
		Resource:   "enrollments",
		ResourceID: &enrollment.ID,
		OldValues:  oldValues,
		NewValues:  newValues,
		IPAddress:  "system",
		UserAgent:  "enrollment-service",
	}); err != nil {
		s.logger.Warn("failed to record enrollment audit log", zap.Error(err))
	}
}

func (s *EnrollmentService) notify(ctx context.Context, enrollment *models.Enrollment, previous models.EnrollmentStatus) {
	if s.notifier == nil {
		return
	}
	s.notifier.EnrollmentChanged(ctx, enrollment, previous)
}

func canManageEnrollment(actor *models.JWTClaims, enrollment *models.Enrollment) bool {
	if actor.Role.IsAdmin() {
		return true
	}
	if enrollment.ParentID != nil && *enrollment.ParentID == actor.UserID {
		return true
	}
	return actor.Role == models.RoleParent && enrollment.UserID == actor.UserID
}
