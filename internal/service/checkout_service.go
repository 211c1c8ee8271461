package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-portal-api/internal/dto"
	"github.com/noah-isme/edu-portal-api/internal/models"
	"github.com/noah-isme/edu-portal-api/internal/repository"
	"github.com/noah-isme/edu-portal-api/pkg/database"
	appErrors "github.com/noah-isme/edu-portal-api/pkg/errors"
	"github.com/noah-isme/edu-portal-api/pkg/payment/midtrans"
)

// Checkout and notification outcomes recorded in metrics.
const (
	checkoutCreated      = "created"
	checkoutFailed       = "failed"
	checkoutNoURL        = "no_url"
	checkoutInvalidURL   = "invalid_url"
	notificationInvalid  = "invalid_signature"
	notificationIgnored  = dto.NotificationIgnored
	notificationApplied  = dto.NotificationApplied
	notificationNoChange = dto.NotificationUnchanged
)

type checkoutGateway interface {
	CreateSession(ctx context.Context, req midtrans.CheckoutRequest) (*midtrans.Session, error)
	ServerKey() string
}

type paymentStore interface {
	Create(ctx context.Context, payment *models.Payment) error
	FindByOrderID(ctx context.Context, orderID string) (*models.Payment, error)
	AttachSession(ctx context.Context, id, token, checkoutURL string) error
	UpdateStatus(ctx context.Context, id string, status models.PaymentStatus, providerRef string) error
	ExpirePending(ctx context.Context, enrollmentID, registrationID *string) error
}

type classFinder interface {
	FindByID(ctx context.Context, id string) (*models.ClassDetail, error)
}

type eventFinder interface {
	FindByID(ctx context.Context, id string) (*models.Event, error)
}

type pendingEnrollmentCreator interface {
	CreateLocked(ctx context.Context, classID, userID string, build repository.EnrollmentBuilder) (*models.Enrollment, error)
}

type pendingRegistrationCreator interface {
	CreateLocked(ctx context.Context, eventID, userID string, build repository.RegistrationBuilder) (*models.EventRegistration, error)
}

type enrollmentPaymentApplier interface {
	ApplyPayment(ctx context.Context, id string, status models.EnrollmentStatus) (*models.Enrollment, error)
	ReleasePending(ctx context.Context, id string) (*models.Enrollment, error)
}

type registrationPaymentApplier interface {
	ApplyPayment(ctx context.Context, id string, status models.EnrollmentStatus) (*models.EventRegistration, error)
	ReleasePending(ctx context.Context, id string) (*models.EventRegistration, error)
}

// CheckoutDeps groups the collaborators of CheckoutService.
type CheckoutDeps struct {
	Gateway          checkoutGateway
	Payments         paymentStore
	Classes          classFinder
	Events           eventFinder
	Enrollments      pendingEnrollmentCreator
	Registrations    pendingRegistrationCreator
	EnrollmentFlow   enrollmentPaymentApplier
	RegistrationFlow registrationPaymentApplier
	Links            relationshipChecker
	ClassCache       offeringInvalidator
	EventCache       offeringInvalidator
	Metrics          *MetricsService
}

// CheckoutService starts hosted checkouts and applies provider notifications.
type CheckoutService struct {
	deps      CheckoutDeps
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCheckoutService constructs CheckoutService.
func NewCheckoutService(deps CheckoutDeps, validate *validator.Validate, logger *zap.Logger) *CheckoutService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckoutService{deps: deps, validator: validate, logger: logger}
}

type checkoutTarget struct {
	kind           models.OfferingKind
	offering       models.Offering
	enrollmentID   *string
	registrationID *string
	quantity       int

	// created is set when this checkout inserted the record rather than reusing a PENDING one.
	created bool
}

// CreateSession reserves a PENDING record for a paid offering and returns the hosted checkout handle.
// A PENDING record from an abandoned checkout is reused; its older payments are expired.
// When the session cannot be started a record inserted by this call is cancelled again,
// so a failed checkout leaves the viewer's enrollment state as it was.
func (s *CheckoutService) CreateSession(ctx context.Context, actor *models.JWTClaims, req dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "provide exactly one of classId or eventId")
	}
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleParent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "ask a parent to complete payment")
	}

	var (
		target *checkoutTarget
		err    error
	)
	if req.ClassID != "" {
		target, err = s.reserveEnrollment(ctx, actor, req)
	} else {
		target, err = s.reserveRegistration(ctx, actor, req)
	}
	if err != nil {
		return nil, err
	}

	resp, err := s.startSession(ctx, actor, target)
	if err != nil {
		s.releaseReservation(ctx, target)
		return nil, err
	}
	return resp, nil
}

func (s *CheckoutService) startSession(ctx context.Context, actor *models.JWTClaims, target *checkoutTarget) (*dto.CheckoutResponse, error) {
	if err := s.deps.Payments.ExpirePending(ctx, target.enrollmentID, target.registrationID); err != nil {
		return nil, internalError(err, "failed to expire previous checkout")
	}

	// Midtrans charges whole currency units; the payment records what is charged.
	unitPrice := math.Round(target.offering.PriceValue())
	payment := &models.Payment{
		OrderID:        newOrderID(target.kind),
		EnrollmentID:   target.enrollmentID,
		RegistrationID: target.registrationID,
		Amount:         unitPrice * float64(target.quantity),
		Status:         models.PaymentStatusPending,
		Provider:       models.PaymentProviderMidtrans,
	}
	if err := s.deps.Payments.Create(ctx, payment); err != nil {
		return nil, internalError(err, "failed to record payment")
	}

	firstName, lastName := splitName(actor.FullName)
	session, err := s.deps.Gateway.CreateSession(ctx, midtrans.CheckoutRequest{
		OrderID:   payment.OrderID,
		ItemID:    target.offering.ID,
		ItemName:  target.offering.Title,
		Category:  strings.ToLower(string(target.kind)),
		UnitPrice: int64(unitPrice),
		Quantity:  int32(target.quantity),
		Customer:  midtrans.Customer{FirstName: firstName, LastName: lastName, Email: actor.Email},
	})
	if err != nil {
		s.failPayment(ctx, payment, checkoutFailed)
		s.logger.Error("checkout session failed", zap.String("order_id", payment.OrderID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrCheckoutFailed.Code, appErrors.ErrCheckoutFailed.Status, appErrors.ErrCheckoutFailed.Message)
	}
	if session == nil || (session.RedirectURL == "" && session.Token == "") {
		s.failPayment(ctx, payment, checkoutNoURL)
		return nil, appErrors.ErrNoCheckoutURL
	}
	if session.RedirectURL != "" && !checkoutURLAllowed(session.RedirectURL) {
		s.failPayment(ctx, payment, checkoutInvalidURL)
		return nil, appErrors.ErrInvalidCheckoutURL
	}

	if err := s.deps.Payments.AttachSession(ctx, payment.ID, session.Token, session.RedirectURL); err != nil {
		s.failPayment(ctx, payment, checkoutFailed)
		return nil, internalError(err, "failed to store checkout session")
	}
	s.deps.Metrics.RecordCheckout(checkoutCreated)
	s.logger.Info("checkout session created",
		zap.String("order_id", payment.OrderID),
		zap.String("offering_kind", string(target.kind)),
		zap.String("offering_id", target.offering.ID),
		zap.Float64("amount", payment.Amount))

	return &dto.CheckoutResponse{URL: session.RedirectURL, SessionID: session.Token}, nil
}

func (s *CheckoutService) reserveEnrollment(ctx context.Context, actor *models.JWTClaims, req dto.CheckoutRequest) (*checkoutTarget, error) {
	class, err := s.deps.Classes.FindByID(ctx, req.ClassID)
	if err != nil {
		return nil, lookupError(err, "class not found", "failed to load class")
	}
	if !class.Offering().IsPaid() {
		return nil, appErrors.ErrFreeOffering
	}
	studentID, parentID, err := resolveStudent(ctx, s.deps.Links, actor, req.StudentID)
	if err != nil {
		return nil, err
	}

	created := false
	enrollment, err := s.deps.Enrollments.CreateLocked(ctx, req.ClassID, studentID, func(locked *models.Class, existing *models.Enrollment) (*models.Enrollment, error) {
		if existing != nil {
			if existing.Status == models.EnrollmentStatusPending {
				return existing, nil
			}
			return nil, appErrors.Clone(appErrors.ErrAlreadyEnrolled, "already enrolled in this class")
		}
		offering := locked.Offering()
		if !offering.IsActive {
			return nil, appErrors.ErrClassInactive
		}
		if offering.IsFull() {
			return nil, appErrors.ErrClassFull
		}
		created = true
		return &models.Enrollment{Status: models.EnrollmentStatusPending, ParentID: parentID}, nil
	})
	if err != nil {
		return nil, mapReserveError(err, repository.ActiveEnrollmentConstraint, "class not found")
	}
	s.deps.Metrics.RecordEnrollment(models.OfferingClass, enrollment.Status)
	s.deps.ClassCache.Invalidate(ctx, req.ClassID)

	return &checkoutTarget{
		kind:         models.OfferingClass,
		offering:     class.Offering(),
		enrollmentID: &enrollment.ID,
		quantity:     1,
		created:      created,
	}, nil
}

func (s *CheckoutService) reserveRegistration(ctx context.Context, actor *models.JWTClaims, req dto.CheckoutRequest) (*checkoutTarget, error) {
	event, err := s.deps.Events.FindByID(ctx, req.EventID)
	if err != nil {
		return nil, lookupError(err, "event not found", "failed to load event")
	}
	if !event.Offering().IsPaid() {
		return nil, appErrors.Clone(appErrors.ErrFreeOffering, "event is free; register directly")
	}
	quantity, regType := registrationShape(req.Quantity, req.RegistrationType)

	created := false
	reg, err := s.deps.Registrations.CreateLocked(ctx, req.EventID, actor.UserID, func(locked *models.Event, existing *models.EventRegistration, _ int) (*models.EventRegistration, error) {
		if existing != nil {
			if existing.Status == models.EnrollmentStatusPending {
				return existing, nil
			}
			return nil, appErrors.Clone(appErrors.ErrAlreadyEnrolled, "already registered for this event")
		}
		if !locked.IsActive {
			return nil, appErrors.Clone(appErrors.ErrClassInactive, "event is not accepting registrations")
		}
		if locked.Capacity != nil && locked.CurrentCount+quantity > *locked.Capacity {
			return nil, appErrors.Clone(appErrors.ErrClassFull, "event is full")
		}
		created = true
		return &models.EventRegistration{
			Status:           models.EnrollmentStatusPending,
			Quantity:         quantity,
			RegistrationType: regType,
		}, nil
	})
	if err != nil {
		return nil, mapReserveError(err, repository.ActiveRegistrationConstraint, "event not found")
	}
	s.deps.Metrics.RecordEnrollment(models.OfferingEvent, reg.Status)
	s.deps.EventCache.Invalidate(ctx, req.EventID)

	return &checkoutTarget{
		kind:           models.OfferingEvent,
		offering:       event.Offering(),
		registrationID: &reg.ID,
		quantity:       reg.Quantity,
		created:        created,
	}, nil
}

// HandleNotification applies a provider notification. Notifications are
// idempotent, and unknown orders are acknowledged so the provider stops retrying.
func (s *CheckoutService) HandleNotification(ctx context.Context, n midtrans.Notification) (*dto.NotificationAck, error) {
	if !midtrans.VerifySignature(s.deps.Gateway.ServerKey(), n) {
		s.deps.Metrics.RecordPaymentNotification(notificationInvalid)
		return nil, appErrors.ErrInvalidSignature
	}

	payment, err := s.deps.Payments.FindByOrderID(ctx, n.OrderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("notification for unknown order", zap.String("order_id", n.OrderID))
			return s.ack(notificationIgnored, n.OrderID), nil
		}
		return nil, internalError(err, "failed to load payment")
	}

	target, recordStatus, ok := settle(n.Outcome())
	if !ok {
		s.logger.Info("notification left payment unchanged",
			zap.String("order_id", n.OrderID),
			zap.String("transaction_status", n.TransactionStatus))
		return s.ack(notificationNoChange, n.OrderID), nil
	}
	if payment.Status == target || (payment.Status.Final() && !(payment.Status == models.PaymentStatusPaid && target == models.PaymentStatusRefunded)) {
		return s.ack(notificationNoChange, n.OrderID), nil
	}

	if err := s.deps.Payments.UpdateStatus(ctx, payment.ID, target, n.TransactionID); err != nil {
		return nil, internalError(err, "failed to update payment")
	}
	switch {
	case recordStatus != "":
		if err := s.applyToRecord(ctx, payment, recordStatus); err != nil {
			return nil, err
		}
	case target == models.PaymentStatusFailed || target == models.PaymentStatusExpired:
		// Only the newest checkout of a record is still PENDING, so its failure frees the seat.
		if err := s.releaseRecord(ctx, payment.EnrollmentID, payment.RegistrationID); err != nil {
			return nil, err
		}
	}

	s.logger.Info("payment notification applied",
		zap.String("order_id", n.OrderID),
		zap.String("payment_status", string(target)))
	return s.ack(notificationApplied, n.OrderID), nil
}

func (s *CheckoutService) applyToRecord(ctx context.Context, payment *models.Payment, status models.EnrollmentStatus) error {
	switch {
	case payment.EnrollmentID != nil:
		if _, err := s.deps.EnrollmentFlow.ApplyPayment(ctx, *payment.EnrollmentID, status); err != nil {
			return err
		}
	case payment.RegistrationID != nil:
		if _, err := s.deps.RegistrationFlow.ApplyPayment(ctx, *payment.RegistrationID, status); err != nil {
			return err
		}
	default:
		s.logger.Warn("payment without record", zap.String("payment_id", payment.ID))
	}
	return nil
}

// releaseRecord cancels a record still waiting on payment and frees its seat.
func (s *CheckoutService) releaseRecord(ctx context.Context, enrollmentID, registrationID *string) error {
	switch {
	case enrollmentID != nil:
		if _, err := s.deps.EnrollmentFlow.ReleasePending(ctx, *enrollmentID); err != nil {
			return err
		}
	case registrationID != nil:
		if _, err := s.deps.RegistrationFlow.ReleasePending(ctx, *registrationID); err != nil {
			return err
		}
	}
	return nil
}

func (s *CheckoutService) releaseReservation(ctx context.Context, target *checkoutTarget) {
	if !target.created {
		return
	}
	if err := s.releaseRecord(ctx, target.enrollmentID, target.registrationID); err != nil {
		s.logger.Warn("failed to release checkout reservation",
			zap.String("offering_id", target.offering.ID),
			zap.Error(err))
	}
}

func (s *CheckoutService) ack(outcome, orderID string) *dto.NotificationAck {
	s.deps.Metrics.RecordPaymentNotification(outcome)
	return &dto.NotificationAck{Status: outcome, OrderID: orderID}
}

func (s *CheckoutService) failPayment(ctx context.Context, payment *models.Payment, result string) {
	s.deps.Metrics.RecordCheckout(result)
	if err := s.deps.Payments.UpdateStatus(ctx, payment.ID, models.PaymentStatusFailed, ""); err != nil {
		s.logger.Warn("failed to mark payment failed", zap.String("payment_id", payment.ID), zap.Error(err))
	}
}

// settle maps a provider outcome to the payment status and, where the record moves too, its new status.
// ok is false when nothing should change.
func settle(outcome midtrans.Outcome) (payment models.PaymentStatus, record models.EnrollmentStatus, ok bool) {
	switch outcome {
	case midtrans.OutcomePaid:
		return models.PaymentStatusPaid, models.EnrollmentStatusConfirmed, true
	case midtrans.OutcomeFailed:
		return models.PaymentStatusFailed, "", true
	case midtrans.OutcomeExpired:
		return models.PaymentStatusExpired, "", true
	case midtrans.OutcomeRefunded:
		return models.PaymentStatusRefunded, models.EnrollmentStatusCancelled, true
	case midtrans.OutcomePending, midtrans.OutcomePartialRefund, midtrans.OutcomeUnknown:
		return "", "", false
	}
	return "", "", false
}

func mapReserveError(err error, constraint, notFound string) error {
	var appErr *appErrors.Error
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	case database.IsUniqueViolation(err, constraint):
		return appErrors.ErrAlreadyEnrolled
	default:
		return internalError(err, "failed to reserve seat")
	}
}

// checkoutURLAllowed accepts absolute http(s) URLs and same-origin paths only.
func checkoutURLAllowed(raw string) bool {
	return strings.HasPrefix(raw, "https://") || strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "/")
}

func newOrderID(kind models.OfferingKind) string {
	prefix := "enr"
	if kind == models.OfferingEvent {
		prefix = "reg"
	}
	return prefix + "-" + uuid.NewString()
}

func splitName(full string) (string, string) {
	first, last, _ := strings.Cut(strings.TrimSpace(full), " ")
	return first, strings.TrimSpace(last)
}
