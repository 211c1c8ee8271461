package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edu-portal-api/internal/models"
	"github.com/noah-isme/edu-portal-api/pkg/broker/rabbitmq"
	"github.com/noah-isme/edu-portal-api/pkg/jobs"
	"github.com/noah-isme/edu-portal-api/pkg/mailer"
)

const (
	jobPublish = "publish"
	jobMail    = "mail"

	channelBroker = "broker"
	channelMail   = "mail"
)

type eventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

type mailSender interface {
	Enabled() bool
	Send(ctx context.Context, msg mailer.Message) error
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

type userFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// LifecycleEvent is the message published for every enrollment or registration change.
type LifecycleEvent struct {
	Kind       models.OfferingKind     `json:"kind"`
	RecordID   string                  `json:"recordId"`
	UserID     string                  `json:"userId"`
	OfferingID string                  `json:"offeringId"`
	Status     models.EnrollmentStatus `json:"status"`
	Previous   models.EnrollmentStatus `json:"previous,omitempty"`
	OccurredAt time.Time               `json:"occurredAt"`
}

type publishPayload struct {
	RoutingKey string
	Event      LifecycleEvent
}

type confirmationPayload struct {
	Kind       models.OfferingKind
	UserID     string
	OfferingID string
	Status     models.EnrollmentStatus
}

// NotificationDeps groups the collaborators of NotificationService. Publisher
// and Mailer are optional.
type NotificationDeps struct {
	Publisher     eventPublisher
	Mailer        mailSender
	Users         userFinder
	Classes       classFinder
	Events        eventFinder
	Metrics       *MetricsService
	PublicBaseURL string
	Queue         jobs.QueueConfig
}

// NotificationService fans enrollment changes out to the broker and to email
// through a retrying background queue.
type NotificationService struct {
	deps   NotificationDeps
	queue  jobEnqueuer
	runner *jobs.Queue
	logger *zap.Logger
}

// NewNotificationService constructs the service and its queue. Call Start before use.
func NewNotificationService(deps NotificationDeps, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{deps: deps, logger: logger}
	if deps.Queue.Logger == nil {
		deps.Queue.Logger = logger
	}
	s.runner = jobs.NewQueue("notifications", s.handle, deps.Queue)
	s.queue = s.runner
	return s
}

// Start launches the queue workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.runner.Start(ctx)
}

// Stop drains workers.
func (s *NotificationService) Stop() {
	s.runner.Stop()
}

// Stats exposes queue counters.
func (s *NotificationService) Stats() jobs.Stats {
	return s.runner.Stats()
}

// EnrollmentChanged implements EnrollmentNotifier.
func (s *NotificationService) EnrollmentChanged(_ context.Context, e *models.Enrollment, previous models.EnrollmentStatus) {
	if e == nil {
		return
	}
	s.dispatch(LifecycleEvent{
		Kind:       models.OfferingClass,
		RecordID:   e.ID,
		UserID:     e.UserID,
		OfferingID: e.ClassID,
		Status:     e.Status,
		Previous:   previous,
		OccurredAt: time.Now().UTC(),
	})
}

// RegistrationChanged implements RegistrationNotifier.
func (s *NotificationService) RegistrationChanged(_ context.Context, r *models.EventRegistration, previous models.EnrollmentStatus) {
	if r == nil {
		return
	}
	s.dispatch(LifecycleEvent{
		Kind:       models.OfferingEvent,
		RecordID:   r.ID,
		UserID:     r.UserID,
		OfferingID: r.EventID,
		Status:     r.Status,
		Previous:   previous,
		OccurredAt: time.Now().UTC(),
	})
}

func (s *NotificationService) dispatch(evt LifecycleEvent) {
	if s.deps.Publisher != nil {
		s.enqueue(jobs.Job{Type: jobPublish, Payload: publishPayload{RoutingKey: routingKey(evt.Kind, evt.Status), Event: evt}})
	}
	if s.deps.Mailer != nil && s.deps.Mailer.Enabled() && confirmsSeat(evt.Status) {
		s.enqueue(jobs.Job{Type: jobMail, Payload: confirmationPayload{
			Kind:       evt.Kind,
			UserID:     evt.UserID,
			OfferingID: evt.OfferingID,
			Status:     evt.Status,
		}})
	}
}

func (s *NotificationService) enqueue(job jobs.Job) {
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("notification not queued", zap.String("type", job.Type), zap.Error(err))
	}
}

func (s *NotificationService) handle(ctx context.Context, job jobs.Job) error {
	switch payload := job.Payload.(type) {
	case publishPayload:
		err := s.deps.Publisher.Publish(ctx, payload.RoutingKey, payload.Event)
		s.deps.Metrics.RecordNotificationJob(channelBroker, err)
		return err
	case confirmationPayload:
		err := s.sendConfirmation(ctx, payload)
		s.deps.Metrics.RecordNotificationJob(channelMail, err)
		return err
	default:
		s.logger.Warn("unknown notification job", zap.String("type", job.Type))
		return nil
	}
}

func (s *NotificationService) sendConfirmation(ctx context.Context, p confirmationPayload) error {
	user, err := s.deps.Users.FindByID(ctx, p.UserID)
	if err != nil {
		return fmt.Errorf("load recipient: %w", err)
	}
	title, link, err := s.offeringSummary(ctx, p.Kind, p.OfferingID)
	if err != nil {
		return err
	}

	verb := "enrolled in"
	if p.Kind == models.OfferingEvent {
		verb = "registered for"
	}
	text := fmt.Sprintf("Hi %s,\n\nYou are now %s %s.", user.FullName, verb, title)
	if p.Status == models.EnrollmentStatusTest {
		text += " This is a test registration; no payment was taken."
	}
	if link != "" {
		text += "\n\nDetails: " + link
	}
	return s.deps.Mailer.Send(ctx, mailer.Message{
		ToName:  user.FullName,
		ToEmail: user.Email,
		Subject: "Confirmed: " + title,
		Text:    text,
	})
}

func (s *NotificationService) offeringSummary(ctx context.Context, kind models.OfferingKind, id string) (string, string, error) {
	base := s.deps.PublicBaseURL
	if kind == models.OfferingEvent {
		event, err := s.deps.Events.FindByID(ctx, id)
		if err != nil {
			return "", "", fmt.Errorf("load event: %w", err)
		}
		return event.Title, joinURL(base, "/events/"+id), nil
	}
	class, err := s.deps.Classes.FindByID(ctx, id)
	if err != nil {
		return "", "", fmt.Errorf("load class: %w", err)
	}
	return class.Title, joinURL(base, "/classes/"+id), nil
}

func routingKey(kind models.OfferingKind, status models.EnrollmentStatus) string {
	if kind == models.OfferingEvent {
		switch status {
		case models.EnrollmentStatusConfirmed, models.EnrollmentStatusTest:
			return rabbitmq.KeyRegistrationConfirmed
		case models.EnrollmentStatusWaitlisted:
			return rabbitmq.KeyRegistrationWaitlist
		case models.EnrollmentStatusCancelled:
			return rabbitmq.KeyRegistrationCancelled
		}
		return "registration." + strings.ToLower(string(status))
	}
	switch status {
	case models.EnrollmentStatusConfirmed, models.EnrollmentStatusTest:
		return rabbitmq.KeyEnrollmentConfirmed
	case models.EnrollmentStatusPending:
		return rabbitmq.KeyEnrollmentPending
	case models.EnrollmentStatusCancelled:
		return rabbitmq.KeyEnrollmentCancelled
	}
	return "enrollment." + strings.ToLower(string(status))
}

func confirmsSeat(status models.EnrollmentStatus) bool {
	return status == models.EnrollmentStatusConfirmed || status == models.EnrollmentStatusTest
}

func joinURL(base, path string) string {
	if base == "" {
		return ""
	}
	return base + path
}
