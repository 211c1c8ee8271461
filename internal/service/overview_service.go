package service

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/edu-portal-api/internal/dto"
	"github.com/noah-isme/edu-portal-api/internal/models"
)

type cachedClassGetter interface {
	Get(ctx context.Context, id string) (*models.ClassDetail, bool, error)
}

type cachedEventGetter interface {
	Get(ctx context.Context, id string) (*models.Event, bool, error)
}

type registrationLookup interface {
	ActiveFor(ctx context.Context, userID, eventID string) (*models.EventRegistration, error)
	WaitlistOpen(ctx context.Context, event *models.Event) (bool, error)
}

type curriculumViewer interface {
	ForViewer(ctx context.Context, viewer *models.JWTClaims, class *models.Class, status *models.EnrollmentStatus) (*dto.CurriculumResponse, error)
}

// OverviewDeps groups the collaborators of OverviewService.
type OverviewDeps struct {
	Classes       cachedClassGetter
	Events        cachedEventGetter
	Enrollments   activeEnrollmentFinder
	Registrations registrationLookup
	Curriculum    curriculumViewer
	// TestRegistrationEnabled exposes the test-registration action to parents.
	TestRegistrationEnabled bool
}

// OverviewService aggregates an offering, the viewer's record and the derived
// enrollment state into a single response.
type OverviewService struct {
	deps   OverviewDeps
	logger *zap.Logger
}

// NewOverviewService constructs OverviewService.
func NewOverviewService(deps OverviewDeps, logger *zap.Logger) *OverviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OverviewService{deps: deps, logger: logger}
}

// ClassOverview fetches the class and the viewer's enrollment concurrently,
// derives the enrollment view and then loads curriculum gated on it. The bool
// reports whether the class came from cache.
func (s *OverviewService) ClassOverview(ctx context.Context, viewer *models.JWTClaims, classID, callbackPath string) (*dto.ClassOverview, bool, error) {
	class, enrollment, hit, err := s.loadClass(ctx, viewer, classID)
	if err != nil {
		return nil, false, err
	}

	view := s.classView(viewer, class, enrollment, callbackPath)
	curriculum, err := s.deps.Curriculum.ForViewer(ctx, viewer, &class.Class, view.Status)
	if err != nil {
		return nil, hit, err
	}

	return &dto.ClassOverview{
		Class:      class,
		Enrollment: view,
		Curriculum: curriculum,
		FullAccess: !curriculum.PublicOnly,
	}, hit, nil
}

// ClassEnrollmentState derives only the enrollment view of a class.
func (s *OverviewService) ClassEnrollmentState(ctx context.Context, viewer *models.JWTClaims, classID, callbackPath string) (*dto.EnrollmentView, error) {
	class, enrollment, _, err := s.loadClass(ctx, viewer, classID)
	if err != nil {
		return nil, err
	}
	view := s.classView(viewer, class, enrollment, callbackPath)
	return &view, nil
}

// EventOverview fetches the event and the viewer's registration concurrently and derives the registration view.
func (s *OverviewService) EventOverview(ctx context.Context, viewer *models.JWTClaims, eventID, callbackPath string) (*dto.EventOverview, bool, error) {
	var (
		event *models.Event
		reg   *models.EventRegistration
		hit   bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		event, hit, err = s.deps.Events.Get(gctx, eventID)
		return err
	})
	if viewer != nil {
		g.Go(func() error {
			var err error
			reg, err = s.deps.Registrations.ActiveFor(gctx, viewer.UserID, eventID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, false, err
	}

	waitlistOpen, err := s.deps.Registrations.WaitlistOpen(ctx, event)
	if err != nil {
		return nil, hit, err
	}

	in := ReconcileInput{
		Viewer:                  viewer,
		Offering:                event.Offering(),
		CallbackPath:            callbackPath,
		TestRegistrationEnabled: s.deps.TestRegistrationEnabled,
		WaitlistOpen:            waitlistOpen,
	}
	if reg != nil {
		in.Status = &reg.Status
		in.RecordID = reg.ID
	}
	return &dto.EventOverview{Event: event, Registration: DeriveEnrollmentView(in)}, hit, nil
}

func (s *OverviewService) loadClass(ctx context.Context, viewer *models.JWTClaims, classID string) (*models.ClassDetail, *models.Enrollment, bool, error) {
	var (
		class      *models.ClassDetail
		enrollment *models.Enrollment
		hit        bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		class, hit, err = s.deps.Classes.Get(gctx, classID)
		return err
	})
	if viewer != nil {
		g.Go(func() error {
			var err error
			enrollment, err = s.deps.Enrollments.ActiveFor(gctx, viewer.UserID, classID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, false, err
	}
	return class, enrollment, hit, nil
}

func (s *OverviewService) classView(viewer *models.JWTClaims, class *models.ClassDetail, enrollment *models.Enrollment, callbackPath string) dto.EnrollmentView {
	in := ReconcileInput{
		Viewer:                  viewer,
		Offering:                class.Offering(),
		CallbackPath:            callbackPath,
		TestRegistrationEnabled: s.deps.TestRegistrationEnabled,
	}
	if enrollment != nil {
		in.Status = &enrollment.Status
		in.RecordID = enrollment.ID
	}
	return DeriveEnrollmentView(in)
}
