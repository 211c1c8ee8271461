package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-portal-api/internal/dto"
	"github.com/noah-isme/edu-portal-api/internal/models"
	appErrors "github.com/noah-isme/edu-portal-api/pkg/errors"
)

type mentorRepository interface {
	List(ctx context.Context, activeOnly bool) ([]models.MentorDetail, error)
	FindByID(ctx context.Context, id string) (*models.MentorDetail, error)
	Create(ctx context.Context, profile *models.MentorProfile) error
	Update(ctx context.Context, profile *models.MentorProfile) error
	Delete(ctx context.Context, id string) error
}

// MentorService manages public mentor profiles.
type MentorService struct {
	repo      mentorRepository
	users     userFinder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMentorService constructs MentorService.
func NewMentorService(repo mentorRepository, users userFinder, validate *validator.Validate, logger *zap.Logger) *MentorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MentorService{repo: repo, users: users, validator: validate, logger: logger}
}

// List returns mentor profiles. The public directory only sees active ones.
func (s *MentorService) List(ctx context.Context, activeOnly bool) ([]models.MentorDetail, error) {
	mentors, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, internalError(err, "failed to list mentors")
	}
	if mentors == nil {
		mentors = []models.MentorDetail{}
	}
	return mentors, nil
}

// Get returns a profile.
func (s *MentorService) Get(ctx context.Context, id string) (*models.MentorDetail, error) {
	mentor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "mentor not found", "failed to load mentor")
	}
	return mentor, nil
}

// Create adds a profile for a MENTOR account.
func (s *MentorService) Create(ctx context.Context, req dto.UpsertMentorRequest) (*models.MentorDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid mentor payload")
	}
	user, err := s.users.FindByID(ctx, req.UserID)
	if err != nil {
		return nil, lookupError(err, "user not found", "failed to load user")
	}
	if user.Role != models.RoleMentor {
		return nil, appErrors.Clone(appErrors.ErrValidation, "user must have the MENTOR role")
	}

	profile := &models.MentorProfile{UserID: user.ID, IsActive: true}
	applyMentorRequest(profile, req)
	if err := s.repo.Create(ctx, profile); err != nil {
		return nil, internalError(err, "failed to create mentor")
	}
	return &models.MentorDetail{MentorProfile: *profile, FullName: user.FullName, Email: user.Email}, nil
}

// Update edits a profile.
func (s *MentorService) Update(ctx context.Context, id string, req dto.UpsertMentorRequest) (*models.MentorDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid mentor payload")
	}
	mentor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "mentor not found", "failed to load mentor")
	}
	applyMentorRequest(&mentor.MentorProfile, req)
	if err := s.repo.Update(ctx, &mentor.MentorProfile); err != nil {
		return nil, lookupError(err, "mentor not found", "failed to update mentor")
	}
	return mentor, nil
}

// Delete removes a profile.
func (s *MentorService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return lookupError(err, "mentor not found", "failed to delete mentor")
	}
	return nil
}

func applyMentorRequest(profile *models.MentorProfile, req dto.UpsertMentorRequest) {
	profile.Headline = req.Headline
	profile.Bio = req.Bio
	profile.Expertise = append([]string{}, req.Expertise...)
	if req.IsActive != nil {
		profile.IsActive = *req.IsActive
	}
}
