package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-portal-api/internal/dto"
	"github.com/noah-isme/edu-portal-api/internal/models"
	appErrors "github.com/noah-isme/edu-portal-api/pkg/errors"
)

type announcementRepoStub struct {
	lastFilter models.AnnouncementFilter
	created    *models.Announcement
	items      map[string]*models.Announcement
}

func (a *announcementRepoStub) List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error) {
	a.lastFilter = filter
	return nil, 0, nil
}

func (a *announcementRepoStub) GetByID(ctx context.Context, id string) (*models.Announcement, error) {
	if ann, ok := a.items[id]; ok {
		copy := *ann
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (a *announcementRepoStub) Create(ctx context.Context, announcement *models.Announcement) error {
	announcement.ID = "ann-new"
	a.created = announcement
	return nil
}

func (a *announcementRepoStub) Update(ctx context.Context, announcement *models.Announcement) error {
	return nil
}

func (a *announcementRepoStub) Delete(ctx context.Context, id string) error {
	return nil
}

func newAnnouncementService(repo *announcementRepoStub) *AnnouncementService {
	classes := classFinderStub{classes: map[string]*models.ClassDetail{"c1": {Class: models.Class{ID: "c1"}}}}
	svc := NewAnnouncementService(repo, classes, nil, nil)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC) }
	return svc
}

func TestAudiencesFor(t *testing.T) {
	assert.ElementsMatch(t, []models.AnnouncementAudience{"ALL", "STUDENTS", "CLASS"}, AudiencesFor(models.RoleStudent))
	assert.ElementsMatch(t, []models.AnnouncementAudience{"ALL", "PARENTS", "CLASS"}, AudiencesFor(models.RoleParent))
	assert.Equal(t, []models.AnnouncementAudience{"ALL"}, AudiencesFor(models.RoleGuest))
	assert.Nil(t, AudiencesFor(models.RoleInstructor))
	assert.Nil(t, AudiencesFor(models.RoleT1Admin))
}

func TestAnnouncementServiceForClass(t *testing.T) {
	repo := &announcementRepoStub{}
	svc := newAnnouncementService(repo)

	rows, pagination, err := svc.ForClass(context.Background(), parentClaims, "c1", 2, 5)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Equal(t, 2, pagination.Page)
	assert.Equal(t, "c1", repo.lastFilter.ClassID)
	assert.False(t, repo.lastFilter.IncludeExpired)
	assert.Contains(t, repo.lastFilter.Audiences, models.AnnouncementAudienceParents)

	_, _, err = svc.ForClass(context.Background(), nil, "c1", 1, 5)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)

	_, _, err = svc.ForClass(context.Background(), parentClaims, "missing", 1, 5)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAnnouncementServiceListIncludesExpired(t *testing.T) {
	repo := &announcementRepoStub{}
	svc := newAnnouncementService(repo)
	_, _, err := svc.List(context.Background(), models.AnnouncementFilter{})
	require.NoError(t, err)
	assert.True(t, repo.lastFilter.IncludeExpired)
}

func TestAnnouncementServiceCreate(t *testing.T) {
	repo := &announcementRepoStub{}
	svc := newAnnouncementService(repo)
	classID := "c1"

	ann, err := svc.Create(context.Background(), &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}, dto.UpsertAnnouncementRequest{
		ClassID: &classID, Title: "Room change", Content: "Lab 2", Audience: models.AnnouncementAudienceClass,
	})
	require.NoError(t, err)
	assert.Equal(t, "admin-1", ann.CreatedBy)
	assert.Equal(t, time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC), ann.PublishedAt)
	require.NotNil(t, repo.created.ClassID)
}

func TestAnnouncementServiceCreateValidation(t *testing.T) {
	svc := newAnnouncementService(&announcementRepoStub{})
	actor := &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
	past := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	missing := "missing"

	cases := []struct {
		name string
		req  dto.UpsertAnnouncementRequest
		code string
	}{
		{"class audience without class", dto.UpsertAnnouncementRequest{Title: "t", Content: "c", Audience: models.AnnouncementAudienceClass}, appErrors.ErrValidation.Code},
		{"expires before publish", dto.UpsertAnnouncementRequest{Title: "t", Content: "c", Audience: models.AnnouncementAudienceAll, ExpiresAt: &past}, appErrors.ErrValidation.Code},
		{"unknown audience", dto.UpsertAnnouncementRequest{Title: "t", Content: "c", Audience: "TEACHERS"}, appErrors.ErrValidation.Code},
		{"unknown class", dto.UpsertAnnouncementRequest{Title: "t", Content: "c", Audience: models.AnnouncementAudienceAll, ClassID: &missing}, appErrors.ErrNotFound.Code},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), actor, tc.req)
			require.Error(t, err)
			assert.Equal(t, tc.code, appErrors.FromError(err).Code)
		})
	}
}
