package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-portal-api/internal/dto"
	"github.com/noah-isme/edu-portal-api/internal/models"
	appErrors "github.com/noah-isme/edu-portal-api/pkg/errors"
)

type parentChildRepoStub struct {
	links   map[string]*models.ParentChildRelationship
	created *models.ParentChildRelationship
}

func newParentChildRepoStub(links ...*models.ParentChildRelationship) *parentChildRepoStub {
	repo := &parentChildRepoStub{links: map[string]*models.ParentChildRelationship{}}
	for _, link := range links {
		repo.links[link.ID] = link
	}
	return repo
}

func (r *parentChildRepoStub) ListForUser(ctx context.Context, userID string) ([]models.ParentChildDetail, error) {
	var out []models.ParentChildDetail
	for _, link := range r.links {
		if link.ParentID == userID || link.ChildID == userID {
			out = append(out, models.ParentChildDetail{ParentChildRelationship: *link})
		}
	}
	return out, nil
}

func (r *parentChildRepoStub) FindByID(ctx context.Context, id string) (*models.ParentChildRelationship, error) {
	if link, ok := r.links[id]; ok {
		copy := *link
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (r *parentChildRepoStub) FindByPair(ctx context.Context, parentID, childID string) (*models.ParentChildRelationship, error) {
	for _, link := range r.links {
		if link.ParentID == parentID && link.ChildID == childID {
			copy := *link
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *parentChildRepoStub) Create(ctx context.Context, link *models.ParentChildRelationship) error {
	link.ID = "link-new"
	r.links[link.ID] = link
	r.created = link
	return nil
}

func (r *parentChildRepoStub) UpdateStatus(ctx context.Context, id string, status models.RelationshipStatus) error {
	link, ok := r.links[id]
	if !ok {
		return sql.ErrNoRows
	}
	link.Status = status
	return nil
}

type emailFinderStub struct {
	users map[string]*models.User
}

func (e emailFinderStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := e.users[email]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

var familyUsers = emailFinderStub{users: map[string]*models.User{
	"kid@example.com":    {ID: "child-1", Email: "kid@example.com", Role: models.RoleStudent},
	"parent@example.com": {ID: "parent-2", Email: "parent@example.com", Role: models.RoleParent},
}}

func TestParentChildServiceRequest(t *testing.T) {
	repo := newParentChildRepoStub()
	svc := NewParentChildService(repo, familyUsers, &auditLoggerStub{}, nil, nil)

	link, err := svc.Request(context.Background(), parentClaims, dto.ParentChildRequest{ChildEmail: "kid@example.com"})
	require.NoError(t, err)
	assert.Equal(t, models.RelationshipPending, link.Status)
	assert.Equal(t, "child-1", link.ChildID)

	_, err = svc.Request(context.Background(), parentClaims, dto.ParentChildRequest{ChildEmail: "kid@example.com"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestParentChildServiceRequestRejections(t *testing.T) {
	svc := NewParentChildService(newParentChildRepoStub(), familyUsers, nil, nil, nil)

	cases := []struct {
		name  string
		actor *models.JWTClaims
		email string
		code  string
	}{
		{"student actor", &models.JWTClaims{UserID: "child-1", Role: models.RoleStudent}, "kid@example.com", appErrors.ErrForbidden.Code},
		{"non-student child", parentClaims, "parent@example.com", appErrors.ErrValidation.Code},
		{"unknown email", parentClaims, "nobody@example.com", appErrors.ErrNotFound.Code},
		{"bad email", parentClaims, "not-an-email", appErrors.ErrValidation.Code},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Request(context.Background(), tc.actor, dto.ParentChildRequest{ChildEmail: tc.email})
			require.Error(t, err)
			assert.Equal(t, tc.code, appErrors.FromError(err).Code)
		})
	}
}

func TestParentChildServiceRequestReopensRejected(t *testing.T) {
	repo := newParentChildRepoStub(&models.ParentChildRelationship{ID: "l1", ParentID: "parent-1", ChildID: "child-1", Status: models.RelationshipRejected})
	svc := NewParentChildService(repo, familyUsers, nil, nil, nil)

	link, err := svc.Request(context.Background(), parentClaims, dto.ParentChildRequest{ChildEmail: "kid@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "l1", link.ID)
	assert.Equal(t, models.RelationshipPending, repo.links["l1"].Status)
	assert.Nil(t, repo.created)
}

func TestParentChildServiceReview(t *testing.T) {
	repo := newParentChildRepoStub(&models.ParentChildRelationship{ID: "l1", ParentID: "parent-1", ChildID: "child-1", Status: models.RelationshipPending})
	audit := &auditLoggerStub{}
	svc := NewParentChildService(repo, familyUsers, audit, nil, nil)
	req := dto.ReviewParentChildRequest{RelationshipID: "l1", Status: models.RelationshipApproved}

	_, err := svc.Review(context.Background(), parentClaims, req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	link, err := svc.Review(context.Background(), &models.JWTClaims{UserID: "child-1", Role: models.RoleStudent}, req)
	require.NoError(t, err)
	assert.Equal(t, models.RelationshipApproved, link.Status)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionRelationshipReview, audit.logs[0].Action)

	_, err = svc.Review(context.Background(), &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin}, req)
	require.NoError(t, err)
	assert.Len(t, audit.logs, 1)
}

func TestParentChildServiceList(t *testing.T) {
	repo := newParentChildRepoStub(&models.ParentChildRelationship{ID: "l1", ParentID: "parent-1", ChildID: "child-1"})
	svc := NewParentChildService(repo, familyUsers, nil, nil, nil)

	links, err := svc.List(context.Background(), &models.JWTClaims{UserID: "someone-else"})
	require.NoError(t, err)
	assert.NotNil(t, links)
	assert.Empty(t, links)

	links, err = svc.List(context.Background(), parentClaims)
	require.NoError(t, err)
	assert.Len(t, links, 1)
}
