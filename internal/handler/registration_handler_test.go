package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-portal-api/internal/dto"
	"github.com/noah-isme/edu-portal-api/internal/models"
)

type registrationServiceMock struct {
	eventID string
	lastReq dto.CreateRegistrationRequest
	called  bool
}

func (m *registrationServiceMock) List(ctx context.Context, filter models.RegistrationFilter) ([]models.RegistrationDetail, *models.Pagination, error) {
	return []models.RegistrationDetail{}, &models.Pagination{Page: 1, PageSize: 20}, nil
}

func (m *registrationServiceMock) ListMine(ctx context.Context, actor *models.JWTClaims) (*dto.RegistrationsResponse, error) {
	return &dto.RegistrationsResponse{}, nil
}

func (m *registrationServiceMock) Register(ctx context.Context, actor *models.JWTClaims, eventID string, req dto.CreateRegistrationRequest) (*dto.RegistrationResult, error) {
	m.called = true
	m.eventID, m.lastReq = eventID, req
	return &dto.RegistrationResult{}, nil
}

func (m *registrationServiceMock) Cancel(ctx context.Context, actor *models.JWTClaims, id string) (*models.EventRegistration, error) {
	return &models.EventRegistration{ID: id, Status: models.EnrollmentStatusCancelled}, nil
}

func (m *registrationServiceMock) UpdateStatus(ctx context.Context, actor *models.JWTClaims, id string, req dto.UpdateEnrollmentStatusRequest) (*models.EventRegistration, error) {
	return &models.EventRegistration{ID: id, Status: req.Status}, nil
}

func TestRegistrationHandlerAcceptsEmptyBody(t *testing.T) {
	svc := &registrationServiceMock{}
	c, w := newTestContext(http.MethodPost, "/api/events/ev1/registrations", nil, studentClaims)
	c.Params = gin.Params{{Key: "id", Value: "ev1"}}

	NewRegistrationHandler(svc).Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "ev1", svc.eventID)
	assert.Zero(t, svc.lastReq.Quantity)
}

func TestRegistrationHandlerPassesGroupPayload(t *testing.T) {
	svc := &registrationServiceMock{}
	c, w := newTestContext(http.MethodPost, "/api/events/ev1/registrations", map[string]interface{}{"quantity": 4, "registrationType": "GROUP"}, parentClaims)
	c.Params = gin.Params{{Key: "id", Value: "ev1"}}

	NewRegistrationHandler(svc).Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 4, svc.lastReq.Quantity)
	assert.Equal(t, models.RegistrationType("GROUP"), svc.lastReq.RegistrationType)
}

func TestRegistrationHandlerRejectsMalformedBody(t *testing.T) {
	svc := &registrationServiceMock{}
	c, w := newTestContext(http.MethodPost, "/api/events/ev1/registrations", `{"quantity":`, parentClaims)
	c.Params = gin.Params{{Key: "id", Value: "ev1"}}

	NewRegistrationHandler(svc).Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, svc.called)
}
