package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-portal-api/internal/dto"
	"github.com/noah-isme/edu-portal-api/internal/models"
	appErrors "github.com/noah-isme/edu-portal-api/pkg/errors"
)

type enrollmentServiceMock struct {
	lastReq    dto.CreateEnrollmentRequest
	lastFilter models.EnrollmentFilter
	enrollErr  error
}

func (m *enrollmentServiceMock) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	m.lastFilter = filter
	return []models.EnrollmentDetail{}, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize}, nil
}

func (m *enrollmentServiceMock) ListMine(ctx context.Context, actor *models.JWTClaims) (*dto.EnrollmentsResponse, error) {
	return &dto.EnrollmentsResponse{Enrollments: []models.EnrollmentDetail{{Enrollment: models.Enrollment{ID: "e1", UserID: actor.UserID}}}}, nil
}

func (m *enrollmentServiceMock) Enroll(ctx context.Context, actor *models.JWTClaims, req dto.CreateEnrollmentRequest) (*dto.EnrollmentResult, error) {
	m.lastReq = req
	if m.enrollErr != nil {
		return nil, m.enrollErr
	}
	redirect := "/dashboard?enrollment=success"
	if req.IsTestRegistration {
		redirect += "&test=true"
	}
	return &dto.EnrollmentResult{
		Enrollment: &models.Enrollment{ID: "e1", ClassID: req.ClassID, Status: models.EnrollmentStatusTest},
		RedirectTo: redirect,
	}, nil
}

func (m *enrollmentServiceMock) Leave(ctx context.Context, actor *models.JWTClaims, id string) (*models.Enrollment, error) {
	return &models.Enrollment{ID: id, Status: models.EnrollmentStatusCancelled}, nil
}

func (m *enrollmentServiceMock) UpdateStatus(ctx context.Context, actor *models.JWTClaims, id string, req dto.UpdateEnrollmentStatusRequest) (*models.Enrollment, error) {
	return &models.Enrollment{ID: id, Status: req.Status}, nil
}

func TestEnrollmentHandlerCreateTestRegistration(t *testing.T) {
	svc := &enrollmentServiceMock{}
	c, w := newTestContext(http.MethodPost, "/api/enrollments", map[string]interface{}{"classId": "c1", "isTestRegistration": true}, parentClaims)

	NewEnrollmentHandler(svc).Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	var res dto.EnrollmentResult
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &res))
	assert.Equal(t, "/dashboard?enrollment=success&test=true", res.RedirectTo)
	assert.Equal(t, "c1", svc.lastReq.ClassID)
}

func TestEnrollmentHandlerCreateAlreadyEnrolled(t *testing.T) {
	svc := &enrollmentServiceMock{enrollErr: appErrors.ErrAlreadyEnrolled}
	c, w := newTestContext(http.MethodPost, "/api/enrollments", map[string]interface{}{"classId": "c1"}, parentClaims)

	NewEnrollmentHandler(svc).Create(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, "ALREADY_ENROLLED", env.Error.Code)
}

func TestEnrollmentHandlerCreateRejectsMalformedBody(t *testing.T) {
	c, w := newTestContext(http.MethodPost, "/api/enrollments", "{", parentClaims)

	NewEnrollmentHandler(&enrollmentServiceMock{}).Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEnrollmentHandlerMineRequiresSession(t *testing.T) {
	c, w := newTestContext(http.MethodGet, "/api/user/enrollments", nil, nil)

	NewEnrollmentHandler(&enrollmentServiceMock{}).Mine(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEnrollmentHandlerMineWrapsList(t *testing.T) {
	c, w := newTestContext(http.MethodGet, "/api/user/enrollments", nil, studentClaims)

	NewEnrollmentHandler(&enrollmentServiceMock{}).Mine(c)

	require.Equal(t, http.StatusOK, w.Code)
	var res dto.EnrollmentsResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &res))
	require.Len(t, res.Enrollments, 1)
	assert.Equal(t, "student-1", res.Enrollments[0].UserID)
}

func TestEnrollmentHandlerAdminListParsesFilter(t *testing.T) {
	svc := &enrollmentServiceMock{}
	c, w := newTestContext(http.MethodGet, "/api/admin/enrollments?class_id=c1&status=pending&page=2&page_size=5", nil, adminClaims)

	NewEnrollmentHandler(svc).AdminList(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "c1", svc.lastFilter.ClassID)
	assert.Equal(t, models.EnrollmentStatusPending, svc.lastFilter.Status)
	assert.Equal(t, 2, svc.lastFilter.Page)
	assert.Equal(t, 5, svc.lastFilter.PageSize)
	assert.Equal(t, 2, decodeEnvelope(t, w).Pagination.Page)
}

func TestEnrollmentHandlerLeave(t *testing.T) {
	c, w := newTestContext(http.MethodPost, "/api/enrollments/e9/leave", nil, parentClaims)
	c.Params = gin.Params{{Key: "id", Value: "e9"}}

	NewEnrollmentHandler(&enrollmentServiceMock{}).Leave(c)

	require.Equal(t, http.StatusOK, w.Code)
	var res models.Enrollment
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &res))
	assert.Equal(t, "e9", res.ID)
	assert.Equal(t, models.EnrollmentStatusCancelled, res.Status)
}
