package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-portal-api/internal/dto"
	"github.com/noah-isme/edu-portal-api/internal/middleware"
	"github.com/noah-isme/edu-portal-api/internal/models"
)

type overviewServiceMock struct {
	viewer   *models.JWTClaims
	callback string
	hit      bool
}

func (m *overviewServiceMock) ClassOverview(ctx context.Context, viewer *models.JWTClaims, classID, callbackPath string) (*dto.ClassOverview, bool, error) {
	m.viewer, m.callback = viewer, callbackPath
	return &dto.ClassOverview{
		Class:      &models.ClassDetail{Class: models.Class{ID: classID}},
		Enrollment: dto.EnrollmentView{OfferingID: classID, State: dto.StateAnonymous},
		Curriculum: &dto.CurriculumResponse{PublicOnly: true},
	}, m.hit, nil
}

func (m *overviewServiceMock) ClassEnrollmentState(ctx context.Context, viewer *models.JWTClaims, classID, callbackPath string) (*dto.EnrollmentView, error) {
	m.viewer, m.callback = viewer, callbackPath
	return &dto.EnrollmentView{OfferingID: classID, State: dto.StateEnrolled}, nil
}

func (m *overviewServiceMock) EventOverview(ctx context.Context, viewer *models.JWTClaims, eventID, callbackPath string) (*dto.EventOverview, bool, error) {
	m.viewer, m.callback = viewer, callbackPath
	return &dto.EventOverview{Event: &models.Event{ID: eventID}}, m.hit, nil
}

func TestOverviewHandlerClassDefaultsCallbackToClassPage(t *testing.T) {
	svc := &overviewServiceMock{hit: true}
	c, w := newTestContext(http.MethodGet, "/api/classes/c1/overview", nil, nil)
	c.Params = gin.Params{{Key: "id", Value: "c1"}}

	NewOverviewHandler(svc).Class(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, svc.viewer)
	assert.Equal(t, "/classes/c1", svc.callback)
	assert.Equal(t, "HIT", w.Header().Get(middleware.CacheHeader))
	assert.Equal(t, true, decodeEnvelope(t, w).Meta["cache_hit"])
}

func TestOverviewHandlerHonoursCallbackQuery(t *testing.T) {
	svc := &overviewServiceMock{}
	c, w := newTestContext(http.MethodGet, "/api/classes/c1/enrollment-state?callbackUrl=/classes/c1%3Ftab%3Dcurriculum", nil, parentClaims)
	c.Params = gin.Params{{Key: "id", Value: "c1"}}

	NewOverviewHandler(svc).ClassEnrollmentState(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/classes/c1?tab=curriculum", svc.callback)
	assert.Same(t, parentClaims, svc.viewer)
}

func TestOverviewHandlerEventMarksCacheMiss(t *testing.T) {
	svc := &overviewServiceMock{}
	c, w := newTestContext(http.MethodGet, "/api/events/ev1/overview", nil, studentClaims)
	c.Params = gin.Params{{Key: "id", Value: "ev1"}}

	NewOverviewHandler(svc).Event(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/events/ev1", svc.callback)
	assert.Equal(t, "MISS", w.Header().Get(middleware.CacheHeader))
}
