package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-portal-api/internal/dto"
	"github.com/noah-isme/edu-portal-api/internal/models"
	"github.com/noah-isme/edu-portal-api/pkg/response"
)

type overviewService interface {
	ClassOverview(ctx context.Context, viewer *models.JWTClaims, classID, callbackPath string) (*dto.ClassOverview, bool, error)
	ClassEnrollmentState(ctx context.Context, viewer *models.JWTClaims, classID, callbackPath string) (*dto.EnrollmentView, error)
	EventOverview(ctx context.Context, viewer *models.JWTClaims, eventID, callbackPath string) (*dto.EventOverview, bool, error)
}

// OverviewHandler serves the aggregated detail-page payloads. Routes run
// behind OptionalJWT so anonymous viewers get a sign-in action.
type OverviewHandler struct {
	service overviewService
}

// NewOverviewHandler constructs an overview handler.
func NewOverviewHandler(svc overviewService) *OverviewHandler {
	return &OverviewHandler{service: svc}
}

// Class godoc
// @Summary Class detail with the viewer's enrollment state and curriculum
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Param callbackUrl query string false "Return path for sign-in"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id}/overview [get]
func (h *OverviewHandler) Class(c *gin.Context) {
	id := c.Param("id")
	overview, hit, err := h.service.ClassOverview(c.Request.Context(), claimsFromContext(c), id, callbackPath(c, "/classes/"+id))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overview, nil, withCacheMeta(c, hit))
}

// ClassEnrollmentState godoc
// @Summary Viewer-relative enrollment state for a class
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/enrollment-state [get]
func (h *OverviewHandler) ClassEnrollmentState(c *gin.Context) {
	id := c.Param("id")
	view, err := h.service.ClassEnrollmentState(c.Request.Context(), claimsFromContext(c), id, callbackPath(c, "/classes/"+id))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Event godoc
// @Summary Event detail with the viewer's registration state
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /events/{id}/overview [get]
func (h *OverviewHandler) Event(c *gin.Context) {
	id := c.Param("id")
	overview, hit, err := h.service.EventOverview(c.Request.Context(), claimsFromContext(c), id, callbackPath(c, "/events/"+id))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overview, nil, withCacheMeta(c, hit))
}
