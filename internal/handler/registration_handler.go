package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-portal-api/internal/dto"
	"github.com/noah-isme/edu-portal-api/internal/models"
	appErrors "github.com/noah-isme/edu-portal-api/pkg/errors"
	"github.com/noah-isme/edu-portal-api/pkg/response"
)

type registrationService interface {
	List(ctx context.Context, filter models.RegistrationFilter) ([]models.RegistrationDetail, *models.Pagination, error)
	ListMine(ctx context.Context, actor *models.JWTClaims) (*dto.RegistrationsResponse, error)
	Register(ctx context.Context, actor *models.JWTClaims, eventID string, req dto.CreateRegistrationRequest) (*dto.RegistrationResult, error)
	Cancel(ctx context.Context, actor *models.JWTClaims, id string) (*models.EventRegistration, error)
	UpdateStatus(ctx context.Context, actor *models.JWTClaims, id string, req dto.UpdateEnrollmentStatusRequest) (*models.EventRegistration, error)
}

// RegistrationHandler manages event registrations.
type RegistrationHandler struct {
	service registrationService
}

// NewRegistrationHandler constructs a registration handler.
func NewRegistrationHandler(svc registrationService) *RegistrationHandler {
	return &RegistrationHandler{service: svc}
}

// Mine godoc
// @Summary List the caller's event registrations
// @Tags Events
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /user/registrations [get]
func (h *RegistrationHandler) Mine(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	res, err := h.service.ListMine(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Create godoc
// @Summary Register for an event
// @Description Joins the waitlist when the event is full and the waitlist has room.
// @Tags Events
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param payload body dto.CreateRegistrationRequest false "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /events/{id}/registrations [post]
func (h *RegistrationHandler) Create(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.CreateRegistrationRequest
	// An empty body registers a single individual seat.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid registration payload"))
		return
	}
	res, err := h.service.Register(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// Cancel godoc
// @Summary Cancel a registration
// @Tags Events
// @Produce json
// @Param id path string true "Registration ID"
// @Success 200 {object} response.Envelope
// @Router /registrations/{id}/cancel [post]
func (h *RegistrationHandler) Cancel(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	reg, err := h.service.Cancel(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reg, nil)
}

// AdminList godoc
// @Summary List event registrations
// @Tags Admin
// @Produce json
// @Param event_id query string false "Event filter"
// @Param user_id query string false "User filter"
// @Param status query string false "Status filter"
// @Success 200 {object} response.Envelope
// @Router /admin/registrations [get]
func (h *RegistrationHandler) AdminList(c *gin.Context) {
	page, size := pageParams(c)
	filter := models.RegistrationFilter{
		UserID:   c.Query("user_id"),
		EventID:  c.Query("event_id"),
		Status:   models.EnrollmentStatus(strings.ToUpper(c.Query("status"))),
		Page:     page,
		PageSize: size,
	}
	items, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// UpdateStatus godoc
// @Summary Change a registration's status
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Registration ID"
// @Param payload body dto.UpdateEnrollmentStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /admin/registrations/{id} [patch]
func (h *RegistrationHandler) UpdateStatus(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.UpdateEnrollmentStatusRequest
	if !bindJSON(c, &req, "invalid status payload") {
		return
	}
	reg, err := h.service.UpdateStatus(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reg, nil)
}
