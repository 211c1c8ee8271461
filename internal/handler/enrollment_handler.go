package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-portal-api/internal/dto"
	"github.com/noah-isme/edu-portal-api/internal/models"
	"github.com/noah-isme/edu-portal-api/pkg/response"
)

type enrollmentService interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error)
	ListMine(ctx context.Context, actor *models.JWTClaims) (*dto.EnrollmentsResponse, error)
	Enroll(ctx context.Context, actor *models.JWTClaims, req dto.CreateEnrollmentRequest) (*dto.EnrollmentResult, error)
	Leave(ctx context.Context, actor *models.JWTClaims, id string) (*models.Enrollment, error)
	UpdateStatus(ctx context.Context, actor *models.JWTClaims, id string, req dto.UpdateEnrollmentStatusRequest) (*models.Enrollment, error)
}

// EnrollmentHandler manages class enrollments.
type EnrollmentHandler struct {
	service enrollmentService
}

// NewEnrollmentHandler constructs an enrollment handler.
func NewEnrollmentHandler(svc enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{service: svc}
}

// Mine godoc
// @Summary List the caller's enrollments
// @Tags Enrollments
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /user/enrollments [get]
func (h *EnrollmentHandler) Mine(c *gin.Context) {
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
// @Summary Enroll in a class
// @Description Free classes confirm immediately; paid classes must go through checkout.
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body dto.CreateEnrollmentRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Create(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.CreateEnrollmentRequest
	if !bindJSON(c, &req, "invalid enrollment payload") {
		return
	}
	res, err := h.service.Enroll(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// Leave godoc
// @Summary Leave a class
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /enrollments/{id}/leave [post]
func (h *EnrollmentHandler) Leave(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	enrollment, err := h.service.Leave(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// AdminList godoc
// @Summary List enrollments
// @Tags Admin
// @Produce json
// @Param class_id query string false "Class filter"
// @Param user_id query string false "Student filter"
// @Param status query string false "Status filter"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admin/enrollments [get]
func (h *EnrollmentHandler) AdminList(c *gin.Context) {
	page, size := pageParams(c)
	filter := models.EnrollmentFilter{
		UserID:    c.Query("user_id"),
		ClassID:   c.Query("class_id"),
		ParentID:  c.Query("parent_id"),
		Status:    models.EnrollmentStatus(strings.ToUpper(c.Query("status"))),
		Page:      page,
		PageSize:  size,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	items, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// UpdateStatus godoc
// @Summary Change an enrollment's status
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param payload body dto.UpdateEnrollmentStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /admin/enrollments/{id} [patch]
func (h *EnrollmentHandler) UpdateStatus(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.UpdateEnrollmentStatusRequest
	if !bindJSON(c, &req, "invalid status payload") {
		return
	}
	enrollment, err := h.service.UpdateStatus(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}
