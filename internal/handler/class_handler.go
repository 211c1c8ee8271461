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

type classService interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.ClassDetail, bool, error)
	Create(ctx context.Context, req dto.UpsertClassRequest) (*models.Class, error)
	Update(ctx context.Context, id string, req dto.UpsertClassRequest) (*models.Class, error)
	Deactivate(ctx context.Context, id string) error
}

// ClassHandler exposes the class catalog and its admin CRUD endpoints.
type ClassHandler struct {
	service classService
}

// NewClassHandler constructs a class handler.
func NewClassHandler(svc classService) *ClassHandler {
	return &ClassHandler{service: svc}
}

// List godoc
// @Summary List active classes
// @Tags Classes
// @Produce json
// @Param search query string false "Search keyword"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Param sort_by query string false "title, price, start_date or created_at"
// @Param sort_order query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Router /classes [get]
func (h *ClassHandler) List(c *gin.Context) {
	h.list(c, true)
}

// AdminList godoc
// @Summary List all classes including inactive ones
// @Tags Admin
// @Produce json
// @Param instructor_id query string false "Instructor filter"
// @Success 200 {object} response.Envelope
// @Router /admin/classes [get]
func (h *ClassHandler) AdminList(c *gin.Context) {
	h.list(c, false)
}

func (h *ClassHandler) list(c *gin.Context, activeOnly bool) {
	page, size := pageParams(c)
	filter := models.ClassFilter{
		Search:       strings.TrimSpace(c.Query("search")),
		ActiveOnly:   activeOnly,
		InstructorID: c.Query("instructor_id"),
		Page:         page,
		PageSize:     size,
		SortBy:       c.Query("sort_by"),
		SortOrder:    c.Query("sort_order"),
	}

	classes, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, pagination)
}

// Get godoc
// @Summary Get class detail
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id} [get]
func (h *ClassHandler) Get(c *gin.Context) {
	class, hit, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil, withCacheMeta(c, hit))
}

// Create godoc
// @Summary Create class
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body dto.UpsertClassRequest true "Class payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/classes [post]
func (h *ClassHandler) Create(c *gin.Context) {
	var req dto.UpsertClassRequest
	if !bindJSON(c, &req, "invalid class payload") {
		return
	}
	class, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, class)
}

// Update godoc
// @Summary Update class
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body dto.UpsertClassRequest true "Class payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/classes/{id} [put]
func (h *ClassHandler) Update(c *gin.Context) {
	var req dto.UpsertClassRequest
	if !bindJSON(c, &req, "invalid class payload") {
		return
	}
	class, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// Delete godoc
// @Summary Deactivate class
// @Tags Admin
// @Param id path string true "Class ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/classes/{id} [delete]
func (h *ClassHandler) Delete(c *gin.Context) {
	if err := h.service.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
