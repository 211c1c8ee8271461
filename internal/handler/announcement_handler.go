package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-portal-api/internal/dto"
	"github.com/noah-isme/edu-portal-api/internal/models"
	"github.com/noah-isme/edu-portal-api/pkg/response"
)

type announcementService interface {
	List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, *models.Pagination, error)
	ForClass(ctx context.Context, viewer *models.JWTClaims, classID string, page, pageSize int) ([]models.Announcement, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Announcement, error)
	Create(ctx context.Context, actor *models.JWTClaims, req dto.UpsertAnnouncementRequest) (*models.Announcement, error)
	Update(ctx context.Context, id string, req dto.UpsertAnnouncementRequest) (*models.Announcement, error)
	Delete(ctx context.Context, id string) error
}

// AnnouncementHandler exposes class announcements and their admin CRUD.
type AnnouncementHandler struct {
	service announcementService
}

// NewAnnouncementHandler constructs an announcement handler.
func NewAnnouncementHandler(svc announcementService) *AnnouncementHandler {
	return &AnnouncementHandler{service: svc}
}

// ForClass godoc
// @Summary Announcements visible to the caller for a class
// @Tags Announcements
// @Produce json
// @Param id path string true "Class ID"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/announcements [get]
func (h *AnnouncementHandler) ForClass(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	page, size := pageParams(c)
	items, pagination, err := h.service.ForClass(c.Request.Context(), claims, c.Param("id"), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// List godoc
// @Summary List all announcements
// @Tags Admin
// @Produce json
// @Param class_id query string false "Class filter"
// @Success 200 {object} response.Envelope
// @Router /admin/announcements [get]
func (h *AnnouncementHandler) List(c *gin.Context) {
	page, size := pageParams(c)
	items, pagination, err := h.service.List(c.Request.Context(), models.AnnouncementFilter{
		ClassID:        c.Query("class_id"),
		IncludeExpired: true,
		Page:           page,
		PageSize:       size,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get announcement
// @Tags Admin
// @Produce json
// @Param id path string true "Announcement ID"
// @Success 200 {object} response.Envelope
// @Router /admin/announcements/{id} [get]
func (h *AnnouncementHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Publish an announcement
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body dto.UpsertAnnouncementRequest true "Announcement payload"
// @Success 201 {object} response.Envelope
// @Router /admin/announcements [post]
func (h *AnnouncementHandler) Create(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.UpsertAnnouncementRequest
	if !bindJSON(c, &req, "invalid announcement payload") {
		return
	}
	item, err := h.service.Create(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update an announcement
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Announcement ID"
// @Param payload body dto.UpsertAnnouncementRequest true "Announcement payload"
// @Success 200 {object} response.Envelope
// @Router /admin/announcements/{id} [put]
func (h *AnnouncementHandler) Update(c *gin.Context) {
	var req dto.UpsertAnnouncementRequest
	if !bindJSON(c, &req, "invalid announcement payload") {
		return
	}
	item, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Delete an announcement
// @Tags Admin
// @Param id path string true "Announcement ID"
// @Success 204 {object} response.Envelope
// @Router /admin/announcements/{id} [delete]
func (h *AnnouncementHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
