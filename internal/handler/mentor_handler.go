package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-portal-api/internal/dto"
	"github.com/noah-isme/edu-portal-api/internal/models"
	"github.com/noah-isme/edu-portal-api/pkg/response"
)

type mentorService interface {
	List(ctx context.Context, activeOnly bool) ([]models.MentorDetail, error)
	Get(ctx context.Context, id string) (*models.MentorDetail, error)
	Create(ctx context.Context, req dto.UpsertMentorRequest) (*models.MentorDetail, error)
	Update(ctx context.Context, id string, req dto.UpsertMentorRequest) (*models.MentorDetail, error)
	Delete(ctx context.Context, id string) error
}

// MentorHandler exposes the mentor directory.
type MentorHandler struct {
	service mentorService
}

// NewMentorHandler constructs a mentor handler.
func NewMentorHandler(svc mentorService) *MentorHandler {
	return &MentorHandler{service: svc}
}

// List godoc
// @Summary Public mentor directory
// @Tags Mentors
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /mentors [get]
func (h *MentorHandler) List(c *gin.Context) {
	h.list(c, true)
}

// AdminList godoc
// @Summary All mentor profiles
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/mentors [get]
func (h *MentorHandler) AdminList(c *gin.Context) {
	h.list(c, false)
}

func (h *MentorHandler) list(c *gin.Context, activeOnly bool) {
	mentors, err := h.service.List(c.Request.Context(), activeOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, mentors, nil)
}

// Get godoc
// @Summary Get mentor profile
// @Tags Admin
// @Produce json
// @Param id path string true "Mentor ID"
// @Success 200 {object} response.Envelope
// @Router /admin/mentors/{id} [get]
func (h *MentorHandler) Get(c *gin.Context) {
	mentor, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, mentor, nil)
}

// Create godoc
// @Summary Create mentor profile
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body dto.UpsertMentorRequest true "Mentor payload"
// @Success 201 {object} response.Envelope
// @Router /admin/mentors [post]
func (h *MentorHandler) Create(c *gin.Context) {
	var req dto.UpsertMentorRequest
	if !bindJSON(c, &req, "invalid mentor payload") {
		return
	}
	mentor, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, mentor)
}

// Update godoc
// @Summary Update mentor profile
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Mentor ID"
// @Param payload body dto.UpsertMentorRequest true "Mentor payload"
// @Success 200 {object} response.Envelope
// @Router /admin/mentors/{id} [put]
func (h *MentorHandler) Update(c *gin.Context) {
	var req dto.UpsertMentorRequest
	if !bindJSON(c, &req, "invalid mentor payload") {
		return
	}
	mentor, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, mentor, nil)
}

// Delete godoc
// @Summary Delete mentor profile
// @Tags Admin
// @Param id path string true "Mentor ID"
// @Success 204 {object} response.Envelope
// @Router /admin/mentors/{id} [delete]
func (h *MentorHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
