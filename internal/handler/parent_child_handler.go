package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-portal-api/internal/dto"
	"github.com/noah-isme/edu-portal-api/internal/models"
	"github.com/noah-isme/edu-portal-api/pkg/response"
)

type parentChildService interface {
	List(ctx context.Context, actor *models.JWTClaims) ([]models.ParentChildDetail, error)
	Request(ctx context.Context, actor *models.JWTClaims, req dto.ParentChildRequest) (*models.ParentChildRelationship, error)
	Review(ctx context.Context, actor *models.JWTClaims, req dto.ReviewParentChildRequest) (*models.ParentChildRelationship, error)
}

// ParentChildHandler manages parent-child account links.
type ParentChildHandler struct {
	service parentChildService
}

// NewParentChildHandler constructs a parent-child handler.
func NewParentChildHandler(svc parentChildService) *ParentChildHandler {
	return &ParentChildHandler{service: svc}
}

// List godoc
// @Summary List the caller's parent-child links
// @Tags ParentChild
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /parent-child [get]
func (h *ParentChildHandler) List(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	links, err := h.service.List(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, links, nil)
}

// Request godoc
// @Summary Request a link to a child account
// @Tags ParentChild
// @Accept json
// @Produce json
// @Param payload body dto.ParentChildRequest true "Child account"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /parent-child [post]
func (h *ParentChildHandler) Request(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.ParentChildRequest
	if !bindJSON(c, &req, "invalid relationship payload") {
		return
	}
	link, err := h.service.Request(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, link)
}

// Review godoc
// @Summary Approve or reject a link
// @Tags ParentChild
// @Accept json
// @Produce json
// @Param payload body dto.ReviewParentChildRequest true "Review payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /parent-child [patch]
func (h *ParentChildHandler) Review(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.ReviewParentChildRequest
	if !bindJSON(c, &req, "invalid review payload") {
		return
	}
	link, err := h.service.Review(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}
