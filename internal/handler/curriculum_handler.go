package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-portal-api/internal/dto"
	"github.com/noah-isme/edu-portal-api/internal/models"
	"github.com/noah-isme/edu-portal-api/pkg/response"
)

type curriculumService interface {
	Get(ctx context.Context, viewer *models.JWTClaims, classID string) (*dto.CurriculumResponse, error)
	Create(ctx context.Context, actor *models.JWTClaims, classID string, req dto.UpsertCurriculumItemRequest) (*models.CurriculumItem, error)
	Update(ctx context.Context, actor *models.JWTClaims, classID, itemID string, req dto.UpsertCurriculumItemRequest) (*models.CurriculumItem, error)
	Delete(ctx context.Context, actor *models.JWTClaims, classID, itemID string) error
}

// CurriculumHandler serves class curriculum. Reads are public with
// non-public items reserved for enrolled students, the instructor and admins.
type CurriculumHandler struct {
	service curriculumService
}

// NewCurriculumHandler constructs a curriculum handler.
func NewCurriculumHandler(svc curriculumService) *CurriculumHandler {
	return &CurriculumHandler{service: svc}
}

// Get godoc
// @Summary Class curriculum grouped by item type
// @Tags Curriculum
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id}/curriculum [get]
func (h *CurriculumHandler) Get(c *gin.Context) {
	res, err := h.service.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Create godoc
// @Summary Add a curriculum item
// @Tags Curriculum
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body dto.UpsertCurriculumItemRequest true "Item payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /classes/{id}/curriculum [post]
func (h *CurriculumHandler) Create(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.UpsertCurriculumItemRequest
	if !bindJSON(c, &req, "invalid curriculum payload") {
		return
	}
	item, err := h.service.Create(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Replace a curriculum item
// @Tags Curriculum
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param itemId path string true "Item ID"
// @Param payload body dto.UpsertCurriculumItemRequest true "Item payload"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/curriculum/{itemId} [put]
func (h *CurriculumHandler) Update(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.UpsertCurriculumItemRequest
	if !bindJSON(c, &req, "invalid curriculum payload") {
		return
	}
	item, err := h.service.Update(c.Request.Context(), claims, c.Param("id"), c.Param("itemId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Remove a curriculum item
// @Tags Curriculum
// @Param id path string true "Class ID"
// @Param itemId path string true "Item ID"
// @Success 204 {object} response.Envelope
// @Router /classes/{id}/curriculum/{itemId} [delete]
func (h *CurriculumHandler) Delete(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	if err := h.service.Delete(c.Request.Context(), claims, c.Param("id"), c.Param("itemId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
