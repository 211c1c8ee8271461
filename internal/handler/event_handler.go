package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-portal-api/internal/dto"
	"github.com/noah-isme/edu-portal-api/internal/models"
	"github.com/noah-isme/edu-portal-api/pkg/response"
)

type eventService interface {
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Event, bool, error)
	Create(ctx context.Context, req dto.UpsertEventRequest) (*models.Event, error)
	Update(ctx context.Context, id string, req dto.UpsertEventRequest) (*models.Event, error)
	Deactivate(ctx context.Context, id string) error
}

// EventHandler exposes the event catalog and its admin CRUD endpoints.
type EventHandler struct {
	service eventService
}

// NewEventHandler constructs an event handler.
func NewEventHandler(svc eventService) *EventHandler {
	return &EventHandler{service: svc}
}

// List godoc
// @Summary List active events
// @Tags Events
// @Produce json
// @Param search query string false "Search keyword"
// @Param upcoming query bool false "Only events that have not started"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /events [get]
func (h *EventHandler) List(c *gin.Context) {
	h.list(c, true)
}

// AdminList godoc
// @Summary List all events including inactive ones
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/events [get]
func (h *EventHandler) AdminList(c *gin.Context) {
	h.list(c, false)
}

func (h *EventHandler) list(c *gin.Context, activeOnly bool) {
	page, size := pageParams(c)
	upcoming, _ := strconv.ParseBool(c.DefaultQuery("upcoming", "false"))
	filter := models.EventFilter{
		Search:     strings.TrimSpace(c.Query("search")),
		ActiveOnly: activeOnly,
		Upcoming:   upcoming,
		Page:       page,
		PageSize:   size,
		SortBy:     c.Query("sort_by"),
		SortOrder:  c.Query("sort_order"),
	}

	events, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, pagination)
}

// Get godoc
// @Summary Get event detail
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{id} [get]
func (h *EventHandler) Get(c *gin.Context) {
	event, hit, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil, withCacheMeta(c, hit))
}

// Create godoc
// @Summary Create event
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body dto.UpsertEventRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Router /admin/events [post]
func (h *EventHandler) Create(c *gin.Context) {
	var req dto.UpsertEventRequest
	if !bindJSON(c, &req, "invalid event payload") {
		return
	}
	event, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// Update godoc
// @Summary Update event
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param payload body dto.UpsertEventRequest true "Event payload"
// @Success 200 {object} response.Envelope
// @Router /admin/events/{id} [put]
func (h *EventHandler) Update(c *gin.Context) {
	var req dto.UpsertEventRequest
	if !bindJSON(c, &req, "invalid event payload") {
		return
	}
	event, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Delete godoc
// @Summary Deactivate event
// @Tags Admin
// @Param id path string true "Event ID"
// @Success 204 {object} response.Envelope
// @Router /admin/events/{id} [delete]
func (h *EventHandler) Delete(c *gin.Context) {
	if err := h.service.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
