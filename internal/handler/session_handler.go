package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-portal-api/internal/dto"
	"github.com/noah-isme/edu-portal-api/internal/models"
	"github.com/noah-isme/edu-portal-api/pkg/response"
)

type sessionService interface {
	Describe(claims *models.JWTClaims) dto.SessionResponse
	GuardRoute(claims *models.JWTClaims, path string) dto.GuardDecision
}

// SessionHandler answers navigation questions for the current viewer.
type SessionHandler struct {
	service sessionService
}

// NewSessionHandler constructs a session handler.
func NewSessionHandler(svc sessionService) *SessionHandler {
	return &SessionHandler{service: svc}
}

// Session godoc
// @Summary Describe the current session
// @Tags Session
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /session [get]
func (h *SessionHandler) Session(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Describe(claimsFromContext(c)), nil)
}

// Guard godoc
// @Summary Check whether the viewer may open a client route
// @Tags Session
// @Produce json
// @Param path query string true "Client route"
// @Success 200 {object} response.Envelope
// @Router /navigation/guard [get]
func (h *SessionHandler) Guard(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.GuardRoute(claimsFromContext(c), c.Query("path")), nil)
}
