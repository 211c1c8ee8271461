package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-portal-api/internal/dto"
	"github.com/noah-isme/edu-portal-api/internal/models"
	"github.com/noah-isme/edu-portal-api/pkg/payment/midtrans"
	"github.com/noah-isme/edu-portal-api/pkg/response"
)

type checkoutService interface {
	CreateSession(ctx context.Context, actor *models.JWTClaims, req dto.CheckoutRequest) (*dto.CheckoutResponse, error)
	HandleNotification(ctx context.Context, n midtrans.Notification) (*dto.NotificationAck, error)
}

// CheckoutHandler starts hosted checkouts and receives the provider's notifications.
type CheckoutHandler struct {
	service checkoutService
}

// NewCheckoutHandler constructs a checkout handler.
func NewCheckoutHandler(svc checkoutService) *CheckoutHandler {
	return &CheckoutHandler{service: svc}
}

// CreateSession godoc
// @Summary Create a checkout session for a paid class or event
// @Tags Checkout
// @Accept json
// @Produce json
// @Param payload body dto.CheckoutRequest true "Checkout payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /create-checkout-session [post]
func (h *CheckoutHandler) CreateSession(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.CheckoutRequest
	if !bindJSON(c, &req, "invalid checkout payload") {
		return
	}
	res, err := h.service.CreateSession(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Notification godoc
// @Summary Payment provider notification webhook
// @Description Signed with SHA512(order_id+status_code+gross_amount+server_key). Unknown orders are acknowledged and ignored.
// @Tags Checkout
// @Accept json
// @Produce json
// @Param payload body midtrans.Notification true "Notification"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /payments/notifications [post]
func (h *CheckoutHandler) Notification(c *gin.Context) {
	var n midtrans.Notification
	if !bindJSON(c, &n, "invalid notification payload") {
		return
	}
	ack, err := h.service.HandleNotification(c.Request.Context(), n)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ack, nil)
}
