package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-portal-api/internal/dto"
	"github.com/noah-isme/edu-portal-api/internal/models"
	appErrors "github.com/noah-isme/edu-portal-api/pkg/errors"
	"github.com/noah-isme/edu-portal-api/pkg/payment/midtrans"
)

type checkoutServiceMock struct {
	lastReq          dto.CheckoutRequest
	lastNotification midtrans.Notification
	err              error
}

func (m *checkoutServiceMock) CreateSession(ctx context.Context, actor *models.JWTClaims, req dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &dto.CheckoutResponse{URL: "https://app.sandbox.midtrans.com/snap/v2/vtweb/tok", SessionID: "tok"}, nil
}

func (m *checkoutServiceMock) HandleNotification(ctx context.Context, n midtrans.Notification) (*dto.NotificationAck, error) {
	m.lastNotification = n
	if m.err != nil {
		return nil, m.err
	}
	return &dto.NotificationAck{Status: dto.NotificationApplied, OrderID: n.OrderID}, nil
}

func TestCheckoutHandlerCreateSession(t *testing.T) {
	svc := &checkoutServiceMock{}
	c, w := newTestContext(http.MethodPost, "/api/create-checkout-session", map[string]string{"classId": "c1"}, parentClaims)

	NewCheckoutHandler(svc).CreateSession(c)

	require.Equal(t, http.StatusOK, w.Code)
	var res dto.CheckoutResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &res))
	assert.Equal(t, "tok", res.SessionID)
	assert.Equal(t, "c1", svc.lastReq.ClassID)
}

func TestCheckoutHandlerSurfacesGatewayErrors(t *testing.T) {
	svc := &checkoutServiceMock{err: appErrors.ErrInvalidCheckoutURL}
	c, w := newTestContext(http.MethodPost, "/api/create-checkout-session", map[string]string{"classId": "c1"}, parentClaims)

	NewCheckoutHandler(svc).CreateSession(c)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, "Invalid checkout URL received", env.Error.Message)
}

func TestCheckoutHandlerNotificationRequiresSignedFields(t *testing.T) {
	c, w := newTestContext(http.MethodPost, "/api/payments/notifications", map[string]string{"order_id": "enr-1"}, nil)

	NewCheckoutHandler(&checkoutServiceMock{}).Notification(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckoutHandlerNotification(t *testing.T) {
	svc := &checkoutServiceMock{}
	payload := map[string]string{
		"order_id":           "enr-1",
		"status_code":        "200",
		"gross_amount":       "100.00",
		"signature_key":      "abc",
		"transaction_status": "settlement",
	}
	c, w := newTestContext(http.MethodPost, "/api/payments/notifications", payload, nil)

	NewCheckoutHandler(svc).Notification(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "settlement", svc.lastNotification.TransactionStatus)
	var ack dto.NotificationAck
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &ack))
	assert.Equal(t, dto.NotificationApplied, ack.Status)
}
