package midtrans

import (
	"context"
	"testing"

	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type snapStub struct {
	req  *snap.Request
	resp *snap.Response
	err  *midtrans.Error
}

func (s *snapStub) CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error) {
	s.req = req
	return s.resp, s.err
}

func TestCreateSessionBuildsRequest(t *testing.T) {
	stub := &snapStub{resp: &snap.Response{Token: "tok", RedirectURL: " https://app.sandbox.midtrans.com/snap/v2/vtweb/tok "}}
	gw := NewGatewayWithClient(stub, "server-key", "https://portal.test/dashboard")

	session, err := gw.CreateSession(context.Background(), CheckoutRequest{
		OrderID:   "ord-1",
		ItemID:    "class-1",
		ItemName:  "Robotics",
		UnitPrice: 150,
		Quantity:  2,
		Customer:  Customer{FirstName: "Ana", Email: "ana@example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, "tok", session.Token)
	assert.Equal(t, "https://app.sandbox.midtrans.com/snap/v2/vtweb/tok", session.RedirectURL)
	assert.Equal(t, int64(300), stub.req.TransactionDetails.GrossAmt)
	assert.Equal(t, "ord-1", stub.req.TransactionDetails.OrderID)
	require.NotNil(t, stub.req.Callbacks)
	assert.Equal(t, "https://portal.test/dashboard", stub.req.Callbacks.Finish)
	items := *stub.req.Items
	require.Len(t, items, 1)
	assert.Equal(t, int32(2), items[0].Qty)
}

func TestCreateSessionPropagatesProviderError(t *testing.T) {
	stub := &snapStub{err: &midtrans.Error{Message: "unauthorized", StatusCode: 401}}
	gw := NewGatewayWithClient(stub, "server-key", "")

	_, err := gw.CreateSession(context.Background(), CheckoutRequest{OrderID: "o", UnitPrice: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unauthorized")
}

func TestCreateSessionRequiresKey(t *testing.T) {
	gw := NewGatewayWithClient(&snapStub{}, "", "")
	_, err := gw.CreateSession(context.Background(), CheckoutRequest{OrderID: "o", UnitPrice: 10})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestVerifySignature(t *testing.T) {
	n := Notification{OrderID: "ord-1", StatusCode: "200", GrossAmount: "300.00"}
	n.SignatureKey = Signature(n.OrderID, n.StatusCode, n.GrossAmount, "secret")

	assert.True(t, VerifySignature("secret", n))
	assert.False(t, VerifySignature("other", n))

	n.GrossAmount = "1.00"
	assert.False(t, VerifySignature("secret", n))
}

func TestNotificationOutcome(t *testing.T) {
	cases := map[string]struct {
		status string
		fraud  string
		want   Outcome
	}{
		"capture accept":    {"capture", "accept", OutcomePaid},
		"capture challenge": {"capture", "challenge", OutcomePending},
		"capture deny":      {"capture", "deny", OutcomeFailed},
		"settlement":        {"settlement", "", OutcomePaid},
		"pending":           {"pending", "", OutcomePending},
		"deny":              {"deny", "", OutcomeFailed},
		"cancel":            {"cancel", "", OutcomeFailed},
		"failure":           {"failure", "", OutcomeFailed},
		"expire":            {"expire", "", OutcomeExpired},
		"refund":            {"refund", "", OutcomeRefunded},
		"partial refund":    {"partial_refund", "", OutcomePartialRefund},
		"unknown":           {"authorize", "", OutcomeUnknown},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			n := Notification{TransactionStatus: tc.status, FraudStatus: tc.fraud}
			assert.Equal(t, tc.want, n.Outcome())
		})
	}
}
