// Package midtrans wraps the Midtrans Snap hosted checkout used for paid
// enrollments and registrations.
package midtrans

import (
	"context"
	"errors"
	"fmt"
	"strings"

	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
)

// ErrNotConfigured is returned when no server key is configured.
var ErrNotConfigured = errors.New("midtrans server key not configured")

// SnapCreator is the subset of snap.Client used by the gateway.
type SnapCreator interface {
	CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error)
}

// Customer identifies the payer shown on the hosted checkout page.
type Customer struct {
	FirstName string
	LastName  string
	Email     string
}

// CheckoutRequest describes a single-line checkout.
type CheckoutRequest struct {
	OrderID   string
	ItemID    string
	ItemName  string
	Category  string
	UnitPrice int64
	Quantity  int32
	Customer  Customer
}

// GrossAmount is UnitPrice times Quantity.
func (r CheckoutRequest) GrossAmount() int64 {
	return r.UnitPrice * int64(r.Quantity)
}

// Session is the hosted checkout handle returned to the browser.
type Session struct {
	Token       string
	RedirectURL string
}

// Gateway creates Snap checkout sessions.
type Gateway struct {
	snap      SnapCreator
	serverKey string
	finishURL string
}

// NewGateway builds a gateway against the sandbox or production environment.
func NewGateway(serverKey string, production bool, finishURL string) *Gateway {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}
	client := &snap.Client{}
	client.New(serverKey, env)
	return &Gateway{snap: client, serverKey: serverKey, finishURL: finishURL}
}

// NewGatewayWithClient allows injecting a custom Snap client.
func NewGatewayWithClient(client SnapCreator, serverKey, finishURL string) *Gateway {
	return &Gateway{snap: client, serverKey: serverKey, finishURL: finishURL}
}

// ServerKey returns the key used to verify notifications.
func (g *Gateway) ServerKey() string {
	return g.serverKey
}

// CreateSession registers the transaction with Midtrans and returns the hosted page handle.
func (g *Gateway) CreateSession(ctx context.Context, req CheckoutRequest) (*Session, error) {
	if g.serverKey == "" {
		return nil, ErrNotConfigured
	}
	if req.OrderID == "" {
		return nil, errors.New("order id is required")
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}
	if req.UnitPrice <= 0 {
		return nil, fmt.Errorf("invalid unit price %d", req.UnitPrice)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snapReq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.OrderID,
			GrossAmt: req.GrossAmount(),
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: req.Customer.FirstName,
			LName: req.Customer.LastName,
			Email: req.Customer.Email,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:       fallback(req.ItemID, req.OrderID),
				Name:     truncate(fallback(req.ItemName, "Enrollment"), 50),
				Price:    req.UnitPrice,
				Qty:      req.Quantity,
				Category: req.Category,
			},
		},
		CustomField1: truncate(req.ItemID, 40),
	}
	if g.finishURL != "" {
		snapReq.Callbacks = &snap.Callbacks{Finish: g.finishURL}
	}

	resp, mErr := g.snap.CreateTransaction(snapReq)
	if mErr != nil {
		return nil, fmt.Errorf("create snap transaction: %s", mErr.Message)
	}
	if resp == nil {
		return nil, errors.New("create snap transaction: empty response")
	}
	return &Session{Token: resp.Token, RedirectURL: strings.TrimSpace(resp.RedirectURL)}, nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}

func fallback(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
