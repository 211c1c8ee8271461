package portal

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// Checkout failure messages shown to the viewer.
const (
	NoCheckoutURLMessage      = "No checkout URL returned"
	InvalidCheckoutURLMessage = "Invalid checkout URL received"
)

// ErrActionUnavailable is returned by Perform for a missing or disabled action.
var ErrActionUnavailable = errors.New("portal: action not available")

// SessionRedirector turns a provider session id into a redirect URL, for
// providers that answer with a session instead of a hosted page.
type SessionRedirector interface {
	RedirectURL(ctx context.Context, sessionID string) (string, error)
}

// WithSessionRedirector sets the handler for session-only checkout responses.
func WithSessionRedirector(r SessionRedirector) Option {
	return func(c *Client) { c.sessions = r }
}

// CheckoutURLAllowed accepts absolute http(s) URLs and same-origin paths.
func CheckoutURLAllowed(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") || strings.HasPrefix(u, "/")
}

// StartCheckout creates a checkout session and returns where to send the
// viewer. Nothing is retried.
func (c *Client) StartCheckout(ctx context.Context, req CheckoutRequest) (string, error) {
	var res struct {
		URL       string `json:"url"`
		SessionID string `json:"sessionId"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/create-checkout-session", req, &res); err != nil {
		return "", err
	}

	switch {
	case res.URL != "":
		if !CheckoutURLAllowed(res.URL) {
			return "", &APIError{Status: http.StatusOK, Code: "INVALID_CHECKOUT_URL", Message: InvalidCheckoutURLMessage}
		}
		return res.URL, nil
	case res.SessionID != "" && c.sessions != nil:
		target, err := c.sessions.RedirectURL(ctx, res.SessionID)
		if err != nil {
			return "", &APIError{Message: GenericErrorMessage, Err: err}
		}
		return target, nil
	default:
		return "", &APIError{Status: http.StatusOK, Code: "NO_CHECKOUT_URL", Message: NoCheckoutURLMessage}
	}
}

// PerformOptions carries caller input that the view cannot supply.
type PerformOptions struct {
	StudentID        *string
	Quantity         int
	RegistrationType string
}

// Perform carries out an action from a derived view and returns the location
// to navigate to. An empty location means stay on the page and refetch.
func (c *Client) Perform(ctx context.Context, view EnrollmentView, kind string, opts PerformOptions) (string, error) {
	action, ok := view.Action(kind)
	if !ok || !action.Enabled {
		return "", ErrActionUnavailable
	}

	switch action.Method {
	case MethodNavigate:
		return action.Href, nil
	case MethodCheckout:
		req := CheckoutRequest{StudentID: opts.StudentID, Quantity: opts.Quantity, RegistrationType: opts.RegistrationType}
		if view.OfferingKind == OfferingEvent {
			req.EventID = view.OfferingID
		} else {
			req.ClassID = view.OfferingID
		}
		return c.StartCheckout(ctx, req)
	case MethodPost:
		return c.post(ctx, view, action, opts)
	default:
		return "", ErrActionUnavailable
	}
}

func (c *Client) post(ctx context.Context, view EnrollmentView, action Action, opts PerformOptions) (string, error) {
	test := action.Kind == ActionTestRegister
	switch action.Kind {
	case ActionLeaveClass:
		return "", c.do(ctx, http.MethodPost, action.Href, nil, nil)
	case ActionEnroll, ActionTestRegister:
		var (
			out *Outcome
			err error
		)
		if view.OfferingKind == OfferingEvent {
			out, err = c.Register(ctx, view.OfferingID, RegisterRequest{
				Quantity:           opts.Quantity,
				RegistrationType:   opts.RegistrationType,
				IsTestRegistration: test,
			})
		} else {
			out, err = c.Enroll(ctx, EnrollRequest{ClassID: view.OfferingID, StudentID: opts.StudentID, IsTestRegistration: test})
		}
		if err != nil {
			return "", err
		}
		if out.AlreadyEnrolled {
			return "", nil
		}
		return out.RedirectTo, nil
	default:
		return "", ErrActionUnavailable
	}
}
