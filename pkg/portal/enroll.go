package portal

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
)

// Where successful enrollments land when the server does not say otherwise.
const (
	EnrollmentSuccessPath     = "/dashboard?enrollment=success"
	TestEnrollmentSuccessPath = "/dashboard?enrollment=success&test=true"
)

const codeAlreadyEnrolled = "ALREADY_ENROLLED"

// Outcome is the result of an enroll or register call.
type Outcome struct {
	State           string
	Record          *Enrollment
	RedirectTo      string
	AlreadyEnrolled bool
}

// IsAlreadyEnrolled reports whether err means the viewer already holds a seat.
// Message matching covers servers that predate the ALREADY_ENROLLED code.
func IsAlreadyEnrolled(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.Code == codeAlreadyEnrolled {
		return true
	}
	msg := strings.ToLower(apiErr.Message)
	return strings.Contains(msg, "already enrolled") || strings.Contains(msg, "already registered")
}

// Enroll enrolls in a free class, or records a test registration. Duplicate
// attempts resolve to ENROLLED without an error.
func (c *Client) Enroll(ctx context.Context, req EnrollRequest) (*Outcome, error) {
	var res struct {
		Enrollment *Enrollment `json:"enrollment"`
		RedirectTo string      `json:"redirectTo"`
	}
	err := c.do(ctx, http.MethodPost, "/api/enrollments", req, &res)
	return settleOutcome(err, res.Enrollment, res.RedirectTo, req.IsTestRegistration)
}

// Register registers for an event with the same duplicate handling as Enroll.
func (c *Client) Register(ctx context.Context, eventID string, req RegisterRequest) (*Outcome, error) {
	var res struct {
		Registration *Enrollment `json:"registration"`
		RedirectTo   string      `json:"redirectTo"`
	}
	err := c.do(ctx, http.MethodPost, "/api/events/"+url.PathEscape(eventID)+"/registrations", req, &res)
	return settleOutcome(err, res.Registration, res.RedirectTo, req.IsTestRegistration)
}

// Leave cancels an enrollment.
func (c *Client) Leave(ctx context.Context, enrollmentID string) (*Enrollment, error) {
	var res Enrollment
	if err := c.do(ctx, http.MethodPost, "/api/enrollments/"+url.PathEscape(enrollmentID)+"/leave", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ClassEnrollmentState fetches the viewer's derived state for a class.
func (c *Client) ClassEnrollmentState(ctx context.Context, classID, callbackURL string) (*EnrollmentView, error) {
	path := "/api/classes/" + url.PathEscape(classID) + "/enrollment-state"
	if callbackURL != "" {
		path += "?callbackUrl=" + url.QueryEscape(callbackURL)
	}
	var view EnrollmentView
	if err := c.do(ctx, http.MethodGet, path, nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func settleOutcome(err error, record *Enrollment, redirect string, test bool) (*Outcome, error) {
	if err != nil {
		if IsAlreadyEnrolled(err) {
			return &Outcome{State: StateEnrolled, AlreadyEnrolled: true}, nil
		}
		return nil, err
	}
	out := &Outcome{State: StateEnrolled, Record: record, RedirectTo: redirect}
	if record != nil {
		switch record.Status {
		case StatePending:
			out.State = StatePending
		case StateWaitlisted:
			// No seat yet: the viewer stays where they are.
			out.State = StateWaitlisted
			out.RedirectTo = ""
			return out, nil
		}
	}
	if out.RedirectTo == "" {
		out.RedirectTo = EnrollmentSuccessPath
		if test {
			out.RedirectTo = TestEnrollmentSuccessPath
		}
	}
	return out, nil
}
