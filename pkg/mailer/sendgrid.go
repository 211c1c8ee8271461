// Package mailer delivers transactional email through SendGrid.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

var (
	host     = "https://api.sendgrid.com"
	endpoint = "/v3/mail/send"
)

// ErrNotConfigured is returned by Send when no API key is set.
var ErrNotConfigured = errors.New("sendgrid api key not configured")

// Message is a single outbound email.
type Message struct {
	ToName  string
	ToEmail string
	Subject string
	Text    string
	HTML    string
}

// SendFunc performs the HTTP call; replaced in tests.
type SendFunc func(req rest.Request) (*rest.Response, error)

// SendGrid sends messages via the v3 mail API.
type SendGrid struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
	send       SendFunc
}

// NewSendGrid builds a mailer sending from fromName <fromAddress>.
func NewSendGrid(key, fromName, fromAddress string) *SendGrid {
	return &SendGrid{
		key:        key,
		from:       sgmail.NewEmail(fromName, fromAddress),
		subjPrefix: "[" + fromName + "] ",
		send:       sendgrid.API,
	}
}

// WithSendFunc overrides the transport.
func (s *SendGrid) WithSendFunc(fn SendFunc) *SendGrid {
	s.send = fn
	return s
}

// Enabled reports whether an API key is present.
func (s *SendGrid) Enabled() bool {
	return s.key != ""
}

// Build renders the SendGrid v3 payload for msg.
func (s *SendGrid) Build(msg Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = s.subjPrefix + msg.Subject
	p.AddTos(sgmail.NewEmail(msg.ToName, msg.ToEmail))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", msg.Text))
	if msg.HTML != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTML))
	}
	return m
}

// Send delivers msg and returns an error on transport failure or a 4xx/5xx status.
func (s *SendGrid) Send(ctx context.Context, msg Message) error {
	if !s.Enabled() {
		return ErrNotConfigured
	}
	if msg.ToEmail == "" {
		return errors.New("recipient email is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	req := sendgrid.GetRequest(s.key, endpoint, host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(s.Build(msg))

	res, err := s.send(req)
	if err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid returned status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}
