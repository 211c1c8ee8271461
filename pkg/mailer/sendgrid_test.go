package mailer

import (
	"context"
	"net/http"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendBuildsRequest(t *testing.T) {
	var captured rest.Request
	m := NewSendGrid("key", "Edu Portal", "no-reply@portal.test").WithSendFunc(func(req rest.Request) (*rest.Response, error) {
		captured = req
		return &rest.Response{StatusCode: http.StatusAccepted}, nil
	})

	err := m.Send(context.Background(), Message{ToName: "Ana", ToEmail: "ana@example.com", Subject: "Enrollment confirmed", Text: "See you in class"})
	require.NoError(t, err)
	assert.Equal(t, rest.Method(http.MethodPost), captured.Method)
	assert.Equal(t, "Bearer key", captured.Headers["Authorization"])
	assert.Contains(t, string(captured.Body), "[Edu Portal] Enrollment confirmed")
	assert.Contains(t, string(captured.Body), "ana@example.com")
}

func TestSendReportsErrorStatus(t *testing.T) {
	m := NewSendGrid("key", "Edu Portal", "no-reply@portal.test").WithSendFunc(func(rest.Request) (*rest.Response, error) {
		return &rest.Response{StatusCode: http.StatusUnauthorized, Body: "bad key"}, nil
	})
	err := m.Send(context.Background(), Message{ToEmail: "ana@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestSendWithoutKey(t *testing.T) {
	m := NewSendGrid("", "Edu Portal", "no-reply@portal.test")
	assert.ErrorIs(t, m.Send(context.Background(), Message{ToEmail: "a@b.c"}), ErrNotConfigured)
}
