package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-portal-api/internal/dto"
	"github.com/noah-isme/edu-portal-api/internal/service"
)

func TestSessionHandlerAnonymous(t *testing.T) {
	c, w := newTestContext(http.MethodGet, "/api/session", nil, nil)

	NewSessionHandler(service.NewSessionService()).Session(c)

	require.Equal(t, http.StatusOK, w.Code)
	var res dto.SessionResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &res))
	assert.False(t, res.Authenticated)
	assert.Nil(t, res.User)
}

func TestSessionHandlerGuardRedirectsAnonymousFromDashboard(t *testing.T) {
	c, w := newTestContext(http.MethodGet, "/api/navigation/guard?path=/dashboard", nil, nil)

	NewSessionHandler(service.NewSessionService()).Guard(c)

	require.Equal(t, http.StatusOK, w.Code)
	var res dto.GuardDecision
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &res))
	assert.False(t, res.Allowed)
	assert.NotEmpty(t, res.RedirectTo)
}

func TestSessionHandlerGuardSendsParentToLanding(t *testing.T) {
	c, w := newTestContext(http.MethodGet, "/api/navigation/guard?path=/dashboard", nil, parentClaims)

	NewSessionHandler(service.NewSessionService()).Guard(c)

	var res dto.GuardDecision
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &res))
	assert.False(t, res.Allowed)
	assert.Equal(t, "/parent/dashboard", res.RedirectTo)
}

func TestSessionHandlerGuardBlocksAdminAreaForStudents(t *testing.T) {
	c, w := newTestContext(http.MethodGet, "/api/navigation/guard?path=/admin/users", nil, studentClaims)

	NewSessionHandler(service.NewSessionService()).Guard(c)

	var res dto.GuardDecision
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &res))
	assert.False(t, res.Allowed)
	assert.Equal(t, "/", res.RedirectTo)
}
