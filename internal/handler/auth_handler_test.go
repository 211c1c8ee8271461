package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-portal-api/internal/models"
	appErrors "github.com/noah-isme/edu-portal-api/pkg/errors"
)

type authServiceMock struct {
	lastLogin    models.LoginRequest
	lastRegister models.RegisterRequest
	loggedOut    string
	err          error
}

func (m *authServiceMock) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	m.lastLogin = req
	if m.err != nil {
		return nil, m.err
	}
	return &models.LoginResponse{AccessToken: "access", RefreshToken: "refresh", User: models.UserInfo{Email: req.Email}}, nil
}

func (m *authServiceMock) Register(ctx context.Context, req models.RegisterRequest) (*models.LoginResponse, error) {
	m.lastRegister = req
	if m.err != nil {
		return nil, m.err
	}
	return &models.LoginResponse{AccessToken: "access", User: models.UserInfo{Email: req.Email, Role: req.Role}}, nil
}

func (m *authServiceMock) RefreshToken(ctx context.Context, req models.RefreshTokenRequest) (*models.RefreshTokenResponse, error) {
	return &models.RefreshTokenResponse{AccessToken: "next"}, m.err
}

func (m *authServiceMock) Logout(ctx context.Context, refreshToken string, userID string, meta models.LoginRequest) error {
	m.loggedOut = userID + ":" + refreshToken
	return m.err
}

func (m *authServiceMock) ChangePassword(ctx context.Context, userID string, req models.ChangePasswordRequest) error {
	return m.err
}

func TestAuthHandlerLoginForwardsClientMeta(t *testing.T) {
	svc := &authServiceMock{}
	c, w := newTestContext(http.MethodPost, "/api/auth/login", map[string]string{"email": "a@example.com", "password": "secret123"}, nil)
	c.Request.Header.Set("User-Agent", "portal-test")

	NewAuthHandler(svc).Login(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a@example.com", svc.lastLogin.Email)
	assert.Equal(t, "portal-test", svc.lastLogin.UserAgent)
}

func TestAuthHandlerLoginPropagatesUnauthorized(t *testing.T) {
	svc := &authServiceMock{err: appErrors.ErrUnauthorized}
	c, w := newTestContext(http.MethodPost, "/api/auth/login", map[string]string{"email": "a@example.com", "password": "wrong-pass"}, nil)

	NewAuthHandler(svc).Login(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
}

func TestAuthHandlerRegisterReturnsCreated(t *testing.T) {
	svc := &authServiceMock{}
	payload := map[string]string{"email": "new@example.com", "password": "secret123", "fullName": "New Parent", "role": "PARENT"}
	c, w := newTestContext(http.MethodPost, "/api/auth/register", payload, nil)

	NewAuthHandler(svc).Register(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, models.RoleParent, svc.lastRegister.Role)
	assert.Equal(t, "New Parent", svc.lastRegister.FullName)
}

func TestAuthHandlerLogoutRequiresSession(t *testing.T) {
	c, w := newTestContext(http.MethodPost, "/api/auth/logout", map[string]string{"refresh_token": "r"}, nil)

	NewAuthHandler(&authServiceMock{}).Logout(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandlerLogout(t *testing.T) {
	svc := &authServiceMock{}
	c, w := newTestContext(http.MethodPost, "/api/auth/logout", map[string]string{"refresh_token": "r-1"}, parentClaims)

	NewAuthHandler(svc).Logout(c)
	// Flush the pending status as gin's engine does after the handler chain.
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "parent-1:r-1", svc.loggedOut)
}

func TestAuthHandlerMe(t *testing.T) {
	c, w := newTestContext(http.MethodGet, "/api/auth/me", nil, studentClaims)

	NewAuthHandler(&authServiceMock{}).Me(c)

	require.Equal(t, http.StatusOK, w.Code)
	var info models.UserInfo
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &info))
	assert.Equal(t, models.RoleStudent, info.Role)
	assert.Equal(t, "student-1", info.ID)
}
