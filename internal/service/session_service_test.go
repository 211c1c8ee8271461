package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/edu-portal-api/internal/models"
)

func TestLandingRouteIsTotal(t *testing.T) {
	expected := map[string]string{
		"STUDENT":    "/student/dashboard",
		"PARENT":     "/parent/dashboard",
		"INSTRUCTOR": "/instructor/dashboard",
		"MENTOR":     "/mentor/dashboard",
		"ADMIN":      "/admin",
		"T1_ADMIN":   "/admin",
		"T2_ADMIN":   "/admin",
		"GUEST":      "/dashboard",
		"parent":     "/parent/dashboard",
		"":           "/dashboard",
		"SUPERHERO":  "/dashboard",
	}
	for raw, route := range expected {
		assert.Equal(t, route, models.LandingRouteFor(raw), "role %q", raw)
	}
	for _, role := range models.AllRoles {
		assert.NotEmpty(t, role.LandingRoute())
		assert.NotEqual(t, "User", role.Label())
	}
}

func TestSessionServiceDescribe(t *testing.T) {
	svc := NewSessionService()

	anon := svc.Describe(nil)
	assert.False(t, anon.Authenticated)
	assert.Nil(t, anon.User)

	session := svc.Describe(&models.JWTClaims{UserID: "u1", Email: "p@example.com", FullName: "Pat", Role: models.RoleParent})
	assert.True(t, session.Authenticated)
	assert.Equal(t, "/parent/dashboard", session.LandingRoute)
	assert.Equal(t, "Parent", session.RoleLabel)
	assert.Equal(t, "u1", session.User.ID)
}

func TestSessionServiceGuardRoute(t *testing.T) {
	svc := NewSessionService()
	parent := &models.JWTClaims{UserID: "p", Role: models.RoleParent}
	admin := &models.JWTClaims{UserID: "a", Role: models.RoleT2Admin}

	cases := []struct {
		name     string
		claims   *models.JWTClaims
		path     string
		allowed  bool
		redirect string
	}{
		{"public page", nil, "/classes/c1", true, ""},
		{"protected anonymous", nil, "/parent/dashboard", false, "/login?callbackUrl=%2Fparent%2Fdashboard"},
		{"admin path for parent", parent, "/admin/users", false, "/"},
		{"admin root for parent", parent, "/admin", false, "/"},
		{"administrator is not admin", parent, "/administrator", true, ""},
		{"admin path for admin", admin, "/admin/settings", true, ""},
		{"dashboard redirects", parent, "/dashboard", false, "/parent/dashboard"},
		{"dashboard query ignored", parent, "/dashboard?x=1", false, "/parent/dashboard"},
		{"landing allowed", parent, "/parent/dashboard", true, ""},
		{"guest dashboard stays", &models.JWTClaims{Role: models.RoleGuest}, "/dashboard", true, ""},
		{"traversal cleaned", parent, "/classes/../admin", false, "/"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision := svc.GuardRoute(tc.claims, tc.path)
			assert.Equal(t, tc.allowed, decision.Allowed)
			assert.Equal(t, tc.redirect, decision.RedirectTo)
		})
	}
}

func TestSessionServiceGuardIsIdempotent(t *testing.T) {
	svc := NewSessionService()
	claims := &models.JWTClaims{Role: models.RoleInstructor}
	first := svc.GuardRoute(claims, "/dashboard")
	second := svc.GuardRoute(claims, first.RedirectTo)
	assert.True(t, second.Allowed)
	assert.Empty(t, second.RedirectTo)
}
