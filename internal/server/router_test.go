package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-portal-api/internal/handler"
	"github.com/noah-isme/edu-portal-api/internal/models"
	"github.com/noah-isme/edu-portal-api/internal/service"
)

type tokenStub struct{}

func (tokenStub) ValidateToken(token string) (*models.JWTClaims, error) {
	switch token {
	case "student":
		return &models.JWTClaims{UserID: "s1", Role: models.RoleStudent}, nil
	case "admin":
		return &models.JWTClaims{UserID: "a1", Role: models.RoleAdmin}, nil
	}
	return nil, errors.New("invalid token")
}

type observerStub struct{ paths []string }

func (o *observerStub) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	o.paths = append(o.paths, path)
}

func newTestRouter(t *testing.T) (*gin.Engine, *observerStub) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	observer := &observerStub{}
	h := Handlers{
		Auth:          handler.NewAuthHandler(nil),
		Session:       handler.NewSessionHandler(service.NewSessionService()),
		Users:         handler.NewUserHandler(nil),
		Classes:       handler.NewClassHandler(nil),
		Events:        handler.NewEventHandler(nil),
		Overview:      handler.NewOverviewHandler(nil),
		Enrollments:   handler.NewEnrollmentHandler(nil),
		Registrations: handler.NewRegistrationHandler(nil),
		Checkout:      handler.NewCheckoutHandler(nil),
		Curriculum:    handler.NewCurriculumHandler(nil),
		Announcements: handler.NewAnnouncementHandler(nil),
		ParentChild:   handler.NewParentChildHandler(nil),
		Mentors:       handler.NewMentorHandler(nil),
		Roster:        handler.NewRosterHandler(nil),
		Configuration: handler.NewConfigurationHandler(nil),
		Metrics:       handler.NewMetricsHandler(nil, nil, nil),
	}
	return New(h, Options{Tokens: tokenStub{}, Observer: observer}), observer
}

func TestRouterRegistersPortalRoutes(t *testing.T) {
	r, _ := newTestRouter(t)

	registered := map[string]bool{}
	for _, route := range r.Routes() {
		registered[route.Method+" "+route.Path] = true
	}
	for _, want := range []string{
		"GET /api/classes/:id/overview",
		"GET /api/classes/:id/curriculum",
		"GET /api/events/:id/overview",
		"GET /api/settings",
		"POST /api/enrollments",
		"POST /api/create-checkout-session",
		"POST /api/payments/notifications",
		"PATCH /api/parent-child",
		"PATCH /api/admin/enrollments/:id",
		"GET /api/admin/classes/:id/roster",
		"PUT /api/admin/settings/:key",
	} {
		assert.True(t, registered[want], want)
	}
}

func TestRouterHealthAndMetricsLabel(t *testing.T) {
	r, observer := newTestRouter(t)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"/health"}, observer.paths)
}

func TestRouterAuthGates(t *testing.T) {
	r, _ := newTestRouter(t)
	cases := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{"anonymous admin", http.MethodGet, "/api/admin/users", "", http.StatusUnauthorized},
		{"student admin", http.MethodGet, "/api/admin/users", "student", http.StatusForbidden},
		{"student enroll", http.MethodPost, "/api/enrollments", "student", http.StatusForbidden},
		{"student checkout", http.MethodPost, "/api/create-checkout-session", "student", http.StatusForbidden},
		{"anonymous mine", http.MethodGet, "/api/user/enrollments", "", http.StatusUnauthorized},
		{"bad token on public route", http.MethodGet, "/api/session", "garbage", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			r.ServeHTTP(w, req)
			require.Equal(t, tc.status, w.Code)
		})
	}
}
