package service

import (
	"path"
	"strings"

	"github.com/noah-isme/edu-portal-api/internal/dto"
	"github.com/noah-isme/edu-portal-api/internal/models"
)

// publicPrefixes are reachable without a session.
var publicPrefixes = []string{
	"/login",
	"/register",
	"/classes",
	"/events",
	"/mentors",
	"/about",
}

// SessionService resolves the viewer's role to navigation targets and guards routes.
type SessionService struct{}

// NewSessionService constructs the service.
func NewSessionService() *SessionService {
	return &SessionService{}
}

// Describe returns the session view for the given claims; nil claims describe an anonymous visitor.
func (s *SessionService) Describe(claims *models.JWTClaims) dto.SessionResponse {
	if claims == nil {
		return dto.SessionResponse{Authenticated: false, LandingRoute: loginPath}
	}
	return dto.SessionResponse{
		Authenticated: true,
		User: &models.UserInfo{
			ID:       claims.UserID,
			Email:    claims.Email,
			FullName: claims.FullName,
			Role:     claims.Role,
		},
		RoleLabel:    claims.Role.Label(),
		LandingRoute: models.LandingRouteFor(string(claims.Role)),
	}
}

// GuardRoute decides whether the viewer may open a front-end path.
func (s *SessionService) GuardRoute(claims *models.JWTClaims, rawPath string) dto.GuardDecision {
	p := cleanPath(rawPath)
	decision := dto.GuardDecision{Path: p, Allowed: true}

	if claims == nil {
		if isPublicPath(p) {
			return decision
		}
		decision.Allowed = false
		decision.RedirectTo = signInHref(p)
		return decision
	}

	if hasSegmentPrefix(p, "/admin") && !claims.Role.IsAdmin() {
		decision.Allowed = false
		decision.RedirectTo = "/"
		return decision
	}

	if p == models.DefaultLandingRoute {
		landing := models.LandingRouteFor(string(claims.Role))
		if landing != p {
			decision.Allowed = false
			decision.RedirectTo = landing
		}
	}
	return decision
}

func cleanPath(raw string) string {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}
	if raw == "" {
		return "/"
	}
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	return path.Clean(raw)
}

func isPublicPath(p string) bool {
	if p == "/" {
		return true
	}
	for _, prefix := range publicPrefixes {
		if hasSegmentPrefix(p, prefix) {
			return true
		}
	}
	return false
}

// hasSegmentPrefix matches prefix as whole path segments so "/administrator" is not "/admin".
func hasSegmentPrefix(p, prefix string) bool {
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}
