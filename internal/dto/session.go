package dto

import "github.com/noah-isme/edu-portal-api/internal/models"

// SessionResponse describes the current viewer for navigation.
type SessionResponse struct {
	Authenticated bool             `json:"authenticated"`
	User          *models.UserInfo `json:"user,omitempty"`
	RoleLabel     string           `json:"roleLabel,omitempty"`
	LandingRoute  string           `json:"landingRoute"`
}

// GuardDecision is the outcome of a route guard check.
type GuardDecision struct {
	Path       string `json:"path"`
	Allowed    bool   `json:"allowed"`
	RedirectTo string `json:"redirectTo,omitempty"`
}
