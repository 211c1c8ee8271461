package models

import (
	"strings"
	"time"
)

// UserRole represents the closed set of portal roles.
type UserRole string

const (
	RoleStudent    UserRole = "STUDENT"
	RoleParent     UserRole = "PARENT"
	RoleMentor     UserRole = "MENTOR"
	RoleInstructor UserRole = "INSTRUCTOR"
	RoleAdmin      UserRole = "ADMIN"
	RoleT1Admin    UserRole = "T1_ADMIN"
	RoleT2Admin    UserRole = "T2_ADMIN"
	RoleGuest      UserRole = "GUEST"
)

// AllRoles lists every role in display order.
var AllRoles = []UserRole{
	RoleStudent,
	RoleParent,
	RoleMentor,
	RoleInstructor,
	RoleAdmin,
	RoleT1Admin,
	RoleT2Admin,
	RoleGuest,
}

// DefaultLandingRoute is used for unknown roles; the dashboard page redirects again once the role is known.
const DefaultLandingRoute = "/dashboard"

// ParseRole normalises a raw role string. The boolean is false for unknown roles.
func ParseRole(raw string) (UserRole, bool) {
	role := UserRole(strings.ToUpper(strings.TrimSpace(raw)))
	return role, role.Valid()
}

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleStudent, RoleParent, RoleMentor, RoleInstructor, RoleAdmin, RoleT1Admin, RoleT2Admin, RoleGuest:
		return true
	}
	return false
}

// IsAdmin reports whether r belongs to one of the admin tiers.
func (r UserRole) IsAdmin() bool {
	switch r {
	case RoleAdmin, RoleT1Admin, RoleT2Admin:
		return true
	case RoleStudent, RoleParent, RoleMentor, RoleInstructor, RoleGuest:
		return false
	}
	return false
}

// LandingRoute returns the role-specific home path.
func (r UserRole) LandingRoute() string {
	switch r {
	case RoleStudent:
		return "/student/dashboard"
	case RoleParent:
		return "/parent/dashboard"
	case RoleInstructor:
		return "/instructor/dashboard"
	case RoleMentor:
		return "/mentor/dashboard"
	case RoleAdmin, RoleT1Admin, RoleT2Admin:
		return "/admin"
	case RoleGuest:
		return DefaultLandingRoute
	}
	return DefaultLandingRoute
}

// Label returns the human readable role name.
func (r UserRole) Label() string {
	switch r {
	case RoleStudent:
		return "Student"
	case RoleParent:
		return "Parent"
	case RoleMentor:
		return "Mentor"
	case RoleInstructor:
		return "Instructor"
	case RoleAdmin:
		return "Administrator"
	case RoleT1Admin:
		return "Tier 1 Admin"
	case RoleT2Admin:
		return "Tier 2 Admin"
	case RoleGuest:
		return "Guest"
	}
	return "User"
}

// LandingRouteFor maps any raw role string, known or not, to a landing route.
func LandingRouteFor(raw string) string {
	role, ok := ParseRole(raw)
	if !ok {
		return DefaultLandingRoute
	}
	return role.LandingRoute()
}

// User represents an application user stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"fullName"`
	Role         UserRole   `db:"role" json:"role"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
