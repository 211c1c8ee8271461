package models

import (
	"time"

	"github.com/lib/pq"
)

// MentorProfile is the public profile of a mentor account.
type MentorProfile struct {
	ID        string         `db:"id" json:"id"`
	UserID    string         `db:"user_id" json:"userId"`
	Headline  string         `db:"headline" json:"headline"`
	Bio       string         `db:"bio" json:"bio"`
	Expertise pq.StringArray `db:"expertise" json:"expertise"`
	IsActive  bool           `db:"is_active" json:"isActive"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time      `db:"updated_at" json:"updatedAt"`
}

// MentorDetail joins the profile with the owning user.
type MentorDetail struct {
	MentorProfile
	FullName string `db:"full_name" json:"fullName"`
	Email    string `db:"email" json:"email"`
}
