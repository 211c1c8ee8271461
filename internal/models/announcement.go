package models

import "time"

// AnnouncementAudience defines who can see an announcement.
type AnnouncementAudience string

const (
	AnnouncementAudienceAll      AnnouncementAudience = "ALL"
	AnnouncementAudienceStudents AnnouncementAudience = "STUDENTS"
	AnnouncementAudienceParents  AnnouncementAudience = "PARENTS"
	AnnouncementAudienceClass    AnnouncementAudience = "CLASS"
)

// Announcement represents a persisted announcement row.
type Announcement struct {
	ID          string               `db:"id" json:"id"`
	ClassID     *string              `db:"class_id" json:"classId,omitempty"`
	Title       string               `db:"title" json:"title"`
	Content     string               `db:"content" json:"content"`
	Audience    AnnouncementAudience `db:"audience" json:"audience"`
	IsPinned    bool                 `db:"is_pinned" json:"isPinned"`
	PublishedAt time.Time            `db:"published_at" json:"publishedAt"`
	ExpiresAt   *time.Time           `db:"expires_at" json:"expiresAt,omitempty"`
	CreatedBy   string               `db:"created_by" json:"createdBy"`
	CreatedAt   time.Time            `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time            `db:"updated_at" json:"updatedAt"`
}

// AnnouncementFilter allows listing announcements.
type AnnouncementFilter struct {
	Audiences      []AnnouncementAudience
	ClassID        string
	IncludeExpired bool
	Page           int
	PageSize       int
}
