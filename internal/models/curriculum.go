package models

import "time"

// CurriculumItemType tags content for partitioning.
type CurriculumItemType string

const (
	CurriculumLecture    CurriculumItemType = "LECTURE"
	CurriculumReading    CurriculumItemType = "READING"
	CurriculumVideo      CurriculumItemType = "VIDEO"
	CurriculumAssignment CurriculumItemType = "ASSIGNMENT"
)

// CurriculumItem is a single piece of class content.
type CurriculumItem struct {
	ID          string             `db:"id" json:"id"`
	ClassID     string             `db:"class_id" json:"classId"`
	Title       string             `db:"title" json:"title"`
	Type        CurriculumItemType `db:"type" json:"type"`
	ContentURL  *string            `db:"content_url" json:"contentUrl,omitempty"`
	Description string             `db:"description" json:"description"`
	IsPublic    bool               `db:"is_public" json:"isPublic"`
	Position    int                `db:"position" json:"position"`
	CreatedAt   time.Time          `db:"created_at" json:"createdAt"`
}
