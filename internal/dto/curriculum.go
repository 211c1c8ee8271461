package dto

import "github.com/noah-isme/edu-portal-api/internal/models"

// CurriculumSections groups items by type, each bucket keeping input order.
type CurriculumSections struct {
	Lectures    []models.CurriculumItem `json:"lectures"`
	Readings    []models.CurriculumItem `json:"readings"`
	Videos      []models.CurriculumItem `json:"videos"`
	Assignments []models.CurriculumItem `json:"assignments"`
}

// Len returns the total number of partitioned items.
func (s CurriculumSections) Len() int {
	return len(s.Lectures) + len(s.Readings) + len(s.Videos) + len(s.Assignments)
}

// CurriculumResponse is returned by the curriculum endpoint.
type CurriculumResponse struct {
	Items      []models.CurriculumItem `json:"items"`
	Sections   CurriculumSections      `json:"sections"`
	PublicOnly bool                    `json:"publicOnly"`
}

// UpsertCurriculumItemRequest creates or replaces a curriculum item.
type UpsertCurriculumItemRequest struct {
	Title       string                    `json:"title" validate:"required,max=200"`
	Type        models.CurriculumItemType `json:"type" validate:"required,oneof=LECTURE READING VIDEO ASSIGNMENT"`
	ContentURL  *string                   `json:"contentUrl" validate:"omitempty,url"`
	Description string                    `json:"description"`
	IsPublic    bool                      `json:"isPublic"`
	Position    int                       `json:"position" validate:"min=0"`
}
