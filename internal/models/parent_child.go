package models

import "time"

// RelationshipStatus tracks review of a parent-child link.
type RelationshipStatus string

const (
	RelationshipPending  RelationshipStatus = "PENDING"
	RelationshipApproved RelationshipStatus = "APPROVED"
	RelationshipRejected RelationshipStatus = "REJECTED"
)

// ParentChildRelationship gates whether a parent may act on a child's enrollments.
type ParentChildRelationship struct {
	ID        string             `db:"id" json:"id"`
	ParentID  string             `db:"parent_id" json:"parentId"`
	ChildID   string             `db:"child_id" json:"childId"`
	Status    RelationshipStatus `db:"status" json:"status"`
	CreatedAt time.Time          `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `db:"updated_at" json:"updatedAt"`
}

// ParentChildDetail adds names and emails of both sides.
type ParentChildDetail struct {
	ParentChildRelationship
	ParentName  string `db:"parent_name" json:"parentName"`
	ParentEmail string `db:"parent_email" json:"parentEmail"`
	ChildName   string `db:"child_name" json:"childName"`
	ChildEmail  string `db:"child_email" json:"childEmail"`
}
