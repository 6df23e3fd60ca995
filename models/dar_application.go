package models

import (
	"time"

	"dar-review-api/workflow"
)

// Application is the mutable header of a data access request. State is denormalized from the
// action log for fast reads and only ever changes together with a new Action row.
type Application struct {
	ApplicationID   int            `gorm:"primaryKey;column:application_id" json:"application_id"`
	ReferenceNumber string         `gorm:"column:reference_number;size:36;uniqueIndex" json:"reference_number"`
	OwnerID         int            `gorm:"column:owner_id;index" json:"owner_id"`
	State           workflow.State `gorm:"column:state;size:32;not null;index" json:"state"`
	CreatedAt       time.Time      `gorm:"column:created_at;autoCreateTime:false" json:"created_at"`
	ApprovedAt      *time.Time     `gorm:"column:approved_at" json:"approved_at,omitempty"`
	ExpiresAt       *time.Time     `gorm:"column:expires_at" json:"expires_at,omitempty"`
	UpdatedAt       time.Time      `gorm:"column:updated_at;autoUpdateTime:false" json:"updated_at"`

	Content *ApplicationContent `gorm:"foreignKey:ApplicationID" json:"content,omitempty"`
}

// TableName specifies the table for Application.
func (Application) TableName() string {
	return "dar_applications"
}

// IsTerminal reports whether the review of the application has ended.
func (a Application) IsTerminal() bool {
	return workflow.IsTerminal(a.State)
}

// ApplicationStateUpdate is the set of header columns a transition writes.
type ApplicationStateUpdate struct {
	From       workflow.State
	To         workflow.State
	UpdatedAt  time.Time
	ApprovedAt *time.Time
	ExpiresAt  *time.Time
}
