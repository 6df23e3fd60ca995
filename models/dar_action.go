package models

import (
	"time"

	"dar-review-api/workflow"
)

// Action is one row of the append-only lifecycle ledger: who moved the application, from
// which state to which, and which revision request (if any) motivated it.
type Action struct {
	ActionID          int            `gorm:"primaryKey;column:action_id" json:"action_id"`
	ApplicationID     int            `gorm:"column:application_id;not null;index:idx_dar_actions_app_created,priority:1" json:"application_id"`
	ActorID           int            `gorm:"column:actor_id;not null" json:"actor_id"`
	Kind              workflow.Event `gorm:"column:kind;size:32;not null" json:"kind"`
	StateBefore       workflow.State `gorm:"column:state_before;size:32;not null" json:"state_before"`
	StateAfter        workflow.State `gorm:"column:state_after;size:32;not null" json:"state_after"`
	RevisionRequestID *int           `gorm:"column:revision_request_id" json:"revision_request_id,omitempty"`
	CreatedAt         time.Time      `gorm:"column:created_at;autoCreateTime:false;index:idx_dar_actions_app_created,priority:2" json:"created_at"`

	RevisionRequest *RevisionRequest `gorm:"foreignKey:RevisionRequestID" json:"revision_request,omitempty"`
}

// TableName specifies the table for Action.
func (Action) TableName() string {
	return "dar_actions"
}
