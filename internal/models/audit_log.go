package models

import (
	"time"

	"gorm.io/datatypes"
)

// Audit actions
const (
	ActionCreated       = "created"
	ActionUpdated       = "updated"
	ActionDeleted       = "deleted"
	ActionStatusChanged = "status_changed"
	ActionLogin         = "login"
)

// Audited tables
const (
	TableOrganizations = "organizations"
	TableUsers         = "users"
	TableMeetings      = "meetings"
	TableParticipants  = "meeting_participants"
	TableTasks         = "tasks"
)

// AuditLog is append-only: rows are inserted inside the mutating transaction
// and never updated or deleted. The auto-increment ID is the total order of
// the log; org scope is reconstructed through the acting user.
type AuditLog struct {
	ID        int64          `gorm:"primaryKey"`
	UserID    *int64         `gorm:"index"` // nullable (system-generated events)
	Action    string         `gorm:"size:32;not null"`
	TableName string         `gorm:"size:64;not null"`
	RecordID  int64          `gorm:"index"`
	Details   datatypes.JSON `gorm:"type:json"` // details of what changed
	IP        string         `gorm:"size:64"`
	CreatedAt time.Time

	// Relationships
	User *User `gorm:"foreignKey:UserID"`
}
