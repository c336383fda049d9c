package models

import "time"

type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusReview     TaskStatus = "review"
	StatusDone       TaskStatus = "done"
)

// Statuses lists the kanban columns in board order.
var Statuses = []TaskStatus{StatusTodo, StatusInProgress, StatusReview, StatusDone}

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusReview, StatusDone:
		return true
	}
	return false
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Weight orders priorities for urgency scoring.
func (p TaskPriority) Weight() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	default:
		return 1
	}
}

// Task position is unique within one (org, status) column and kept contiguous
// 0..n-1 by the workflow engine. Contiguity is enforced by the reindexing
// procedures inside the mutating transaction rather than by a DB unique index,
// which would reject the intermediate states of a shift.
type Task struct {
	ID          int64        `gorm:"primaryKey"`
	OrgID       int64        `gorm:"not null;index:idx_org_status_position"`
	Title       string       `gorm:"size:255;not null"`
	Description string       `gorm:"type:text"`
	Status      TaskStatus   `gorm:"size:16;not null;default:todo;index:idx_org_status_position"`
	Priority    TaskPriority `gorm:"size:16;not null;default:medium"`
	AssignedTo  *int64       `gorm:"index"`
	CreatedBy   int64        `gorm:"not null"`
	DueDate     *time.Time
	Position    int `gorm:"not null;default:0;index:idx_org_status_position"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Relations
	Org      *Organization `gorm:"foreignKey:OrgID"`
	Assignee *User         `gorm:"foreignKey:AssignedTo"`
}
