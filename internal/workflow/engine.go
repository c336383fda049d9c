package workflow

import (
	"time"

	"gorm.io/gorm"

	"flowdeck/internal/apperr"
	"flowdeck/internal/audit"
	"flowdeck/internal/guard"
	"flowdeck/internal/models"
)

// Changes is a partial update to a task. Nil pointer fields are untouched;
// the Clear flags distinguish "set to null" from "leave alone".
type Changes struct {
	Title         *string
	Description   *string
	Status        *models.TaskStatus
	Priority      *models.TaskPriority
	AssignedTo    *int64
	ClearAssignee bool
	DueDate       *time.Time
	ClearDueDate  bool
}

// Engine validates and applies task mutations: enum and reference checks,
// updated_at maintenance, kanban position reindexing and the audit events
// the database triggers used to produce.
type Engine struct {
	Rec audit.Recorder
}

// ValidateAssignee checks that a prospective assignee exists, belongs to the
// task's organization and is active.
func (e Engine) ValidateAssignee(tx *gorm.DB, orgID, userID int64) error {
	return guard.RequireActiveMember(tx, orgID, userID)
}

// Apply validates and persists a partial update. On a status change the task
// is pulled out of its old column and appended to the bottom of the new one.
// It returns the audit events recorded: one status_changed event when the
// status moved, plus one generic updated event only when other fields changed
// alongside it.
func (e Engine) Apply(tx *gorm.DB, task *models.Task, ch Changes, actor models.Actor, ip string) ([]models.AuditLog, error) {
	if ch.Status != nil && !ch.Status.Valid() {
		return nil, apperr.ErrInvalidTransition
	}
	if ch.Priority != nil && !ch.Priority.Valid() {
		return nil, apperr.ErrInvalidTransition
	}
	if ch.AssignedTo != nil {
		if err := e.ValidateAssignee(tx, task.OrgID, *ch.AssignedTo); err != nil {
			return nil, err
		}
	}

	var changed []string
	if ch.Title != nil && *ch.Title != task.Title {
		task.Title = *ch.Title
		changed = append(changed, "title")
	}
	if ch.Description != nil && *ch.Description != task.Description {
		task.Description = *ch.Description
		changed = append(changed, "description")
	}
	if ch.Priority != nil && *ch.Priority != task.Priority {
		task.Priority = *ch.Priority
		changed = append(changed, "priority")
	}
	if ch.ClearAssignee {
		if task.AssignedTo != nil {
			task.AssignedTo = nil
			changed = append(changed, "assigned_to")
		}
	} else if ch.AssignedTo != nil {
		if task.AssignedTo == nil || *task.AssignedTo != *ch.AssignedTo {
			id := *ch.AssignedTo
			task.AssignedTo = &id
			changed = append(changed, "assigned_to")
		}
	}
	if ch.ClearDueDate {
		if task.DueDate != nil {
			task.DueDate = nil
			changed = append(changed, "due_date")
		}
	} else if ch.DueDate != nil {
		if task.DueDate == nil || !task.DueDate.Equal(*ch.DueDate) {
			due := *ch.DueDate
			task.DueDate = &due
			changed = append(changed, "due_date")
		}
	}

	oldStatus := task.Status
	statusChanged := ch.Status != nil && *ch.Status != task.Status
	if statusChanged {
		// Leaving a column compacts it; the task lands at the bottom
		// of its new column.
		if err := e.removeAt(tx, task.OrgID, task.Status, task.Position); err != nil {
			return nil, err
		}
		n, err := e.ColumnCount(tx, task.OrgID, *ch.Status)
		if err != nil {
			return nil, err
		}
		task.Status = *ch.Status
		task.Position = n
	}

	if !statusChanged && len(changed) == 0 {
		return nil, nil
	}

	task.UpdatedAt = time.Now()
	if err := tx.Save(task).Error; err != nil {
		return nil, err
	}
	if statusChanged {
		if err := e.VerifyColumn(tx, task.OrgID, oldStatus); err != nil {
			return nil, err
		}
		if err := e.VerifyColumn(tx, task.OrgID, task.Status); err != nil {
			return nil, err
		}
	}

	var events []models.AuditLog
	if statusChanged {
		ev, err := e.Rec.Record(tx, audit.Event{
			Actor:    &actor.ID,
			Action:   models.ActionStatusChanged,
			Table:    models.TableTasks,
			RecordID: task.ID,
			Details: map[string]any{
				"old_status": string(oldStatus),
				"new_status": string(task.Status),
			},
			IP: ip,
		})
		if err != nil {
			return nil, err
		}
		events = append(events, *ev)
	}
	if len(changed) > 0 {
		ev, err := e.Rec.Record(tx, audit.Event{
			Actor:    &actor.ID,
			Action:   models.ActionUpdated,
			Table:    models.TableTasks,
			RecordID: task.ID,
			Details:  map[string]any{"fields": changed},
			IP:       ip,
		})
		if err != nil {
			return nil, err
		}
		events = append(events, *ev)
	}
	return events, nil
}
