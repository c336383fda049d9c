package coordinator

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"flowdeck/internal/apperr"
	"flowdeck/internal/audit"
	"flowdeck/internal/models"
	"flowdeck/internal/visibility"
	"flowdeck/internal/workflow"
)

type TaskInput struct {
	Title       string
	Description string
	Priority    models.TaskPriority
	AssignedTo  *int64
	DueDate     *time.Time
}

// CreateTask inserts a task at the bottom of the todo column. The assignee,
// when given, must be an active member of the actor's organization; on any
// failed check nothing is persisted and no audit event is emitted.
func (c *Coordinator) CreateTask(actor models.Actor, in TaskInput, ip string) (*models.Task, error) {
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if !in.Priority.Valid() {
		return nil, apperr.ErrInvalidTransition
	}

	var task models.Task
	err := c.run(func(tx *gorm.DB) error {
		if in.AssignedTo != nil {
			if err := c.wf.ValidateAssignee(tx, actor.OrgID, *in.AssignedTo); err != nil {
				return err
			}
		}
		pos, err := c.wf.ColumnCount(tx, actor.OrgID, models.StatusTodo)
		if err != nil {
			return err
		}

		task = models.Task{
			OrgID:       actor.OrgID,
			Title:       strings.TrimSpace(in.Title),
			Description: in.Description,
			Status:      models.StatusTodo,
			Priority:    in.Priority,
			AssignedTo:  in.AssignedTo,
			CreatedBy:   actor.ID,
			DueDate:     in.DueDate,
			Position:    pos,
		}
		if err := tx.Create(&task).Error; err != nil {
			return err
		}

		details := map[string]any{"title": task.Title}
		if task.AssignedTo != nil {
			details["assigned_to"] = *task.AssignedTo
		}
		_, err = c.rec.Record(tx, audit.Event{
			Actor:    &actor.ID,
			Action:   models.ActionCreated,
			Table:    models.TableTasks,
			RecordID: task.ID,
			Details:  details,
			IP:       ip,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask applies a partial edit to a visible task through the workflow
// engine. The updated task is returned together with the audit events the
// mutation produced.
func (c *Coordinator) UpdateTask(actor models.Actor, id int64, ch workflow.Changes, ip string) (*models.Task, []models.AuditLog, error) {
	var task *models.Task
	var events []models.AuditLog
	err := c.run(func(tx *gorm.DB) error {
		var err error
		task, err = visibility.OneTask(tx, actor, id)
		if err != nil {
			return err
		}
		events, err = c.wf.Apply(tx, task, ch, actor, ip)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return task, events, nil
}

// MoveTask is the kanban drag: the task lands at the given position of the
// given column and both affected columns are reindexed. A pure reposition
// records nothing; a column change records one status_changed event.
func (c *Coordinator) MoveTask(actor models.Actor, id int64, status models.TaskStatus, position int, ip string) (*models.Task, error) {
	var task *models.Task
	err := c.run(func(tx *gorm.DB) error {
		var err error
		task, err = visibility.OneTask(tx, actor, id)
		if err != nil {
			return err
		}
		oldStatus := task.Status
		statusChanged, err := c.wf.Move(tx, task, status, position)
		if err != nil {
			return err
		}
		if !statusChanged {
			return nil
		}
		_, err = c.rec.Record(tx, audit.Event{
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
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// DeleteTask removes a visible task, records its snapshot and compacts the
// column it occupied.
func (c *Coordinator) DeleteTask(actor models.Actor, id int64, ip string) error {
	return c.run(func(tx *gorm.DB) error {
		task, err := visibility.OneTask(tx, actor, id)
		if err != nil {
			return err
		}
		if _, err := c.rec.Record(tx, audit.Event{
			Actor:    &actor.ID,
			Action:   models.ActionDeleted,
			Table:    models.TableTasks,
			RecordID: task.ID,
			Details:  map[string]any{"title": task.Title, "status": string(task.Status)},
			IP:       ip,
		}); err != nil {
			return err
		}
		return c.wf.RemoveFromBoard(tx, task)
	})
}
