package workflow

import (
	"time"

	"gorm.io/gorm"

	"flowdeck/internal/apperr"
	"flowdeck/internal/models"
)

// ColumnCount returns the number of tasks in one (org, status) column.
func (e Engine) ColumnCount(tx *gorm.DB, orgID int64, status models.TaskStatus) (int, error) {
	var n int64
	err := tx.Model(&models.Task{}).
		Where("org_id = ? AND status = ?", orgID, status).
		Count(&n).Error
	return int(n), err
}

// removeAt closes the gap left at pos: everything below shifts up one slot.
// The departing task itself sits at pos and is untouched.
func (e Engine) removeAt(tx *gorm.DB, orgID int64, status models.TaskStatus, pos int) error {
	return tx.Model(&models.Task{}).
		Where("org_id = ? AND status = ? AND position > ?", orgID, status, pos).
		Update("position", gorm.Expr("position - 1")).Error
}

// openSlot makes room at pos: everything at or below shifts down one slot.
func (e Engine) openSlot(tx *gorm.DB, orgID int64, status models.TaskStatus, pos int) error {
	return tx.Model(&models.Task{}).
		Where("org_id = ? AND status = ? AND position >= ?", orgID, status, pos).
		Update("position", gorm.Expr("position + 1")).Error
}

// Move places a task at position pos of the given column, shifting
// intervening tasks instead of leaving gaps or duplicates. Positions outside
// the column are clamped. Reports whether the move changed the task's status.
func (e Engine) Move(tx *gorm.DB, task *models.Task, status models.TaskStatus, pos int) (bool, error) {
	if !status.Valid() {
		return false, apperr.ErrInvalidTransition
	}

	if status == task.Status {
		n, err := e.ColumnCount(tx, task.OrgID, status)
		if err != nil {
			return false, err
		}
		if pos > n-1 {
			pos = n - 1
		}
		if pos < 0 {
			pos = 0
		}
		if pos == task.Position {
			return false, nil
		}
		old := task.Position
		var err2 error
		if old < pos {
			err2 = tx.Model(&models.Task{}).
				Where("org_id = ? AND status = ? AND position > ? AND position <= ? AND id <> ?",
					task.OrgID, status, old, pos, task.ID).
				Update("position", gorm.Expr("position - 1")).Error
		} else {
			err2 = tx.Model(&models.Task{}).
				Where("org_id = ? AND status = ? AND position >= ? AND position < ? AND id <> ?",
					task.OrgID, status, pos, old, task.ID).
				Update("position", gorm.Expr("position + 1")).Error
		}
		if err2 != nil {
			return false, err2
		}
		task.Position = pos
		task.UpdatedAt = time.Now()
		if err := tx.Save(task).Error; err != nil {
			return false, err
		}
		return false, e.VerifyColumn(tx, task.OrgID, status)
	}

	// Cross-column move: compact the source, open a slot in the target.
	oldStatus := task.Status
	if err := e.removeAt(tx, task.OrgID, oldStatus, task.Position); err != nil {
		return false, err
	}
	n, err := e.ColumnCount(tx, task.OrgID, status)
	if err != nil {
		return false, err
	}
	if pos > n {
		pos = n
	}
	if pos < 0 {
		pos = 0
	}
	if pos < n {
		if err := e.openSlot(tx, task.OrgID, status, pos); err != nil {
			return false, err
		}
	}
	task.Status = status
	task.Position = pos
	task.UpdatedAt = time.Now()
	if err := tx.Save(task).Error; err != nil {
		return false, err
	}
	if err := e.VerifyColumn(tx, task.OrgID, oldStatus); err != nil {
		return false, err
	}
	return true, e.VerifyColumn(tx, task.OrgID, status)
}

// RemoveFromBoard compacts the task's column before the row is deleted.
func (e Engine) RemoveFromBoard(tx *gorm.DB, task *models.Task) error {
	if err := tx.Delete(&models.Task{}, task.ID).Error; err != nil {
		return err
	}
	if err := e.removeAt(tx, task.OrgID, task.Status, task.Position); err != nil {
		return err
	}
	return e.VerifyColumn(tx, task.OrgID, task.Status)
}

// VerifyColumn asserts the 0..n-1 contiguity invariant after a reindex. A
// failure here is an internal bug, not caller error.
func (e Engine) VerifyColumn(tx *gorm.DB, orgID int64, status models.TaskStatus) error {
	var positions []int
	err := tx.Model(&models.Task{}).
		Where("org_id = ? AND status = ?", orgID, status).
		Order("position ASC").
		Pluck("position", &positions).Error
	if err != nil {
		return err
	}
	for i, p := range positions {
		if p != i {
			return apperr.ErrPositionConflict
		}
	}
	return nil
}
