package audit

import (
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"flowdeck/internal/models"
)

// Event is one state-changing action to append to the log.
type Event struct {
	Actor    *int64 // nil for system-generated events
	Action   string
	Table    string
	RecordID int64
	Details  map[string]any
	IP       string
}

// Recorder appends immutable audit events. There is deliberately no update
// or delete; a failed append must fail the enclosing transaction.
type Recorder struct{}

func (Recorder) Record(tx *gorm.DB, ev Event) (*models.AuditLog, error) {
	var details []byte
	if ev.Details != nil {
		var err error
		details, err = json.Marshal(ev.Details)
		if err != nil {
			return nil, fmt.Errorf("marshal audit details: %w", err)
		}
	}

	entry := models.AuditLog{
		UserID:    ev.Actor,
		Action:    ev.Action,
		TableName: ev.Table,
		RecordID:  ev.RecordID,
		Details:   details,
		IP:        ev.IP,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// Query selects a page of the log, newest first.
type Query struct {
	Limit   int
	AfterID int64 // cursor: return events with id < AfterID
	Search  string
}

// List returns an organization's slice of the log. The log itself is not
// partitioned by org, so scope is reconstructed through the acting user.
// Returns the page plus the cursor for the next one, if any.
func (Recorder) List(db *gorm.DB, orgID int64, q Query) ([]models.AuditLog, *int64, error) {
	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	orgUsers := db.Model(&models.User{}).Select("id").Where("org_id = ?", orgID)

	query := db.Model(&models.AuditLog{}).
		Where("user_id IN (?)", orgUsers).
		Order("id DESC")
	if q.AfterID > 0 {
		query = query.Where("id < ?", q.AfterID)
	}
	if q.Search != "" {
		like := "%" + q.Search + "%"
		query = query.Where("(action LIKE ? OR table_name LIKE ? OR ip LIKE ?)", like, like, like)
	}

	var logs []models.AuditLog
	if err := query.Limit(limit + 1).Find(&logs).Error; err != nil {
		return nil, nil, err
	}

	var nextCursor *int64
	if len(logs) > limit {
		logs = logs[:limit]
		next := logs[limit-1].ID
		nextCursor = &next
	}
	return logs, nextCursor, nil
}
