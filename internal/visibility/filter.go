package visibility

import (
	"errors"

	"gorm.io/gorm"

	"flowdeck/internal/apperr"
	"flowdeck/internal/models"
)

// Filter computes the rows an actor may read. It is the sole authorization
// boundary for task and meeting access: admins see everything inside their
// organization, employees only what they created, were assigned or were
// invited to. Read-only; no side effects.
type Filter struct {
	DB *gorm.DB
}

// TaskScope narrows a task query to the actor's visible set.
func TaskScope(q *gorm.DB, actor models.Actor) *gorm.DB {
	q = q.Where("org_id = ?", actor.OrgID)
	if !actor.IsAdmin() {
		q = q.Where("(assigned_to = ? OR created_by = ?)", actor.ID, actor.ID)
	}
	return q
}

// MeetingScope narrows a meeting query to the actor's visible set. Any
// participant link counts, whatever its status.
func MeetingScope(q *gorm.DB, actor models.Actor) *gorm.DB {
	q = q.Where("meetings.org_id = ?", actor.OrgID)
	if !actor.IsAdmin() {
		q = q.Where("(meetings.created_by = ? OR meetings.id IN (?))", actor.ID,
			q.Session(&gorm.Session{NewDB: true}).
				Model(&models.MeetingParticipant{}).
				Select("meeting_id").
				Where("user_id = ?", actor.ID))
	}
	return q
}

// Tasks returns the actor's visible tasks in board order.
func (f Filter) Tasks(actor models.Actor) ([]models.Task, error) {
	var tasks []models.Task
	err := TaskScope(f.DB.Model(&models.Task{}), actor).
		Order("position ASC, created_at DESC").
		Find(&tasks).Error
	return tasks, err
}

// Task returns one visible task; ids outside the visible set read as absent.
func (f Filter) Task(actor models.Actor, id int64) (*models.Task, error) {
	return OneTask(f.DB, actor, id)
}

// OneTask is the transaction-scoped variant of Task.
func OneTask(tx *gorm.DB, actor models.Actor, id int64) (*models.Task, error) {
	var task models.Task
	err := TaskScope(tx.Model(&models.Task{}), actor).First(&task, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// Board groups the actor's visible tasks into kanban columns.
func (f Filter) Board(actor models.Actor) (map[models.TaskStatus][]models.Task, error) {
	tasks, err := f.Tasks(actor)
	if err != nil {
		return nil, err
	}
	board := make(map[models.TaskStatus][]models.Task, len(models.Statuses))
	for _, s := range models.Statuses {
		board[s] = []models.Task{}
	}
	for _, t := range tasks {
		board[t.Status] = append(board[t.Status], t)
	}
	return board, nil
}

// Meetings returns the actor's visible meetings, soonest first.
func (f Filter) Meetings(actor models.Actor) ([]models.Meeting, error) {
	var meetings []models.Meeting
	err := MeetingScope(f.DB.Model(&models.Meeting{}), actor).
		Preload("Participants").
		Order("meeting_date ASC").
		Find(&meetings).Error
	return meetings, err
}

// Meeting returns one visible meeting with its participant links.
func (f Filter) Meeting(actor models.Actor, id int64) (*models.Meeting, error) {
	return OneMeeting(f.DB, actor, id)
}

// OneMeeting is the transaction-scoped variant of Meeting.
func OneMeeting(tx *gorm.DB, actor models.Actor, id int64) (*models.Meeting, error) {
	var meeting models.Meeting
	err := MeetingScope(tx.Model(&models.Meeting{}), actor).
		Preload("Participants").
		First(&meeting, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &meeting, nil
}

// Users returns the org members the actor may see: admins get the full
// roster, employees the active users (the assignment picker set).
func (f Filter) Users(actor models.Actor) ([]models.User, error) {
	q := f.DB.Where("org_id = ?", actor.OrgID)
	if !actor.IsAdmin() {
		q = q.Where("is_active = ?", true)
	}
	var users []models.User
	err := q.Order("full_name ASC").Find(&users).Error
	return users, err
}
