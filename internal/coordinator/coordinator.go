package coordinator

import (
	"database/sql"

	"gorm.io/gorm"

	"flowdeck/internal/apperr"
	"flowdeck/internal/audit"
	"flowdeck/internal/guard"
	"flowdeck/internal/models"
	"flowdeck/internal/visibility"
	"flowdeck/internal/workflow"
)

// Coordinator wraps every domain mutation in one serializable transaction:
// pre-condition checks, the write, derived-state updates and audit recording
// commit or roll back together. Partial application is never an outcome.
type Coordinator struct {
	db     *gorm.DB
	secret string

	rec    audit.Recorder
	guard  guard.Guard
	wf     workflow.Engine
	filter visibility.Filter
}

func New(db *gorm.DB, jwtSecret string) *Coordinator {
	rec := audit.Recorder{}
	return &Coordinator{
		db:     db,
		secret: jwtSecret,
		rec:    rec,
		guard:  guard.Guard{Rec: rec},
		wf:     workflow.Engine{Rec: rec},
		filter: visibility.Filter{DB: db},
	}
}

// run executes fn as one serializable unit and maps store failures onto the
// error taxonomy.
func (c *Coordinator) run(fn func(tx *gorm.DB) error) error {
	err := c.db.Transaction(fn, &sql.TxOptions{Isolation: sql.LevelSerializable})
	return apperr.Store(err)
}

// Reads go through the visibility filter; it is the row-level authorization
// boundary, applied on every read path.

func (c *Coordinator) Tasks(actor models.Actor) ([]models.Task, error) {
	return c.filter.Tasks(actor)
}

func (c *Coordinator) Task(actor models.Actor, id int64) (*models.Task, error) {
	return c.filter.Task(actor, id)
}

func (c *Coordinator) Board(actor models.Actor) (map[models.TaskStatus][]models.Task, error) {
	return c.filter.Board(actor)
}

func (c *Coordinator) Meetings(actor models.Actor) ([]models.Meeting, error) {
	return c.filter.Meetings(actor)
}

func (c *Coordinator) Meeting(actor models.Actor, id int64) (*models.Meeting, error) {
	return c.filter.Meeting(actor, id)
}

func (c *Coordinator) Users(actor models.Actor) ([]models.User, error) {
	return c.filter.Users(actor)
}

// AuditTrail returns a page of the organization's audit history. Admin only.
func (c *Coordinator) AuditTrail(actor models.Actor, q audit.Query) ([]models.AuditLog, *int64, error) {
	if !actor.IsAdmin() {
		return nil, nil, apperr.ErrPermissionDenied
	}
	return c.rec.List(c.db, actor.OrgID, q)
}
