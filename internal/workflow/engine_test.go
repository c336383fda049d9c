package workflow_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"flowdeck/internal/apperr"
	"flowdeck/internal/models"
	"flowdeck/internal/testutil"
	"flowdeck/internal/workflow"
)

func column(t *testing.T, db *gorm.DB, orgID int64, status models.TaskStatus) []string {
	t.Helper()
	var titles []string
	require.NoError(t, db.Model(&models.Task{}).
		Where("org_id = ? AND status = ?", orgID, status).
		Order("position ASC").
		Pluck("title", &titles).Error)
	return titles
}

func TestApplyRejectsBadEnums(t *testing.T) {
	db := testutil.Open(t)
	org := testutil.Org(t, db, "Acme")
	admin := testutil.User(t, db, org.ID, "admin", models.RoleAdmin)
	task := testutil.Task(t, db, org.ID, admin.ID, "t", models.StatusTodo, 0)

	e := workflow.Engine{}
	bad := models.TaskStatus("archived")
	_, err := e.Apply(db, task, workflow.Changes{Status: &bad}, admin.Actor(), "")
	require.ErrorIs(t, err, apperr.ErrInvalidTransition)

	badPrio := models.TaskPriority("asap")
	_, err = e.Apply(db, task, workflow.Changes{Priority: &badPrio}, admin.Actor(), "")
	require.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestApplyRejectsCrossOrgAssignee(t *testing.T) {
	db := testutil.Open(t)
	acme := testutil.Org(t, db, "Acme")
	rival := testutil.Org(t, db, "Rival")
	admin := testutil.User(t, db, acme.ID, "admin", models.RoleAdmin)
	outsider := testutil.User(t, db, rival.ID, "outsider", models.RoleEmployee)
	task := testutil.Task(t, db, acme.ID, admin.ID, "t", models.StatusTodo, 0)

	e := workflow.Engine{}
	_, err := e.Apply(db, task, workflow.Changes{AssignedTo: &outsider.ID}, admin.Actor(), "")
	require.ErrorIs(t, err, apperr.ErrScopeViolation)

	// nothing recorded for a rejected change
	var events int64
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&events).Error)
	require.Zero(t, events)
}

func TestApplyRejectsInactiveAssignee(t *testing.T) {
	db := testutil.Open(t)
	org := testutil.Org(t, db, "Acme")
	admin := testutil.User(t, db, org.ID, "admin", models.RoleAdmin)
	gone := testutil.User(t, db, org.ID, "gone", models.RoleEmployee)
	require.NoError(t, db.Model(gone).Update("is_active", false).Error)
	task := testutil.Task(t, db, org.ID, admin.ID, "t", models.StatusTodo, 0)

	e := workflow.Engine{}
	_, err := e.Apply(db, task, workflow.Changes{AssignedTo: &gone.ID}, admin.Actor(), "")
	require.ErrorIs(t, err, apperr.ErrInactiveUser)
}

func TestStatusChangeAuditDistinctness(t *testing.T) {
	db := testutil.Open(t)
	org := testutil.Org(t, db, "Acme")
	admin := testutil.User(t, db, org.ID, "admin", models.RoleAdmin)
	task := testutil.Task(t, db, org.ID, admin.ID, "t", models.StatusTodo, 0)

	e := workflow.Engine{}

	// status only: exactly one status_changed event
	review := models.StatusReview
	events, err := e.Apply(db, task, workflow.Changes{Status: &review}, admin.Actor(), "")
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, models.ActionStatusChanged, events[0].Action)
	require.JSONEq(t, `{"old_status":"todo","new_status":"review"}`, string(events[0].Details))

	// status plus another field: status_changed and one generic updated
	done := models.StatusDone
	title := "renamed"
	events, err = e.Apply(db, task, workflow.Changes{Status: &done, Title: &title}, admin.Actor(), "")
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, models.ActionStatusChanged, events[0].Action)
	require.Equal(t, models.ActionUpdated, events[1].Action)

	// non-status fields only: one generic updated, zero status_changed
	prio := models.PriorityUrgent
	events, err = e.Apply(db, task, workflow.Changes{Priority: &prio}, admin.Actor(), "")
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, models.ActionUpdated, events[0].Action)
}

func TestApplyBumpsUpdatedAt(t *testing.T) {
	db := testutil.Open(t)
	org := testutil.Org(t, db, "Acme")
	admin := testutil.User(t, db, org.ID, "admin", models.RoleAdmin)
	task := testutil.Task(t, db, org.ID, admin.ID, "t", models.StatusTodo, 0)

	before := task.UpdatedAt
	time.Sleep(10 * time.Millisecond)

	e := workflow.Engine{}
	title := "later"
	_, err := e.Apply(db, task, workflow.Changes{Title: &title}, admin.Actor(), "")
	require.NoError(t, err)
	require.False(t, task.UpdatedAt.Before(before))
	require.True(t, task.UpdatedAt.After(before))
}

func TestApplyNoChangesIsNoop(t *testing.T) {
	db := testutil.Open(t)
	org := testutil.Org(t, db, "Acme")
	admin := testutil.User(t, db, org.ID, "admin", models.RoleAdmin)
	task := testutil.Task(t, db, org.ID, admin.ID, "t", models.StatusTodo, 0)

	e := workflow.Engine{}
	events, err := e.Apply(db, task, workflow.Changes{}, admin.Actor(), "")
	require.NoError(t, err)
	require.Empty(t, events)
}

func TestStatusChangeLandsAtColumnBottom(t *testing.T) {
	db := testutil.Open(t)
	org := testutil.Org(t, db, "Acme")
	admin := testutil.User(t, db, org.ID, "admin", models.RoleAdmin)
	testutil.Task(t, db, org.ID, admin.ID, "a", models.StatusTodo, 0)
	moved := testutil.Task(t, db, org.ID, admin.ID, "b", models.StatusTodo, 1)
	testutil.Task(t, db, org.ID, admin.ID, "c", models.StatusTodo, 2)
	testutil.Task(t, db, org.ID, admin.ID, "x", models.StatusInProgress, 0)

	e := workflow.Engine{}
	inProgress := models.StatusInProgress
	_, err := e.Apply(db, moved, workflow.Changes{Status: &inProgress}, admin.Actor(), "")
	require.NoError(t, err)

	require.Equal(t, []string{"a", "c"}, column(t, db, org.ID, models.StatusTodo))
	require.Equal(t, []string{"x", "b"}, column(t, db, org.ID, models.StatusInProgress))
	require.Equal(t, 1, moved.Position)
}

func TestMoveWithinColumn(t *testing.T) {
	db := testutil.Open(t)
	org := testutil.Org(t, db, "Acme")
	admin := testutil.User(t, db, org.ID, "admin", models.RoleAdmin)
	a := testutil.Task(t, db, org.ID, admin.ID, "a", models.StatusTodo, 0)
	testutil.Task(t, db, org.ID, admin.ID, "b", models.StatusTodo, 1)
	testutil.Task(t, db, org.ID, admin.ID, "c", models.StatusTodo, 2)
	d := testutil.Task(t, db, org.ID, admin.ID, "d", models.StatusTodo, 3)

	e := workflow.Engine{}

	// drag a downwards
	changed, err := e.Move(db, a, models.StatusTodo, 2)
	require.NoError(t, err)
	require.False(t, changed)
	require.Equal(t, []string{"b", "c", "a", "d"}, column(t, db, org.ID, models.StatusTodo))

	// drag d to the top
	changed, err = e.Move(db, d, models.StatusTodo, 0)
	require.NoError(t, err)
	require.False(t, changed)
	require.Equal(t, []string{"d", "b", "c", "a"}, column(t, db, org.ID, models.StatusTodo))
}

func TestMoveAcrossColumns(t *testing.T) {
	db := testutil.Open(t)
	org := testutil.Org(t, db, "Acme")
	admin := testutil.User(t, db, org.ID, "admin", models.RoleAdmin)
	a := testutil.Task(t, db, org.ID, admin.ID, "a", models.StatusTodo, 0)
	testutil.Task(t, db, org.ID, admin.ID, "b", models.StatusTodo, 1)
	testutil.Task(t, db, org.ID, admin.ID, "x", models.StatusReview, 0)
	testutil.Task(t, db, org.ID, admin.ID, "y", models.StatusReview, 1)

	e := workflow.Engine{}
	changed, err := e.Move(db, a, models.StatusReview, 1)
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, []string{"b"}, column(t, db, org.ID, models.StatusTodo))
	require.Equal(t, []string{"x", "a", "y"}, column(t, db, org.ID, models.StatusReview))
}

func TestMoveClampsPosition(t *testing.T) {
	db := testutil.Open(t)
	org := testutil.Org(t, db, "Acme")
	admin := testutil.User(t, db, org.ID, "admin", models.RoleAdmin)
	a := testutil.Task(t, db, org.ID, admin.ID, "a", models.StatusTodo, 0)
	testutil.Task(t, db, org.ID, admin.ID, "b", models.StatusTodo, 1)

	e := workflow.Engine{}
	_, err := e.Move(db, a, models.StatusTodo, 50)
	require.NoError(t, err)
	require.Equal(t, []string{"b", "a"}, column(t, db, org.ID, models.StatusTodo))

	_, err = e.Move(db, a, models.StatusDone, -3)
	require.NoError(t, err)
	require.Equal(t, 0, a.Position)
}

func TestRemoveFromBoardCompacts(t *testing.T) {
	db := testutil.Open(t)
	org := testutil.Org(t, db, "Acme")
	admin := testutil.User(t, db, org.ID, "admin", models.RoleAdmin)
	testutil.Task(t, db, org.ID, admin.ID, "a", models.StatusTodo, 0)
	b := testutil.Task(t, db, org.ID, admin.ID, "b", models.StatusTodo, 1)
	testutil.Task(t, db, org.ID, admin.ID, "c", models.StatusTodo, 2)

	e := workflow.Engine{}
	require.NoError(t, e.RemoveFromBoard(db, b))
	require.Equal(t, []string{"a", "c"}, column(t, db, org.ID, models.StatusTodo))
	require.NoError(t, e.VerifyColumn(db, org.ID, models.StatusTodo))
}

func TestColumnsStayContiguousUnderChurn(t *testing.T) {
	db := testutil.Open(t)
	org := testutil.Org(t, db, "Acme")
	admin := testutil.User(t, db, org.ID, "admin", models.RoleAdmin)

	e := workflow.Engine{}
	for i, title := range []string{"a", "b", "c", "d", "e"} {
		testutil.Task(t, db, org.ID, admin.ID, title, models.StatusTodo, i)
	}

	// moves shift rows underneath earlier structs, so reload by title
	get := func(title string) *models.Task {
		var task models.Task
		require.NoError(t, db.Where("org_id = ? AND title = ?", org.ID, title).First(&task).Error)
		return &task
	}

	_, err := e.Move(db, get("a"), models.StatusInProgress, 0)
	require.NoError(t, err)
	_, err = e.Move(db, get("e"), models.StatusInProgress, 1)
	require.NoError(t, err)
	_, err = e.Move(db, get("c"), models.StatusTodo, 0)
	require.NoError(t, err)
	require.NoError(t, e.RemoveFromBoard(db, get("b")))
	_, err = e.Move(db, get("e"), models.StatusTodo, 1)
	require.NoError(t, err)

	for _, status := range models.Statuses {
		require.NoError(t, e.VerifyColumn(db, org.ID, status))
	}
}

func TestVerifyColumnDetectsGaps(t *testing.T) {
	db := testutil.Open(t)
	org := testutil.Org(t, db, "Acme")
	admin := testutil.User(t, db, org.ID, "admin", models.RoleAdmin)
	testutil.Task(t, db, org.ID, admin.ID, "a", models.StatusTodo, 0)
	testutil.Task(t, db, org.ID, admin.ID, "b", models.StatusTodo, 2)

	e := workflow.Engine{}
	require.ErrorIs(t, e.VerifyColumn(db, org.ID, models.StatusTodo), apperr.ErrPositionConflict)
}
