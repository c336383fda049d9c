package reports_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"flowdeck/internal/models"
	"flowdeck/internal/reports"
	"flowdeck/internal/testutil"
)

func setDue(t *testing.T, db *gorm.DB, task *models.Task, due time.Time, priority models.TaskPriority) {
	t.Helper()
	require.NoError(t, db.Model(task).Updates(map[string]any{
		"due_date": due,
		"priority": priority,
	}).Error)
}

func TestOverdueTasksOrdering(t *testing.T) {
	db := testutil.Open(t)
	org := testutil.Org(t, db, "Acme")
	admin := testutil.User(t, db, org.ID, "admin", models.RoleAdmin)
	emp := testutil.User(t, db, org.ID, "emp", models.RoleEmployee)
	now := time.Now()

	// low priority but three weeks late vs urgent and two days late
	stale := testutil.Task(t, db, org.ID, admin.ID, "stale", models.StatusTodo, 0)
	setDue(t, db, stale, now.AddDate(0, 0, -21), models.PriorityLow)
	burning := testutil.Task(t, db, org.ID, admin.ID, "burning", models.StatusInProgress, 0)
	setDue(t, db, burning, now.AddDate(0, 0, -2), models.PriorityUrgent)
	require.NoError(t, db.Model(burning).Update("assigned_to", emp.ID).Error)

	// done and not-yet-due tasks never count
	finished := testutil.Task(t, db, org.ID, admin.ID, "finished", models.StatusDone, 0)
	setDue(t, db, finished, now.AddDate(0, 0, -30), models.PriorityHigh)
	future := testutil.Task(t, db, org.ID, admin.ID, "future", models.StatusTodo, 1)
	setDue(t, db, future, now.AddDate(0, 0, 7), models.PriorityHigh)
	testutil.Task(t, db, org.ID, admin.ID, "undated", models.StatusTodo, 2)

	overdue, err := reports.OverdueTasks(db, org.ID, now)
	require.NoError(t, err)
	require.Len(t, overdue, 2)
	require.Equal(t, "burning", overdue[0].Task.Title)
	require.Equal(t, "stale", overdue[1].Task.Title)
	require.Greater(t, overdue[0].UrgencyScore, overdue[1].UrgencyScore)
	require.Equal(t, 2, overdue[0].DaysOverdue)
	require.Equal(t, "emp", overdue[0].AssigneeName)
	require.Empty(t, overdue[1].AssigneeName)
}

func TestOverdueTasksOrgScoped(t *testing.T) {
	db := testutil.Open(t)
	acme := testutil.Org(t, db, "Acme")
	rival := testutil.Org(t, db, "Rival")
	a := testutil.User(t, db, acme.ID, "a", models.RoleAdmin)
	r := testutil.User(t, db, rival.ID, "r", models.RoleAdmin)
	now := time.Now()

	mine := testutil.Task(t, db, acme.ID, a.ID, "mine", models.StatusTodo, 0)
	setDue(t, db, mine, now.AddDate(0, 0, -3), models.PriorityMedium)
	foreign := testutil.Task(t, db, rival.ID, r.ID, "foreign", models.StatusTodo, 0)
	setDue(t, db, foreign, now.AddDate(0, 0, -3), models.PriorityMedium)

	overdue, err := reports.OverdueTasks(db, acme.ID, now)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	require.Equal(t, "mine", overdue[0].Task.Title)
}

func TestUserPerformance(t *testing.T) {
	db := testutil.Open(t)
	org := testutil.Org(t, db, "Acme")
	admin := testutil.User(t, db, org.ID, "admin", models.RoleAdmin)
	emp := testutil.User(t, db, org.ID, "emp", models.RoleEmployee)

	assign := func(title string, status models.TaskStatus, pos int) *models.Task {
		task := testutil.Task(t, db, org.ID, admin.ID, title, status, pos)
		require.NoError(t, db.Model(task).Update("assigned_to", emp.ID).Error)
		return task
	}
	assign("open", models.StatusTodo, 0)
	assign("doing", models.StatusInProgress, 0)
	assign("done-1", models.StatusDone, 0)
	assign("done-2", models.StatusDone, 1)

	m := models.Meeting{OrgID: org.ID, Title: "standup", MeetingDate: time.Now(), CreatedBy: admin.ID}
	require.NoError(t, db.Create(&m).Error)
	require.NoError(t, db.Create(&models.MeetingParticipant{
		MeetingID: m.ID, UserID: emp.ID, Status: models.ParticipantInvited,
	}).Error)

	p, err := reports.UserPerformance(db, emp.ID)
	require.NoError(t, err)
	require.Equal(t, "emp", p.FullName)
	require.EqualValues(t, 1, p.TodoTasks)
	require.EqualValues(t, 1, p.ActiveTasks)
	require.EqualValues(t, 2, p.CompletedTasks)
	require.InDelta(t, 50.0, p.CompletionRate, 0.01)
	require.EqualValues(t, 1, p.PendingInvites)
}

func TestUserPerformanceNoAssignments(t *testing.T) {
	db := testutil.Open(t)
	org := testutil.Org(t, db, "Acme")
	emp := testutil.User(t, db, org.ID, "emp", models.RoleEmployee)

	p, err := reports.UserPerformance(db, emp.ID)
	require.NoError(t, err)
	require.Zero(t, p.CompletionRate)
	require.Zero(t, p.AvgCompletionDays)
	require.Zero(t, p.CompletedTasks)
}

func TestOrgDashboard(t *testing.T) {
	db := testutil.Open(t)
	org := testutil.Org(t, db, "Acme")
	admin := testutil.User(t, db, org.ID, "admin", models.RoleAdmin)
	testutil.User(t, db, org.ID, "emp", models.RoleEmployee)
	inactive := testutil.User(t, db, org.ID, "gone", models.RoleEmployee)
	require.NoError(t, db.Model(inactive).Update("is_active", false).Error)
	now := time.Now()

	testutil.Task(t, db, org.ID, admin.ID, "open", models.StatusTodo, 0)
	testutil.Task(t, db, org.ID, admin.ID, "done", models.StatusDone, 0)
	late := testutil.Task(t, db, org.ID, admin.ID, "late", models.StatusInProgress, 0)
	setDue(t, db, late, now.AddDate(0, 0, -5), models.PriorityHigh)

	m := models.Meeting{OrgID: org.ID, Title: "retro", MeetingDate: now, CreatedBy: admin.ID}
	require.NoError(t, db.Create(&m).Error)

	d, err := reports.OrgDashboard(db, org.ID, now)
	require.NoError(t, err)
	require.Equal(t, "Acme", d.OrgName)
	require.EqualValues(t, 1, d.ActiveEmployees) // admin and the inactive user don't count
	require.EqualValues(t, 3, d.TotalTasks)
	require.EqualValues(t, 1, d.CompletedTasks)
	require.EqualValues(t, 1, d.TotalMeetings)
	require.EqualValues(t, 1, d.OverdueTasks)
}
