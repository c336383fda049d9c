package reports

import (
	"sort"
	"time"

	"gorm.io/gorm"

	"flowdeck/internal/models"
)

// Reporting queries over org and user activity. Read-only; admin surfaces
// are expected to gate access before calling.

type OverdueTask struct {
	Task         models.Task
	DaysOverdue  int
	UrgencyScore float64
	AssigneeName string
}

// urgencyScore weights priority by how long the task has been overdue.
func urgencyScore(priority models.TaskPriority, daysOverdue int) float64 {
	base := float64(priority.Weight())
	if daysOverdue > 0 {
		return base * (1 + float64(daysOverdue)*0.1)
	}
	return base
}

// OverdueTasks returns the organization's open tasks past their due date,
// most urgent first.
func OverdueTasks(db *gorm.DB, orgID int64, now time.Time) ([]OverdueTask, error) {
	var tasks []models.Task
	err := db.Preload("Assignee").
		Where("org_id = ? AND status <> ? AND due_date IS NOT NULL AND due_date < ?",
			orgID, models.StatusDone, now).
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}

	overdue := make([]OverdueTask, 0, len(tasks))
	for _, t := range tasks {
		days := int(now.Sub(*t.DueDate).Hours() / 24)
		if days < 1 {
			continue
		}
		entry := OverdueTask{
			Task:         t,
			DaysOverdue:  days,
			UrgencyScore: urgencyScore(t.Priority, days),
		}
		if t.Assignee != nil {
			entry.AssigneeName = t.Assignee.FullName
		}
		overdue = append(overdue, entry)
	}
	// most urgent first, ties broken by how overdue
	sort.Slice(overdue, func(i, j int) bool {
		if overdue[i].UrgencyScore != overdue[j].UrgencyScore {
			return overdue[i].UrgencyScore > overdue[j].UrgencyScore
		}
		return overdue[i].DaysOverdue > overdue[j].DaysOverdue
	})
	return overdue, nil
}

type Performance struct {
	FullName          string
	Role              models.UserRole
	CompletionRate    float64 // percent of assigned tasks done
	AvgCompletionDays float64
	PendingInvites    int64
	TodoTasks         int64
	ActiveTasks       int64
	CompletedTasks    int64
}

// UserPerformance aggregates one user's task and meeting activity.
func UserPerformance(db *gorm.DB, userID int64) (*Performance, error) {
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return nil, err
	}
	p := Performance{FullName: user.FullName, Role: user.Role}

	count := func(status models.TaskStatus) (int64, error) {
		var n int64
		err := db.Model(&models.Task{}).
			Where("assigned_to = ? AND status = ?", userID, status).
			Count(&n).Error
		return n, err
	}
	var err error
	if p.TodoTasks, err = count(models.StatusTodo); err != nil {
		return nil, err
	}
	if p.ActiveTasks, err = count(models.StatusInProgress); err != nil {
		return nil, err
	}
	if p.CompletedTasks, err = count(models.StatusDone); err != nil {
		return nil, err
	}

	var total int64
	if err := db.Model(&models.Task{}).Where("assigned_to = ?", userID).Count(&total).Error; err != nil {
		return nil, err
	}
	if total > 0 {
		p.CompletionRate = float64(p.CompletedTasks) / float64(total) * 100
	}

	var done []models.Task
	if err := db.Where("assigned_to = ? AND status = ?", userID, models.StatusDone).Find(&done).Error; err != nil {
		return nil, err
	}
	if len(done) > 0 {
		var days float64
		for _, t := range done {
			days += t.UpdatedAt.Sub(t.CreatedAt).Hours() / 24
		}
		p.AvgCompletionDays = days / float64(len(done))
	}

	if err := db.Model(&models.MeetingParticipant{}).
		Where("user_id = ? AND status = ?", userID, models.ParticipantInvited).
		Count(&p.PendingInvites).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

type Dashboard struct {
	OrgName         string
	ActiveEmployees int64
	TotalTasks      int64
	CompletedTasks  int64
	TotalMeetings   int64
	OverdueTasks    int64
}

// OrgDashboard aggregates organization-wide counts.
func OrgDashboard(db *gorm.DB, orgID int64, now time.Time) (*Dashboard, error) {
	var org models.Organization
	if err := db.First(&org, orgID).Error; err != nil {
		return nil, err
	}
	d := Dashboard{OrgName: org.Name}

	if err := db.Model(&models.User{}).
		Where("org_id = ? AND is_active = ? AND role = ?", orgID, true, models.RoleEmployee).
		Count(&d.ActiveEmployees).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Task{}).Where("org_id = ?", orgID).Count(&d.TotalTasks).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Task{}).
		Where("org_id = ? AND status = ?", orgID, models.StatusDone).
		Count(&d.CompletedTasks).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Meeting{}).Where("org_id = ?", orgID).Count(&d.TotalMeetings).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Task{}).
		Where("org_id = ? AND status <> ? AND due_date IS NOT NULL AND due_date < ?",
			orgID, models.StatusDone, now.AddDate(0, 0, -1)).
		Count(&d.OverdueTasks).Error; err != nil {
		return nil, err
	}
	return &d, nil
}
