package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"flowdeck/internal/models"
)

// Open returns a migrated in-memory sqlite store, private to the test. A
// single pooled connection keeps the shared-cache memory DB alive and makes
// transactions serialize the way the mysql store does.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, gdb.AutoMigrate(
		&models.Organization{},
		&models.User{},
		&models.Meeting{},
		&models.MeetingParticipant{},
		&models.Task{},
		&models.AuditLog{},
	))
	return gdb
}

// Org inserts an organization.
func Org(t *testing.T, db *gorm.DB, name string) *models.Organization {
	t.Helper()
	org := models.Organization{Name: name}
	require.NoError(t, db.Create(&org).Error)
	return &org
}

// User inserts an active user with a placeholder password hash.
func User(t *testing.T, db *gorm.DB, orgID int64, loginID string, role models.UserRole) *models.User {
	t.Helper()
	u := models.User{
		OrgID:        orgID,
		LoginID:      loginID,
		PasswordHash: "x",
		FullName:     loginID,
		Email:        loginID + "@example.com",
		Role:         role,
		JobLevel:     models.LevelDeveloper,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&u).Error)
	return &u
}

// Task inserts a task at the given column position.
func Task(t *testing.T, db *gorm.DB, orgID, createdBy int64, title string, status models.TaskStatus, pos int) *models.Task {
	t.Helper()
	task := models.Task{
		OrgID:     orgID,
		Title:     title,
		Status:    status,
		Priority:  models.PriorityMedium,
		CreatedBy: createdBy,
		Position:  pos,
	}
	require.NoError(t, db.Create(&task).Error)
	return &task
}
