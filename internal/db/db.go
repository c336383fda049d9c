package db

import (
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"flowdeck/internal/models"
)

func Connect(dsn string) *gorm.DB {
	gdb, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}

	sqlDB, _ := gdb.DB()
	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("❌ Database ping failed: %v", err)
	}

	log.Println("✅ Database connected successfully")
	return gdb
}

// Migrate creates or updates the schema for every domain table.
func Migrate(gdb *gorm.DB) {
	err := gdb.AutoMigrate(
		&models.Organization{},
		&models.User{},
		&models.Meeting{},
		&models.MeetingParticipant{},
		&models.Task{},
		&models.AuditLog{},
	)
	if err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	log.Println("✅ Database migrated")
}
