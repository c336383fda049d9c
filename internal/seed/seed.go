package seed

import (
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"flowdeck/internal/models"
)

// FirstSetup bootstraps a default organization with a single admin account.
// Idempotent: reruns find the existing rows and leave them alone.
func FirstSetup(db *gorm.DB, adminPassword string) error {
	// -------------------------
	// 1) Ensure default org
	// -------------------------
	org := models.Organization{Name: "Default Organization"}
	if err := db.Where("name = ?", org.Name).FirstOrCreate(&org).Error; err != nil {
		return err
	}

	// -------------------------
	// 2) Ensure default admin
	// -------------------------
	var admins int64
	if err := db.Model(&models.User{}).
		Where("org_id = ? AND role = ?", org.ID, models.RoleAdmin).
		Count(&admins).Error; err != nil {
		return err
	}
	if admins > 0 {
		log.Println("✅ Seed: default org already has an admin, nothing to do")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := models.User{
		OrgID:        org.ID,
		LoginID:      "admin",
		PasswordHash: string(hash),
		FullName:     "System Administrator",
		Email:        "admin@flowdeck.local",
		Role:         models.RoleAdmin,
		JobLevel:     models.LevelAdmin,
		IsActive:     true,
	}
	if err := db.Where("org_id = ? AND login_id = ?", org.ID, admin.LoginID).
		FirstOrCreate(&admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Seed complete: org %q with admin login %q\n", org.Name, admin.LoginID)
	return nil
}
