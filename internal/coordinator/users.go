package coordinator

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"flowdeck/internal/apperr"
	"flowdeck/internal/audit"
	"flowdeck/internal/auth"
	"flowdeck/internal/models"
)

// Credentials are returned once, at creation or reset time; only the hash is
// stored.
type Credentials struct {
	LoginID  string
	Password string
}

type OrganizationInput struct {
	Name          string
	AdminName     string
	AdminEmail    string
	AdminLoginID  string
	AdminPassword string
}

// CreateOrganization registers a new organization together with its first
// user, who is always an admin.
func (c *Coordinator) CreateOrganization(in OrganizationInput, ip string) (*models.Organization, *models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.AdminLoginID = strings.TrimSpace(strings.ToLower(in.AdminLoginID))
	if in.Name == "" || in.AdminLoginID == "" {
		return nil, nil, apperr.ErrInvalidTransition
	}

	var org models.Organization
	var admin models.User
	err := c.run(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Organization{}).Where("name = ?", in.Name).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return apperr.ErrDuplicate
		}

		org = models.Organization{Name: in.Name}
		if err := tx.Create(&org).Error; err != nil {
			return err
		}

		hash, err := auth.HashPassword(in.AdminPassword)
		if err != nil {
			return err
		}
		admin = models.User{
			OrgID:        org.ID,
			LoginID:      in.AdminLoginID,
			PasswordHash: hash,
			FullName:     in.AdminName,
			Email:        strings.TrimSpace(strings.ToLower(in.AdminEmail)),
			Role:         models.RoleAdmin,
			JobLevel:     models.LevelAdmin,
			IsActive:     true,
		}
		if err := tx.Create(&admin).Error; err != nil {
			return err
		}

		if _, err := c.rec.Record(tx, audit.Event{
			Actor:    &admin.ID,
			Action:   models.ActionCreated,
			Table:    models.TableOrganizations,
			RecordID: org.ID,
			Details:  map[string]any{"name": org.Name},
			IP:       ip,
		}); err != nil {
			return err
		}
		_, err = c.guard.UserCreated(tx, &admin.ID, &admin, ip)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return &org, &admin, nil
}

type UserInput struct {
	FullName string
	Email    string
	Role     models.UserRole
	JobLevel models.JobLevel
}

// CreateUser adds a member to the actor's organization with derived login id
// and a generated password. Admin only.
func (c *Coordinator) CreateUser(actor models.Actor, in UserInput, ip string) (*models.User, Credentials, error) {
	if !actor.IsAdmin() {
		return nil, Credentials{}, apperr.ErrPermissionDenied
	}
	if !in.Role.Valid() || !in.JobLevel.Valid() {
		return nil, Credentials{}, apperr.ErrInvalidTransition
	}

	var user models.User
	var creds Credentials
	err := c.run(func(tx *gorm.DB) error {
		loginID, err := auth.DeriveLoginID(tx, actor.OrgID, in.FullName)
		if err != nil {
			return err
		}
		password, err := auth.GeneratePassword()
		if err != nil {
			return err
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}

		user = models.User{
			OrgID:        actor.OrgID,
			LoginID:      loginID,
			PasswordHash: hash,
			FullName:     strings.TrimSpace(in.FullName),
			Email:        strings.TrimSpace(strings.ToLower(in.Email)),
			Role:         in.Role,
			JobLevel:     in.JobLevel,
			IsActive:     true,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		creds = Credentials{LoginID: loginID, Password: password}
		_, err = c.guard.UserCreated(tx, &actor.ID, &user, ip)
		return err
	})
	if err != nil {
		return nil, Credentials{}, err
	}
	return &user, creds, nil
}

type UserChanges struct {
	FullName *string
	Email    *string
	Role     *models.UserRole
	JobLevel *models.JobLevel
}

// UpdateUser edits profile, role or job level of an org member. Demoting the
// last active admin is refused. Admin only.
func (c *Coordinator) UpdateUser(actor models.Actor, id int64, ch UserChanges, ip string) (*models.User, error) {
	if !actor.IsAdmin() {
		return nil, apperr.ErrPermissionDenied
	}
	if ch.Role != nil && !ch.Role.Valid() {
		return nil, apperr.ErrInvalidTransition
	}
	if ch.JobLevel != nil && !ch.JobLevel.Valid() {
		return nil, apperr.ErrInvalidTransition
	}

	var user models.User
	err := c.run(func(tx *gorm.DB) error {
		if err := tx.Where("org_id = ?", actor.OrgID).First(&user, id).Error; err != nil {
			return err
		}

		var changed []string
		if ch.FullName != nil && *ch.FullName != user.FullName {
			user.FullName = *ch.FullName
			changed = append(changed, "full_name")
		}
		if ch.Email != nil && *ch.Email != user.Email {
			user.Email = strings.TrimSpace(strings.ToLower(*ch.Email))
			changed = append(changed, "email")
		}
		if ch.JobLevel != nil && *ch.JobLevel != user.JobLevel {
			user.JobLevel = *ch.JobLevel
			changed = append(changed, "job_level")
		}
		if ch.Role != nil && *ch.Role != user.Role {
			if user.Role == models.RoleAdmin {
				if err := c.guard.CanRemoveAdmin(tx, actor.OrgID, user.ID); err != nil {
					return err
				}
			}
			user.Role = *ch.Role
			changed = append(changed, "role")
		}
		if len(changed) == 0 {
			return nil
		}

		if err := tx.Save(&user).Error; err != nil {
			return err
		}
		_, err := c.rec.Record(tx, audit.Event{
			Actor:    &actor.ID,
			Action:   models.ActionUpdated,
			Table:    models.TableUsers,
			RecordID: user.ID,
			Details:  map[string]any{"fields": changed},
			IP:       ip,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// DeactivateUser disables an account. The last-admin check runs inside the
// same transaction as the write, so two concurrent deactivations of the two
// remaining admins cannot both pass.
func (c *Coordinator) DeactivateUser(actor models.Actor, id int64, ip string) (*models.User, error) {
	if !actor.IsAdmin() {
		return nil, apperr.ErrPermissionDenied
	}
	var user models.User
	err := c.run(func(tx *gorm.DB) error {
		if err := tx.Where("org_id = ?", actor.OrgID).First(&user, id).Error; err != nil {
			return err
		}
		if !user.IsActive {
			return nil
		}
		if err := c.guard.CanRemoveAdmin(tx, actor.OrgID, user.ID); err != nil {
			return err
		}
		user.IsActive = false
		if err := tx.Save(&user).Error; err != nil {
			return err
		}
		_, err := c.guard.ActivationChanged(tx, &actor.ID, &user, ip)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ReactivateUser re-enables a disabled account. Admin only.
func (c *Coordinator) ReactivateUser(actor models.Actor, id int64, ip string) (*models.User, error) {
	if !actor.IsAdmin() {
		return nil, apperr.ErrPermissionDenied
	}
	var user models.User
	err := c.run(func(tx *gorm.DB) error {
		if err := tx.Where("org_id = ?", actor.OrgID).First(&user, id).Error; err != nil {
			return err
		}
		if user.IsActive {
			return nil
		}
		user.IsActive = true
		if err := tx.Save(&user).Error; err != nil {
			return err
		}
		_, err := c.guard.ActivationChanged(tx, &actor.ID, &user, ip)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes an account for good. The audit snapshot is recorded
// before the row disappears; task assignments are cleared and participant
// links removed, while created_by references stay as historical ids.
func (c *Coordinator) DeleteUser(actor models.Actor, id int64, ip string) error {
	if !actor.IsAdmin() {
		return apperr.ErrPermissionDenied
	}
	return c.run(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where("org_id = ?", actor.OrgID).First(&user, id).Error; err != nil {
			return err
		}
		if err := c.guard.CanRemoveAdmin(tx, actor.OrgID, user.ID); err != nil {
			return err
		}
		if _, err := c.guard.DeletionSnapshot(tx, &actor.ID, &user, ip); err != nil {
			return err
		}
		if err := tx.Model(&models.Task{}).
			Where("assigned_to = ?", user.ID).
			Update("assigned_to", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).
			Delete(&models.MeetingParticipant{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, user.ID).Error
	})
}

// ResetPassword issues a fresh generated password for an org member. Admin
// only; the new plaintext is returned exactly once.
func (c *Coordinator) ResetPassword(actor models.Actor, id int64, ip string) (Credentials, error) {
	if !actor.IsAdmin() {
		return Credentials{}, apperr.ErrPermissionDenied
	}
	var creds Credentials
	err := c.run(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where("org_id = ?", actor.OrgID).First(&user, id).Error; err != nil {
			return err
		}
		password, err := auth.GeneratePassword()
		if err != nil {
			return err
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}
		user.PasswordHash = hash
		if err := tx.Save(&user).Error; err != nil {
			return err
		}
		creds = Credentials{LoginID: user.LoginID, Password: password}
		_, err = c.rec.Record(tx, audit.Event{
			Actor:    &actor.ID,
			Action:   models.ActionUpdated,
			Table:    models.TableUsers,
			RecordID: user.ID,
			Details:  map[string]any{"fields": []string{"password_hash"}},
			IP:       ip,
		})
		return err
	})
	if err != nil {
		return Credentials{}, err
	}
	return creds, nil
}

// Login verifies credentials, stamps last_login and records a login audit
// event. Login ids are unique per organization, so the password is checked
// against every candidate; unknown id and wrong password are
// indistinguishable to the caller.
func (c *Coordinator) Login(loginID, password, ip string) (*models.User, string, error) {
	loginID = strings.TrimSpace(strings.ToLower(loginID))

	var user models.User
	var token string
	err := c.run(func(tx *gorm.DB) error {
		var candidates []models.User
		if err := tx.Where("login_id = ?", loginID).Find(&candidates).Error; err != nil {
			return err
		}
		var match *models.User
		for i := range candidates {
			if auth.CheckPassword(password, candidates[i].PasswordHash) {
				match = &candidates[i]
				break
			}
		}
		if match == nil {
			return apperr.ErrInvalidCredentials
		}
		if !match.IsActive {
			return apperr.ErrInactiveUser
		}

		now := time.Now()
		match.LastLogin = &now
		if err := tx.Save(match).Error; err != nil {
			return err
		}
		if _, err := c.rec.Record(tx, audit.Event{
			Actor:    &match.ID,
			Action:   models.ActionLogin,
			Table:    models.TableUsers,
			RecordID: match.ID,
			Details:  map[string]any{"login_id": match.LoginID},
			IP:       ip,
		}); err != nil {
			return err
		}

		var err error
		token, err = auth.GenerateToken(match.Actor(), c.secret)
		if err != nil {
			return err
		}
		user = *match
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return &user, token, nil
}
