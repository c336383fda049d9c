package guard

import (
	"errors"

	"gorm.io/gorm"

	"flowdeck/internal/apperr"
	"flowdeck/internal/audit"
	"flowdeck/internal/models"
)

// Guard enforces the last-admin invariant and records user lifecycle events.
// All methods run inside the caller's transaction so the admin count cannot
// change between the check and the write.
type Guard struct {
	Rec audit.Recorder
}

// CanRemoveAdmin reports whether removing, deactivating or demoting the given
// user would leave the organization without an active admin. Non-admin and
// already-inactive targets never trip the invariant.
func (g Guard) CanRemoveAdmin(tx *gorm.DB, orgID, userID int64) error {
	var target models.User
	if err := tx.Where("org_id = ?", orgID).First(&target, userID).Error; err != nil {
		return err
	}
	if !target.IsAdmin() || !target.IsActive {
		return nil
	}

	var others int64
	err := tx.Model(&models.User{}).
		Where("org_id = ? AND role = ? AND is_active = ? AND id <> ?",
			orgID, models.RoleAdmin, true, userID).
		Count(&others).Error
	if err != nil {
		return err
	}
	if others == 0 {
		return apperr.ErrLastAdmin
	}
	return nil
}

// RequireActiveMember verifies a referenced user exists, belongs to the
// organization and is active. Task assignees and meeting participants must
// both pass it.
func RequireActiveMember(tx *gorm.DB, orgID, userID int64) error {
	var member models.User
	if err := tx.First(&member, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrNotFound
		}
		return err
	}
	if member.OrgID != orgID {
		return apperr.ErrScopeViolation
	}
	if !member.IsActive {
		return apperr.ErrInactiveUser
	}
	return nil
}

// UserCreated appends the creation event for a freshly inserted user.
func (g Guard) UserCreated(tx *gorm.DB, actor *int64, u *models.User, ip string) (*models.AuditLog, error) {
	return g.Rec.Record(tx, audit.Event{
		Actor:    actor,
		Action:   models.ActionCreated,
		Table:    models.TableUsers,
		RecordID: u.ID,
		Details: map[string]any{
			"full_name": u.FullName,
			"role":      string(u.Role),
		},
		IP: ip,
	})
}

// DeletionSnapshot records identifying fields of a user about to be deleted;
// the row is gone afterwards, so the snapshot is the surviving record.
func (g Guard) DeletionSnapshot(tx *gorm.DB, actor *int64, u *models.User, ip string) (*models.AuditLog, error) {
	return g.Rec.Record(tx, audit.Event{
		Actor:    actor,
		Action:   models.ActionDeleted,
		Table:    models.TableUsers,
		RecordID: u.ID,
		Details: map[string]any{
			"full_name": u.FullName,
			"role":      string(u.Role),
			"email":     u.Email,
		},
		IP: ip,
	})
}

// ActivationChanged records a deactivation or reactivation.
func (g Guard) ActivationChanged(tx *gorm.DB, actor *int64, u *models.User, ip string) (*models.AuditLog, error) {
	return g.Rec.Record(tx, audit.Event{
		Actor:    actor,
		Action:   models.ActionUpdated,
		Table:    models.TableUsers,
		RecordID: u.ID,
		Details: map[string]any{
			"full_name": u.FullName,
			"is_active": u.IsActive,
		},
		IP: ip,
	})
}
