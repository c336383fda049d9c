package models

import "time"

type UserRole string

const (
	RoleAdmin    UserRole = "admin"
	RoleEmployee UserRole = "employee"
)

func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleEmployee
}

// JobLevel is informational only; it carries no permissions.
type JobLevel string

const (
	LevelIntern          JobLevel = "intern"
	LevelDeveloper       JobLevel = "developer"
	LevelSeniorDeveloper JobLevel = "senior_developer"
	LevelTeamLead        JobLevel = "team_lead"
	LevelManager         JobLevel = "manager"
	LevelAdmin           JobLevel = "admin"
)

func (l JobLevel) Valid() bool {
	switch l {
	case LevelIntern, LevelDeveloper, LevelSeniorDeveloper, LevelTeamLead, LevelManager, LevelAdmin:
		return true
	}
	return false
}

type User struct {
	ID           int64    `gorm:"primaryKey"`
	OrgID        int64    `gorm:"not null;uniqueIndex:idx_org_login"`
	LoginID      string   `gorm:"size:100;not null;uniqueIndex:idx_org_login"`
	PasswordHash string   `gorm:"size:255;not null" json:"-"`
	FullName     string   `gorm:"size:200;not null"`
	Email        string   `gorm:"size:255;not null"`
	Role         UserRole `gorm:"size:16;not null;default:employee"`
	JobLevel     JobLevel `gorm:"size:32"`
	IsActive     bool     `gorm:"default:true"`
	CreatedAt    time.Time
	LastLogin    *time.Time

	// Relations
	Org *Organization `gorm:"foreignKey:OrgID"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Actor is the authenticated identity the web layer hands to the core.
type Actor struct {
	ID    int64
	OrgID int64
	Role  UserRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

func (u *User) Actor() Actor {
	return Actor{ID: u.ID, OrgID: u.OrgID, Role: u.Role}
}
