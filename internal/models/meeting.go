package models

import "time"

type Meeting struct {
	ID              int64     `gorm:"primaryKey"`
	OrgID           int64     `gorm:"index;not null"`
	Title           string    `gorm:"size:255;not null"`
	Description     string    `gorm:"type:text"`
	MeetingDate     time.Time `gorm:"not null"`
	DurationMinutes int       `gorm:"default:60"`
	Location        string    `gorm:"size:255"`
	CreatedBy       int64     `gorm:"not null"`
	CreatedAt       time.Time

	// Relations
	Org          *Organization        `gorm:"foreignKey:OrgID"`
	Participants []MeetingParticipant `gorm:"foreignKey:MeetingID"`
}

type ParticipantStatus string

const (
	ParticipantInvited  ParticipantStatus = "invited"
	ParticipantAccepted ParticipantStatus = "accepted"
	ParticipantDeclined ParticipantStatus = "declined"
)

func (s ParticipantStatus) Valid() bool {
	return s == ParticipantInvited || s == ParticipantAccepted || s == ParticipantDeclined
}

type MeetingParticipant struct {
	ID        int64             `gorm:"primaryKey"`
	MeetingID int64             `gorm:"not null;uniqueIndex:idx_meeting_user"`
	UserID    int64             `gorm:"not null;uniqueIndex:idx_meeting_user"`
	Status    ParticipantStatus `gorm:"size:16;not null;default:invited"`

	// Relations
	Meeting *Meeting `gorm:"foreignKey:MeetingID"`
	User    *User    `gorm:"foreignKey:UserID"`
}
