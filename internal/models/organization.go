package models

import "time"

type Organization struct {
	ID        int64  `gorm:"primaryKey"`
	Name      string `gorm:"size:200;uniqueIndex;not null"`
	CreatedAt time.Time

	// Relations
	Users    []User    `gorm:"foreignKey:OrgID"`
	Meetings []Meeting `gorm:"foreignKey:OrgID"`
	Tasks    []Task    `gorm:"foreignKey:OrgID"`
}
