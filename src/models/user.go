package models

import (
	"ticketbooth/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID    uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name  string     `json:"name,omitempty"`
	Email string     `gorm:"uniqueIndex" json:"email,omitempty"`
	Role  types.Role `gorm:"size:16;default:'Customer'" json:"role"`

	Reservations []Reservation `gorm:"constraint:OnDelete:CASCADE" json:"-"`

	types.Timestamps
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
