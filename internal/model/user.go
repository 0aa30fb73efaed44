package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account allowed to call the API
type User struct {
	ID           uint           `json:"-" gorm:"primaryKey"`
	ExternalID   string         `json:"external_id" gorm:"type:varchar(36);uniqueIndex;not null"`
	Name         string         `json:"name" gorm:"type:varchar(80)"`
	Email        string         `json:"email" gorm:"type:varchar(254);uniqueIndex;not null"`
	PasswordHash string         `json:"-" gorm:"type:varchar(100);not null"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeCreate assigns the external id
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ExternalID == "" {
		u.ExternalID = uuid.NewString()
	}
	return nil
}
