package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Admin is an operator account of the catalog back office.
type Admin struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	FullName       string    `gorm:"column:full_name;size:150;not null"`
	Username       string    `gorm:"column:username;size:100;not null;uniqueIndex:admins_username_key"`
	Email          string    `gorm:"column:email;size:150;not null;uniqueIndex:admins_email_key"`
	Phone          string    `gorm:"column:phone;size:20;not null;uniqueIndex:admins_phone_key"`
	HashedPassword string    `gorm:"column:hashed_password;not null" json:"-"`
	RoleID         uuid.UUID `gorm:"column:role_id;type:uuid;not null;index"`
	Role           *Role     `gorm:"foreignKey:RoleID;constraint:OnDelete:RESTRICT"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Admin) TableName() string { return "admins" }

func (a *Admin) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// RoleName is empty when Role was not preloaded.
func (a *Admin) RoleName() string {
	if a == nil || a.Role == nil {
		return ""
	}
	return a.Role.Name
}
