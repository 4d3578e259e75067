package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleMaster     = "Master"
	RoleManager    = "Manager"
	RoleEmployee   = "Employee"
	RoleSupervisor = "Supervisor"
	RoleBDE        = "BDE"
)

// Role is a named permission level assigned to admins.
type Role struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name        string    `gorm:"column:name;size:50;not null;uniqueIndex:roles_name_key"`
	Description *string   `gorm:"column:description"`
}

func (Role) TableName() string { return "roles" }

func (r *Role) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
