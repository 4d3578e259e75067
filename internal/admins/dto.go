package admins

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/catalog-admin/pkg/db/models"
)

// AddAdminInput is the new admin account. Password is plain text and hashed
// before insert.
type AddAdminInput struct {
	FullName string    `json:"full_name" validate:"required,max=150"`
	Username string    `json:"username" validate:"required,max=100"`
	Email    string    `json:"email" validate:"required,email,max=150"`
	Phone    string    `json:"phone" validate:"required,max=20"`
	Password string    `json:"password" validate:"required,min=8"`
	RoleID   uuid.UUID `json:"role_id" validate:"required"`
}

type AdminDTO struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"full_name"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	RoleID    uuid.UUID `json:"role_id"`
	RoleName  string    `json:"role_name"`
	CreatedAt time.Time `json:"created_at"`
}

type RoleDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
}

func NewAdminDTO(a *models.Admin) AdminDTO {
	return AdminDTO{
		ID:        a.ID,
		FullName:  a.FullName,
		Username:  a.Username,
		Email:     a.Email,
		Phone:     a.Phone,
		RoleID:    a.RoleID,
		RoleName:  a.RoleName(),
		CreatedAt: a.CreatedAt,
	}
}

func NewRoleDTO(r *models.Role) RoleDTO {
	return RoleDTO{ID: r.ID, Name: r.Name, Description: r.Description}
}
