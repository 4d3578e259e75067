package auth

import (
	"time"

	"github.com/angelmondragon/catalog-admin/internal/admins"
)

// LoginRequest accepts a username, email or phone as the login.
type LoginRequest struct {
	Login    string `json:"login" validate:"required,max=150"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the signed access token and the signed-in admin.
type LoginResponse struct {
	AccessToken string          `json:"access_token"`
	ExpiresAt   time.Time       `json:"expires_at"`
	Admin       admins.AdminDTO `json:"admin"`
}
