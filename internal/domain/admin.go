package domain

import "time"

// RoleAdmin is the only operator role.
const RoleAdmin = "admin"

// AdminUser is an operator account.
type AdminUser struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
