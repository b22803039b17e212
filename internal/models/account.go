package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccountRole scopes what an authenticated caller may do.
type AccountRole string

const (
	RoleAdmin       AccountRole = "admin"
	RoleResearcher  AccountRole = "researcher"
	RoleCoordinator AccountRole = "coordinator"
)

// Account is a staff account with API access to study data.
type Account struct {
	ID           string      `db:"id" json:"id"`
	Email        string      `db:"email" json:"email"`
	FullName     string      `db:"full_name" json:"full_name"`
	PasswordHash string      `db:"password_hash" json:"-"`
	Role         AccountRole `db:"role" json:"role"`
	Active       bool        `db:"active" json:"active"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}

// JWTClaims embeds registered claims plus account metadata.
type JWTClaims struct {
	UserID   string      `json:"uid"`
	Role     AccountRole `json:"role"`
	Email    string      `json:"email"`
	FullName string      `json:"name"`
	jwt.RegisteredClaims
}
