package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles a user record may carry. Validation restricts input to this set;
// the database default is RoleUser.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
	RoleGuest = "guest" // never stored, assigned to unauthenticated callers
)

type User struct {
	ID        int64     `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"` // stored lower-case
	Name      string    `db:"name" json:"name"`
	Password  string    `db:"password" json:"-"` // bcrypt digest, never serialized
	Role      string    `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"-"`
	UpdatedAt time.Time `db:"updated_at" json:"-"`
}

// PublicUser is the response projection of a user record.
type PublicUser struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Public strips everything a client is not supposed to see.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, Role: u.Role}
}

// Claims defines the structure of the JWT claims.
type Claims struct {
	UserID int64  `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
