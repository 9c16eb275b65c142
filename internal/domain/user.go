package domain

import (
	"time"
)

// Role represents a user privilege level.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// UserModel is the GORM model for the users table.
type UserModel struct {
	ID           uint      `gorm:"primaryKey"`
	Name         string    `gorm:"type:varchar(100);not null"`
	Email        string    `gorm:"type:varchar(150);uniqueIndex;not null"`
	PasswordHash string    `gorm:"column:password;not null"`
	Role         string    `gorm:"type:varchar(20);not null;default:'member'"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

// TableName specifies the table name for UserModel.
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts UserModel to a domain User. The password hash is
// deliberately not carried over.
func (m *UserModel) ToDomain() *User {
	return &User{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Role:      Role(m.Role),
		CreatedAt: m.CreatedAt,
	}
}

// User represents an account without credential material.
type User struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Ref returns the identity fields safe to put on the wire.
func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, Name: u.Name}
}

// UserRef is the minimal identity carried on wire events: id and display
// name only, never credentials or email.
type UserRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// Identity is a resolved, authenticated actor. Both the REST middleware and
// the gateway handshake produce one of these; services authorize against it.
type Identity struct {
	UserID uint
	Name   string
	Role   Role
}

// Ref returns the wire-safe identity fields.
func (id Identity) Ref() UserRef {
	return UserRef{ID: id.UserID, Name: id.Name}
}

// IsAdmin reports whether the actor holds the elevated role.
func (id Identity) IsAdmin() bool {
	return id.Role == RoleAdmin
}

// RegisterRequest is the payload for user registration.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email,max=150"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"omitempty,oneof=admin member"`
}

// LoginRequest is the payload for user login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is returned on successful login.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
	User        User   `json:"user"`
}
