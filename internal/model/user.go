package model

import "time"

// User roles.  Administrators manage the event catalog; regular users
// create and cancel their own bookings.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// User is an application account as stored in the `users` table.
//
// Fields:
//  ID           – primary key identifier.
//  Email        – unique email address, stored lower-cased.
//  PasswordHash – bcrypt hash of the password.
//  Role         – RoleAdmin or RoleUser.
//  IsActive     – whether the account is active.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// RefreshToken is a row in `refresh_tokens`.  Only the SHA-256 hash of
// the raw token is stored.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
