package model

import "time"

// Account represents an application user record as stored in the
// `users` table. Each field corresponds to a column in the
// database. The struct carries no json tags because the password
// digest must never be serialized; handlers build their own views.
//
// Fields:
//
//	ID           – primary key identifier of the account.
//	Name         – display name.
//	Email        – unique, lower-cased email address.
//	PasswordHash – bcrypt digest of the password.
//	CreatedAt    – timestamp of creation.
//	LastLogin    – timestamp of the last successful authentication (nil until then).
//	IsActive     – false once the account is soft-deactivated.
type Account struct {
	ID           uint64     // users.id
	Name         string     // users.name
	Email        string     // users.email
	PasswordHash string     // users.password_hash
	CreatedAt    time.Time  // users.created_at
	LastLogin    *time.Time // users.last_login (nullable)
	IsActive     bool       // users.is_active
}

// Role labels carried by sessions.
const (
	RoleUser  = "User"
	RoleAdmin = "Admin"
)
