package model

import "time"

// Role distinguishes the two account kinds.
type Role string

const (
	RoleBuyer     Role = "buyer"
	RoleDeveloper Role = "developer"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleBuyer || r == RoleDeveloper
}

// Account is a stored buyer or developer record.
// StudioName is set only for developers.
type Account struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Email        string    `json:"email" db:"email"`
	Role         Role      `json:"role" db:"-"`
	StudioName   string    `json:"studio_name,omitempty" db:"studio_name"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Identity is the authenticated principal passed into every cart and library call.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// IsBuyer reports whether the identity may own a cart and library.
func (i Identity) IsBuyer() bool {
	return i.Role == RoleBuyer
}

// Identity returns the principal view of the account.
func (a *Account) Identity() Identity {
	return Identity{ID: a.ID, Username: a.Username, Role: a.Role}
}
