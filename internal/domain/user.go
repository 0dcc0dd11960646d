package domain

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	}
	return false
}

// User is an account record. PasswordHash never leaves the server.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	Verified     bool      `json:"verified"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanAct reports whether the account passes the verification gate.
func (u *User) CanAct() bool {
	return u.Verified || u.IsAdmin()
}

// Principal is the authenticated caller attached to a request after the gate admits it.
type Principal struct {
	UserID   string
	Email    string
	Role     Role
	Verified bool
}

// IsAdmin reports whether the principal holds the admin role.
func (p *Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// PrincipalFromUser builds a principal from a stored user record.
func PrincipalFromUser(u *User) *Principal {
	return &Principal{
		UserID:   u.ID,
		Email:    u.Email,
		Role:     u.Role,
		Verified: u.Verified,
	}
}
