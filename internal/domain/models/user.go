package models

import "time"

// Roles recognised by the authorization layer.
const (
	RoleUser      = "user"
	RoleGuide     = "guide"
	RoleLeadGuide = "lead-guide"
	RoleAdmin     = "admin"
)

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Photo        string    `json:"photo"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	Active       bool      `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Credential bookkeeping, never serialized.
	PasswordChangedAt    *time.Time `json:"-"`
	PasswordResetHash    string     `json:"-"`
	PasswordResetExpires *time.Time `json:"-"`
}

type PublicUser struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Photo string `json:"photo"`
	Role  string `json:"role"`
}

func (u *User) ToPublic() PublicUser {
	return PublicUser{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Photo: u.Photo,
		Role:  u.Role,
	}
}

// ChangedPasswordAfter reports whether the password changed after the
// given token issue time. A token minted before a password change must be
// rejected.
func (u *User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return issuedAt.Before(u.PasswordChangedAt.Truncate(time.Second))
}
