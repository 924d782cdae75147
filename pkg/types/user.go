package types

import "time"

type UserRole string

const (
	UserRoleAdmin        UserRole = "admin"
	UserRoleDirector     UserRole = "director"
	UserRoleSiteDirector UserRole = "site_director"
	UserRoleDonator      UserRole = "donator"
)

// IsStaff reports whether the role can manage beneficiaries.
func (r UserRole) IsStaff() bool {
	switch r {
	case UserRoleAdmin, UserRoleDirector, UserRoleSiteDirector:
		return true
	}
	return false
}

type User struct {
	ID            string    `db:"id"`
	Role          UserRole  `db:"role"`
	Email         *string   `db:"email"`
	GivenName     *string   `db:"given_name"`
	FamilyName    *string   `db:"family_name"`
	HeadquarterID *string   `db:"headquarter_id"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}
