package identity

import (
	"strings"

	"github.com/crmhub/backend/internal/domain/shared"
)

// Role is a user's permission level within a tenant.
type Role string

const (
	RoleOwner   Role = "owner"
	RoleManager Role = "manager"
	RoleStaff   Role = "staff"
)

func (r Role) IsValid() bool {
	return r == RoleOwner || r == RoleManager || r == RoleStaff
}

// rank orders roles for the management hierarchy.
func (r Role) rank() int {
	switch r {
	case RoleOwner:
		return 3
	case RoleManager:
		return 2
	case RoleStaff:
		return 1
	}
	return 0
}

// CanManage reports whether this role may assign or modify the target
// role. A user manages roles at or below their own level.
func (r Role) CanManage(target Role) bool {
	return r.rank() >= target.rank() && target.rank() > 0
}

// UserStatus marks whether the account can sign in.
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

// User is a staff account within a tenant.
type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name,omitempty"`
	Role      Role       `json:"role"`
	Status    UserStatus `json:"status"`
	CreatedAt string     `json:"created_at"`
	UpdatedAt string     `json:"updated_at,omitempty"`
}

// NewUser creates an active user with the given role.
func NewUser(email string, role Role) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, shared.NewValidationError("email", "is required")
	}
	if !emailRegex.MatchString(email) {
		return nil, shared.NewValidationError("email", "must be a valid email address")
	}
	if role == "" {
		role = RoleStaff
	}
	if !role.IsValid() {
		return nil, shared.NewValidationError("role", "must be one of: owner, manager, staff")
	}
	u := &User{
		ID:        shared.NewID(),
		Email:     email,
		Role:      role,
		Status:    UserStatusActive,
		CreatedAt: shared.NowISO(),
	}
	u.UpdatedAt = u.CreatedAt
	return u, nil
}

func (u *User) GetID() string        { return u.ID }
func (u *User) GetCreatedAt() string { return u.CreatedAt }
