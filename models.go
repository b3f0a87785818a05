package atelier

import (
	"strings"

	"github.com/google/uuid"
)

// Role is the coarse permission tier derived from the user's role list.
type Role = string

const (
	// RoleUser is any authenticated non-admin account.
	RoleUser Role = "user"
	// RoleAdmin unlocks the back-office surface.
	RoleAdmin Role = "admin"
)

// UserSummary is the denormalized identity snapshot returned by the backend.
type UserSummary struct {
	ID             string   `json:"id,omitempty"`
	Username       string   `json:"username,omitempty"`
	Email          string   `json:"email,omitempty"`
	AvatarURL      string   `json:"avatar_url,omitempty"`
	WalletAddress  string   `json:"wallet_address,omitempty"`
	Roles          []string `json:"roles,omitempty"`
	EmailVerified  bool     `json:"is_email_verified,omitempty"`
	WalletVerified bool     `json:"is_wallet_verified,omitempty"`
}

// UUID parses the user ID as a UUID.
func (u *UserSummary) UUID() (uuid.UUID, error) {
	return uuid.Parse(u.ID)
}

// IsAdmin reports whether the derived role is admin.
func (u *UserSummary) IsAdmin() bool {
	return DeriveRole(u) == RoleAdmin
}

// DeriveRole computes the permission tier from the user's role list: admin
// iff any entry equals "admin" ignoring case, otherwise user. The result is
// a pure function of the snapshot and is recomputed on every call; nothing
// caches it independently.
func DeriveRole(user *UserSummary) Role {
	if user == nil {
		return RoleUser
	}

	for _, role := range user.Roles {
		if strings.EqualFold(role, RoleAdmin) {
			return RoleAdmin
		}
	}

	return RoleUser
}

// IsValid checks if the role is one of the predefined valid roles
func IsValidRole(r Role) bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// ParseRole safely parses a string into a Role
func ParseRole(roleStr string) (Role, bool) {
	role := Role(strings.ToLower(roleStr))
	return role, IsValidRole(role)
}
