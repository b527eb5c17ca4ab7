package auth

// UserRole is a closed enumeration of the roles an identity can hold. Keeping
// it a distinct type (rather than a free-form string) lets the access control
// guard stay exhaustive.
type UserRole string

const (
	// RoleAdmin can manage every user record.
	RoleAdmin UserRole = "admin"
	// RoleUser can list users and read its own record.
	RoleUser UserRole = "user"
)

// IsValid checks if the role is one of the predefined valid roles
func (r UserRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleUser:
		return true
	default:
		return false
	}
}

// IsAdmin reports whether the role grants administrative access.
func (r UserRole) IsAdmin() bool {
	return r == RoleAdmin
}

// GetAllRoles returns all predefined roles
func GetAllRoles() []UserRole {
	return []UserRole{RoleAdmin, RoleUser}
}

// ParseRole safely parses a string into a UserRole type
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, role.IsValid()
}
