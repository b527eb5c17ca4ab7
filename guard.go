package auth

// Authorize allows or denies an operation for an authenticated identity. An
// empty requiredRole admits any authenticated identity; otherwise the
// identity's role must match exactly. The guard never says why a denial
// happened beyond "insufficient permissions" — distinguishing a missing
// resource from a forbidden one is the caller's job.
func Authorize(identity Identity, requiredRole UserRole) error {
	if identity == nil {
		return ErrUnauthenticated
	}

	if requiredRole == "" {
		return nil
	}

	if identity.Role() != requiredRole {
		return ErrForbidden
	}

	return nil
}

// RequireAdmin is the admin-only special case of Authorize.
func RequireAdmin(identity Identity) error {
	return Authorize(identity, RoleAdmin)
}

// CanReadUser layers the ownership rule above the guard: an identity may
// always read its own record, even without the elevated role. Deletion never
// goes through this path.
func CanReadUser(identity Identity, targetID int64) error {
	if identity == nil {
		return ErrUnauthenticated
	}

	if identity.Role().IsAdmin() {
		return nil
	}

	if identity.ID() == targetID {
		return nil
	}

	return ErrForbidden
}
