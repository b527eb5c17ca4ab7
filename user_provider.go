package auth

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
)

// dummyHash keeps the bcrypt comparison on the failure path so a lookup miss
// costs roughly the same as a password mismatch. Response symmetry: both
// paths return ErrInvalidCredentials.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// NormalizeEmail applies the canonical form used everywhere an email is
// compared or stored: trimmed and lowercased.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmailFormat rejects identifiers that do not match a standard
// local@domain.tld shape.
func ValidateEmailFormat(email string) error {
	if err := validation.Validate(email, validation.Required, is.Email); err != nil {
		return ErrInvalidEmailFormat
	}
	return nil
}

// UserProvider verifies credentials against the Users store and resolves
// identities for previously authenticated principals.
type UserProvider struct {
	store  Users
	logger Logger
}

var _ IdentityProvider = (*UserProvider)(nil)

// NewUserProvider will create a new UserProvider
func NewUserProvider(store Users) *UserProvider {
	return &UserProvider{
		store:  store,
		logger: defLogger{},
	}
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	if l != nil {
		u.logger = l
	}
	return u
}

// VerifyIdentity checks a submitted email/password pair against the stored
// credential record. Any miss — unknown email, inactive record, or wrong
// password — comes back as ErrInvalidCredentials without revealing which.
func (u *UserProvider) VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error) {
	email := NormalizeEmail(identifier)

	if err := ValidateEmailFormat(email); err != nil {
		return nil, err
	}

	user, err := u.store.FindActiveByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Burn the same bcrypt work as the match path.
			_ = ComparePasswordAndHash(password, dummyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during verification")
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.Role.IsValid() {
		u.logger.Error("user has an unknown or invalid role", "role", user.Role, "user_id", user.ID)
		return nil, errors.New("user has an unknown or invalid role", errors.CategoryAuth).
			WithTextCode("INVALID_ROLE").
			WithMetadata(map[string]any{"user_id": user.ID})
	}

	return user.Identity(), nil
}

// FindIdentityByID resolves an identity for an already-authenticated id.
func (u *UserProvider) FindIdentityByID(ctx context.Context, id int64) (Identity, error) {
	user, err := u.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Identity(), nil
}

type authIdentity struct {
	id    int64
	email string
	name  string
	role  UserRole
}

func (a authIdentity) ID() int64 {
	return a.id
}

func (a authIdentity) Email() string {
	return a.email
}

func (a authIdentity) Name() string {
	return a.name
}

func (a authIdentity) Role() UserRole {
	return a.role
}

var _ Identity = authIdentity{}
