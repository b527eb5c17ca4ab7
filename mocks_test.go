package auth_test

import (
	"context"

	auth "github.com/spsgroup/go-auth"
	"github.com/stretchr/testify/mock"
)

// MockLogger implements auth.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Info(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Error(format string, args ...any) {
	m.Called(format, args)
}

// testIdentity is a plain Identity value for tests that do not need mocks.
type testIdentity struct {
	id    int64
	email string
	name  string
	role  auth.UserRole
}

func (t testIdentity) ID() int64           { return t.id }
func (t testIdentity) Email() string       { return t.email }
func (t testIdentity) Name() string        { return t.name }
func (t testIdentity) Role() auth.UserRole { return t.role }

// testConfig implements auth.Config with sensible test values.
type testConfig struct {
	signingKey      string
	tokenExpiration int
	issuer          string
	audience        []string
}

func (c testConfig) GetSigningKey() string {
	if c.signingKey == "" {
		return "test-signing-key"
	}
	return c.signingKey
}

func (c testConfig) GetSigningMethod() string { return "HS256" }
func (c testConfig) GetContextKey() string    { return "user" }

func (c testConfig) GetTokenExpiration() int {
	if c.tokenExpiration == 0 {
		return 8
	}
	return c.tokenExpiration
}

func (c testConfig) GetTokenLookup() string { return "header:Authorization" }
func (c testConfig) GetAuthScheme() string  { return "Bearer" }
func (c testConfig) GetIssuer() string      { return c.issuer }
func (c testConfig) GetAudience() []string  { return c.audience }

// MockUsers implements auth.Users
type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) FindActiveByEmail(ctx context.Context, email string) (*auth.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUsers) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUsers) ListActive(ctx context.Context) ([]*auth.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]*auth.User)
	return users, args.Error(1)
}

func (m *MockUsers) Create(ctx context.Context, data auth.UserData) (*auth.User, error) {
	args := m.Called(ctx, data)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUsers) Update(ctx context.Context, id int64, data auth.UserUpdate) (*auth.User, error) {
	args := m.Called(ctx, id, data)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUsers) SoftDelete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
