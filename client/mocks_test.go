package client

import (
	"context"

	auth "github.com/goliatone/go-auth-gate"
	"github.com/stretchr/testify/mock"
)

// MockPasswordProvider implements PasswordProvider
type MockPasswordProvider struct {
	mock.Mock
}

func (m *MockPasswordProvider) SignInWithPassword(ctx context.Context, email, password string) (*Principal, error) {
	args := m.Called(ctx, email, password)
	p, _ := args.Get(0).(*Principal)
	return p, args.Error(1)
}

func (m *MockPasswordProvider) SignUpWithPassword(ctx context.Context, email, password string) (*Principal, error) {
	args := m.Called(ctx, email, password)
	p, _ := args.Get(0).(*Principal)
	return p, args.Error(1)
}

// MockFederatedProvider implements FederatedProvider
type MockFederatedProvider struct {
	mock.Mock
}

func (m *MockFederatedProvider) SignInWithFederatedProvider(ctx context.Context) (*Principal, error) {
	args := m.Called(ctx)
	p, _ := args.Get(0).(*Principal)
	return p, args.Error(1)
}

// MockProfileWriter implements ProfileWriter
type MockProfileWriter struct {
	mock.Mock
}

func (m *MockProfileWriter) CreateProfile(ctx context.Context, principal *Principal, attrs *auth.ProfileAttributes) error {
	args := m.Called(ctx, principal, attrs)
	return args.Error(0)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
