package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockTokenStore is a mock implementation of the revoked-token store
type MockTokenStore struct {
	mock.Mock
}

// Revoke mocks the Revoke method
func (m *MockTokenStore) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	args := m.Called(ctx, jti, expiresAt)
	return args.Error(0)
}

// IsRevoked mocks the IsRevoked method
func (m *MockTokenStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	args := m.Called(ctx, jti)
	return args.Bool(0), args.Error(1)
}

// MockImageStore is a mock implementation of the image store
type MockImageStore struct {
	mock.Mock
}

// Save mocks the Save method
func (m *MockImageStore) Save(ctx context.Context, key, contentType string, data []byte) error {
	args := m.Called(ctx, key, contentType, data)
	return args.Error(0)
}

// Delete mocks the Delete method
func (m *MockImageStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// URL mocks the URL method
func (m *MockImageStore) URL(key string) string {
	args := m.Called(key)
	return args.String(0)
}
