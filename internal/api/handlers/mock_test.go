package handlers_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/donaldgifford/pos-inventory-dashboard/internal/engine"
	domain "github.com/donaldgifford/pos-inventory-dashboard/pkg/types"
)

// mockService implements every service interface the handlers use.
type mockService struct {
	mock.Mock
}

func (m *mockService) Current() (*domain.Snapshot, error) {
	args := m.Called()
	snap, _ := args.Get(0).(*domain.Snapshot)
	return snap, args.Error(1)
}

func (m *mockService) Reload(ctx context.Context) (*domain.Snapshot, error) {
	args := m.Called(ctx)
	snap, _ := args.Get(0).(*domain.Snapshot)
	return snap, args.Error(1)
}

func (m *mockService) Credentials(ctx context.Context) (domain.Credentials, error) {
	args := m.Called(ctx)
	creds, _ := args.Get(0).(domain.Credentials)
	return creds, args.Error(1)
}

func (m *mockService) LoadInventoryBySize(
	ctx context.Context,
	creds domain.Credentials,
	size string,
) ([]domain.InventoryItem, error) {
	args := m.Called(ctx, creds, size)
	items, _ := args.Get(0).([]domain.InventoryItem)
	return items, args.Error(1)
}

func (m *mockService) SaveCredentials(ctx context.Context, creds domain.Credentials) error {
	return m.Called(ctx, creds).Error(0)
}

func (m *mockService) ClearCredentials(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockService) CredentialStatus(ctx context.Context) (*engine.CredentialStatus, error) {
	args := m.Called(ctx)
	st, _ := args.Get(0).(*engine.CredentialStatus)
	return st, args.Error(1)
}

func (m *mockService) TestConnection(ctx context.Context, creds domain.Credentials) error {
	return m.Called(ctx, creds).Error(0)
}

func (m *mockService) BeginLogin(ctx context.Context, storeDomain string) (*domain.OAuthSession, error) {
	args := m.Called(ctx, storeDomain)
	s, _ := args.Get(0).(*domain.OAuthSession)
	return s, args.Error(1)
}

func (m *mockService) AbortLogin(ctx context.Context, state string) error {
	return m.Called(ctx, state).Error(0)
}

func (m *mockService) CompleteLogin(ctx context.Context, code, state string) (domain.ModernCredentials, error) {
	args := m.Called(ctx, code, state)
	creds, _ := args.Get(0).(domain.ModernCredentials)
	return creds, args.Error(1)
}

type mockPinger struct {
	mock.Mock
}

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
