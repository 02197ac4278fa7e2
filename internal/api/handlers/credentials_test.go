package handlers_test

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/pos-inventory-dashboard/internal/api/handlers"
	"github.com/donaldgifford/pos-inventory-dashboard/internal/engine"
	"github.com/donaldgifford/pos-inventory-dashboard/internal/lightspeed"
	domain "github.com/donaldgifford/pos-inventory-dashboard/pkg/types"
)

func TestCredentialsHandler_Get(t *testing.T) {
	t.Parallel()

	exp := time.Date(2025, 6, 15, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		status   *engine.CredentialStatus
		wantBody []string
		notBody  []string
	}{
		{
			name:     "nothing configured",
			status:   &engine.CredentialStatus{},
			wantBody: []string{`"configured":false`},
		},
		{
			name: "x_series status has no secrets",
			status: &engine.CredentialStatus{
				Configured:  true,
				Generation:  domain.GenerationXSeries,
				StoreDomain: "shop",
				AccountID:   "acc-1",
				ExpiresAt:   &exp,
				CanRefresh:  true,
			},
			wantBody: []string{
				`"generation":"x_series"`,
				`"store_domain":"shop"`,
				`"can_refresh":true`,
				"2025-06-15T15:00:00Z",
			},
			notBody: []string{"access_token", "refresh_token"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := &mockService{}
			svc.On("CredentialStatus", mock.Anything).Return(tt.status, nil).Once()
			t.Cleanup(func() { svc.AssertExpectations(t) })

			_, api := humatest.New(t)
			handlers.RegisterCredentialRoutes(api, handlers.NewCredentialsHandler(svc))

			resp := api.Get("/api/v1/credentials")
			require.Equal(t, http.StatusOK, resp.Code)
			for _, w := range tt.wantBody {
				assert.Contains(t, resp.Body.String(), w)
			}
			for _, n := range tt.notBody {
				assert.NotContains(t, resp.Body.String(), n)
			}
		})
	}
}

func TestCredentialsHandler_Put(t *testing.T) {
	t.Parallel()

	legacy := domain.LegacyCredentials{APIKey: "key", APISecret: "secret", Cluster: domain.ClusterEU}

	tests := []struct {
		name       string
		body       map[string]any
		setupMock  func(*mockService)
		wantStatus int
		wantBody   string
	}{
		{
			name: "saves r_series credentials",
			body: map[string]any{"api_key": "key", "api_secret": "secret", "cluster": "eu1"},
			setupMock: func(m *mockService) {
				m.On("SaveCredentials", mock.Anything, legacy).Return(nil).Once()
				m.On("CredentialStatus", mock.Anything).Return(&engine.CredentialStatus{
					Configured: true, Generation: domain.GenerationRSeries, Cluster: domain.ClusterEU,
				}, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `"cluster":"eu"`,
		},
		{
			name: "saves x_series credentials",
			body: map[string]any{"store_domain": "shop", "access_token": "tok", "refresh_token": "ref"},
			setupMock: func(m *mockService) {
				m.On("SaveCredentials", mock.Anything, domain.ModernCredentials{
					StoreDomain: "shop", AccessToken: "tok", RefreshToken: "ref",
				}).Return(nil).Once()
				m.On("CredentialStatus", mock.Anything).Return(&engine.CredentialStatus{
					Configured: true, Generation: domain.GenerationXSeries, StoreDomain: "shop", CanRefresh: true,
				}, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `"store_domain":"shop"`,
		},
		{
			name:       "mixed generations rejected",
			body:       map[string]any{"api_key": "key", "store_domain": "shop"},
			setupMock:  func(*mockService) {},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   "invalid credential format",
		},
		{
			name:       "unknown cluster rejected",
			body:       map[string]any{"api_key": "key", "api_secret": "secret", "cluster": "ap"},
			setupMock:  func(*mockService) {},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   "cluster must be us or eu",
		},
		{
			name: "store failure",
			body: map[string]any{"api_key": "key", "api_secret": "secret", "cluster": "eu"},
			setupMock: func(m *mockService) {
				m.On("SaveCredentials", mock.Anything, legacy).Return(errors.New("redis down")).Once()
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   "redis down",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := &mockService{}
			tt.setupMock(svc)
			t.Cleanup(func() { svc.AssertExpectations(t) })

			_, api := humatest.New(t)
			handlers.RegisterCredentialRoutes(api, handlers.NewCredentialsHandler(svc))

			resp := api.Put("/api/v1/credentials", tt.body)
			require.Equal(t, tt.wantStatus, resp.Code, resp.Body.String())
			assert.Contains(t, resp.Body.String(), tt.wantBody)
		})
	}
}

func TestCredentialsHandler_Delete(t *testing.T) {
	t.Parallel()

	svc := &mockService{}
	svc.On("ClearCredentials", mock.Anything).Return(nil).Once()

	_, api := humatest.New(t)
	handlers.RegisterCredentialRoutes(api, handlers.NewCredentialsHandler(svc))

	resp := api.Delete("/api/v1/credentials")
	assert.Equal(t, http.StatusNoContent, resp.Code)
	svc.AssertExpectations(t)
}

func TestCredentialsHandler_Test(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       []any
		setupMock  func(*mockService)
		wantStatus int
		wantBody   string
	}{
		{
			name: "tests stored credentials without a body",
			setupMock: func(m *mockService) {
				m.On("TestConnection", mock.Anything, nil).Return(nil).Once()
				m.On("CredentialStatus", mock.Anything).Return(&engine.CredentialStatus{
					Configured: true, Generation: domain.GenerationRSeries,
				}, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `"generation":"r_series"`,
		},
		{
			name: "tests supplied credentials",
			body: []any{map[string]any{"store_domain": "shop", "access_token": "tok"}},
			setupMock: func(m *mockService) {
				m.On("TestConnection", mock.Anything, domain.ModernCredentials{
					StoreDomain: "shop", AccessToken: "tok",
				}).Return(nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `"generation":"x_series"`,
		},
		{
			name: "nothing stored",
			setupMock: func(m *mockService) {
				m.On("TestConnection", mock.Anything, nil).Return(engine.ErrNoCredentials).Once()
			},
			wantStatus: http.StatusPreconditionFailed,
			wantBody:   "no credentials configured",
		},
		{
			name: "vendor rejects token",
			body: []any{map[string]any{"store_domain": "shop", "access_token": "bad"}},
			setupMock: func(m *mockService) {
				m.On("TestConnection", mock.Anything, mock.Anything).
					Return(&lightspeed.AuthExpiredError{Generation: domain.GenerationXSeries}).Once()
			},
			wantStatus: http.StatusUnauthorized,
			wantBody:   "log in again",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := &mockService{}
			tt.setupMock(svc)
			t.Cleanup(func() { svc.AssertExpectations(t) })

			_, api := humatest.New(t)
			handlers.RegisterCredentialRoutes(api, handlers.NewCredentialsHandler(svc))

			resp := api.Post("/api/v1/credentials/test", tt.body...)
			require.Equal(t, tt.wantStatus, resp.Code, resp.Body.String())
			assert.Contains(t, resp.Body.String(), tt.wantBody)
		})
	}
}
