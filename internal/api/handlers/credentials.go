package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/pos-inventory-dashboard/internal/engine"
	domain "github.com/donaldgifford/pos-inventory-dashboard/pkg/types"
)

// CredentialService is the part of the engine the credential routes use.
type CredentialService interface {
	SaveCredentials(ctx context.Context, creds domain.Credentials) error
	ClearCredentials(ctx context.Context) error
	CredentialStatus(ctx context.Context) (*engine.CredentialStatus, error)
	TestConnection(ctx context.Context, creds domain.Credentials) error
}

// CredentialsHandler manages the active vendor credentials.
type CredentialsHandler struct {
	svc CredentialService
}

// NewCredentialsHandler creates a new CredentialsHandler.
func NewCredentialsHandler(svc CredentialService) *CredentialsHandler {
	return &CredentialsHandler{svc: svc}
}

// --- Input/Output types ---

// CredentialsBody carries either R-Series fields (api_key, api_secret,
// cluster) or X-Series fields (store_domain, access_token, ...), never both.
type CredentialsBody struct {
	APIKey       string     `json:"api_key,omitempty"       required:"false" doc:"R-Series API key"`
	APISecret    string     `json:"api_secret,omitempty"    required:"false" doc:"R-Series API secret"`
	Cluster      string     `json:"cluster,omitempty"       required:"false" doc:"R-Series cluster (us or eu)" example:"us"`
	StoreDomain  string     `json:"store_domain,omitempty"  required:"false" doc:"X-Series store domain prefix"  example:"mystore"`
	AccessToken  string     `json:"access_token,omitempty"  required:"false" doc:"X-Series bearer token"`
	RefreshToken string     `json:"refresh_token,omitempty" required:"false" doc:"X-Series refresh token"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"    required:"false" doc:"X-Series access token expiry"`
	AccountID    string     `json:"account_id,omitempty"    required:"false" doc:"X-Series account identifier"`
}

func (b *CredentialsBody) parse() (domain.Credentials, error) {
	raw := domain.RawCredentials{
		APIKey:       b.APIKey,
		APISecret:    b.APISecret,
		Cluster:      b.Cluster,
		StoreDomain:  b.StoreDomain,
		AccessToken:  b.AccessToken,
		RefreshToken: b.RefreshToken,
		AccountID:    b.AccountID,
	}
	if b.ExpiresAt != nil {
		raw.ExpiresAt = *b.ExpiresAt
	}
	return domain.ParseCredentials(raw)
}

// PutCredentialsInput is the input for saving credentials.
type PutCredentialsInput struct {
	Body CredentialsBody
}

// TestCredentialsInput optionally carries credentials to test instead of the
// stored ones.
type TestCredentialsInput struct {
	Body *CredentialsBody `required:"false"`
}

// CredentialStatusOutput describes the stored credentials without secrets.
type CredentialStatusOutput struct {
	Body *engine.CredentialStatus
}

// TestCredentialsOutput is the result of a successful connection test.
type TestCredentialsOutput struct {
	Body struct {
		Status     string            `json:"status"     example:"ok"`
		Generation domain.Generation `json:"generation" example:"r_series"`
	}
}

// --- Handlers ---

// GetCredentials returns the status of the stored credentials.
func (h *CredentialsHandler) GetCredentials(ctx context.Context, _ *struct{}) (*CredentialStatusOutput, error) {
	st, err := h.svc.CredentialStatus(ctx)
	if err != nil {
		return nil, apiError(err)
	}
	return &CredentialStatusOutput{Body: st}, nil
}

// PutCredentials validates and stores credentials.
func (h *CredentialsHandler) PutCredentials(
	ctx context.Context,
	input *PutCredentialsInput,
) (*CredentialStatusOutput, error) {
	creds, err := input.Body.parse()
	if err != nil {
		return nil, apiError(err)
	}
	if err := h.svc.SaveCredentials(ctx, creds); err != nil {
		return nil, apiError(err)
	}
	return h.GetCredentials(ctx, nil)
}

// DeleteCredentials removes the stored credentials and the loaded snapshot.
func (h *CredentialsHandler) DeleteCredentials(ctx context.Context, _ *struct{}) (*struct{}, error) {
	if err := h.svc.ClearCredentials(ctx); err != nil {
		return nil, apiError(err)
	}
	return &struct{}{}, nil
}

// TestCredentials sends one minimal request to the vendor.
func (h *CredentialsHandler) TestCredentials(
	ctx context.Context,
	input *TestCredentialsInput,
) (*TestCredentialsOutput, error) {
	var creds domain.Credentials
	if input.Body != nil {
		parsed, err := input.Body.parse()
		if err != nil {
			return nil, apiError(err)
		}
		creds = parsed
	}

	if err := h.svc.TestConnection(ctx, creds); err != nil {
		return nil, apiError(err)
	}

	resp := &TestCredentialsOutput{}
	resp.Body.Status = "ok"
	if creds != nil {
		resp.Body.Generation = creds.Generation()
	} else if st, err := h.svc.CredentialStatus(ctx); err == nil {
		resp.Body.Generation = st.Generation
	}
	return resp, nil
}

// RegisterCredentialRoutes registers credential endpoints with the Huma API.
func RegisterCredentialRoutes(api huma.API, h *CredentialsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-credentials",
		Method:      http.MethodGet,
		Path:        "/api/v1/credentials",
		Summary:     "Get credential status",
		Description: "Returns which API generation is configured and its non-secret details.",
		Tags:        []string{"credentials"},
	}, h.GetCredentials)

	huma.Register(api, huma.Operation{
		OperationID: "put-credentials",
		Method:      http.MethodPut,
		Path:        "/api/v1/credentials",
		Summary:     "Save credentials",
		Description: "Validates and stores R-Series or X-Series credentials. Switching stores drops the loaded snapshot.",
		Tags:        []string{"credentials"},
		Errors:      []int{http.StatusUnprocessableEntity},
	}, h.PutCredentials)

	huma.Register(api, huma.Operation{
		OperationID:   "delete-credentials",
		Method:        http.MethodDelete,
		Path:          "/api/v1/credentials",
		Summary:       "Delete credentials",
		Description:   "Removes the stored credentials and the snapshot loaded with them.",
		Tags:          []string{"credentials"},
		DefaultStatus: http.StatusNoContent,
	}, h.DeleteCredentials)

	huma.Register(api, huma.Operation{
		OperationID: "test-credentials",
		Method:      http.MethodPost,
		Path:        "/api/v1/credentials/test",
		Summary:     "Test credentials",
		Description: "Sends one minimal vendor request with the given credentials, or the stored ones when no body is sent.",
		Tags:        []string{"credentials"},
		Errors: []int{
			http.StatusUnauthorized,
			http.StatusPreconditionFailed,
			http.StatusUnprocessableEntity,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
		},
	}, h.TestCredentials)
}
