package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/pos-inventory-dashboard/internal/engine"
	"github.com/donaldgifford/pos-inventory-dashboard/internal/lightspeed"
	domain "github.com/donaldgifford/pos-inventory-dashboard/pkg/types"
)

// apiError maps engine and vendor errors to HTTP problem responses.
func apiError(err error) error {
	var (
		invalid  *domain.InvalidCredentialFormatError
		exchange *lightspeed.TokenExchangeError
		vendor   *lightspeed.VendorRequestError
	)

	switch {
	case errors.Is(err, lightspeed.ErrStateMismatch):
		return huma.Error400BadRequest("login state does not match; start the login again")
	case errors.As(err, &exchange):
		return huma.Error502BadGateway("token exchange rejected: " + exchange.Error())
	case errors.Is(err, lightspeed.ErrAuthExpired):
		return huma.Error401Unauthorized("vendor authorization expired; log in again")
	case errors.Is(err, lightspeed.ErrUpstreamUnavailable):
		return huma.Error503ServiceUnavailable("vendor API unavailable: " + err.Error())
	case errors.As(err, &invalid):
		return huma.Error422UnprocessableEntity(invalid.Error())
	case errors.As(err, &vendor):
		return huma.Error502BadGateway(vendor.Error())
	case errors.Is(err, engine.ErrNoCredentials):
		return huma.Error412PreconditionFailed("no credentials configured")
	case errors.Is(err, engine.ErrNoSnapshot):
		return huma.Error404NotFound("inventory not loaded")
	case errors.Is(err, engine.ErrCredentialsChanged):
		return huma.Error409Conflict("credentials changed during load; reload again")
	case errors.Is(err, engine.ErrSizeRequired):
		return huma.Error422UnprocessableEntity("size is required")
	case errors.Is(err, engine.ErrLoginUnavailable):
		return huma.Error501NotImplemented("oauth login not configured")
	case errors.Is(err, context.DeadlineExceeded):
		return huma.Error504GatewayTimeout("vendor request timed out")
	default:
		return huma.Error500InternalServerError("internal error: " + err.Error())
	}
}
