package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Session and device authorization errors
	ErrNotAuthenticated     = fmt.Errorf("not authenticated")
	ErrTokenExpired         = fmt.Errorf("access token expired")
	ErrRefreshFailed        = fmt.Errorf("token refresh failed")
	ErrNoRefreshToken       = fmt.Errorf("no refresh token available")
	ErrInvalidGrant         = fmt.Errorf("invalid grant")
	ErrAuthorizationPending = fmt.Errorf("authorization pending")
	ErrAccessDenied         = fmt.Errorf("access denied")
	ErrAuthTimeout          = fmt.Errorf("device authorization timed out")
	ErrFlowAlreadyActive    = fmt.Errorf("device authorization already in progress")
	ErrFlowCancelled        = fmt.Errorf("device authorization cancelled")

	// API and service errors
	ErrNetwork             = fmt.Errorf("network error")
	ErrAPIRequest          = fmt.Errorf("API request failed")
	ErrServiceUnavailable  = fmt.Errorf("service unavailable")
	ErrUnsupportedManifest = fmt.Errorf("unsupported stream manifest")

	// Input validation errors
	ErrInvalidID       = fmt.Errorf("invalid id")
	ErrInvalidPath     = fmt.Errorf("invalid path")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
