package atelier

import (
	"errors"
	"fmt"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeMissingPassword  = "MISSING_PASSWORD"
	textCodeMissingChallenge = "MISSING_WALLET_CHALLENGE"
	textCodeInvalidPhase     = "INVALID_SESSION_PHASE"
	textCodeSuperseded       = "SESSION_SUPERSEDED"
)

// ErrMissingPassword is returned when a password login is attempted without a password.
var ErrMissingPassword = goerrors.New("password is required", goerrors.CategoryValidation).
	WithTextCode(textCodeMissingPassword).
	WithCode(goerrors.CodeBadRequest)

// ErrMissingWalletChallenge is returned when a wallet login lacks the signed challenge.
var ErrMissingWalletChallenge = goerrors.New("wallet challenge is required", goerrors.CategoryValidation).
	WithTextCode(textCodeMissingChallenge).
	WithCode(goerrors.CodeBadRequest)

// ErrSessionSuperseded is returned when an authentication result lands after
// logout or a newer login already replaced the session; the result was
// discarded and the returned snapshot reflects the newer state.
var ErrSessionSuperseded = goerrors.New("session superseded during authentication", goerrors.CategoryConflict).
	WithTextCode(textCodeSuperseded).
	WithCode(goerrors.CodeConflict)

// ErrInvalidPhaseTransition is returned when a requested phase change is not allowed.
var ErrInvalidPhaseTransition = goerrors.New("invalid session phase transition", goerrors.CategoryInternal).
	WithTextCode(textCodeInvalidPhase).
	WithCode(goerrors.CodeInternal)

// Fallback copy for user-visible failures (see UserFacingMessage).
const (
	genericFailureMessage   = "Something went wrong. Please try again."
	transportFailureMessage = "Could not reach the server. Check your connection and try again."
)

// APIError is the normalized failure produced by the gateway Client for any
// non-2xx response, undecodable body, or transport fault. Status 0 means no
// HTTP response was obtained.
type APIError struct {
	Message string
	Status  int
	Data    map[string]any
	Err     error
}

func (e *APIError) Error() string {
	if e == nil {
		return "api error"
	}

	if e.Status == 0 {
		if e.Err != nil {
			return fmt.Sprintf("api request failed: %v", e.Err)
		}
		return "api request failed: transport error"
	}

	if e.Message != "" {
		return fmt.Sprintf("api request failed (%d): %s", e.Status, e.Message)
	}

	return fmt.Sprintf("api request failed (%d): %s", e.Status, http.StatusText(e.Status))
}

func (e *APIError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsTransport reports whether no HTTP response reached the client.
func (e *APIError) IsTransport() bool {
	return e != nil && e.Status == 0
}

// IsClient reports whether the server rejected the request (4xx).
func (e *APIError) IsClient() bool {
	return e != nil && e.Status >= 400 && e.Status <= 499
}

// IsServer reports whether the backend itself failed (5xx).
func (e *APIError) IsServer() bool {
	return e != nil && e.Status >= 500 && e.Status <= 599
}

// AsAPIError extracts an *APIError from an error chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// UserFacingMessage maps an error to copy suitable for display. Transport
// failures get a distinct message because the remediation differs from a
// rejected request.
func UserFacingMessage(err error) string {
	if err == nil {
		return ""
	}

	if apiErr, ok := AsAPIError(err); ok {
		if apiErr.IsTransport() {
			return transportFailureMessage
		}
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return genericFailureMessage
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.Message != "" {
		return richErr.Message
	}

	return genericFailureMessage
}
