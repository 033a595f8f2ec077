package lark

import (
	"errors"
	"net/http"
)

// Configuration errors are raised synchronously, before any network call.
var (
	// ErrMissingCredentials indicates that neither (app id, app secret) nor a
	// user access token was supplied.
	ErrMissingCredentials = errors.New("lark: app_id/app_secret or user access token required")
)

// Transport-tier sentinel errors, produced only by the calls that assert a
// 2xx response (DoRaw and the helpers built on it). All other wrappers
// surface the server envelope unchanged and leave interpretation to the
// caller.
var (
	// ErrUnauthorized indicates the access token is invalid or expired.
	ErrUnauthorized = errors.New("lark: unauthorized")

	// ErrForbidden indicates the credential lacks permission for the resource.
	ErrForbidden = errors.New("lark: forbidden")

	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("lark: not found")

	// ErrRateLimited indicates the request was throttled by the platform.
	ErrRateLimited = errors.New("lark: rate limited")

	// ErrBadRequest indicates the request was malformed.
	ErrBadRequest = errors.New("lark: bad request")

	// ErrServerError indicates a server-side failure.
	ErrServerError = errors.New("lark: server error")
)

// WrapStatus converts a non-2xx HTTP status code to the matching sentinel
// error, or ErrServerError for unclassified failures.
func WrapStatus(statusCode int) error {
	switch statusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusBadRequest:
		return ErrBadRequest
	default:
		return ErrServerError
	}
}

// IsRateLimited reports whether the status code indicates throttling.
func IsRateLimited(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests
}

// IsUnauthorized reports whether the status code indicates an authentication
// failure.
func IsUnauthorized(statusCode int) bool {
	return statusCode == http.StatusUnauthorized
}
