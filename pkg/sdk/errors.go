package sdk

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is an error response from the crossdex server.
type APIError struct {
	Status  int    // HTTP status code
	Code    string // machine-readable error code
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("crossdex api: %d %s: %s", e.Status, e.Code, e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool { return hasStatus(err, http.StatusNotFound) }

// IsNotFinished reports whether err signals a report demanded before the
// request reached a terminal state.
func IsNotFinished(err error) bool { return hasStatus(err, http.StatusConflict) }

// IsIndexNotReady reports whether err signals an index with no loaded data.
func IsIndexNotReady(err error) bool { return hasStatus(err, http.StatusServiceUnavailable) }

// IsUnauthorized reports whether err is an authentication failure.
func IsUnauthorized(err error) bool { return hasStatus(err, http.StatusUnauthorized) }

func hasStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
