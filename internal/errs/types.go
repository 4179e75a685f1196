package errs

import (
	"net/http"
)

// Messages the gateway sends for fixed-shape failures.
const (
	// MessageBadRequest is sent when the upstream answers with a non-2xx status.
	MessageBadRequest = "Bad Request"

	// MessageRouteNotFound is sent for paths no route matches.
	MessageRouteNotFound = "Route not found"
)

// newHTTPError builds an HTTPError whose Code is derived from the status text:
// http.StatusText(400) => "Bad Request" => "BAD_REQUEST".
func newHTTPError(status int, message string, cause error) *HTTPError {
	return &HTTPError{
		Code:    MakeUpperCaseWithUnderscores(http.StatusText(status)),
		Message: message,
		Status:  status,
		cause:   cause,
	}
}

// NewBadRequestError creates a 400 Bad Request HTTPError.
func NewBadRequestError(message string) *HTTPError {
	return newHTTPError(http.StatusBadRequest, message, nil)
}

// NewUpstreamRejectionError creates the 400 sent when the upstream returns a
// non-success status. The upstream status is kept in Code for logs.
func NewUpstreamRejectionError(upstreamStatus int) *HTTPError {
	e := newHTTPError(http.StatusBadRequest, MessageBadRequest, nil)
	e.Code = "UPSTREAM_" + MakeUpperCaseWithUnderscores(http.StatusText(upstreamStatus))

	return e
}

// NewNotFoundError creates a 404 Not Found HTTPError.
func NewNotFoundError(message string) *HTTPError {
	return newHTTPError(http.StatusNotFound, message, nil)
}

// NewTransportError creates the 500 sent when the outbound call fails before a
// usable upstream answer exists (network error, unreadable or malformed
// payload, serialization failure).
//
// Unlike NewInternalServerError the client sees the error description.
func NewTransportError(err error) *HTTPError {
	e := newHTTPError(http.StatusInternalServerError, err.Error(), err)
	e.Code = "UPSTREAM_FAILURE"

	return e
}

// NewInternalServerError creates a 500 Internal Server Error HTTPError.
//
// The message is the generic status text, not the internal error message.
func NewInternalServerError() *HTTPError {
	return newHTTPError(
		http.StatusInternalServerError,
		http.StatusText(http.StatusInternalServerError),
		nil,
	)
}

// NewHTTPErrorFromStatus creates an HTTPError carrying the status text as
// message. Used to normalize framework errors (405 and friends).
func NewHTTPErrorFromStatus(status int) *HTTPError {
	return newHTTPError(status, http.StatusText(status), nil)
}
