package client

import (
	"errors"
	"fmt"
)

// APIError reports a non-2xx response from the server. Body carries the
// response payload verbatim so callers can tell auth failures, bad requests
// and server-side failures apart.
type APIError struct {
	Status int
	Body   []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Body)
}

// StatusCode returns the HTTP status carried by the error.
func (e *APIError) StatusCode() int { return e.Status }

// AsAPIError unwraps err into an APIError if it carries one.
func AsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	ok := errors.As(err, &ae)
	return ae, ok
}

// IsAPIError reports whether err is a non-2xx server response. Every other
// failure returned by this package is a transport or validation error.
func IsAPIError(err error) bool {
	_, ok := AsAPIError(err)
	return ok
}
