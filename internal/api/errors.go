package api

import (
	"errors"
	"fmt"
	"net/http"
)

// RequestError indicates that a request could not be sent or its response
// could not be read. It carries no HTTP status because none was received.
type RequestError struct {
	Op  string
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request failed (%s): %v", e.Op, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// StatusError indicates a non-2xx response. Message holds the body text the
// server returned, which is surfaced to the user as-is.
type StatusError struct {
	StatusCode int
	Op         string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status %d on %s", e.StatusCode, e.Op)
	}
	return fmt.Sprintf("server error (%d) on %s: %s", e.StatusCode, e.Op, e.Message)
}

// IsNotFound reports whether err is a StatusError with a 404 status.
func IsNotFound(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound
}

// IsNetwork reports whether err (or any error in its chain) is a RequestError.
func IsNetwork(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr)
}
