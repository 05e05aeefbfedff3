package download

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// StatusError reports a non-2xx http response.
type StatusError struct {
	URL    string
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status for %s: %s", e.URL, e.Status)
}

// Temporary returns true if another attempt at the same request could
// plausibly succeed: throttling and server-side failures qualify, client
// errors do not.
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// NotFound returns true if the server reported the resource gone.
func (e *StatusError) NotFound() bool {
	return e.Code == http.StatusNotFound
}

// TransportError reports a failure to complete an http exchange: dial
// failures, resets, timeouts mid-body.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure for %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DiskError reports a failure to persist downloaded bytes.
type DiskError struct {
	Path string
	Err  error
}

func (e *DiskError) Error() string {
	return fmt.Sprintf("disk failure at %s: %v", e.Path, e.Err)
}

func (e *DiskError) Unwrap() error {
	return e.Err
}

// UnsupportedContentTypeError reports a download whose bytes are not an
// accepted media type, e.g. an html error page served with status 200.
type UnsupportedContentTypeError struct {
	URL         string
	ContentType string
}

func (e *UnsupportedContentTypeError) Error() string {
	return fmt.Sprintf("unsupported content type %q for %s", e.ContentType, e.URL)
}

// IsNotFound returns true if err stems from a 404 response.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.NotFound()
}

// retryable returns true if another attempt could fix err. Transport
// failures and temporary statuses qualify; everything else, including
// context cancellation, is permanent.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}

	var te *TransportError
	return errors.As(err, &te)
}
