package llms

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrNoCompletion is the cause of a ProtocolError when the endpoint
// returned a well formed response without choices.
var ErrNoCompletion = errors.New("no completion returned")

// TransportError is returned when the completion endpoint could not be
// reached, timed out, or replied with a non-2xx status.
type TransportError struct {
	// StatusCode is the HTTP status, zero when no response was received.
	StatusCode int
	Cause      error
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("request failed: status %d: %s", e.StatusCode, e.Cause.Error())
	}
	return "request failed: " + e.Cause.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// ProtocolError is returned when the completion endpoint replied with a
// well formed response that is missing the expected fields.
type ProtocolError struct {
	Cause error
}

func (e *ProtocolError) Error() string {
	return e.Cause.Error()
}

func (e *ProtocolError) Unwrap() error {
	return e.Cause
}

// NewTransportError wraps err as a TransportError.
func NewTransportError(statusCode int, err error) error {
	return &TransportError{StatusCode: statusCode, Cause: err}
}

// NewProtocolError wraps err as a ProtocolError.
func NewProtocolError(err error) error {
	return &ProtocolError{Cause: err}
}

// IsTransportError returns true if err is, or wraps, a TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsProtocolError returns true if err is, or wraps, a ProtocolError.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}
