package agent

import (
	"errors"
	"fmt"
)

// TransportError reports that a call produced no usable response: the
// request could not be sent, no response arrived, or the agent answered with
// a non-success status.
type TransportError struct {
	Endpoint   string
	StatusCode int
	// Message is the message field of the response body, when present.
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Endpoint, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: unexpected status code %d", e.Endpoint, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Endpoint, e.Err)
	default:
		return e.Endpoint + ": request failed"
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err is or wraps a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// Describe returns the text shown to the operator for a failed call: the
// agent's own message when the response carried one, fallback otherwise.
func Describe(err error, fallback string) string {
	var te *TransportError
	if errors.As(err, &te) && te.Message != "" {
		return te.Message
	}
	if err != nil && !IsTransport(err) {
		return err.Error()
	}
	return fallback
}
