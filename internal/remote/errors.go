package remote

import (
	"errors"
	"fmt"
)

// ErrUsage marks a call that was rejected before reaching the network
// because its arguments are not supported.
var ErrUsage = errors.New("unsupported usage")

// TransportError covers everything between issuing the request and holding
// a complete 2xx body: connection failures, timeouts, read errors and
// non-2xx statuses. StatusCode is zero when no response arrived.
type TransportError struct {
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		if e.Body != "" {
			return fmt.Sprintf("%s: API returned status %d: %s", e.URL, e.StatusCode, e.Body)
		}
		return fmt.Sprintf("%s: API returned status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s: request failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DecodeError reports a response body that is not UTF-8, not JSON, or is
// missing a field the caller depends on.
type DecodeError struct {
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("failed to decode response: missing field %q", e.Field)
	}
	return fmt.Sprintf("failed to decode response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

func IsDecode(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
