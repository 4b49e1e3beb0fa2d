// Package remote holds the pieces shared by every HTTP-backed client: the
// injectable transport, body handling, the error taxonomy and the
// log-and-continue policy used when a caller wants an absent result instead
// of a transport error.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"unicode/utf8"
)

// maxErrorBody bounds how much of a failed response ends up in an error.
const maxErrorBody = 512

// Doer sends one request and returns its response. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Caller is the capability both clients share: structured input in, parsed
// JSON object out.
type Caller interface {
	Call(ctx context.Context, payload map[string]any) (map[string]any, error)
}

// Send issues req and returns the full response body. The body is always
// closed before returning.
func Send(doer Doer, req *http.Request) ([]byte, error) {
	target := req.URL.Redacted()

	resp, err := doer.Do(req)
	if err != nil {
		return nil, &TransportError{URL: target, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: target, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt := body
		if len(excerpt) > maxErrorBody {
			excerpt = excerpt[:maxErrorBody]
		}
		return nil, &TransportError{
			URL:        target,
			StatusCode: resp.StatusCode,
			Body:       string(bytes.TrimSpace(excerpt)),
		}
	}

	return body, nil
}

// DecodeJSON parses body into v, rejecting bodies that are not valid UTF-8.
func DecodeJSON(body []byte, v any) error {
	if !utf8.Valid(body) {
		return &DecodeError{Err: errors.New("response body is not valid UTF-8")}
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &DecodeError{Err: err}
	}
	return nil
}

// Degrade applies the log-and-continue policy. A transport error is written
// to logger and reported as absent with a nil error; any other non-nil error
// is handed back to the caller untouched.
func Degrade(logger *log.Logger, err error) (absent bool, fatal error) {
	if err == nil {
		return false, nil
	}
	if IsTransport(err) {
		if logger != nil {
			logger.Print(err)
		}
		return true, nil
	}
	return false, err
}
