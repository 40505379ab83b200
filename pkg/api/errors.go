package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	skerrors "github.com/matzehuels/storekit/pkg/errors"
)

var (
	// ErrNotFound matches any 404 response.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for transport failures (timeouts, refused
	// connections, unreadable bodies).
	ErrNetwork = errors.New("network error")
)

// HTTPError describes a non-2xx response from the storefront API.
type HTTPError struct {
	Method  string
	URL     string
	Status  int
	Message string // message extracted from the response body, if any
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.Status)
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *HTTPError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Code returns the storekit error code for the status.
func (e *HTTPError) Code() skerrors.Code {
	return skerrors.CodeForStatus(e.Status)
}

// StatusOf returns the HTTP status carried by err, or 0 if err does not
// wrap an [*HTTPError].
func StatusOf(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Status
	}
	return 0
}

// MessageOf returns the backend-provided message carried by err, or "".
func MessageOf(err error) string {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Message
	}
	return ""
}

// MessageContains reports whether the backend message in err contains sub,
// ignoring case.
func MessageContains(err error, sub string) bool {
	return strings.Contains(strings.ToLower(MessageOf(err)), strings.ToLower(sub))
}

// ToError converts err into a structured storekit error, keeping err as the
// cause. Errors that are already structured are returned unchanged.
func ToError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if skerrors.GetCode(err) != "" {
		return err
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return skerrors.Wrap(he.Code(), err, format, args...)
	}
	return skerrors.Wrap(skerrors.ErrCodeNetwork, err, format, args...)
}

// errorBody covers the error envelopes the backend produces: a plain
// {"message": ...} and the validation form {"errors": [{"code", "message"}]}.
type errorBody struct {
	Message string `json:"message"`
	Errors  []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

func extractMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	if eb.Message != "" {
		return eb.Message
	}
	msgs := make([]string, 0, len(eb.Errors))
	for _, e := range eb.Errors {
		if e.Message != "" {
			msgs = append(msgs, e.Message)
		}
	}
	return strings.Join(msgs, "; ")
}
