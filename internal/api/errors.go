package api

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

// AuthError indicates a missing or rejected session token. Callers should
// send the user back to sign-in rather than retry.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return "auth error: " + e.Message
}

// ValidationError is a 4xx rejection with a human-readable message and,
// when the server provides them, per-field messages.
type ValidationError struct {
	StatusCode int
	Message    string
	Fields     map[string][]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error (%d): %s", e.StatusCode, e.Message)
}

// FieldMessage returns the first message for field, or "".
func (e *ValidationError) FieldMessage(field string) string {
	if msgs := e.Fields[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// NotFoundError means the addressed entity no longer exists on the server,
// usually because local state is stale.
type NotFoundError struct {
	Path    string
	Message string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s: %s", e.Path, e.Message)
}

// NetworkError wraps transport failures, timeouts and 5xx responses.
// These are transient.
type NetworkError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("network error on %s (%d): %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("network error on %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var target *AuthError
	return errors.As(err, &target)
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsNotFoundError reports whether err is a NotFoundError.
func IsNotFoundError(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsNetworkError reports whether err is a NetworkError.
func IsNetworkError(err error) bool {
	var target *NetworkError
	return errors.As(err, &target)
}

// UserMessage returns the text to show in an alert for err.
func UserMessage(err error) string {
	var (
		authErr       *AuthError
		validationErr *ValidationError
		notFoundErr   *NotFoundError
		networkErr    *NetworkError
	)
	switch {
	case errors.As(err, &authErr):
		return "Your session has expired. Please sign in again."
	case errors.As(err, &validationErr):
		return validationErr.Message
	case errors.As(err, &notFoundErr):
		return "This item no longer exists. The list has been refreshed."
	case errors.As(err, &networkErr):
		return "Could not reach TeamKonekt. Check your connection and retry."
	case err == nil:
		return ""
	default:
		return err.Error()
	}
}

// messageKeys are the envelope keys the API uses for a top-level message.
var messageKeys = []string{"detail", "error", "message", "non_field_errors"}

// parseErrorBody extracts a message and field errors from an error body.
// The API uses {"detail": "..."}, {"error": "..."}, {"field": ["..."]}
// or a bare ["..."] list.
func parseErrorBody(body []byte) (string, map[string][]string) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return "", nil
	}

	var list []string
	if json.Unmarshal([]byte(trimmed), &list) == nil {
		return strings.Join(list, "; "), nil
	}

	var raw map[string]json.RawMessage
	if json.Unmarshal([]byte(trimmed), &raw) != nil {
		return trimmed, nil
	}

	fields := make(map[string][]string)
	for key, value := range raw {
		var s string
		if json.Unmarshal(value, &s) == nil {
			fields[key] = []string{s}
			continue
		}
		var ss []string
		if json.Unmarshal(value, &ss) == nil && len(ss) > 0 {
			fields[key] = ss
		}
	}

	for _, key := range messageKeys {
		if msgs, ok := fields[key]; ok {
			delete(fields, key)
			return msgs[0], nilIfEmpty(fields)
		}
	}

	// No top-level message: summarize the first field error.
	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return fmt.Sprintf("%s: %s", keys[0], fields[keys[0]][0]), fields
	}

	return trimmed, nil
}

func nilIfEmpty(m map[string][]string) map[string][]string {
	if len(m) == 0 {
		return nil
	}
	return m
}
