package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// envelope is the platform's uniform response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// APIError is a non-2xx response from the platform, carrying the backend's
// message when it provided one.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %d %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
}

// IsStatus reports whether err is an *APIError with the given status code.
func IsStatus(err error, status int) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Status == status
}

// AsAPIError unwraps err to an *APIError if one is in its chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// decodeResponse maps a raw response to either the envelope data decoded
// into out, or an *APIError for non-2xx statuses.
func decodeResponse(status int, body []byte, out any) error {
	var env envelope
	// A non-envelope body (proxy error page, empty 204) is tolerated; the
	// envelope fields just stay zero.
	_ = json.Unmarshal(body, &env)

	if status < 200 || status >= 300 {
		return &APIError{Status: status, Message: env.Message}
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}
