package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrInvalidCredentials is returned by Login when the backend rejects the credentials
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrCurrentPasswordIncorrect is returned by ChangePassword on a 400-class response
	ErrCurrentPasswordIncorrect = errors.New("current password is incorrect")
)

// StatusError is a backend response with a 4xx/5xx status code
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Detail)
}

// newStatusError builds a StatusError from an error response, extracting the
// backend's {"detail": ...} message when present.
func newStatusError(resp *http.Response) *StatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	detail := strings.TrimSpace(string(body))

	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		detail = payload.Detail
	}

	return &StatusError{StatusCode: resp.StatusCode, Detail: detail}
}

// statusOf returns the HTTP status carried by err, or 0 if it is not a StatusError
func statusOf(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}
