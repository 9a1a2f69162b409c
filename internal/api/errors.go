package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized is matched by errors.Is for 401 responses.
var ErrUnauthorized = errors.New("unauthorized")

// Error is a failed API call. The server reports failures as
// {"result":"error","msg":"...","code":"..."}.
type Error struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("server api: %s (HTTP %d)", e.Message, e.StatusCode)
}

// Is lets errors.Is(err, ErrUnauthorized) match authentication failures.
func (e *Error) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// envelope is the field set every API response carries.
type envelope struct {
	Result string `json:"result"`
	Msg    string `json:"msg"`
	Code   string `json:"code"`
}

// decodeResponse checks resp for an API failure and otherwise decodes its
// body into out. The caller closes resp.Body.
func decodeResponse(resp *http.Response, out any) error {
	data, err := readBody(resp)
	if err != nil {
		return err
	}

	var env envelope
	envErr := json.Unmarshal(data, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || env.Result == "error" {
		if envErr == nil && env.Msg != "" {
			return &Error{StatusCode: resp.StatusCode, Code: env.Code, Message: env.Msg}
		}

		return &Error{StatusCode: resp.StatusCode, Message: statusMessage(resp.StatusCode)}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

// statusMessage maps HTTP status codes to human-readable error messages.
func statusMessage(code int) string {
	switch code {
	case http.StatusUnauthorized:
		return "invalid email or API key"
	case http.StatusForbidden:
		return "permission denied"
	case http.StatusNotFound:
		return "not found (is this a chat server?)"
	case http.StatusTooManyRequests:
		return "rate limited, try again later"
	default:
		return fmt.Sprintf("unexpected error (HTTP %d)", code)
	}
}
