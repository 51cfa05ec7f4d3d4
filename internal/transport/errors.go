// Package transport carries the conversation to a chat endpoint: the proxy
// over HTTP or OpenAI directly, plus the remote bookmark API.
package transport

import (
	"fmt"
)

// Error reports a failed exchange with an endpoint. StatusCode is zero when
// no response was received.
type Error struct {
	Op         string
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("transport: %s", e.Op)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Code != "" {
		msg += " " + e.Code
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// HTTPStatusCode exposes the response status to status-aware callers.
func (e *Error) HTTPStatusCode() int {
	return e.StatusCode
}
