package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConnection means no HTTP response was received.
	ErrConnection = errors.New("apiclient: connection failure")
	// ErrDecode means a 2xx response body could not be understood.
	ErrDecode = errors.New("apiclient: undecodable response")
)

// APIError is a non-2xx answer from the metrics API.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("apiclient: status %d", e.StatusCode)
	}
	return fmt.Sprintf("apiclient: status %d: %s", e.StatusCode, e.Detail)
}

// parseDetail extracts the "detail" field of an error body. The API sends
// either a string or, for request validation failures, a list of objects
// with a "msg" field.
func parseDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		return s
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
