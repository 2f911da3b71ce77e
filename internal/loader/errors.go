package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// FallbackMessage is shown when a failure carries no detail
const FallbackMessage = "Failed to load data"

// LoadError is the single error kind for a failed load: transport failure,
// non-2xx status or a malformed body all end up here.
type LoadError struct {
	StatusCode int    // 0 when no response was received
	Detail     string // detail field of the error body, if any
	Err        error
}

func (e *LoadError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Detail != "":
		return fmt.Sprintf("load failed (%d): %s", e.StatusCode, e.Detail)
	case e.StatusCode != 0:
		return fmt.Sprintf("load failed (%d)", e.StatusCode)
	case e.Err != nil:
		return "load failed: " + e.Err.Error()
	default:
		return "load failed"
	}
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Message returns the text to show for err: the server's detail when
// present, otherwise FallbackMessage.
func Message(err error) string {
	var le *LoadError
	if errors.As(err, &le) && le.Detail != "" {
		return le.Detail
	}
	return FallbackMessage
}

// extractDetail pulls a non-empty string "detail" field out of an error body
func extractDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}

	var detail string
	if err := json.Unmarshal(payload.Detail, &detail); err != nil {
		return ""
	}
	return strings.TrimSpace(detail)
}
