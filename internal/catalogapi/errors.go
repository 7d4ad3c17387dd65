package catalogapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	ErrNotFound    = errors.New("catalog: not found")
	ErrUnavailable = errors.New("catalog: unavailable")
	ErrBadStatus   = errors.New("catalog: bad status")
)

// UpstreamError carries a 4xx reply and the message the API gave for it.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("catalog: status %d", e.Status)
	}
	return fmt.Sprintf("catalog: status %d: %s", e.Status, e.Message)
}

// MessageOr returns the upstream message carried by err, or def.
func MessageOr(err error, def string) string {
	var ue *UpstreamError
	if errors.As(err, &ue) && ue.Message != "" {
		return ue.Message
	}
	return def
}

// errorBody covers both {"message": "..."} and {"message": ["...", ...]}
// as well as the {"error": "..."} envelope.
type errorBody struct {
	Message json.RawMessage `json:"message"`
	Error   string          `json:"error"`
}

func parseUpstreamError(resp *http.Response) error {
	defer func() { _ = resp.Body.Close() }()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: status=%d", ErrBadStatus, resp.StatusCode)
	}
	return &UpstreamError{Status: resp.StatusCode, Message: extractMessage(raw)}
}

func extractMessage(raw []byte) string {
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}

	if len(body.Message) > 0 {
		var list []any
		if json.Unmarshal(body.Message, &list) == nil {
			if len(list) > 0 {
				return fmt.Sprint(list[0])
			}
			return ""
		}
		var s string
		if json.Unmarshal(body.Message, &s) == nil {
			return strings.TrimSpace(s)
		}
	}
	return strings.TrimSpace(body.Error)
}
