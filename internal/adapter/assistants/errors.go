package assistants

import (
	"errors"
	"fmt"
	"strings"
)

// UpstreamError is a non-2xx response from the remote service. Body is kept
// verbatim so it can be handed back to the caller.
type UpstreamError struct {
	Op         string
	StatusCode int
	Body       []byte
}

func (e *UpstreamError) Error() string {
	body := strings.TrimSpace(string(e.Body))
	if len(body) > 512 {
		body = body[:512] + "..."
	}
	return fmt.Sprintf("assistants API error [%d] during %s: %s", e.StatusCode, e.Op, body)
}

// AsUpstreamError unwraps err into an *UpstreamError if it carries one.
func AsUpstreamError(err error) (*UpstreamError, bool) {
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		return upErr, true
	}
	return nil, false
}

// HTTPStatusCode exposes the remote status to retry classification.
func (e *UpstreamError) HTTPStatusCode() int {
	return e.StatusCode
}
