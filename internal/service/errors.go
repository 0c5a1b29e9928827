package service

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/xiaot623/chatbridge/internal/adapter/assistants"
	"github.com/xiaot623/chatbridge/internal/domain"
)

// Kind classifies a failed chat exchange.
type Kind string

const (
	KindInvalidInput      Kind = "invalid_input"
	KindPolicyBlocked     Kind = "policy_blocked"
	KindUpstream          Kind = "upstream"
	KindRunFailed         Kind = "run_failed"
	KindUnsupportedAction Kind = "unsupported_action"
	KindTimeout           Kind = "timeout"
	KindInternal          Kind = "internal"
)

// Client-visible error messages.
const (
	MsgMethodNotAllowed  = "method not allowed"
	MsgEmptyMessage      = "message must be a non-empty string"
	MsgInvalidBody       = "invalid request body"
	MsgRequiresAction    = "the assistant requires action (tool calls), which is not supported"
	MsgTimeout           = "timed out waiting for the assistant response"
	MsgInternal          = "request to the assistant service failed"
	MsgNoValidResponse   = "The assistant did not provide a valid response."
	msgRunFailedTemplate = "assistant run ended with status %q"
)

// ChatError is the single classified failure of a chat exchange.
type ChatError struct {
	Kind    Kind
	Status  int
	Message string
	// Body is the upstream response body, returned verbatim when set.
	Body []byte
	Err  error
}

func (e *ChatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ChatError) Unwrap() error {
	return e.Err
}

// HTTPStatus is the status code the caller sees.
func (e *ChatError) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	return http.StatusInternalServerError
}

// Response builds the error body. Upstream bodies are embedded as received.
func (e *ChatError) Response() domain.ErrorResponse {
	if e.Body != nil {
		return domain.ErrorResponse{Error: domain.RawError(e.Body)}
	}
	return domain.ErrorResponse{Error: e.Message}
}

// Outcome maps the error kind onto the journal outcome.
func (e *ChatError) Outcome() domain.Outcome {
	switch e.Kind {
	case KindInvalidInput:
		return domain.OutcomeInvalidInput
	case KindPolicyBlocked:
		return domain.OutcomePolicyBlocked
	case KindUpstream:
		return domain.OutcomeUpstream
	case KindRunFailed:
		return domain.OutcomeRunFailed
	case KindUnsupportedAction:
		return domain.OutcomeUnsupportedAction
	case KindTimeout:
		return domain.OutcomeTimeout
	default:
		return domain.OutcomeInternal
	}
}

// InvalidInput builds a 400 error.
func InvalidInput(message string) *ChatError {
	return &ChatError{Kind: KindInvalidInput, Status: http.StatusBadRequest, Message: message}
}

func internalError(err error) *ChatError {
	return &ChatError{Kind: KindInternal, Status: http.StatusInternalServerError, Message: MsgInternal, Err: err}
}

func runFailed(status domain.RunStatus) *ChatError {
	return &ChatError{
		Kind:    KindRunFailed,
		Status:  http.StatusBadGateway,
		Message: fmt.Sprintf(msgRunFailedTemplate, string(status)),
	}
}

// classify turns a remote call error into a ChatError. Non-2xx responses keep
// their status and body; anything else is internal.
func classify(err error) *ChatError {
	if err == nil {
		return nil
	}
	var ce *ChatError
	if errors.As(err, &ce) {
		return ce
	}
	if upErr, ok := assistants.AsUpstreamError(err); ok {
		return &ChatError{
			Kind:    KindUpstream,
			Status:  upErr.StatusCode,
			Message: http.StatusText(upErr.StatusCode),
			Body:    upErr.Body,
			Err:     err,
		}
	}
	return internalError(err)
}
