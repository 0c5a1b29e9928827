package domain

import "encoding/json"

// ChatRequest is the inbound chat request body.
type ChatRequest struct {
	Message  string `json:"message"`
	ThreadID string `json:"threadId,omitempty"`
}

// ChatResponse is the success response body.
type ChatResponse struct {
	ThreadID string `json:"threadId"`
	Response string `json:"response"`
}

// ErrorResponse is the error body. Error holds either a string or the raw
// JSON body returned by the remote service.
type ErrorResponse struct {
	Error interface{} `json:"error"`
}

// RawError wraps an upstream body so it is embedded as JSON rather than as a
// quoted string.
func RawError(body []byte) interface{} {
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	return string(body)
}

// ListExchangesResponse is the response for the exchange journal listing.
type ListExchangesResponse struct {
	Exchanges []Exchange `json:"exchanges"`
}
