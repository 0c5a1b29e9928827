package v1

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/chatbridge/internal/domain"
	"github.com/xiaot623/chatbridge/internal/service"
)

const maxBodyBytes = 1 << 20

// chatPayload keeps fields raw so a non-string message is told apart from a
// missing one.
type chatPayload struct {
	Message  json.RawMessage `json:"message"`
	ThreadID json.RawMessage `json:"threadId"`
}

// Chat sends one message to the assistant and waits for the reply.
// POST /api/chat
func (h *Handler) Chat(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		return c.JSON(http.StatusMethodNotAllowed, domain.ErrorResponse{Error: service.MsgMethodNotAllowed})
	}

	req, err := decodeChatRequest(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: err.Error()})
	}

	resp, err := h.service.SendChat(c.Request().Context(), req)
	if err != nil {
		var ce *service.ChatError
		if errors.As(err, &ce) {
			return c.JSON(ce.HTTPStatus(), ce.Response())
		}
		return c.JSON(http.StatusInternalServerError, domain.ErrorResponse{Error: service.MsgInternal})
	}

	return c.JSON(http.StatusOK, resp)
}

// decodeChatRequest reads the body. An empty body counts as an empty object.
func decodeChatRequest(body io.Reader) (domain.ChatRequest, error) {
	var req domain.ChatRequest
	if body == nil {
		return req, errors.New(service.MsgEmptyMessage)
	}

	raw, err := io.ReadAll(io.LimitReader(body, maxBodyBytes))
	if err != nil {
		return req, errors.New(service.MsgInvalidBody)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return req, errors.New(service.MsgEmptyMessage)
	}

	var payload chatPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return req, errors.New(service.MsgInvalidBody)
	}

	if err := decodeOptionalString(payload.Message, &req.Message); err != nil || req.Message == "" {
		return req, errors.New(service.MsgEmptyMessage)
	}
	if err := decodeOptionalString(payload.ThreadID, &req.ThreadID); err != nil {
		return req, errors.New("threadId must be a string")
	}
	return req, nil
}

// decodeOptionalString accepts an absent or null value, or a JSON string.
func decodeOptionalString(raw json.RawMessage, out *string) error {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] != '"' {
		return errors.New("not a string")
	}
	return json.Unmarshal(raw, out)
}
