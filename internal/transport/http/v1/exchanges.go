package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/chatbridge/internal/domain"
	"github.com/xiaot623/chatbridge/internal/service"
)

const (
	defaultExchangeLimit = 20
	maxExchangeLimit     = 100
)

// ListExchanges returns the journal records of a thread.
// GET /v1/threads/:thread_id/exchanges
func (h *Handler) ListExchanges(c echo.Context) error {
	threadID := c.Param("thread_id")
	limit := defaultExchangeLimit
	if l := c.QueryParam("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 {
			limit = val
		}
	}
	if limit > maxExchangeLimit {
		limit = maxExchangeLimit
	}

	exchanges, err := h.service.ListExchanges(c.Request().Context(), threadID, limit)
	if err != nil {
		if errors.Is(err, service.ErrJournalDisabled) {
			return c.JSON(http.StatusServiceUnavailable, domain.ErrorResponse{Error: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, domain.ErrorResponse{Error: service.MsgInternal})
	}

	return c.JSON(http.StatusOK, domain.ListExchangesResponse{Exchanges: exchanges})
}
