package assistants

import (
	"go.uber.org/zap"

	"github.com/xiaot623/chatbridge/internal/config"
)

// ModeMock selects the in-process mock client.
const ModeMock = "MOCK"

// NewClient creates an assistants client for the configured mode.
func NewClient(cfg *config.Config, logger *zap.Logger) Client {
	if cfg.Mode == ModeMock {
		logger.Info("BRIDGE_MODE=MOCK detected, using mock assistants client")
		return NewMockClient()
	}

	return NewHTTPClient(cfg.Assistant.BaseURL, cfg.Assistant.Credential, cfg.Assistant.BetaHeader, cfg.Assistant.CallTimeout)
}
