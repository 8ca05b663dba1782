package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/peterbiondo/solar-calculator-proxy/internal/api/dto"
	"github.com/peterbiondo/solar-calculator-proxy/internal/relay"
)

// RelayHandler forwards inbound webhook payloads to the automation endpoint.
type RelayHandler struct {
	forwarder *relay.Forwarder
	logger    *zap.Logger
}

// NewRelayHandler constructs handler.
func NewRelayHandler(forwarder *relay.Forwarder, logger *zap.Logger) *RelayHandler {
	return &RelayHandler{forwarder: forwarder, logger: logger}
}

// Relay handles POST /webhook/relay. The body is forwarded verbatim and the
// upstream's interpreted body is relayed back with status 200; any failure in
// the forward attempt yields 500 {error, details}.
func (h *RelayHandler) Relay(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		return c.SendStatus(http.StatusMethodNotAllowed)
	}

	var payload any
	if err := json.Unmarshal(c.Body(), &payload); err != nil {
		h.logger.Error("relay payload decode failed", zap.Error(err))
		return c.Status(http.StatusInternalServerError).JSON(dto.RelayError{
			Error:   "Failed to forward webhook",
			Details: err.Error(),
		})
	}

	result, err := h.forwarder.Forward(c.Context(), payload)
	if err != nil {
		h.logger.Error("relay upstream call failed", zap.Error(err))
		return c.Status(http.StatusInternalServerError).JSON(dto.RelayError{
			Error:   "Failed to forward webhook",
			Details: err.Error(),
		})
	}

	return c.JSON(result)
}
