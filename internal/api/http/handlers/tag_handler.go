package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/peterbiondo/solar-calculator-proxy/internal/api/dto"
	"github.com/peterbiondo/solar-calculator-proxy/internal/service"
	apperrors "github.com/peterbiondo/solar-calculator-proxy/pkg/util"
)

// TagHandler exposes the CRM tagging endpoint.
type TagHandler struct {
	tagging *service.TaggingService
	logger  *zap.Logger
}

// NewTagHandler constructs handler.
func NewTagHandler(tagging *service.TaggingService, logger *zap.Logger) *TagHandler {
	return &TagHandler{tagging: tagging, logger: logger}
}

// Tag handles POST /contacts/tag.
func (h *TagHandler) Tag(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		return c.SendStatus(http.StatusMethodNotAllowed)
	}

	var req dto.TagRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(dto.TagResponse{OK: false, Error: "Valid email required"})
	}

	if err := h.tagging.TagContact(c.Context(), req.Email, req.Tag); err != nil {
		domainErr := apperrors.ToDomainError(err)
		if domainErr.HTTPStatus >= 500 {
			h.logger.Error("tagging flow failed", zap.Error(domainErr))
		}
		return c.Status(domainErr.HTTPStatus).JSON(dto.TagResponse{OK: false, Error: domainErr.Message})
	}

	return c.JSON(dto.TagResponse{OK: true})
}
