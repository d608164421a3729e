package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/community-helpdesk/backend/internal/ingestion"
	"github.com/community-helpdesk/backend/internal/query"
	"github.com/community-helpdesk/backend/internal/storage/models"
	"github.com/community-helpdesk/backend/pkg/logger"
)

// CacheInvalidator drops cached chat responses after the index changes.
type CacheInvalidator interface {
	InvalidateChatCache(ctx context.Context) error
}

type IngestHandler struct {
	ingestor *ingestion.Ingestor
	engine   *query.Engine
	cache    CacheInvalidator
}

func NewIngestHandler(ingestor *ingestion.Ingestor, engine *query.Engine, cache CacheInvalidator) *IngestHandler {
	return &IngestHandler{
		ingestor: ingestor,
		engine:   engine,
		cache:    cache,
	}
}

func (h *IngestHandler) HandleIngest(c *fiber.Ctx) error {
	var req struct {
		Services []models.ServiceRecord `json:"services"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse ingest request", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	count, err := h.ingestor.Ingest(c.Context(), req.Services)
	if err != nil {
		logger.Error("Ingestion failed", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if h.cache != nil {
		if err := h.cache.InvalidateChatCache(c.Context()); err != nil {
			logger.Warn("Failed to invalidate chat cache", zap.Error(err))
		}
	}

	total := h.engine.ServiceCount(c.Context())

	return c.JSON(fiber.Map{
		"message":        "Services ingested successfully",
		"ingested":       count,
		"total_services": total,
	})
}
