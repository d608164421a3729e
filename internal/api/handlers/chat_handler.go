package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/community-helpdesk/backend/internal/query"
	"github.com/community-helpdesk/backend/internal/storage/models"
	"github.com/community-helpdesk/backend/pkg/logger"
)

// ChatHistory is the persistence surface the handler reads history from.
type ChatHistory interface {
	RecentQueries(limit int) ([]models.QueryRecord, error)
}

type ChatHandler struct {
	engine  *query.Engine
	history ChatHistory
}

func NewChatHandler(engine *query.Engine, history ChatHistory) *ChatHandler {
	return &ChatHandler{
		engine:  engine,
		history: history,
	}
}

func (h *ChatHandler) HandleChat(c *fiber.Ctx) error {
	var req struct {
		Question string `json:"question"`
		Location string `json:"location"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Question == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Question is required",
		})
	}

	response := h.engine.Answer(c.Context(), query.ChatRequest{
		Question: req.Question,
		Location: req.Location,
	})

	return c.JSON(response)
}

func (h *ChatHandler) GetChatHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)

	records, err := h.history.RecentQueries(limit)
	if err != nil {
		logger.Error("Failed to load chat history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load chat history",
		})
	}

	history := make([]fiber.Map, 0, len(records))
	for _, r := range records {
		history = append(history, fiber.Map{
			"id":            r.ID,
			"question":      r.Question,
			"locality":      r.Locality,
			"answer":        r.Answer,
			"confidence":    r.Confidence,
			"service_count": r.ServiceCount,
			"latency_ms":    r.LatencyMS,
			"created_at":    r.CreatedAt.Unix(),
		})
	}

	return c.JSON(fiber.Map{
		"history": history,
	})
}
