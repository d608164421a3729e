package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/community-helpdesk/backend/internal/query"
	"github.com/community-helpdesk/backend/pkg/config"
	"github.com/community-helpdesk/backend/pkg/logger"
)

// LLMProbe reports whether the language model backend is reachable.
type LLMProbe interface {
	Available(ctx context.Context) bool
}

type categoryInfo struct {
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

// serviceCategories is the fixed taxonomy the dataset is organized under.
var serviceCategories = []categoryInfo{
	{"Healthcare", "🏥", "Hospitals, clinics, pharmacies, diagnostic centers"},
	{"Civic", "🏛️", "Police, fire stations, municipal offices"},
	{"Utilities", "⚡", "Electricity, water, gas services"},
	{"Education", "🎓", "Schools, colleges, libraries"},
	{"Transport", "🚌", "Bus stands, metro stations, auto stands"},
	{"Food & Retail", "🛒", "Markets, grocery stores, restaurants"},
	{"Home Services", "🔧", "Plumbers, electricians, repairs"},
	{"Personal Care", "💇", "Salons, spas, fitness centers"},
	{"Financial", "🏦", "Banks, ATMs, insurance offices"},
	{"Legal & Govt", "⚖️", "Courts, registration offices, legal aid"},
	{"Animal & Pet", "🐾", "Veterinary clinics, pet shops, shelters"},
	{"Community", "🤝", "Community centers, NGOs, religious places"},
}

type InfoHandler struct {
	engine *query.Engine
	llm    LLMProbe
	cfg    *config.Config
}

func NewInfoHandler(engine *query.Engine, llm LLMProbe, cfg *config.Config) *InfoHandler {
	return &InfoHandler{
		engine: engine,
		llm:    llm,
		cfg:    cfg,
	}
}

func (h *InfoHandler) GetStats(c *fiber.Ctx) error {
	total := h.engine.ServiceCount(c.Context())

	breakdown := make(map[string]int, len(serviceCategories))
	for _, cat := range serviceCategories {
		services := h.engine.ServicesByCategory(c.Context(), cat.Name, 1000)
		breakdown[cat.Name] = len(services)
	}

	return c.JSON(fiber.Map{
		"total_services": total,
		"categories":     breakdown,
		"city":           h.cfg.Location.City,
		"state":          h.cfg.Location.State,
	})
}

func (h *InfoHandler) GetCategories(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"categories": serviceCategories,
	})
}

func (h *InfoHandler) GetCustomerCare(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"phone":  h.cfg.CustomerCare.Phone,
		"email":  h.cfg.CustomerCare.Email,
		"hours":  h.cfg.CustomerCare.Hours,
		"portal": h.cfg.CustomerCare.Portal,
	})
}

// GetHealth probes the model backend and the vector index. Degraded
// components are reported but the endpoint still answers 200 so load
// balancers can distinguish "up but impaired" from "down".
func (h *InfoHandler) GetHealth(c *fiber.Ctx) error {
	llmStatus := "ok"
	if !h.llm.Available(c.Context()) {
		llmStatus = "unavailable"
	}

	indexStatus := "ok"
	total := h.engine.ServiceCount(c.Context())
	if total == 0 {
		indexStatus = "empty"
	}

	status := "healthy"
	if llmStatus != "ok" {
		status = "degraded"
		logger.Warn("Health check degraded", zap.String("llm", llmStatus))
	}

	return c.JSON(fiber.Map{
		"status": status,
		"components": fiber.Map{
			"llm":          llmStatus,
			"vector_index": indexStatus,
		},
		"total_services": total,
	})
}

func (h *InfoHandler) GetReady(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ready",
	})
}
