package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/legalease/backend/internal/chatbot"
	"github.com/legalease/backend/internal/metrics"
	"github.com/legalease/backend/internal/middleware/validation"
)

type ChatbotHandler struct {
	engine *chatbot.Engine
}

func NewChatbotHandler(engine *chatbot.Engine) *ChatbotHandler {
	return &ChatbotHandler{engine: engine}
}

// HandleAsk answers {"question": "..."} with {"answer", "context"}.
func (h *ChatbotHandler) HandleAsk(c *fiber.Ctx) error {
	question, ok := c.Locals(validation.QuestionLocal).(string)
	if !ok {
		var req struct {
			Question string `json:"question"`
		}
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return badBody(c, err)
			}
		}
		question = req.Question
	}

	timer := metrics.QuestionDuration.WithLabelValues("http")
	resp, err := h.engine.Ask(c.UserContext(), question)
	if err != nil {
		return respondError(c, err)
	}
	timer.Observe(float64(resp.LatencyMS) / 1000)

	return c.JSON(resp.Answer)
}

func (h *ChatbotHandler) ListRecords(c *fiber.Ctx) error {
	records, err := h.engine.Records(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"records": records,
		"count":   len(records),
	})
}

func (h *ChatbotHandler) GetHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)

	history, err := h.engine.History(c.UserContext(), limit)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"history": history,
	})
}

func (h *ChatbotHandler) ClearHistory(c *fiber.Ctx) error {
	deleted, err := h.engine.ClearHistory(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"status":  "cleared",
		"deleted": deleted,
	})
}
