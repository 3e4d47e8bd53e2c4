package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/legalease/backend/internal/notify"
)

type ChatHandler struct {
	notifier *notify.Notifier
}

func NewChatHandler(notifier *notify.Notifier) *ChatHandler {
	return &ChatHandler{notifier: notifier}
}

func (h *ChatHandler) CreateChat(c *fiber.Ctx) error {
	var req struct {
		Participants []string `json:"participants"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}

	chat, err := h.notifier.CreateChat(c.UserContext(), c.Get(UserIDHeader), req.Participants)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(chat)
}

func (h *ChatHandler) PostMessage(c *fiber.Ctx) error {
	var req notify.MessageInput
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}

	result, err := h.notifier.OnChatMessage(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *ChatHandler) RegisterPushToken(c *fiber.Ctx) error {
	var req struct {
		Token string `json:"token"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}

	if err := h.notifier.RegisterPushToken(c.UserContext(), c.Params("id"), req.Token); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"status": "registered",
	})
}
