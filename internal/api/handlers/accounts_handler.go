package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/legalease/backend/internal/accounts"
)

type AccountsHandler struct {
	service *accounts.Service
}

func NewAccountsHandler(service *accounts.Service) *AccountsHandler {
	return &AccountsHandler{service: service}
}

// Register handles POST /register/:role for client, lawyer and lawfirm.
func (h *AccountsHandler) Register(c *fiber.Ctx) error {
	var req accounts.Registration
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	req.Role = c.Params("role")

	account, err := h.service.Register(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(account)
}

func (h *AccountsHandler) Login(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}

	account, err := h.service.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(account)
}
