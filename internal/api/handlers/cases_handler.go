package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/legalease/backend/internal/cases"
)

// UserIDHeader carries the caller identity set by the upstream gateway.
const UserIDHeader = "X-User-ID"

type CasesHandler struct {
	service *cases.Service
}

func NewCasesHandler(service *cases.Service) *CasesHandler {
	return &CasesHandler{service: service}
}

func (h *CasesHandler) CreateBooking(c *fiber.Ctx) error {
	var req cases.BookingInput
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}

	booking, err := h.service.CreateBooking(c.UserContext(), c.Get(UserIDHeader), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(booking)
}

func (h *CasesHandler) UpdateBookingStatus(c *fiber.Ctx) error {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}

	result, err := h.service.UpdateBookingStatus(c.UserContext(), c.Get(UserIDHeader), c.Params("id"), req.Status)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(result)
}

func (h *CasesHandler) GetLawyer(c *fiber.Ctx) error {
	lawyer, err := h.service.Lawyer(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"id":             lawyer.ID,
		"fullName":       lawyer.FullName,
		"barNumber":      lawyer.BarNumber,
		"specialization": lawyer.Specialization,
		"totalCases":     lawyer.TotalCases,
		"wonCases":       lawyer.WonCases,
		"lostCases":      lawyer.LostCases,
	})
}
