package handler

import (
	"quizbot/internal/domain"
	"quizbot/internal/dto"
	"quizbot/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

// AskHandler handles the open-ended Q&A and code-assistant endpoints.
type AskHandler struct {
	service *service.AskService
}

// NewAskHandler creates a new AskHandler instance
func NewAskHandler(service *service.AskService) *AskHandler {
	return &AskHandler{service: service}
}

// Ask handles POST /api/ask
func (h *AskHandler) Ask(c *fiber.Ctx) error {
	var req dto.AskRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("invalid request body")
	}

	answer, err := h.service.Ask(c.Context(), req.Question)
	if err != nil {
		return err
	}

	return c.JSON(dto.AskResponse{Question: req.Question, Answer: answer})
}

// GetHistory handles GET /api/ask/history
func (h *AskHandler) GetHistory(c *fiber.Ctx) error {
	entries, err := h.service.History(c.Context(), "notes")
	if err != nil {
		return err
	}
	return c.JSON(entries)
}

// AskCode handles POST /api/code/ask
func (h *AskHandler) AskCode(c *fiber.Ctx) error {
	var req dto.AskRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("invalid request body")
	}

	answer, files, err := h.service.AskCode(c.Context(), req.Question)
	if err != nil {
		return err
	}

	return c.JSON(dto.CodeAskResponse{
		Question: req.Question,
		Answer:   answer,
		RelevantFiles: lo.Map(files, func(f service.RankedFile, _ int) dto.RankedFileView {
			return dto.RankedFileView{Path: f.Path, Score: f.Score}
		}),
	})
}
