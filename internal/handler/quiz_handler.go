package handler

import (
	"quizbot/internal/domain"
	"quizbot/internal/dto"
	"quizbot/internal/logger"
	"quizbot/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// QuizHandler handles quiz-related HTTP requests. Errors are returned to the
// centralized error handler for status mapping.
type QuizHandler struct {
	service *service.QuizService
}

// NewQuizHandler creates a new QuizHandler instance
func NewQuizHandler(service *service.QuizService) *QuizHandler {
	return &QuizHandler{service: service}
}

// GenerateQuiz handles POST /api/quiz
func (h *QuizHandler) GenerateQuiz(c *fiber.Ctx) error {
	var req dto.GenerateQuizRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("invalid request body")
	}
	if req.Type == "" {
		return domain.NewInvalidInputError("quiz type is required")
	}

	session, err := h.service.Generate(c.Context(), domain.QuizType(req.Type), req.Topic, req.NumQuestions)
	if err != nil {
		return err
	}

	logger.Get().Info("Quiz generated",
		zap.String("session_id", session.ID),
		zap.String("type", req.Type),
		zap.String("topic", session.Topic),
		zap.Int("questions", len(session.Questions)))

	return c.Status(fiber.StatusCreated).JSON(dto.NewQuizSessionResponse(session))
}

// GetQuiz handles GET /api/quiz/:id
func (h *QuizHandler) GetQuiz(c *fiber.Ctx) error {
	session, err := h.service.GetSession(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewQuizSessionResponse(session))
}

// RecordAnswer handles PUT /api/quiz/:id/answers
func (h *QuizHandler) RecordAnswer(c *fiber.Ctx) error {
	var req dto.RecordAnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("invalid request body")
	}

	session, err := h.service.RecordAnswer(c.Context(), c.Params("id"), req.Index, req.Label)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewQuizSessionResponse(session))
}

// SubmitQuiz handles POST /api/quiz/:id/submit
func (h *QuizHandler) SubmitQuiz(c *fiber.Ctx) error {
	session, err := h.service.Submit(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewQuizSessionResponse(session))
}

// EvaluateQuiz handles POST /api/quiz/:id/evaluate
func (h *QuizHandler) EvaluateQuiz(c *fiber.Ctx) error {
	session, err := h.service.Evaluate(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewQuizSessionResponse(session))
}

// GetTopics handles GET /api/topics
func (h *QuizHandler) GetTopics(c *fiber.Ctx) error {
	return c.JSON(dto.TopicsResponse{Topics: h.service.TopicList()})
}
