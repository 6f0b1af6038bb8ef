package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-academic-api/internal/dto"
	"github.com/noah-isme/gema-academic-api/internal/service"
	"github.com/noah-isme/gema-academic-api/internal/utils"
)

// AIHandler exposes the five AI pipeline endpoints.
type AIHandler struct {
	quizzes      service.QuizService
	drafts       service.AssignmentGenerationService
	plagiarism   service.PlagiarismService
	evaluations  service.EvaluationService
	learningPath service.LearningPathService
	logger       zerolog.Logger
}

// AIServices groups the pipeline services behind AIHandler.
type AIServices struct {
	Quizzes      service.QuizService
	Drafts       service.AssignmentGenerationService
	Plagiarism   service.PlagiarismService
	Evaluations  service.EvaluationService
	LearningPath service.LearningPathService
}

// NewAIHandler constructs the handler.
func NewAIHandler(services AIServices, logger zerolog.Logger) *AIHandler {
	return &AIHandler{
		quizzes:      services.Quizzes,
		drafts:       services.Drafts,
		plagiarism:   services.Plagiarism,
		evaluations:  services.Evaluations,
		learningPath: services.LearningPath,
		logger:       logger.With().Str("component", "ai_handler").Logger(),
	}
}

// Register attaches the endpoints. staff guards everything except the learning path,
// which is scoped to the caller.
func (h *AIHandler) Register(router fiber.Router, staff fiber.Handler) {
	router.Post("/generate-quiz", staff, h.generateQuiz)
	router.Post("/generate-assignments", staff, h.generateAssignments)
	router.Post("/check-plagiarism", staff, h.checkPlagiarism)
	router.Post("/evaluate-submission", staff, h.evaluateSubmission)
	router.Post("/learning-path", h.learningPathFor)
}

func (h *AIHandler) generateQuiz(c *fiber.Ctx) error {
	var payload dto.GenerateQuizRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.quizzes.Generate(c.UserContext(), actorFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendFields(c, fiber.StatusOK, fiber.Map{
		"quiz":      result.Quiz,
		"questions": result.Questions,
	})
}

func (h *AIHandler) generateAssignments(c *fiber.Ctx) error {
	var payload dto.GenerateAssignmentsRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	drafts, err := h.drafts.Generate(c.UserContext(), actorFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendFields(c, fiber.StatusOK, fiber.Map{"assignments": drafts})
}

func (h *AIHandler) checkPlagiarism(c *fiber.Ctx) error {
	var payload dto.SubmissionTargetRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	report, err := h.plagiarism.Check(c.UserContext(), actorFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendFields(c, fiber.StatusOK, fiber.Map{"report": report})
}

func (h *AIHandler) evaluateSubmission(c *fiber.Ctx) error {
	var payload dto.SubmissionTargetRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	evaluation, err := h.evaluations.Evaluate(c.UserContext(), actorFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendFields(c, fiber.StatusOK, fiber.Map{"evaluation": evaluation})
}

// The body is ignored; the path is always computed for the caller.
func (h *AIHandler) learningPathFor(c *fiber.Ctx) error {
	result, err := h.learningPath.Analyze(c.UserContext(), actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	fields := fiber.Map{
		"performanceGaps": result.PerformanceGaps,
		"recommendations": result.Recommendations,
	}
	if result.Message != "" {
		fields["message"] = result.Message
	} else {
		fields["encouragement"] = result.Encouragement
		fields["performanceSummary"] = result.PerformanceSummary
	}

	return utils.SendFields(c, fiber.StatusOK, fields)
}

func (h *AIHandler) handleError(c *fiber.Ctx, err error) error {
	if handled, sendErr := sendPipelineError(c, err); handled {
		return sendErr
	}

	requestLogger(h.logger, c).Error().Err(err).Msg("unexpected pipeline error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
