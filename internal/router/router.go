package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-academic-api/internal/config"
	"github.com/noah-isme/gema-academic-api/internal/handler"
	"github.com/noah-isme/gema-academic-api/internal/middleware"
	"github.com/noah-isme/gema-academic-api/internal/models"
	"github.com/noah-isme/gema-academic-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AIHandler         *handler.AIHandler
	AssignmentHandler *handler.AssignmentHandler
	SubmissionHandler *handler.SubmissionHandler
	QuizHandler       *handler.QuizHandler
	ActivityHandler   *handler.ActivityHandler
	HealthChecks      map[string]handler.DependencyCheck

	// JWTMiddleware authenticates the caller; RoleMiddleware loads its role from storage.
	JWTMiddleware  fiber.Handler
	RoleMiddleware fiber.Handler
	// AIRateLimiter throttles the AI routes. Nil disables it.
	AIRateLimiter fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthChecks))

	passthrough := func(c *fiber.Ctx) error { return c.Next() }
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = middleware.JWTProtected(cfg.JWTSecret)
	}
	roleMiddleware := deps.RoleMiddleware
	if roleMiddleware == nil {
		roleMiddleware = passthrough
	}
	rateLimiter := deps.AIRateLimiter
	if rateLimiter == nil {
		rateLimiter = passthrough
	}

	staff := middleware.RequireRole(models.RoleFaculty, models.RoleAdmin)
	students := middleware.RequireRole(models.RoleStudent)
	admins := middleware.RequireRole(models.RoleAdmin)

	if deps.AIHandler != nil {
		ai := api.Group("/ai", jwtMiddleware, roleMiddleware, rateLimiter)
		deps.AIHandler.Register(ai, staff)
	}

	if deps.AssignmentHandler != nil {
		assignments := api.Group("/assignments", jwtMiddleware, roleMiddleware)
		deps.AssignmentHandler.Register(assignments, staff)
	}

	if deps.SubmissionHandler != nil {
		submissions := api.Group("/submissions", jwtMiddleware, roleMiddleware)
		deps.SubmissionHandler.Register(submissions, staff, students)
	}

	if deps.QuizHandler != nil {
		quizzes := api.Group("/quizzes", jwtMiddleware, roleMiddleware)
		deps.QuizHandler.Register(quizzes, staff)
	}

	if deps.ActivityHandler != nil {
		activity := api.Group("/activity", jwtMiddleware, roleMiddleware)
		deps.ActivityHandler.Register(activity, admins)
	}
}
