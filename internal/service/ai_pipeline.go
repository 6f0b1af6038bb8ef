package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-academic-api/internal/events"
	"github.com/noah-isme/gema-academic-api/internal/pipeline"
	"github.com/noah-isme/gema-academic-api/internal/prompt"
	"github.com/noah-isme/gema-academic-api/pkg/ai"
)

// TaskSettings tunes sampling for one AI task.
type TaskSettings struct {
	Temperature float32
	Seed        *int
	MaxTokens   int
}

// AIDependencies are the collaborators every AI service shares.
type AIDependencies struct {
	Gateway   ai.Gateway
	Publisher events.Publisher
	Activity  ActivityRecorder
	Validator *validator.Validate
	Logger    zerolog.Logger
}

func (d AIDependencies) publisher() events.Publisher {
	if d.Publisher == nil {
		return events.Nop{}
	}
	return d.Publisher
}

// callModel sends the prompt through the gateway inside the PROMPTING and CALLING_LLM stages.
func callModel(ctx context.Context, run *pipeline.Run, gateway ai.Gateway, p prompt.Prompt, settings TaskSettings) (string, *pipeline.Error) {
	run.Enter(pipeline.StagePrompting)
	request := ai.NewChatRequest(string(run.Endpoint()), p.System, p.User)
	request.Temperature = settings.Temperature
	request.Seed = settings.Seed
	request.MaxTokens = settings.MaxTokens

	run.Enter(pipeline.StageCallingLLM)
	response, err := gateway.Complete(ctx, request)
	if err != nil {
		return "", run.FailWith(err)
	}
	return response.Content, nil
}

// extract decodes model output and applies the endpoint's parse-failure policy.
// fellBack is true when a fail-open endpoint must substitute its default result.
func extract(run *pipeline.Run, content string, schema *ai.Schema, out interface{}) (fellBack bool, failure *pipeline.Error) {
	run.Enter(pipeline.StageExtracting)
	err := ai.Decode(content, schema, out)
	if err == nil {
		return false, nil
	}
	if run.Policy() == pipeline.FailOpen {
		run.FallBack(err)
		return true, nil
	}
	return false, run.FailWith(err)
}

func invalidInput(run *pipeline.Run, err error) *pipeline.Error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		first := validationErrors[0]
		return run.Fail(pipeline.KindInvalidInput, "invalid "+lowerFirst(first.Field())+": failed "+first.Tag()+" validation", err)
	}
	return run.Fail(pipeline.KindInvalidInput, "invalid request payload", err)
}

func loadFailure(run *pipeline.Run, err error, notFoundMessage string) *pipeline.Error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return run.Fail(pipeline.KindNotFound, notFoundMessage, err)
	}
	return run.Fail(pipeline.KindInternal, pipeline.MessageInternal, err)
}

// announce publishes the domain event and appends the audit entry. Failures are logged only;
// the result is already stored by the time this runs.
func (d AIDependencies) announce(ctx context.Context, actor pipeline.Actor, eventType, entityType string, entityID *uint, payload map[string]interface{}) {
	if err := d.publisher().Publish(ctx, eventType, payload); err != nil {
		d.Logger.Warn().Err(err).Str("event", eventType).Msg("failed to publish domain event")
	}

	if d.Activity == nil {
		return
	}
	if err := d.Activity.Record(ctx, ActivityEntry{
		ActorID:    actor.UserID,
		ActorRole:  actor.Role,
		Action:     eventType,
		EntityType: entityType,
		EntityID:   entityID,
		Metadata:   payload,
	}); err != nil {
		d.Logger.Warn().Err(err).Str("event", eventType).Msg("failed to record activity")
	}
}

// clamp bounds v to [lo, hi]. NaN collapses to lo.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func utcNow() time.Time {
	return time.Now().UTC()
}
