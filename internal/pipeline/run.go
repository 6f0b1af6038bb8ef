package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-academic-api/internal/observability"
)

var tracer = otel.Tracer("github.com/noah-isme/gema-academic-api/internal/pipeline")

// Run tracks one request through the stages. It is not safe for concurrent use;
// each request owns its own Run.
type Run struct {
	endpoint Endpoint
	stage    Stage
	started  time.Time
	logger   zerolog.Logger
	span     trace.Span
	done     bool
}

// Start opens a run in the AUTHENTICATING stage and returns a context carrying its span.
func Start(ctx context.Context, endpoint Endpoint, logger zerolog.Logger) (context.Context, *Run) {
	ctx, span := tracer.Start(ctx, "ai.pipeline."+string(endpoint), trace.WithAttributes(
		attribute.String("ai.endpoint", string(endpoint)),
		attribute.String("ai.policy", PolicyFor(endpoint).String()),
	))

	run := &Run{
		endpoint: endpoint,
		stage:    StageAuthenticating,
		started:  time.Now(),
		logger:   logger.With().Str("endpoint", string(endpoint)).Logger(),
		span:     span,
	}
	run.logger.Debug().Str("stage", string(run.stage)).Msg("pipeline started")
	return ctx, run
}

// Endpoint returns the endpoint the run serves.
func (r *Run) Endpoint() Endpoint {
	return r.endpoint
}

// Stage returns the current stage.
func (r *Run) Stage() Stage {
	return r.stage
}

// Policy returns the endpoint's parse-failure policy.
func (r *Run) Policy() Policy {
	return PolicyFor(r.endpoint)
}

// Enter moves the run to the next stage.
func (r *Run) Enter(stage Stage) {
	if r.done {
		return
	}
	r.logger.Debug().Str("from", string(r.stage)).Str("to", string(stage)).Msg("pipeline stage transition")
	r.span.AddEvent(string(stage))
	r.stage = stage
}

// Authorize checks the actor inside the AUTHENTICATING and AUTHORIZING stages.
// With no roles given any authenticated actor passes.
func (r *Run) Authorize(actor Actor, roles ...string) *Error {
	if actor.UserID == 0 {
		return r.Fail(KindUnauthenticated, "authentication required", nil)
	}

	r.Enter(StageAuthorizing)
	r.span.SetAttributes(attribute.Int64("ai.actor_id", int64(actor.UserID)))
	if len(roles) > 0 && !actor.HasRole(roles...) {
		return r.Fail(KindForbidden, "insufficient permissions", nil)
	}
	return nil
}

// Fail moves the run to FAILED and returns the error describing it.
func (r *Run) Fail(kind Kind, message string, cause error) *Error {
	failed := NewError(r.stage, kind, message, cause)
	if r.done {
		return failed
	}

	observability.PipelineFailures().WithLabelValues(string(r.endpoint), string(r.stage), string(kind)).Inc()
	r.finish("failed")

	event := r.logger.Warn()
	if failed.Status() >= 500 {
		event = r.logger.Error()
	}
	event.Err(cause).
		Str("stage", string(failed.Stage)).
		Str("kind", string(kind)).
		Msg(message)

	if cause != nil {
		r.span.RecordError(cause)
	}
	r.span.SetStatus(codes.Error, string(kind))
	r.stage = StageFailed
	return failed
}

// FailWith classifies err (gateway, extractor or an existing *Error) and fails the run.
func (r *Run) FailWith(err error) *Error {
	kind, message := Classify(err)
	return r.Fail(kind, message, err)
}

// FallBack records a fail-open substitution. The run keeps going.
func (r *Run) FallBack(cause error) {
	r.logger.Warn().Err(cause).Str("stage", string(r.stage)).Msg("unparseable model output, using fallback result")
	r.span.AddEvent("fallback")
	observability.PipelineRuns().WithLabelValues(string(r.endpoint), "fallback").Inc()
}

// Succeed moves the run to RESPONDING.
func (r *Run) Succeed() {
	if r.done {
		return
	}
	r.Enter(StageResponding)
	r.finish("success")
	r.span.SetStatus(codes.Ok, "")
	r.logger.Info().Dur("duration", time.Since(r.started)).Msg("pipeline completed")
}

// End closes the trace span. Call it with defer right after Start.
func (r *Run) End() {
	r.span.End()
}

func (r *Run) finish(outcome string) {
	r.done = true
	observability.PipelineRuns().WithLabelValues(string(r.endpoint), outcome).Inc()
	observability.PipelineDuration().WithLabelValues(string(r.endpoint)).Observe(time.Since(r.started).Seconds())
}
