package ai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	gatewayDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gema",
		Subsystem: "ai",
		Name:      "gateway_request_duration_seconds",
		Help:      "Duration of AI gateway chat-completion requests",
		Buckets:   []float64{0.5, 1, 2, 3, 5, 8, 13, 21, 34},
	}, []string{"task", "model"})

	gatewayFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gema",
		Subsystem: "ai",
		Name:      "gateway_failures_total",
		Help:      "Number of AI gateway failures by kind",
	}, []string{"task", "kind"})
)

// OpenAIConfig defines configuration options for an OpenAI-compatible gateway.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxTokens  int
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// OpenAIGateway implements Gateway against any OpenAI-compatible chat completion endpoint.
type OpenAIGateway struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIGateway builds a gateway client using the provided configuration.
func NewOpenAIGateway(cfg OpenAIConfig) (*OpenAIGateway, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("ai gateway api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2048
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		config.HTTPClient = cfg.HTTPClient
	}

	return &OpenAIGateway{
		client: openai.NewClientWithConfig(config),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/gema-academic-api/pkg/ai/openai"),
		logger: cfg.Logger.With().Str("component", "ai_gateway").Str("provider", "openai").Logger(),
	}, nil
}

// Model returns the model identifier sent with every request.
func (g *OpenAIGateway) Model() string {
	return g.cfg.Model
}

// Complete sends a single chat completion and returns the assistant text.
func (g *OpenAIGateway) Complete(parent context.Context, req ChatRequest) (ChatResponse, error) {
	ctx, span := g.tracer.Start(parent, "ai.gateway.complete", trace.WithAttributes(
		attribute.String("ai.model", g.cfg.Model),
		attribute.String("ai.task", req.Task),
	))
	defer span.End()

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = g.cfg.MaxTokens
	}

	request := openai.ChatCompletionRequest{
		Model:       g.cfg.Model,
		MaxTokens:   maxTokens,
		Temperature: wireTemperature(req.Temperature),
		Seed:        req.Seed,
		Messages:    buildOpenAIMessages(req.Messages),
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, request)
	gatewayDuration.WithLabelValues(req.Task, g.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		mapped := g.mapError(req.Task, err)
		span.RecordError(mapped)
		span.SetStatus(codes.Error, mapped.Error())
		return ChatResponse{}, mapped
	}

	if len(resp.Choices) == 0 {
		err := &ErrProviderUnavailable{Err: errors.New("no choices returned from gateway")}
		gatewayFailures.WithLabelValues(req.Task, "empty").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ChatResponse{}, err
	}

	return ChatResponse{
		Content: strings.TrimSpace(resp.Choices[0].Message.Content),
		Model:   resp.Model,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

func (g *OpenAIGateway) mapError(task string, err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	// Upstream detail stays in the logs only.
	g.logger.Error().Err(err).Int("status", status).Str("task", task).Msg("ai gateway request failed")

	switch status {
	case http.StatusTooManyRequests:
		gatewayFailures.WithLabelValues(task, "rate_limited").Inc()
		return &ErrRateLimit{Err: err}
	case http.StatusPaymentRequired:
		gatewayFailures.WithLabelValues(task, "payment_required").Inc()
		return &ErrPaymentRequired{Err: err}
	default:
		gatewayFailures.WithLabelValues(task, "unavailable").Inc()
		return &ErrProviderUnavailable{StatusCode: status, Err: err}
	}
}

func buildOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleSystem {
			role = openai.ChatMessageRoleSystem
		}
		out = append(out, openai.ChatCompletionMessage{
			Role:    role,
			Content: m.Content,
		})
	}
	return out
}

// wireTemperature keeps an explicit zero on the wire; go-openai drops 0 via omitempty,
// which would let the gateway fall back to its default of 1.
func wireTemperature(t float32) float32 {
	if t <= 0 {
		return math.SmallestNonzeroFloat32
	}
	return t
}
