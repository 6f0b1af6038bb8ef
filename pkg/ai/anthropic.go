package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// AnthropicConfig configures the Anthropic Messages API gateway.
type AnthropicConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxTokens  int
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// AnthropicGateway implements Gateway on top of the Anthropic SDK.
type AnthropicGateway struct {
	client anthropic.Client
	cfg    AnthropicConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewAnthropicGateway constructs the gateway. SDK retries are disabled.
func NewAnthropicGateway(cfg AnthropicConfig) (*AnthropicGateway, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "claude-haiku-4-5-20251001"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2048
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &AnthropicGateway{
		client: anthropic.NewClient(opts...),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/gema-academic-api/pkg/ai/anthropic"),
		logger: cfg.Logger.With().Str("component", "ai_gateway").Str("provider", "anthropic").Logger(),
	}, nil
}

// Model returns the configured model identifier.
func (g *AnthropicGateway) Model() string {
	return g.cfg.Model
}

// Complete sends one Messages API request; the system message is lifted into the system field.
func (g *AnthropicGateway) Complete(parent context.Context, req ChatRequest) (ChatResponse, error) {
	ctx, span := g.tracer.Start(parent, "ai.gateway.complete", trace.WithAttributes(
		attribute.String("ai.model", g.cfg.Model),
		attribute.String("ai.task", req.Task),
	))
	defer span.End()

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = g.cfg.MaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(g.cfg.Model),
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(float64(req.Temperature)),
	}
	for _, m := range req.Messages {
		if m.Role == RoleSystem {
			params.System = append(params.System, anthropic.TextBlockParam{Text: m.Content})
			continue
		}
		params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
	}

	start := time.Now()
	msg, err := g.client.Messages.New(ctx, params)
	gatewayDuration.WithLabelValues(req.Task, g.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		mapped := g.mapError(req.Task, err)
		span.RecordError(mapped)
		span.SetStatus(codes.Error, mapped.Error())
		return ChatResponse{}, mapped
	}

	var builder strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			builder.WriteString(block.Text)
		}
	}
	if builder.Len() == 0 {
		err := &ErrProviderUnavailable{Err: errors.New("no text content in anthropic response")}
		gatewayFailures.WithLabelValues(req.Task, "empty").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ChatResponse{}, err
	}

	return ChatResponse{
		Content: strings.TrimSpace(builder.String()),
		Model:   string(msg.Model),
		Usage: Usage{
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
			TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}, nil
}

func (g *AnthropicGateway) mapError(task string, err error) error {
	status := 0
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		status = apiErr.StatusCode
	}

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
