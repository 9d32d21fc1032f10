package llm

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/shaharia-lab/whatsbot/internal/observability"
)

// TracingProvider implements the decorator pattern for tracing
type TracingProvider struct {
	provider Provider
}

// NewTracingProvider creates a new tracing decorator for any Provider
func NewTracingProvider(provider Provider) *TracingProvider {
	return &TracingProvider{
		provider: provider,
	}
}

// GetResponse implements Provider interface with added tracing
func (t *TracingProvider) GetResponse(ctx context.Context, messages []Message, config RequestConfig) (Response, error) {
	ctx, span := observability.StartSpan(ctx, "Provider.GetResponse")
	defer span.End()

	startTime := time.Now()

	response, err := t.provider.GetResponse(ctx, messages, config)

	if err != nil {
		span.RecordError(err)
		return Response{}, err
	}

	span.SetAttributes(
		attribute.Int("total_input_token", response.TotalInputToken),
		attribute.Int("total_output_token", response.TotalOutputToken),
		attribute.Int("message_count", len(messages)),
		attribute.Float64("completion_time", time.Since(startTime).Seconds()),
		attribute.String("model", config.Model),
		attribute.Int64("max_tokens", config.MaxTokens),
		attribute.Float64("temperature", config.Temperature),
		attribute.Float64("top_p", config.TopP),
	)

	return response, nil
}
