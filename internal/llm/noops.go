package llm

import "context"

// NoOpsProvider implements the Provider interface for testing purposes.
// It returns a canned response without contacting any external API.
type NoOpsProvider struct {
	response Response
	err      error
}

// NoOpsOption defines the function signature for option pattern.
type NoOpsOption func(*NoOpsProvider)

// WithResponse sets a custom Response for the NoOpsProvider.
func WithResponse(response Response) NoOpsOption {
	return func(n *NoOpsProvider) {
		n.response = response
	}
}

// WithError makes every call fail with the given error.
func WithError(err error) NoOpsOption {
	return func(n *NoOpsProvider) {
		n.err = err
	}
}

// NewNoOpsProvider creates a new NoOpsProvider with optional configurations.
func NewNoOpsProvider(opts ...NoOpsOption) *NoOpsProvider {
	provider := &NoOpsProvider{
		response: Response{
			Text:             "Default NoOps response",
			TotalInputToken:  10,
			TotalOutputToken: 3,
			CompletionTime:   0.1,
		},
	}

	for _, opt := range opts {
		opt(provider)
	}

	return provider
}

// GetResponse implements the Provider interface.
func (n *NoOpsProvider) GetResponse(_ context.Context, _ []Message, _ RequestConfig) (Response, error) {
	if n.err != nil {
		return Response{}, n.err
	}
	return n.response, nil
}
