// Package assistant is the lab instructor chat. A Gateway turns a question
// plus a bench snapshot into a reply and always answers, falling back to a
// fixed message when the model cannot be reached. Chat keeps the history and
// allows one question in flight at a time.
package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/oops"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/san-kum/leaklab/internal/config"
)

const (
	FallbackUnavailable = "The lab assistant is unavailable: set the API key in your environment to enable it."
	FallbackError       = "I'm having trouble reaching the lab server right now. Please try again."
	FallbackEmpty       = "I couldn't come up with an answer just now."

	defaultTimeout = 30 * time.Second
)

type Gateway interface {
	// Ask never fails; problems come back as one of the fallback texts.
	Ask(ctx context.Context, question, snapshot string) string
}

// Unavailable answers every question with FallbackUnavailable. It stands in
// when no credential is configured.
type Unavailable struct{}

func (Unavailable) Ask(ctx context.Context, question, _ string) string {
	slog.WarnContext(ctx, "Assistant unavailable", "error", ErrGatewayUnavailable, "reason", "missing credential")
	return FallbackUnavailable
}

type LLMGateway struct {
	llm         llms.Model
	timeout     time.Duration
	temperature float64
	maxTokens   int
}

type Option func(*LLMGateway)

func WithTimeout(d time.Duration) Option {
	return func(g *LLMGateway) {
		if d > 0 {
			g.timeout = d
		}
	}
}

func WithTemperature(t float64) Option {
	return func(g *LLMGateway) { g.temperature = t }
}

func WithMaxTokens(n int) Option {
	return func(g *LLMGateway) { g.maxTokens = n }
}

func NewLLMGateway(llm llms.Model, opts ...Option) *LLMGateway {
	g := &LLMGateway{
		llm:     llm,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Ask makes a single attempt bounded by the gateway timeout.
func (g *LLMGateway) Ask(ctx context.Context, question, snapshot string) string {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	callOpts := []llms.CallOption{llms.WithTemperature(g.temperature)}
	if g.maxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(g.maxTokens))
	}

	start := time.Now()
	reply, err := llms.GenerateFromSinglePrompt(ctx, g.llm, renderPrompt(question, snapshot), callOpts...)
	if err != nil {
		slog.ErrorContext(ctx, "Assistant request failed",
			"error", fmt.Errorf("%w: %w", ErrGatewayUnavailable, err),
			"elapsed", time.Since(start))
		return FallbackError
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		slog.WarnContext(ctx, "Assistant returned an empty reply", "error", ErrGatewayUnavailable)
		return FallbackEmpty
	}

	slog.DebugContext(ctx, "Assistant replied", "elapsed", time.Since(start), "chars", len(reply))
	return reply
}

// New picks a gateway for cfg. Without a credential it returns Unavailable;
// a provider that fails to initialise is an error.
func New(ctx context.Context, cfg config.AssistantConfig) (Gateway, error) {
	if cfg.APIKey == "" {
		slog.Warn("No assistant credential found, using fallback replies", "env", cfg.APIKeyEnv)
		return Unavailable{}, nil
	}

	llm, err := newModel(ctx, cfg)
	if err != nil {
		return nil, oops.In("assistant").With("provider", cfg.Provider).Wrapf(err, "failed to create model client")
	}

	return NewLLMGateway(llm,
		WithTimeout(cfg.Timeout),
		WithTemperature(cfg.Temperature),
		WithMaxTokens(cfg.MaxTokens),
	), nil
}

func newModel(ctx context.Context, cfg config.AssistantConfig) (llms.Model, error) {
	switch cfg.Provider {
	case "", "googleai":
		return googleai.New(ctx,
			googleai.WithAPIKey(cfg.APIKey),
			googleai.WithDefaultModel(cfg.Model),
		)
	case "openai":
		opts := []openai.Option{
			openai.WithToken(cfg.APIKey),
			openai.WithModel(cfg.Model),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		return openai.New(opts...)
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}
