package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// RecentMessagesLimit is how many trailing turns are sent to a model.
const RecentMessagesLimit = 12

const DefaultAttemptTimeout = 60 * time.Second

var (
	QuestionParams = SamplingParams{Temperature: 0.3, TopP: 0.9, MaxTokens: 2000, FrequencyPenalty: 0.1}
	FinalParams    = SamplingParams{Temperature: 0.35, TopP: 0.9, MaxTokens: 12000, FrequencyPenalty: 0.3}
)

// ParamsFor returns the sampling params for a mode.
func ParamsFor(final bool) SamplingParams {
	if final {
		return FinalParams
	}
	return QuestionParams
}

// Window returns the last RecentMessagesLimit messages.
func Window(history []Message) []Message {
	if len(history) <= RecentMessagesLimit {
		return history
	}
	return history[len(history)-RecentMessagesLimit:]
}

// Invoker builds one model request per attempt and returns the raw text.
type Invoker struct {
	providers map[string]Provider
	prompts   Prompts
	timeout   time.Duration
}

func NewInvoker(prompts Prompts, timeout time.Duration, providers ...Provider) *Invoker {
	if timeout <= 0 {
		timeout = DefaultAttemptTimeout
	}
	m := make(map[string]Provider, len(providers))
	for _, p := range providers {
		if p != nil {
			m[p.Name()] = p
		}
	}
	return &Invoker{providers: m, prompts: prompts, timeout: timeout}
}

// Configured reports whether at least one provider is available.
func (i *Invoker) Configured() bool {
	return len(i.providers) > 0
}

// Invoke runs a single attempt bounded by the per-attempt timeout.
func (i *Invoker) Invoke(ctx context.Context, c Candidate, history []Message, final bool) (string, error) {
	p, ok := i.providers[c.Provider]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrProviderUnavailable, c.Provider)
	}

	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	text, err := p.Complete(ctx, CompletionRequest{
		Model:    c.Model,
		System:   i.prompts.For(final),
		Messages: Window(history),
		Params:   ParamsFor(final),
		JSON:     true,
	})
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("request timeout after %s: %w", i.timeout, context.DeadlineExceeded)
		}
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
