package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"tripbuddy/internal/ai"
	"tripbuddy/internal/extract"
	"tripbuddy/internal/itinerary"
	"tripbuddy/internal/metrics"
	"tripbuddy/internal/readiness"
	"tripbuddy/internal/retry"
)

const (
	maxReportedAttempts = 3
	rawExcerptLen       = 500
	lastMessageLen      = 100
)

var (
	ErrInvalidRequest = errors.New("invalid request: messages required")
	ErrNotConfigured  = errors.New("missing model credentials")
)

// Invoker runs one model attempt and returns raw text.
type Invoker interface {
	Invoke(ctx context.Context, c ai.Candidate, history []ai.Message, final bool) (string, error)
}

// AttemptError is the diagnostic record of one failed candidate.
type AttemptError struct {
	Model          string `json:"model"`
	Error          string `json:"error"`
	Type           string `json:"type,omitempty"`
	HasResp        *bool  `json:"hasResp,omitempty"`
	HasItinerary   *bool  `json:"hasItinerary,omitempty"`
	IncompleteDays []int  `json:"incompleteDays,omitempty"`
	TotalDays      int    `json:"totalDays,omitempty"`
	Message        string `json:"message,omitempty"`
	Raw            string `json:"raw,omitempty"`
}

type DebugInfo struct {
	MessageCount int    `json:"messageCount"`
	InfoScore    int    `json:"infoScore"`
	LastMessage  string `json:"lastMessage"`
}

// FallbackError is returned when every candidate failed.
type FallbackError struct {
	Message             string         `json:"error"`
	Details             []AttemptError `json:"details"`
	ShouldGenerateFinal bool           `json:"shouldGenerateFinal"`
	Retryable           bool           `json:"retryable"`
	Debug               DebugInfo      `json:"debugInfo"`
	// Attempts holds every failure, Details only the first three.
	Attempts []AttemptError `json:"-"`
}

func (e *FallbackError) Error() string { return e.Message }

// Result is an accepted payload plus the failures that preceded it.
type Result struct {
	Payload             itinerary.Payload
	Model               string
	Attempts            []AttemptError
	ShouldGenerateFinal bool
	InfoScore           int
	Report              itinerary.Report
}

// attemptFailure keeps the underlying cause for classification.
type attemptFailure struct {
	entry AttemptError
	cause error
}

func (f *attemptFailure) Error() string { return f.entry.Error }
func (f *attemptFailure) Unwrap() error { return f.cause }

// TripPlanner orchestrates readiness, model fallback, extraction and validation.
type TripPlanner struct {
	invoker    Invoker
	candidates []ai.Candidate
	analyzer   *readiness.Analyzer
	sanitizer  *itinerary.Sanitizer
	log        zerolog.Logger
}

// NewTripPlanner creates a TripPlanner over an ordered candidate list.
func NewTripPlanner(invoker Invoker, candidates []ai.Candidate, analyzer *readiness.Analyzer, sanitizer *itinerary.Sanitizer, log zerolog.Logger) *TripPlanner {
	return &TripPlanner{
		invoker:    invoker,
		candidates: candidates,
		analyzer:   analyzer,
		sanitizer:  sanitizer,
		log:        log,
	}
}

// Plan tries each candidate in order until one yields an acceptable payload.
// Transient and terminal failures stop the loop early.
func (p *TripPlanner) Plan(ctx context.Context, messages []ai.Message) (*Result, error) {
	if len(messages) == 0 {
		return nil, ErrInvalidRequest
	}
	texts := make([]string, len(messages))
	for i, m := range messages {
		texts[i] = m.Content
	}
	ready := p.analyzer.Analyze(texts)
	mode := modeName(ready.ShouldGenerateFinal)

	var failures []AttemptError
	res, err := retry.Do(ctx, retry.Policy{
		MaxAttempts: len(p.candidates),
		BackOff:     retry.None(),
		Retryable:   func(err error) bool { return ai.Classify(err).Retryable() },
	}, func(ctx context.Context, attempt int) (*Result, error) {
		c := p.candidates[attempt-1]
		start := time.Now()
		res, err := p.attempt(ctx, c, messages, ready.ShouldGenerateFinal)
		if err != nil {
			var f *attemptFailure
			if errors.As(err, &f) {
				failures = append(failures, f.entry)
			}
			metrics.RecordModelAttempt(c.String(), mode, "failure", time.Since(start).Seconds())
			p.log.Warn().Str("model", c.String()).Str("mode", mode).Err(err).Msg("model attempt failed")
			return nil, err
		}
		metrics.RecordModelAttempt(c.String(), mode, "success", time.Since(start).Seconds())
		return res, nil
	})
	if errors.Is(err, retry.ErrNoAttempts) {
		return nil, ErrNotConfigured
	}
	if err == nil {
		res.Attempts = failures
		res.ShouldGenerateFinal = ready.ShouldGenerateFinal
		res.InfoScore = ready.InfoScore
		return res, nil
	}

	metrics.PlanFailuresTotal.Inc()
	details := failures
	if len(details) > maxReportedAttempts {
		details = details[:maxReportedAttempts]
	}
	fe := &FallbackError{
		Message:             "All model fallbacks failed",
		Details:             details,
		ShouldGenerateFinal: ready.ShouldGenerateFinal,
		Retryable:           ai.Classify(err) != ai.ClassTerminal,
		Debug: DebugInfo{
			MessageCount: len(messages),
			InfoScore:    ready.InfoScore,
			LastMessage:  truncate(messages[len(messages)-1].Content, lastMessageLen),
		},
		Attempts: failures,
	}
	p.log.Error().Int("attempts", len(failures)).Bool("final", ready.ShouldGenerateFinal).Int("info_score", ready.InfoScore).Msg("all model fallbacks failed")
	return nil, fe
}

func (p *TripPlanner) attempt(ctx context.Context, c ai.Candidate, messages []ai.Message, final bool) (*Result, error) {
	model := c.String()
	raw, err := p.invoker.Invoke(ctx, c, messages, final)
	if err != nil {
		return nil, &attemptFailure{entry: AttemptError{Model: model, Error: err.Error(), Type: errType(err)}, cause: err}
	}

	obj, err := extract.Object(raw)
	if err != nil {
		return nil, &attemptFailure{entry: AttemptError{Model: model, Error: err.Error(), Type: "parse", Raw: truncate(raw, rawExcerptLen)}, cause: err}
	}

	payload, err := itinerary.Decode(obj)
	if err != nil {
		return nil, &attemptFailure{entry: AttemptError{Model: model, Error: err.Error(), Type: "decode"}, cause: err}
	}

	res := &Result{Payload: payload, Model: model}
	switch v := payload.(type) {
	case *itinerary.TripItinerary:
		rep, err := itinerary.Validate(v)
		if err != nil {
			return nil, validationFailure(model, obj, err)
		}
		if len(rep.RepairedDays) > 0 {
			metrics.RepairedDaysTotal.Add(float64(len(rep.RepairedDays)))
			p.log.Warn().Str("model", model).Ints("days", rep.RepairedDays).Msg("filled incomplete itinerary days")
		}
		p.sanitizer.Apply(v)
		res.Report = rep
		p.log.Info().Str("model", model).Int("days", len(v.Itinerary)).Msg("generated itinerary")
	case itinerary.ErrorPayload:
		err := fmt.Errorf("model returned error payload: %s", v.Message)
		return nil, &attemptFailure{entry: AttemptError{Model: model, Error: err.Error(), Type: "model_error"}, cause: err}
	default:
		if err := itinerary.ValidateQuestion(payload); err != nil {
			return nil, validationFailure(model, obj, err)
		}
		if final {
			p.log.Debug().Str("model", model).Msg("final mode answered with a question")
		}
	}
	return res, nil
}

func validationFailure(model string, obj map[string]any, err error) error {
	entry := AttemptError{Model: model, Error: err.Error(), Type: "validation"}
	var verr *itinerary.ValidationError
	if errors.As(err, &verr) {
		entry.Error = string(verr.Code)
		switch verr.Code {
		case itinerary.CodeMissingFinalFields:
			hasResp, hasItinerary := verr.HasResp, verr.HasItinerary
			entry.HasResp = &hasResp
			entry.HasItinerary = &hasItinerary
			entry.Raw = excerpt(obj)
		case itinerary.CodeIncompleteStructure:
			entry.IncompleteDays = verr.IncompleteDays
			entry.TotalDays = verr.TotalDays
			entry.Message = verr.Message()
		case itinerary.CodeMissingResp:
			entry.Raw = excerpt(obj)
		}
	}
	return &attemptFailure{entry: entry, cause: err}
}

func excerpt(obj map[string]any) string {
	b, err := json.Marshal(obj)
	if err != nil {
		return ""
	}
	return truncate(string(b), rawExcerptLen)
}

func errType(err error) string {
	var se *ai.StatusError
	switch {
	case errors.As(err, &se):
		return fmt.Sprintf("status_%d", se.Status)
	case errors.Is(err, ai.ErrEmptyResponse):
		return "empty_response"
	case errors.Is(err, ai.ErrProviderUnavailable):
		return "provider_unavailable"
	}
	return ai.Classify(err).String()
}

func modeName(final bool) string {
	if final {
		return "final"
	}
	return "question"
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
