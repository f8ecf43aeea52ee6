package ai

import "strings"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversation turn sent to a model.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Valid reports whether the role is known and content is present.
func (m Message) Valid() bool {
	switch m.Role {
	case RoleSystem, RoleUser, RoleAssistant:
		return strings.TrimSpace(m.Content) != ""
	}
	return false
}

// SamplingParams are the generation knobs for one request.
type SamplingParams struct {
	Temperature      float32
	TopP             float32
	MaxTokens        int
	FrequencyPenalty float32
	PresencePenalty  float32
}

// CompletionRequest is provider-neutral. System is sent ahead of Messages.
type CompletionRequest struct {
	Model    string
	System   string
	Messages []Message
	Params   SamplingParams
	JSON     bool
}

const (
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
)

// Candidate is one entry of the model fallback list.
type Candidate struct {
	Provider string
	Model    string
}

func (c Candidate) String() string {
	return c.Provider + ":" + c.Model
}

// ParseCandidate reads "provider:model". Without a known provider prefix the
// whole string is an OpenRouter model id, so ids like "google/x:free" stay intact.
func ParseCandidate(s string) Candidate {
	s = strings.TrimSpace(s)
	if p, m, ok := strings.Cut(s, ":"); ok {
		switch p {
		case ProviderOpenRouter, ProviderGemini:
			return Candidate{Provider: p, Model: m}
		}
	}
	return Candidate{Provider: ProviderOpenRouter, Model: s}
}

// ParseCandidates splits a comma separated list, skipping blanks.
func ParseCandidates(list string) []Candidate {
	var out []Candidate
	for _, part := range strings.Split(list, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		out = append(out, ParseCandidate(part))
	}
	return out
}

// DefaultCandidates is the fallback order used when none is configured.
var DefaultCandidates = []Candidate{
	{Provider: ProviderOpenRouter, Model: "x-ai/grok-4-fast"},
	{Provider: ProviderOpenRouter, Model: "google/gemini-2.0-flash-exp:free"},
	{Provider: ProviderOpenRouter, Model: "openai/gpt-4.1-mini"},
}
