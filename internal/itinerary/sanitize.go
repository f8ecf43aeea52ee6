package itinerary

import (
	"fmt"
	"regexp"

	"github.com/rs/zerolog"
)

type rewrite struct {
	re   *regexp.Regexp
	with string
}

// Sanitizer turns third-person self references by the agent into first person.
type Sanitizer struct {
	rules []rewrite
	log   zerolog.Logger
}

func NewSanitizer(agentName string, log zerolog.Logger) *Sanitizer {
	s := &Sanitizer{log: log}
	if agentName == "" {
		return s
	}
	name := regexp.QuoteMeta(agentName)
	for _, r := range []struct{ verb, with string }{
		{"is", "I am"},
		{"will", "I'll"},
		{"can", "I can"},
	} {
		s.rules = append(s.rules, rewrite{
			re:   regexp.MustCompile(`(?i)\b` + name + `\s+` + r.verb + `\b`),
			with: r.with,
		})
	}
	return s
}

// Rewrite applies every rule to text.
func (s *Sanitizer) Rewrite(text string) string {
	for _, r := range s.rules {
		text = r.re.ReplaceAllLiteralString(text, r.with)
	}
	return text
}

// Apply rewrites resp and each day's narrative fields. Failures are logged and ignored.
func (s *Sanitizer) Apply(t *TripItinerary) {
	if t == nil || len(s.rules) == 0 {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Str("panic", fmt.Sprint(r)).Msg("sanitize itinerary")
		}
	}()
	t.Resp = Text(s.Rewrite(string(t.Resp)))
	for i := range t.Itinerary {
		d := &t.Itinerary[i]
		d.Title = Text(s.Rewrite(string(d.Title)))
		d.Morning = Text(s.Rewrite(string(d.Morning)))
		d.Afternoon = Text(s.Rewrite(string(d.Afternoon)))
		d.Evening = Text(s.Rewrite(string(d.Evening)))
	}
}
