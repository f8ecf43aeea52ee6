// README: Pulls a single JSON object out of raw model text (direct, fenced block, brace scan).
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrNoJSON         = errors.New("no JSON start found")
	ErrUnbalancedJSON = errors.New("no JSON end found")
	ErrNotObject      = errors.New("JSON value is not an object")
)

var fencedBlock = regexp.MustCompile("```(?:json)?\\s*(\\{[\\s\\S]*?\\})\\s*```")

// Object returns the first JSON object found in raw.
// Strategies run in order: whole-text parse, fenced code block, brace scan from the first '{'.
func Object(raw string) (map[string]any, error) {
	text := strings.TrimSpace(raw)

	if obj, err := decode(text); err == nil {
		return obj, nil
	} else if errors.Is(err, ErrNotObject) {
		return nil, err
	}

	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		if obj, err := decode(m[1]); err == nil {
			return obj, nil
		}
	}

	candidate, err := scanObject(text)
	if err != nil {
		return nil, err
	}
	obj, err := decode(candidate)
	if err != nil {
		return nil, fmt.Errorf("parse extracted object: %w", err)
	}
	return obj, nil
}

func decode(s string) (map[string]any, error) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}
	return obj, nil
}

// scanObject returns the substring from the first '{' to its matching '}'.
// Braces inside string literals are ignored and backslash escapes are honoured.
func scanObject(s string) (string, error) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", ErrNoJSON
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", ErrUnbalancedJSON
}
