package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"tripbuddy/internal/extract"
	"tripbuddy/internal/itinerary"
)

var (
	ErrEmptyResponse       = errors.New("empty response from model")
	ErrMissingCredentials  = errors.New("missing model credentials")
	ErrProviderUnavailable = errors.New("model provider not configured")
)

// StatusError carries the HTTP status an upstream model API answered with.
type StatusError struct {
	Provider string
	Status   int
	Message  string
	Err      error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.Status, e.Message)
}

func (e *StatusError) Unwrap() error { return e.Err }

type Class int

const (
	ClassUnknown Class = iota
	// ClassTransient covers timeouts, aborts and rate limits.
	ClassTransient
	// ClassTerminal covers bad credentials and authorization failures.
	ClassTerminal
	// ClassMalformed covers empty output and text without a parseable JSON object.
	ClassMalformed
	// ClassValidation covers parsed payloads rejected by the itinerary validator.
	ClassValidation
)

func (c Class) String() string {
	switch c {
	case ClassTransient:
		return "transient"
	case ClassTerminal:
		return "terminal"
	case ClassMalformed:
		return "malformed"
	case ClassValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Classify maps an attempt error to the class that drives fallback sequencing.
func Classify(err error) Class {
	if err == nil {
		return ClassUnknown
	}
	if errors.Is(err, ErrMissingCredentials) {
		return ClassTerminal
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ClassTransient
	}
	var se *StatusError
	if errors.As(err, &se) {
		switch se.Status {
		case http.StatusUnauthorized, http.StatusForbidden:
			return ClassTerminal
		case http.StatusTooManyRequests, http.StatusRequestTimeout, http.StatusGatewayTimeout:
			return ClassTransient
		}
	}
	if isMalformed(err) {
		return ClassMalformed
	}
	var verr *itinerary.ValidationError
	if errors.As(err, &verr) {
		return ClassValidation
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"timeout", "timed out", "abort", "rate limit"} {
		if strings.Contains(msg, s) {
			return ClassTransient
		}
	}
	return ClassUnknown
}

func isMalformed(err error) bool {
	if errors.Is(err, ErrEmptyResponse) || errors.Is(err, extract.ErrNoJSON) ||
		errors.Is(err, extract.ErrUnbalancedJSON) || errors.Is(err, extract.ErrNotObject) {
		return true
	}
	var syn *json.SyntaxError
	var typ *json.UnmarshalTypeError
	return errors.As(err, &syn) || errors.As(err, &typ)
}

// Retryable reports whether the fallback loop may move on to the next model.
func (c Class) Retryable() bool {
	return c != ClassTransient && c != ClassTerminal
}
