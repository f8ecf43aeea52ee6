package conversation

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strings"

	"tripbuddy/internal/ai"
)

const (
	MsgTimeout     = "The AI took too long to respond. Please try again with a shorter message."
	MsgNetwork     = "Network connection issue. Please check your internet and try again."
	MsgConfig      = "API configuration error. Please contact support."
	MsgUnavailable = "I'm having trouble connecting to our AI services. Please try again in a moment."
	msgGeneric     = "Sorry, I encountered an error: %s. Please try again."

	missingKeyText   = "Missing OPENROUTER_API_KEY"
	invalidReqText   = "Invalid request"
	allFallbacksText = "All model fallbacks failed"
)

// StatusCoder is implemented by backend errors that carry an HTTP status.
type StatusCoder interface {
	StatusCode() int
}

// TerminalError is implemented by backend errors that report whether the server gave up for good,
// such as a model provider rejecting its credentials.
type TerminalError interface {
	Terminal() bool
}

var (
	timeoutRe = regexp.MustCompile(`(?i)timeout|ECONNABORTED`)
	networkRe = regexp.MustCompile(`(?i)network|fetch`)
)

// FriendlyMessage turns a failed turn into text suitable for the chat transcript.
func FriendlyMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	var ne net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), timeoutRe.MatchString(msg):
		return MsgTimeout
	case errors.As(err, &ne) && ne.Timeout():
		return MsgTimeout
	case errors.As(err, &ne), networkRe.MatchString(msg):
		return MsgNetwork
	case errors.Is(err, ai.ErrMissingCredentials), strings.Contains(msg, missingKeyText):
		return MsgConfig
	case strings.Contains(msg, allFallbacksText):
		return MsgUnavailable
	}
	return fmt.Sprintf(msgGeneric, msg)
}

// Retryable reports whether a failed turn may be sent again.
// Cancellation, missing credentials, invalid requests, auth failures and terminal server errors are final.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ai.ErrMissingCredentials) {
		return false
	}
	var te TerminalError
	if errors.As(err, &te) && te.Terminal() {
		return false
	}
	var sc StatusCoder
	if errors.As(err, &sc) {
		switch sc.StatusCode() {
		case http.StatusUnauthorized, http.StatusForbidden:
			return false
		}
	}
	msg := err.Error()
	return !strings.Contains(msg, missingKeyText) && !strings.Contains(msg, invalidReqText)
}
