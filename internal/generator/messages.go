package generator

import (
	"autoblog/internal/core"
	"autoblog/internal/llm"
	"context"
	"errors"
	"fmt"
)

const maxDetailRunes = 200

// UserMessage explains err in plain language, naming the probable cause.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrEmptyTopic):
		return "Please enter a topic first."
	case errors.Is(err, llm.ErrMissingCredentials):
		return "No API key is available. Set GEMINI_API_KEY or enter a key, then try again."
	case errors.Is(err, ErrInvalidTransition):
		return "Another action is still running for this session. Wait for it to finish."
	case errors.Is(err, context.DeadlineExceeded):
		return "The model service took too long to answer. Please try again."
	case errors.Is(err, context.Canceled):
		return "The request was cancelled."
	}

	var exhausted *llm.ExhaustedError
	if errors.As(err, &exhausted) && exhausted.Last != nil {
		last := exhausted.Last
		return fmt.Sprintf("%s (last tried %s: %s)", causeMessage(last.Kind), last.Backend, truncate(last.Detail))
	}

	var callErr *llm.CallError
	if errors.As(err, &callErr) {
		return fmt.Sprintf("%s (%s: %s)", causeMessage(callErr.Kind), callErr.Backend, truncate(callErr.Detail))
	}
	return "Generation failed: " + truncate(err.Error())
}

func causeMessage(kind core.Outcome) string {
	switch kind {
	case core.OutcomeQuotaExhausted:
		return "Every model is out of quota right now. Wait a minute or use a different API key."
	case core.OutcomeNotFound:
		return "No available model could serve the request. Check the model name and the API keys."
	case core.OutcomeBlockedContent:
		return "The content filter declined this topic. Try rephrasing it."
	default:
		return "The model service did not return a usable reply. Please try again shortly."
	}
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxDetailRunes {
		return s
	}
	return string(r[:maxDetailRunes]) + "..."
}
