package llm

import (
	"autoblog/internal/core"
	"errors"
	"fmt"
	"strings"
)

// ErrMissingCredentials is returned before any call when no API key is available.
var ErrMissingCredentials = errors.New("no API key configured: set GEMINI_API_KEY or provide a key with the request")

// CallError is the structured failure of one backend call. Callers branch
// on Kind, never on the error text.
type CallError struct {
	Backend string
	Kind    core.Outcome
	Detail  string
	Err     error
}

func (e *CallError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Backend, e.Kind, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Backend, e.Kind)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// ExhaustedError is returned when every candidate backend failed.
// Last carries the final failure; Attempts lists every call that was made.
type ExhaustedError struct {
	Attempts []core.ModelAttempt
	Last     *CallError
}

func (e *ExhaustedError) Error() string {
	if e.Last == nil {
		return "all model backends failed"
	}
	return fmt.Sprintf("all model backends failed; last error from %s (%s): %s", e.Last.Backend, e.Last.Kind, e.Last.Detail)
}

func (e *ExhaustedError) Unwrap() error {
	if e.Last == nil {
		return nil
	}
	return e.Last
}

// KindOf returns the failure kind carried by err, or transient for unknown errors.
func KindOf(err error) core.Outcome {
	if err == nil {
		return core.OutcomeSuccess
	}
	var callErr *CallError
	if errors.As(err, &callErr) {
		return callErr.Kind
	}
	return core.OutcomeTransientError
}

// fail builds a CallError for backend.
func fail(backend string, kind core.Outcome, detail string, err error) *CallError {
	return &CallError{Backend: backend, Kind: kind, Detail: strings.TrimSpace(detail), Err: err}
}

// asCallError normalizes any provider error into a CallError.
func asCallError(backend string, err error) *CallError {
	var callErr *CallError
	if errors.As(err, &callErr) {
		if callErr.Backend == "" {
			callErr.Backend = backend
		}
		return callErr
	}
	return fail(backend, core.OutcomeTransientError, err.Error(), err)
}

// kindForStatus maps an HTTP-style status code to a failure kind.
func kindForStatus(code int) core.Outcome {
	switch code {
	case 429:
		return core.OutcomeQuotaExhausted
	case 404:
		return core.OutcomeNotFound
	default:
		return core.OutcomeTransientError
	}
}
