package llm

import (
	"autoblog/internal/core"
	"autoblog/internal/logger"
	"autoblog/internal/observability"
	"context"
	"log/slog"
	"strings"
	"time"
)

const (
	DefaultTransientDelay  = 2 * time.Second
	DefaultQuotaRetryDelay = 5 * time.Second
	DefaultCallTimeout     = 2 * time.Minute
)

// Decoder validates a raw reply. A decode error is treated like a transient
// backend failure and moves the invoker on to the next candidate.
type Decoder func(raw string) error

// Outcome is the successful result of an invocation.
type Outcome struct {
	Backend  string
	Raw      string
	Attempts []core.ModelAttempt
}

// Options tunes the invoker's fixed retry policy.
type Options struct {
	Fallbacks       []string
	TransientDelay  time.Duration
	QuotaRetryDelay time.Duration
	CallTimeout     time.Duration
	// Sleep replaces the context-aware pause between attempts (tests).
	Sleep func(ctx context.Context, d time.Duration) error
}

// Invoker calls model backends in a fixed order until one returns a usable reply.
type Invoker struct {
	providers       []Provider
	fallbacks       []string
	transientDelay  time.Duration
	quotaRetryDelay time.Duration
	callTimeout     time.Duration
	sleep           func(ctx context.Context, d time.Duration) error
	log             *slog.Logger
}

// NewInvoker creates an Invoker over providers.
func NewInvoker(providers []Provider, opts Options) *Invoker {
	inv := &Invoker{
		providers:       providers,
		fallbacks:       append([]string(nil), opts.Fallbacks...),
		transientDelay:  opts.TransientDelay,
		quotaRetryDelay: opts.QuotaRetryDelay,
		callTimeout:     opts.CallTimeout,
		sleep:           opts.Sleep,
		log:             logger.Get(),
	}
	if inv.transientDelay < 0 {
		inv.transientDelay = 0
	}
	if inv.quotaRetryDelay < 0 {
		inv.quotaRetryDelay = 0
	}
	if inv.callTimeout <= 0 {
		inv.callTimeout = DefaultCallTimeout
	}
	if inv.sleep == nil {
		inv.sleep = sleepContext
	}
	return inv
}

// Candidates returns preferred followed by the fallbacks, without duplicates.
func (i *Invoker) Candidates(preferred string) []string {
	seen := make(map[string]bool, len(i.fallbacks)+1)
	var out []string
	for _, name := range append([]string{preferred}, i.fallbacks...) {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// Invoke walks the candidate list once. Quota, not-found and blocked
// failures skip to the next backend immediately; transient failures wait
// the fixed delay first. The first decoded reply wins.
func (i *Invoker) Invoke(ctx context.Context, creds Credentials, prompt, preferred string, expectJSON bool, decode Decoder) (*Outcome, error) {
	if !creds.Any() {
		return nil, ErrMissingCredentials
	}

	candidates := i.Candidates(preferred)
	var attempts []core.ModelAttempt
	var last *CallError

	for idx, backend := range candidates {
		raw, callErr := i.attempt(ctx, creds, backend, prompt, expectJSON, decode)
		if callErr == nil {
			attempts = append(attempts, core.ModelAttempt{Backend: backend, Outcome: core.OutcomeSuccess})
			return &Outcome{Backend: backend, Raw: raw, Attempts: attempts}, nil
		}

		last = callErr
		record := core.ModelAttempt{Backend: backend, Outcome: callErr.Kind, RawError: callErr.Detail}
		hasNext := idx < len(candidates)-1

		i.log.Warn("Model backend failed",
			"backend", backend,
			"outcome", string(callErr.Kind),
			"detail", callErr.Detail,
			"has_fallback", hasNext,
		)

		if callErr.Kind == core.OutcomeTransientError && hasNext && i.transientDelay > 0 {
			record.Delay = i.transientDelay
			attempts = append(attempts, record)
			if err := i.sleep(ctx, i.transientDelay); err != nil {
				return nil, &ExhaustedError{Attempts: attempts, Last: fail(backend, core.OutcomeTransientError, "cancelled", err)}
			}
			continue
		}
		attempts = append(attempts, record)

		if err := ctx.Err(); err != nil {
			break
		}
	}

	if last == nil {
		last = fail(preferred, core.OutcomeNotFound, "no candidate backends configured", nil)
	}
	return nil, &ExhaustedError{Attempts: attempts, Last: last}
}

// InvokeSingle calls one backend only, retrying up to quotaRetries extra
// times for quota failures with the fixed quota delay. Any other failure
// ends the call.
func (i *Invoker) InvokeSingle(ctx context.Context, creds Credentials, prompt, backend string, expectJSON bool, decode Decoder, quotaRetries int) (*Outcome, error) {
	if !creds.Any() {
		return nil, ErrMissingCredentials
	}
	backend = strings.TrimSpace(backend)
	if backend == "" {
		if candidates := i.Candidates(""); len(candidates) > 0 {
			backend = candidates[0]
		}
	}

	var attempts []core.ModelAttempt
	for try := 0; ; try++ {
		raw, callErr := i.attempt(ctx, creds, backend, prompt, expectJSON, decode)
		if callErr == nil {
			attempts = append(attempts, core.ModelAttempt{Backend: backend, Outcome: core.OutcomeSuccess})
			return &Outcome{Backend: backend, Raw: raw, Attempts: attempts}, nil
		}

		record := core.ModelAttempt{Backend: backend, Outcome: callErr.Kind, RawError: callErr.Detail}
		retry := callErr.Kind == core.OutcomeQuotaExhausted && try < quotaRetries
		i.log.Warn("Model backend failed",
			"backend", backend,
			"outcome", string(callErr.Kind),
			"detail", callErr.Detail,
			"try", try+1,
			"will_retry", retry,
		)
		if !retry {
			attempts = append(attempts, record)
			return nil, &ExhaustedError{Attempts: attempts, Last: callErr}
		}

		record.Delay = i.quotaRetryDelay
		attempts = append(attempts, record)
		if err := i.sleep(ctx, i.quotaRetryDelay); err != nil {
			return nil, &ExhaustedError{Attempts: attempts, Last: fail(backend, core.OutcomeTransientError, "cancelled", err)}
		}
	}
}

// attempt performs one call against backend and decodes the reply.
func (i *Invoker) attempt(ctx context.Context, creds Credentials, backend, prompt string, expectJSON bool, decode Decoder) (string, *CallError) {
	provider := i.providerFor(backend)
	if provider == nil {
		observability.RecordAttempt(backend, string(core.OutcomeNotFound), 0)
		return "", fail(backend, core.OutcomeNotFound, "no provider serves this model", nil)
	}
	apiKey := creds.For(provider.Name())
	if apiKey == "" {
		observability.RecordAttempt(backend, string(core.OutcomeNotFound), 0)
		return "", fail(backend, core.OutcomeNotFound, "no API key for provider "+provider.Name(), nil)
	}

	callCtx, cancel := context.WithTimeout(ctx, i.callTimeout)
	defer cancel()

	start := time.Now()
	raw, err := provider.Call(callCtx, apiKey, Request{Model: backend, Prompt: prompt, JSON: expectJSON})
	elapsed := time.Since(start)

	if err != nil {
		callErr := asCallError(backend, err)
		observability.RecordAttempt(backend, string(callErr.Kind), elapsed)
		return "", callErr
	}

	if decode != nil {
		if err := decode(raw); err != nil {
			observability.RecordAttempt(backend, string(core.OutcomeTransientError), elapsed)
			return "", fail(backend, core.OutcomeTransientError, err.Error(), err)
		}
	}

	observability.RecordAttempt(backend, string(core.OutcomeSuccess), elapsed)
	i.log.Debug("Model backend succeeded", "backend", backend, "elapsed", elapsed.String(), "reply_bytes", len(raw))
	return raw, nil
}

// ProviderName returns the name of the provider serving model, or "" when
// no provider supports it.
func (i *Invoker) ProviderName(model string) string {
	if p := i.providerFor(strings.TrimSpace(model)); p != nil {
		return p.Name()
	}
	return ""
}

func (i *Invoker) providerFor(model string) Provider {
	for _, p := range i.providers {
		if p.Supports(model) {
			return p
		}
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
