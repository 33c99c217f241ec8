// Package refine implements the fact-update and spelling refinements of a
// generated post. Refinements never fail loudly: on any error the caller gets
// the original content back together with the failure detail.
package refine

import (
	"autoblog/internal/core"
	"autoblog/internal/llm"
	"autoblog/internal/logger"
	"autoblog/internal/normalize"
	"autoblog/internal/observability"
	"autoblog/internal/prompt"
	"context"
	"errors"
	"strings"
	"time"
)

// Invoker is the subset of *llm.Invoker used by refinements.
type Invoker interface {
	InvokeSingle(ctx context.Context, creds llm.Credentials, prompt, backend string, expectJSON bool, decode llm.Decoder, quotaRetries int) (*llm.Outcome, error)
}

// Refiner runs refinement prompts against a single backend.
type Refiner struct {
	invoker      Invoker
	backend      string
	asOf         time.Time
	quotaRetries int
}

// New creates a Refiner. asOf anchors the fact check in time.
func New(invoker Invoker, backend string, asOf time.Time, quotaRetries int) *Refiner {
	if quotaRetries < 0 {
		quotaRetries = 0
	}
	return &Refiner{invoker: invoker, backend: backend, asOf: asOf, quotaRetries: quotaRetries}
}

// VerifyAndRewrite updates outdated or incorrect facts in content.
func (r *Refiner) VerifyAndRewrite(ctx context.Context, creds llm.Credentials, content, topic string) core.RefinementResult {
	return r.run(ctx, creds, core.RefineFact, r.backend, content, prompt.FactCheckPrompt(content, topic, r.asOf))
}

// SpellCheckAndRefine corrects spelling, spacing and grammar in content.
func (r *Refiner) SpellCheckAndRefine(ctx context.Context, creds llm.Credentials, content string) core.RefinementResult {
	return r.run(ctx, creds, core.RefineSpell, r.backend, content, prompt.SpellCheckPrompt(content))
}

// Apply dispatches on kind and runs the refinement on backend. An empty
// backend means the Refiner's default.
func (r *Refiner) Apply(ctx context.Context, creds llm.Credentials, kind core.RefinementKind, backend, content, topic string) core.RefinementResult {
	if strings.TrimSpace(backend) == "" {
		backend = r.backend
	}
	if kind == core.RefineFact {
		return r.run(ctx, creds, kind, backend, content, prompt.FactCheckPrompt(content, topic, r.asOf))
	}
	return r.run(ctx, creds, kind, backend, content, prompt.SpellCheckPrompt(content))
}

func (r *Refiner) run(ctx context.Context, creds llm.Credentials, kind core.RefinementKind, backend, content, text string) core.RefinementResult {
	log := logger.Get().With("refinement", string(kind), "backend", backend)

	if strings.TrimSpace(content) == "" {
		observability.RecordRefinement(string(kind), false)
		return core.RefinementResult{Content: content, ErrorDetail: "nothing to refine: content is empty"}
	}

	var refined string
	decode := func(raw string) error {
		parsed, err := normalize.ParseContent(raw)
		if err != nil {
			return err
		}
		refined = parsed
		return nil
	}

	out, err := r.invoker.InvokeSingle(ctx, creds, text, backend, true, decode, r.quotaRetries)
	if err != nil {
		log.Warn("Refinement failed, keeping original content", "error", err.Error())
		observability.RecordRefinement(string(kind), false)
		return core.RefinementResult{Content: content, ErrorDetail: detail(err)}
	}

	log.Info("Refinement applied", "backend", out.Backend, "before_chars", len([]rune(content)), "after_chars", len([]rune(refined)))
	observability.RecordRefinement(string(kind), true)
	return core.RefinementResult{Content: refined, Succeeded: true}
}

func detail(err error) string {
	if errors.Is(err, llm.ErrMissingCredentials) {
		return err.Error()
	}
	var exhausted *llm.ExhaustedError
	if errors.As(err, &exhausted) && exhausted.Last != nil {
		return exhausted.Last.Error()
	}
	return err.Error()
}
