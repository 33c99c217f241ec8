// Package generator runs the topic-to-post pipeline and the per-session state
// machine around it: Idle -> Generating -> Ready|Failed, and
// Ready -> Refining(fact|spell) -> Ready.
package generator

import (
	"autoblog/internal/core"
	"autoblog/internal/llm"
	"autoblog/internal/logger"
	"autoblog/internal/normalize"
	"autoblog/internal/observability"
	"autoblog/internal/prompt"
	"autoblog/internal/refine"
	"autoblog/internal/textstats"
	"autoblog/internal/visual"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrEmptyTopic is returned when a generation request has no topic.
	ErrEmptyTopic = errors.New("topic is required")
	// ErrInvalidTransition is returned when an action is not allowed in the session's state.
	ErrInvalidTransition = errors.New("action not allowed in current session state")
	// ErrUnknownRefinement is returned for a refinement kind other than fact or spell.
	ErrUnknownRefinement = errors.New("unknown refinement kind")
)

// Invoker is the subset of *llm.Invoker used for fresh generation.
type Invoker interface {
	Invoke(ctx context.Context, creds llm.Credentials, prompt, preferred string, expectJSON bool, decode llm.Decoder) (*llm.Outcome, error)
	ProviderName(model string) string
}

// Result is a successfully generated post with its derived data.
type Result struct {
	Post     *core.BlogPost      `json:"post"`
	Image    core.ImageRef       `json:"image"`
	Stats    core.TextStats      `json:"stats"`
	Backend  string              `json:"backend"`
	Attempts []core.ModelAttempt `json:"attempts"`
}

// Pipeline wires the prompt assembler, invoker, normalizer, refinements,
// image collaborator and text metrics together.
type Pipeline struct {
	Assembler  *prompt.Assembler
	Invoker    Invoker
	Refiner    *refine.Refiner
	Thumbnails visual.Provider // nil disables thumbnails
	Counter    *textstats.Counter

	DefaultModel    string
	DefaultTemplate string
	// Defaults holds configured API keys by provider name.
	Defaults llm.Credentials
}

// Generate turns req into a post. No backend is called when no API key is available.
func (p *Pipeline) Generate(ctx context.Context, req core.GenerationRequest) (*Result, error) {
	start := time.Now()
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return nil, ErrEmptyTopic
	}

	model := strings.TrimSpace(req.ModelPreference)
	if model == "" {
		model = p.DefaultModel
	}
	creds := p.credentials(model, req.APIKey)
	if !creds.Any() {
		observability.RecordGeneration("missing_credentials", time.Since(start), 0)
		return nil, llm.ErrMissingCredentials
	}

	template := req.PromptTemplate
	if strings.TrimSpace(template) == "" {
		template = p.DefaultTemplate
	}

	log := logger.Get().With("topic", topic, "model", model)
	log.Info("Generating post")

	var post *core.BlogPost
	decode := func(raw string) error {
		parsed, err := normalize.ParsePost(raw)
		if err != nil {
			return err
		}
		post = parsed
		return nil
	}

	out, err := p.Invoker.Invoke(ctx, creds, p.Assembler.Assemble(topic, template), model, true, decode)
	if err != nil {
		observability.RecordGeneration(string(llm.KindOf(err)), time.Since(start), 0)
		log.Error("Generation failed", "error", err.Error())
		return nil, err
	}

	post.ApplyDefaults()
	result := &Result{
		Post:     post,
		Backend:  out.Backend,
		Attempts: out.Attempts,
		Stats:    p.Counter.Measure(post.Content),
	}
	result.Image = p.thumbnail(ctx, post)

	observability.RecordGeneration("success", time.Since(start), result.Stats.ScriptChars)
	log.Info("Post generated",
		"backend", out.Backend,
		"attempts", len(out.Attempts),
		"script_chars", result.Stats.ScriptChars,
		"elapsed", time.Since(start).String(),
	)
	return result, nil
}

// thumbnail asks the image collaborator for a reference. Failure leaves the
// reference empty.
func (p *Pipeline) thumbnail(ctx context.Context, post *core.BlogPost) core.ImageRef {
	if p.Thumbnails == nil {
		return core.ImageRef{}
	}
	ref, err := p.Thumbnails.Thumbnail(ctx, visual.ThumbnailRequest{
		Title:          post.Title,
		ThumbnailTitle: post.ThumbnailTitle,
		ImagePrompt:    post.ImagePrompt,
		Keywords:       post.ImageKeywords,
	})
	if err != nil {
		logger.Warn("Thumbnail failed", "provider", p.Thumbnails.Name(), "error", err.Error())
		return core.ImageRef{}
	}
	return ref
}

// Start runs a fresh generation on sess. Any previous output is discarded.
// The session ends Ready on success and Failed otherwise, with LastError set
// to a plain-language message.
func (p *Pipeline) Start(ctx context.Context, sess *core.Session, req core.GenerationRequest) error {
	switch sess.State {
	case core.StateGenerating, core.StateRefining:
		return fmt.Errorf("%w: cannot generate while %s", ErrInvalidTransition, sess.State)
	}

	sess.State = core.StateGenerating
	sess.Refining = ""
	sess.Topic = strings.TrimSpace(req.Topic)
	sess.Post = nil
	sess.Image = core.ImageRef{}
	sess.Stats = core.TextStats{}
	sess.Backend = ""
	sess.FactChecked = false
	sess.SpellChecked = false
	sess.LastError = ""
	sess.UpdatedAt = time.Now()

	result, err := p.Generate(ctx, req)
	sess.UpdatedAt = time.Now()
	if err != nil {
		sess.State = core.StateFailed
		sess.LastError = UserMessage(err)
		return err
	}

	sess.State = core.StateReady
	sess.Post = result.Post
	sess.Image = result.Image
	sess.Stats = result.Stats
	sess.Backend = result.Backend
	return nil
}

// Refine applies one refinement to a Ready session on the backend that
// produced the post, or the default model for sessions without one. The refinement itself
// never returns an error: on failure the content is left untouched and the
// detail is reported in the result and in sess.LastError.
func (p *Pipeline) Refine(ctx context.Context, sess *core.Session, kind core.RefinementKind, apiKey string) (core.RefinementResult, error) {
	if !kind.Valid() {
		return core.RefinementResult{}, fmt.Errorf("%w: %q", ErrUnknownRefinement, kind)
	}
	if sess.State != core.StateReady || !sess.HasOutput() {
		return core.RefinementResult{}, fmt.Errorf("%w: cannot refine while %s", ErrInvalidTransition, sess.State)
	}

	sess.State = core.StateRefining
	sess.Refining = kind
	sess.UpdatedAt = time.Now()

	backend := sess.Backend
	if backend == "" {
		backend = p.DefaultModel
	}
	creds := p.credentials(backend, apiKey)
	result := p.Refiner.Apply(ctx, creds, kind, backend, sess.Post.Content, sess.Topic)

	sess.State = core.StateReady
	sess.Refining = ""
	sess.UpdatedAt = time.Now()

	if !result.Succeeded {
		sess.LastError = result.ErrorDetail
		return result, nil
	}

	sess.Post.Content = result.Content
	sess.Stats = p.Counter.Measure(result.Content)
	sess.LastError = ""
	switch kind {
	case core.RefineFact:
		sess.FactChecked = true
	case core.RefineSpell:
		sess.SpellChecked = true
	}
	return result, nil
}

// credentials files an explicit key under the provider serving model, so a
// key is only ever sent to the vendor it was meant for.
func (p *Pipeline) credentials(model, explicit string) llm.Credentials {
	provider := p.Invoker.ProviderName(model)
	if provider == "" {
		provider = llm.GeminiProviderName
	}
	return llm.Resolve(p.Defaults, provider, explicit)
}

// Measure computes text metrics with the pipeline's configured script.
func (p *Pipeline) Measure(html string) core.TextStats {
	return p.Counter.Measure(html)
}
