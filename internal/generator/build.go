package generator

import (
	"autoblog/internal/config"
	"autoblog/internal/llm"
	"autoblog/internal/prompt"
	"autoblog/internal/refine"
	"autoblog/internal/templates"
	"autoblog/internal/textstats"
	"autoblog/internal/visual"
	"fmt"
)

// NewFromConfig builds a Pipeline with the Gemini and OpenAI backends, the
// configured retry policy, script and thumbnail provider.
func NewFromConfig(cfg *config.Config) (*Pipeline, error) {
	script, err := textstats.ScriptByName(cfg.Text.Script)
	if err != nil {
		return nil, fmt.Errorf("invalid text script: %w", err)
	}

	thumbnails, err := visual.New(cfg.Visual, cfg.AI.OpenAI)
	if err != nil {
		return nil, fmt.Errorf("failed to create thumbnail provider: %w", err)
	}

	timeout := config.Duration(cfg.AI.Gemini.Timeout, llm.DefaultCallTimeout)
	gemini := llm.NewGemini()
	gemini.Temperature = cfg.AI.Gemini.Temperature
	openai := llm.NewOpenAI(cfg.AI.OpenAI.BaseURL, config.Duration(cfg.AI.OpenAI.Timeout, llm.DefaultCallTimeout))
	invoker := llm.NewInvoker(
		[]llm.Provider{gemini, openai},
		llm.Options{
			Fallbacks:       cfg.AI.Gemini.FallbackModels,
			TransientDelay:  config.Duration(cfg.Generation.TransientDelay, llm.DefaultTransientDelay),
			QuotaRetryDelay: config.Duration(cfg.Generation.QuotaRetryDelay, llm.DefaultQuotaRetryDelay),
			CallTimeout:     timeout,
		},
	)

	return &Pipeline{
		Assembler:       prompt.NewAssembler(cfg.Generation.MinChars, cfg.Generation.MaxChars),
		Invoker:         invoker,
		Refiner:         refine.New(invoker, cfg.AI.Gemini.Model, cfg.Generation.ReferenceTime(), cfg.Generation.QuotaRetries),
		Thumbnails:      thumbnails,
		Counter:         textstats.NewCounter(script),
		DefaultModel:    cfg.AI.Gemini.Model,
		DefaultTemplate: templates.Builtins()[0].Body,
		Defaults: llm.Credentials{
			llm.GeminiProviderName: cfg.AI.Gemini.APIKey,
			llm.OpenAIProviderName: cfg.AI.OpenAI.APIKey,
		},
	}, nil
}
