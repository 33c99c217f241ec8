package llm

import (
	"autoblog/internal/core"
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiProviderName identifies the Gemini provider in Credentials.
const GeminiProviderName = "gemini"

// relaxedSafety turns off the default blocking thresholds so long-form posts
// on health or finance topics are not refused outright.
var relaxedSafety = []*genai.SafetySetting{
	{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockNone},
	{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockNone},
	{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockNone},
	{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockNone},
}

// Gemini calls Google Gemini models through the genai SDK.
type Gemini struct {
	// Temperature is passed through when non-zero.
	Temperature float32
}

// NewGemini returns the Gemini provider.
func NewGemini() *Gemini {
	return &Gemini{}
}

func (g *Gemini) Name() string { return GeminiProviderName }

// Supports accepts gemini-* and gemma-* model names.
func (g *Gemini) Supports(model string) bool {
	model = strings.ToLower(model)
	return strings.HasPrefix(model, "gemini") || strings.HasPrefix(model, "gemma") || strings.HasPrefix(model, "models/")
}

// Call sends one prompt. A client is built per call from apiKey.
func (g *Gemini) Call(ctx context.Context, apiKey string, req Request) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fail(req.Model, core.OutcomeTransientError, "failed to create Gemini client", err)
	}

	config := &genai.GenerateContentConfig{SafetySettings: relaxedSafety}
	if req.JSON {
		config.ResponseMIMEType = "application/json"
	}
	if g.Temperature > 0 {
		config.Temperature = genai.Ptr(g.Temperature)
	}

	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: req.Prompt}},
		Role:  "user",
	}}

	resp, err := client.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return "", classifyGeminiError(req.Model, err)
	}

	if blocked := blockDetail(resp); blocked != "" {
		return "", fail(req.Model, core.OutcomeBlockedContent, blocked, nil)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fail(req.Model, core.OutcomeTransientError, "empty response from model", nil)
	}
	return text, nil
}

// classifyGeminiError maps SDK errors onto failure kinds by status code.
func classifyGeminiError(model string, err error) *CallError {
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
	case errors.As(err, &apiErrPtr) && apiErrPtr != nil:
		apiErr = *apiErrPtr
	default:
		if errors.Is(err, context.DeadlineExceeded) {
			return fail(model, core.OutcomeTransientError, "request timed out", err)
		}
		return fail(model, core.OutcomeTransientError, err.Error(), err)
	}

	kind := kindForStatus(apiErr.Code)
	switch apiErr.Status {
	case "RESOURCE_EXHAUSTED":
		kind = core.OutcomeQuotaExhausted
	case "NOT_FOUND":
		kind = core.OutcomeNotFound
	}
	detail := apiErr.Message
	if detail == "" {
		detail = fmt.Sprintf("status %d %s", apiErr.Code, apiErr.Status)
	}
	return fail(model, kind, detail, err)
}

// blockDetail reports why a response was filtered, or "" when it was not.
func blockDetail(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		if fb.BlockReasonMessage != "" {
			return fmt.Sprintf("prompt blocked (%s): %s", fb.BlockReason, fb.BlockReasonMessage)
		}
		return fmt.Sprintf("prompt blocked (%s)", fb.BlockReason)
	}
	for _, cand := range resp.Candidates {
		if cand == nil {
			continue
		}
		switch cand.FinishReason {
		case genai.FinishReasonSafety, genai.FinishReasonProhibitedContent, genai.FinishReasonBlocklist:
			return fmt.Sprintf("response blocked (%s)", cand.FinishReason)
		}
	}
	return ""
}
