package llm

import (
	"autoblog/internal/core"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// OpenAIProviderName identifies the OpenAI provider in Credentials.
const OpenAIProviderName = "openai"

// OpenAI calls chat completion models through openai-go.
type OpenAI struct {
	BaseURL string
	// Timeout bounds one call when positive.
	Timeout time.Duration
}

// NewOpenAI returns the OpenAI provider. An empty baseURL uses the SDK default.
func NewOpenAI(baseURL string, timeout time.Duration) *OpenAI {
	return &OpenAI{BaseURL: baseURL, Timeout: timeout}
}

func (o *OpenAI) Name() string { return OpenAIProviderName }

// Supports accepts gpt-* and o-series model names.
func (o *OpenAI) Supports(model string) bool {
	model = strings.ToLower(model)
	for _, prefix := range []string{"gpt-", "o1", "o3", "o4", "chatgpt-"} {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}

// Call sends one prompt as a single user message.
func (o *OpenAI) Call(ctx context.Context, apiKey string, req Request) (string, error) {
	if o.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if o.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(o.BaseURL))
	}
	client := openai.NewClient(opts...)

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(req.Prompt)},
	}
	if req.JSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", classifyOpenAIError(req.Model, err)
	}
	if len(resp.Choices) == 0 {
		return "", fail(req.Model, core.OutcomeTransientError, "no choices returned", nil)
	}

	choice := resp.Choices[0]
	if choice.FinishReason == "content_filter" {
		return "", fail(req.Model, core.OutcomeBlockedContent, "response blocked (content_filter)", nil)
	}
	if refusal := strings.TrimSpace(choice.Message.Refusal); refusal != "" {
		return "", fail(req.Model, core.OutcomeBlockedContent, refusal, nil)
	}
	if strings.TrimSpace(choice.Message.Content) == "" {
		return "", fail(req.Model, core.OutcomeTransientError, "empty response from model", nil)
	}
	return choice.Message.Content, nil
}

func classifyOpenAIError(model string, err error) *CallError {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		if errors.Is(err, context.DeadlineExceeded) {
			return fail(model, core.OutcomeTransientError, "request timed out", err)
		}
		return fail(model, core.OutcomeTransientError, err.Error(), err)
	}

	kind := kindForStatus(apiErr.StatusCode)
	if apiErr.Code == "insufficient_quota" || apiErr.Code == "rate_limit_exceeded" {
		kind = core.OutcomeQuotaExhausted
	}
	if apiErr.Code == "model_not_found" {
		kind = core.OutcomeNotFound
	}
	detail := apiErr.Message
	if detail == "" {
		detail = apiErr.Error()
	}
	return fail(model, kind, detail, err)
}
