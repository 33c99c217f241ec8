package visual

import (
	"autoblog/internal/core"
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIProvider generates a thumbnail from the post's image prompt.
type OpenAIProvider struct {
	apiKey    string
	baseURL   string
	model     string
	outputDir string
	timeout   time.Duration
}

// NewOpenAIProvider creates an image-generation provider. A non-positive
// timeout means DefaultImageTimeout.
func NewOpenAIProvider(apiKey, baseURL, model, outputDir string, timeout time.Duration) *OpenAIProvider {
	if model == "" {
		model = string(openai.ImageModelDallE3)
	}
	if timeout <= 0 {
		timeout = DefaultImageTimeout
	}
	return &OpenAIProvider{apiKey: apiKey, baseURL: baseURL, model: model, outputDir: outputDir, timeout: timeout}
}

func (p *OpenAIProvider) Name() string { return "openai" }

// Thumbnail asks the image model for a square picture.
func (p *OpenAIProvider) Thumbnail(ctx context.Context, req ThumbnailRequest) (core.ImageRef, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	opts := []option.RequestOption{option.WithAPIKey(p.apiKey)}
	if p.baseURL != "" {
		opts = append(opts, option.WithBaseURL(p.baseURL))
	}
	client := openai.NewClient(opts...)

	params := openai.ImageGenerateParams{
		Prompt: ImagePrompt(req),
		Model:  openai.ImageModel(p.model),
		Size:   openai.ImageGenerateParamsSize1024x1024,
	}
	if strings.HasPrefix(p.model, "dall-e") {
		params.ResponseFormat = openai.ImageGenerateParamsResponseFormatB64JSON
	}

	resp, err := client.Images.Generate(ctx, params)
	if err != nil {
		return core.ImageRef{}, fmt.Errorf("image generation failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return core.ImageRef{}, fmt.Errorf("image generation returned no data")
	}

	image := resp.Data[0]
	if image.B64JSON == "" {
		if image.URL == "" {
			return core.ImageRef{}, fmt.Errorf("image generation returned neither data nor URL")
		}
		return core.ImageRef{URL: image.URL, Source: p.Name()}, nil
	}

	if p.outputDir == "" {
		return core.ImageRef{URL: "data:image/png;base64," + image.B64JSON, Source: p.Name()}, nil
	}
	data, err := base64.StdEncoding.DecodeString(image.B64JSON)
	if err != nil {
		return core.ImageRef{}, fmt.Errorf("failed to decode base64 image: %w", err)
	}
	path, err := writeImage(p.outputDir, SanitizeFilename(req.Label())+".png", data)
	if err != nil {
		return core.ImageRef{}, err
	}
	return core.ImageRef{URL: path, Source: p.Name()}, nil
}

// ImagePrompt returns the model-supplied prompt, or one built from the title
// and keywords when the model left it out.
func ImagePrompt(req ThumbnailRequest) string {
	if p := strings.TrimSpace(req.ImagePrompt); p != "" {
		return p
	}
	prompt := fmt.Sprintf("A clean, modern blog thumbnail illustration about %q", req.Label())
	if k := strings.TrimSpace(req.Keywords); k != "" {
		prompt += ", featuring " + k
	}
	return prompt + ". No text, no letters."
}
