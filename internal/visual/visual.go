// Package visual produces thumbnail references for generated posts.
package visual

import (
	"autoblog/internal/config"
	"autoblog/internal/core"
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

const (
	DefaultWidth  = 800
	DefaultHeight = 800
	maxNameRunes  = 50

	DefaultImageTimeout = 2 * time.Minute
)

// ThumbnailRequest carries the post fields a thumbnail can be built from.
type ThumbnailRequest struct {
	Title          string
	ThumbnailTitle string
	ImagePrompt    string
	Keywords       string
}

// Label returns the short text a thumbnail should represent.
func (r ThumbnailRequest) Label() string {
	if strings.TrimSpace(r.ThumbnailTitle) != "" {
		return r.ThumbnailTitle
	}
	return r.Title
}

// Provider produces an opaque image reference.
type Provider interface {
	Name() string
	Thumbnail(ctx context.Context, req ThumbnailRequest) (core.ImageRef, error)
}

// New selects a provider from configuration. It returns nil for "none".
func New(cfg config.Visual, openaiCfg config.OpenAIConfig) (Provider, error) {
	width, height := cfg.Width, cfg.Height
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	switch cfg.Provider {
	case "", "solid":
		return NewSolidProvider(width, height, cfg.OutputDir), nil
	case "placeholder", "stock":
		return NewURLProvider(cfg.Provider, cfg.URLTemplate, width, height), nil
	case "openai":
		if openaiCfg.APIKey == "" {
			return nil, fmt.Errorf("openai thumbnails require an OpenAI API key")
		}
		timeout := config.Duration(openaiCfg.Timeout, DefaultImageTimeout)
		return NewOpenAIProvider(openaiCfg.APIKey, openaiCfg.BaseURL, openaiCfg.ImageModel, cfg.OutputDir, timeout), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown visual provider %q", cfg.Provider)
	}
}

// SanitizeFilename keeps letters, digits, spaces, '-' and '_', turns spaces
// into underscores and caps the result at 50 characters.
func SanitizeFilename(title string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	name := []rune(b.String())
	if len(name) > maxNameRunes {
		name = name[:maxNameRunes]
	}
	if len(name) == 0 {
		return "thumbnail"
	}
	return string(name)
}

// dataURL encodes image bytes as a data URL.
func dataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// writeImage stores data under dir and returns the file path.
func writeImage(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}
	return path, nil
}

// DecodeDataURL returns the MIME type and bytes of a data URL.
func DecodeDataURL(ref string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(ref, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("malformed data URL")
	}
	mime, _, _ := strings.Cut(meta, ";")
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode data URL: %w", err)
	}
	return mime, data, nil
}
