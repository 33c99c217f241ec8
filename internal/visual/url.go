package visual

import (
	"autoblog/internal/core"
	"context"
	"fmt"
	"math/rand/v2"
	"net/url"
	"strconv"
	"strings"
)

const (
	placeholderTemplate = "https://placehold.co/{width}x{height}/{color}/ffffff?text={title}"
	stockTemplate       = "https://loremflickr.com/{width}/{height}/{keywords}"
)

// URLProvider fills a third-party image URL template. Supported fields are
// {title}, {keywords}, {color}, {width} and {height}.
type URLProvider struct {
	name     string
	template string
	width    int
	height   int
	rand     func(n int) int
}

// NewURLProvider returns a placeholder or stock provider. An empty template
// falls back to the built-in one for name.
func NewURLProvider(name, template string, width, height int) *URLProvider {
	if template == "" || (name == "stock" && template == placeholderTemplate) {
		template = placeholderTemplate
		if name == "stock" {
			template = stockTemplate
		}
	}
	return &URLProvider{name: name, template: template, width: width, height: height, rand: rand.IntN}
}

func (p *URLProvider) Name() string { return p.name }

// Thumbnail returns the filled URL; it makes no network call.
func (p *URLProvider) Thumbnail(ctx context.Context, req ThumbnailRequest) (core.ImageRef, error) {
	if err := ctx.Err(); err != nil {
		return core.ImageRef{}, err
	}

	keywords := make([]string, 0, 4)
	for _, k := range strings.Split(req.Keywords, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, url.PathEscape(k))
		}
	}
	if len(keywords) == 0 {
		keywords = append(keywords, core.DefaultImageKeywords)
	}

	channel := func() int { return 20 + p.rand(81) }
	replacer := strings.NewReplacer(
		"{title}", url.QueryEscape(req.Label()),
		"{keywords}", strings.Join(keywords, ","),
		"{color}", fmt.Sprintf("%02x%02x%02x", channel(), channel(), channel()),
		"{width}", strconv.Itoa(p.width),
		"{height}", strconv.Itoa(p.height),
	)
	return core.ImageRef{URL: replacer.Replace(p.template), Source: p.name}, nil
}
