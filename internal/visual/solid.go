package visual

import (
	"autoblog/internal/core"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"math/rand/v2"
)

// SolidProvider renders a plain dark square. Channels stay in 20–100 so
// overlaid white text remains readable.
type SolidProvider struct {
	width, height int
	outputDir     string
	rand          func(n int) int
}

// NewSolidProvider returns a provider writing to outputDir, or returning a
// data URL when outputDir is empty.
func NewSolidProvider(width, height int, outputDir string) *SolidProvider {
	return &SolidProvider{width: width, height: height, outputDir: outputDir, rand: rand.IntN}
}

func (p *SolidProvider) Name() string { return "solid" }

// Thumbnail renders and encodes the image.
func (p *SolidProvider) Thumbnail(ctx context.Context, req ThumbnailRequest) (core.ImageRef, error) {
	if err := ctx.Err(); err != nil {
		return core.ImageRef{}, err
	}

	data, err := p.Render()
	if err != nil {
		return core.ImageRef{}, err
	}

	if p.outputDir == "" {
		return core.ImageRef{URL: dataURL("image/jpeg", data), Source: p.Name()}, nil
	}
	path, err := writeImage(p.outputDir, SanitizeFilename(req.Label())+".jpg", data)
	if err != nil {
		return core.ImageRef{}, err
	}
	return core.ImageRef{URL: path, Source: p.Name()}, nil
}

// Render returns JPEG bytes of a random dark colour.
func (p *SolidProvider) Render() ([]byte, error) {
	fill := p.darkColor()
	img := image.NewRGBA(image.Rect(0, 0, p.width, p.height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: fill}, image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

func (p *SolidProvider) darkColor() color.RGBA {
	channel := func() uint8 { return uint8(20 + p.rand(81)) }
	return color.RGBA{R: channel(), G: channel(), B: channel(), A: 255}
}
