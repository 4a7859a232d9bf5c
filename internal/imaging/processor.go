// Package imaging post-processes generated visuals for export: thumbnails and
// optional background flattening.
package imaging

import (
	"fmt"
	"strings"

	"github.com/h2non/bimg"

	"github.com/fleveque/etf-lens/internal/storage"
)

// ImageProcessor exports generated visuals to disk. It uses bimg (libvips
// bindings), so libvips must be installed where the CLI runs.
type ImageProcessor struct {
	fs *storage.FileSystem
}

// NewImageProcessor creates a new ImageProcessor.
func NewImageProcessor(fs *storage.FileSystem) *ImageProcessor {
	return &ImageProcessor{fs: fs}
}

// Export stores the image as {ticker}/{name}.png and, when thumbWidth > 0,
// a thumbnail as {ticker}/{name}-thumb.png. It returns the written paths.
func (p *ImageProcessor) Export(ticker, name string, imageData []byte, thumbWidth int) ([]string, error) {
	png, err := toPNG(imageData)
	if err != nil {
		return nil, err
	}

	path, err := p.fs.Write(ticker, name, png)
	if err != nil {
		return nil, err
	}
	paths := []string{path}

	if thumbWidth > 0 {
		thumb, err := Thumbnail(png, thumbWidth)
		if err != nil {
			return paths, err
		}
		thumbPath, err := p.fs.Write(ticker, name+"-thumb", thumb)
		if err != nil {
			return paths, err
		}
		paths = append(paths, thumbPath)
	}

	return paths, nil
}

// Dimensions returns the width and height of an encoded image.
func Dimensions(imageData []byte) (int, int, error) {
	size, err := bimg.NewImage(imageData).Size()
	if err != nil {
		return 0, 0, fmt.Errorf("reading image size: %w", err)
	}
	return size.Width, size.Height, nil
}

// Thumbnail scales an image to the given width, keeping its aspect ratio.
func Thumbnail(imageData []byte, width int) ([]byte, error) {
	if width <= 0 {
		return nil, fmt.Errorf("invalid thumbnail width %d", width)
	}
	thumb, err := bimg.NewImage(imageData).Process(bimg.Options{
		Width:          width,
		Type:           bimg.PNG,
		Interpretation: bimg.InterpretationSRGB,
	})
	if err != nil {
		return nil, fmt.Errorf("thumbnailing to %dpx: %w", width, err)
	}
	return thumb, nil
}

// ApplyBackground flattens the alpha channel onto a solid background color.
func ApplyBackground(imageData []byte, hexColor string) ([]byte, error) {
	r, g, b, err := parseHexColor(hexColor)
	if err != nil {
		return nil, err
	}

	out, err := bimg.NewImage(imageData).Process(bimg.Options{
		Flatten:        true,
		Background:     bimg.Color{R: r, G: g, B: b},
		Type:           bimg.PNG,
		Interpretation: bimg.InterpretationSRGB,
	})
	if err != nil {
		return nil, fmt.Errorf("flattening onto #%02x%02x%02x: %w", r, g, b, err)
	}
	return out, nil
}

// toPNG converts whatever the image model returned (usually PNG already) to PNG.
func toPNG(imageData []byte) ([]byte, error) {
	img := bimg.NewImage(imageData)
	if img.Type() == "png" {
		return imageData, nil
	}
	out, err := img.Convert(bimg.PNG)
	if err != nil {
		return nil, fmt.Errorf("converting to png: %w", err)
	}
	return out, nil
}

// parseHexColor converts a hex color string (with or without #) to RGB values.
func parseHexColor(hex string) (uint8, uint8, uint8, error) {
	hex = strings.TrimPrefix(hex, "#")

	if len(hex) != 6 {
		return 0, 0, 0, fmt.Errorf("invalid hex color: %q (expected 6 characters)", hex)
	}

	var r, g, b uint8
	_, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("parsing hex color %q: %w", hex, err)
	}

	return r, g, b, nil
}
