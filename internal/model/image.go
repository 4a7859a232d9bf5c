package model

import "fmt"

// ImageSize is the resolution token passed through to the image model.
type ImageSize string

const (
	ImageSize1K ImageSize = "1K"
	ImageSize2K ImageSize = "2K"
	ImageSize4K ImageSize = "4K"
)

// AllImageSizes is the ordered list of accepted sizes.
var AllImageSizes = []ImageSize{ImageSize1K, ImageSize2K, ImageSize4K}

// ParseImageSize validates a size token. Tokens are case-sensitive.
func ParseImageSize(s string) (ImageSize, error) {
	for _, size := range AllImageSizes {
		if string(size) == s {
			return size, nil
		}
	}
	return "", fmt.Errorf("invalid image size %q: must be 1K, 2K, or 4K", s)
}
