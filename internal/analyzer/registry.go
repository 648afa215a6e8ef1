package analyzer

import (
	"fmt"
	"image"
)

// NewDetector creates a detector based on the specified variant
func NewDetector(variant string) (Detector, error) {
	switch variant {
	case "contrast", "":
		return NewContrastDetector(), nil
	case "none":
		return noneDetector{}, nil
	default:
		return nil, fmt.Errorf("unknown detector variant: %s", variant)
	}
}

// noneDetector reports no content, so motion stays frame-centered.
type noneDetector struct{}

func (noneDetector) Detect(image.Image) ([]Block, error) { return nil, nil }
