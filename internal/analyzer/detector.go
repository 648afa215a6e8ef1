// Package analyzer finds content regions in rendered slide frames.
package analyzer

import (
	"image"
	"sort"
)

// Block represents a detected region of interest in an image
type Block struct {
	Rect       image.Rectangle
	Type       string  // "text", "panel", "unknown"
	Confidence float64 // 0.0-1.0
}

// Area returns the block area in pixels².
func (b Block) Area() int {
	return b.Rect.Dx() * b.Rect.Dy()
}

// Detector is the interface for image analysis strategies
type Detector interface {
	Detect(img image.Image) ([]Block, error)
}

// SortBlocks orders blocks for reading (top-to-bottom, left-to-right).
// Blocks whose tops are within rowThreshold pixels share a row.
func SortBlocks(blocks []Block) []Block {
	const rowThreshold = 20

	sorted := make([]Block, len(blocks))
	copy(sorted, blocks)

	sort.SliceStable(sorted, func(i, j int) bool {
		yDiff := sorted[i].Rect.Min.Y - sorted[j].Rect.Min.Y
		if abs(yDiff) > rowThreshold {
			return sorted[i].Rect.Min.Y < sorted[j].Rect.Min.Y
		}
		return sorted[i].Rect.Min.X < sorted[j].Rect.Min.X
	})
	return sorted
}

// Dominant returns the largest block, preferring the earlier one in reading
// order on ties. ok is false when blocks is empty.
func Dominant(blocks []Block) (Block, bool) {
	if len(blocks) == 0 {
		return Block{}, false
	}
	sorted := SortBlocks(blocks)
	best := sorted[0]
	for _, b := range sorted[1:] {
		if b.Area() > best.Area() {
			best = b
		}
	}
	return best, true
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
