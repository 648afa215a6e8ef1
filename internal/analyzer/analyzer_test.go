package analyzer

import (
	"image"
	"image/color"
	"image/draw"
	"testing"
)

func canvas(w, h int, rects ...image.Rectangle) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for _, r := range rects {
		draw.Draw(img, r, image.NewUniform(color.Gray{Y: 255}), image.Point{}, draw.Src)
	}
	return img
}

func TestContrastDetector(t *testing.T) {
	img := canvas(200, 200, image.Rect(50, 50, 150, 150))

	for _, scale := range []int{1, 2, 4} {
		detector := NewContrastDetector()
		detector.Downscale = scale
		blocks, err := detector.Detect(img)
		if err != nil {
			t.Fatalf("scale %d: Detect failed: %v", scale, err)
		}
		if len(blocks) != 1 {
			t.Fatalf("scale %d: expected one block, got %d: %v", scale, len(blocks), blocks)
		}
		r := blocks[0].Rect
		if r.Dx() < 80 || r.Dy() < 80 {
			t.Errorf("scale %d: block too small: %v", scale, r)
		}
		if !r.In(img.Bounds()) {
			t.Errorf("scale %d: block %v outside image", scale, r)
		}
		if !image.Rect(60, 60, 140, 140).In(r) {
			t.Errorf("scale %d: block %v does not cover the square", scale, r)
		}
	}
}

func TestContrastDetectorOffsetBounds(t *testing.T) {
	img := canvas(200, 200, image.Rect(50, 50, 150, 150))
	sub := img.SubImage(image.Rect(20, 20, 200, 200))

	blocks, err := NewContrastDetector().Detect(sub)
	if err != nil {
		t.Fatal(err)
	}
	if len(blocks) != 1 {
		t.Fatalf("expected one block, got %v", blocks)
	}
	if !image.Rect(60, 60, 140, 140).In(blocks[0].Rect) {
		t.Errorf("block %v not in source coordinates", blocks[0].Rect)
	}
}

func TestContrastDetectorFiltersNoise(t *testing.T) {
	img := canvas(200, 200, image.Rect(10, 10, 12, 12))
	blocks, err := NewContrastDetector().Detect(img)
	if err != nil {
		t.Fatal(err)
	}
	if len(blocks) != 0 {
		t.Errorf("expected speck to be filtered, got %v", blocks)
	}
}

func TestContrastDetectorEmpty(t *testing.T) {
	if _, err := NewContrastDetector().Detect(image.NewGray(image.Rectangle{})); err == nil {
		t.Error("expected error for empty image")
	}
}

func TestSortBlocks(t *testing.T) {
	blocks := []Block{
		{Rect: image.Rect(100, 200, 150, 250)},
		{Rect: image.Rect(100, 10, 150, 40)},
		{Rect: image.Rect(10, 15, 60, 40)},
		{Rect: image.Rect(10, 200, 60, 260)},
	}
	got := SortBlocks(blocks)
	want := []image.Point{{10, 15}, {100, 10}, {10, 200}, {100, 200}}
	for i, b := range got {
		if b.Rect.Min != want[i] {
			t.Errorf("position %d: got %v, want min %v", i, b.Rect, want[i])
		}
	}
	if blocks[0].Rect.Min != (image.Point{100, 200}) {
		t.Error("SortBlocks modified its input")
	}
}

func TestDominant(t *testing.T) {
	tests := []struct {
		name   string
		blocks []Block
		want   image.Rectangle
		ok     bool
	}{
		{"empty", nil, image.Rectangle{}, false},
		{"largest", []Block{
			{Rect: image.Rect(0, 0, 10, 10)},
			{Rect: image.Rect(0, 100, 100, 200)},
		}, image.Rect(0, 100, 100, 200), true},
		{"tie prefers reading order", []Block{
			{Rect: image.Rect(0, 100, 10, 110)},
			{Rect: image.Rect(0, 0, 10, 10)},
		}, image.Rect(0, 0, 10, 10), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Dominant(tt.blocks)
			if ok != tt.ok || got.Rect != tt.want {
				t.Errorf("Dominant() = %v, %v; want %v, %v", got.Rect, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	frame := image.Rect(0, 0, 100, 200)
	tests := []struct {
		rect image.Rectangle
		want string
	}{
		{image.Rect(0, 0, 90, 10), "text"},
		{image.Rect(0, 0, 60, 60), "panel"},
		{image.Rect(0, 0, 20, 20), "unknown"},
	}
	for _, tt := range tests {
		if got := classify(tt.rect, frame); got != tt.want {
			t.Errorf("classify(%v) = %q, want %q", tt.rect, got, tt.want)
		}
	}
}

func TestDetectorRegistry(t *testing.T) {
	tests := []struct {
		variant string
		wantErr bool
	}{
		{"contrast", false},
		{"", false}, // default
		{"none", false},
		{"ocr", true},
		{"invalid", true},
	}

	for _, tt := range tests {
		t.Run(tt.variant, func(t *testing.T) {
			detector, err := NewDetector(tt.variant)

			if tt.wantErr {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if detector == nil {
				t.Fatal("Expected detector, got nil")
			}
		})
	}
}

func TestNoneDetector(t *testing.T) {
	d, err := NewDetector("none")
	if err != nil {
		t.Fatal(err)
	}
	blocks, err := d.Detect(canvas(50, 50, image.Rect(10, 10, 40, 40)))
	if err != nil || len(blocks) != 0 {
		t.Errorf("Detect() = %v, %v; want no blocks", blocks, err)
	}
}
