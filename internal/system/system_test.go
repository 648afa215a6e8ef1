package system

import (
	"testing"

	"github.com/ivlev/placement2video/internal/logging"
)

func TestPickEncoder(t *testing.T) {
	tests := []struct {
		name     string
		encoders string
		want     string
	}{
		{"videotoolbox first", " V....D h264_nvenc\n V....D h264_videotoolbox\n", "h264_videotoolbox"},
		{"nvenc", " V....D libx264\n V....D h264_nvenc\n", "h264_nvenc"},
		{"software fallback", " V....D libx264\n", "libx264"},
		{"empty", "", "libx264"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pickEncoder(tt.encoders); got != tt.want {
				t.Errorf("pickEncoder() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHasFilter(t *testing.T) {
	listing := []byte(" ... xfade             VV->V      Cross fade one video with another video.\n" +
		" ... zoompan           V->V       Apply Zoom & Pan effect.\n")
	if !hasFilter(listing, "xfade") || !hasFilter(listing, "zoompan") {
		t.Error("expected xfade and zoompan")
	}
	if hasFilter(listing, "fade") {
		t.Error("substring match should not count")
	}
}

func TestParseBitrate(t *testing.T) {
	tests := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{"4M", 4_000_000, false},
		{"192k", 192_000, false},
		{"1.5m", 1_500_000, false},
		{"800000", 800_000, false},
		{"", 0, false},
		{"fast", 0, true},
		{"-1k", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBitrate(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBitrate(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseBitrate(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestEstimateOutputBytes(t *testing.T) {
	got, err := EstimateOutputBytes(10, "4M", "192k")
	if err != nil {
		t.Fatal(err)
	}
	// 10s * 4.192 Mbit/s / 8 * 3 copies + 1 MiB
	want := uint64(15_720_000) + 1<<20
	if got != want {
		t.Errorf("EstimateOutputBytes() = %d, want %d", got, want)
	}
	if _, err := EstimateOutputBytes(10, "lots", "192k"); err == nil {
		t.Error("expected error for bad bitrate")
	}
}

func TestDefaultParallelism(t *testing.T) {
	if n := DefaultParallelism(); n < 1 {
		t.Errorf("DefaultParallelism() = %d", n)
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if err := CheckFreeSpace(dir, 1); err != nil {
		t.Errorf("CheckFreeSpace(1 byte) = %v", err)
	}
	if err := CheckFreeSpace(dir, 1<<62); err == nil {
		t.Error("expected error for an impossible requirement")
	}
}

func TestRaiseOpenFileLimit(t *testing.T) {
	// Must not panic or fail when the limit is already high enough.
	RaiseOpenFileLimit(logging.NewNop(), 1)
}
