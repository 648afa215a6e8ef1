package video

import (
	"context"
	"fmt"
	"math"

	"github.com/ivlev/placement2video/internal/faults"
	"github.com/ivlev/placement2video/internal/media/ffprobe"
)

// Verify probes path and checks it holds one video and one audio stream
// whose duration is within tolerance seconds of expected.
func Verify(ctx context.Context, ffprobePath, path string, expected, tolerance float64) (ffprobe.Result, error) {
	result, err := ffprobe.Inspect(ctx, ffprobePath, path)
	if err != nil {
		return ffprobe.Result{}, faults.Encoding("probe output", err)
	}
	return result, Check(result, expected, tolerance)
}

// Check validates an ffprobe result against the expected layout.
func Check(result ffprobe.Result, expected, tolerance float64) error {
	if n := result.VideoStreamCount(); n != 1 {
		return faults.Encoding(fmt.Sprintf("output has %d video streams, want 1", n), nil)
	}
	if n := result.AudioStreamCount(); n != 1 {
		return faults.Encoding(fmt.Sprintf("output has %d audio streams, want 1", n), nil)
	}
	if got := result.DurationSeconds(); math.Abs(got-expected) > tolerance {
		return faults.Encoding(fmt.Sprintf("output lasts %.3fs, want %.3fs ±%.3f", got, expected, tolerance), nil)
	}
	return nil
}
