// Package system probes the host: ffmpeg capabilities, CPU and memory for
// scheduling, and free disk space before encoding.
package system

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"syscall"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// Hardware encoders tried before falling back to libx264, in order.
var hardwareEncoders = []string{"h264_videotoolbox", "h264_nvenc"}

const softwareEncoder = "libx264"

// slideMemoryBudget is the working set of one in-flight slide: a raw
// 1080x1920 RGBA frame, its scaled copies and the audio normalizer.
const slideMemoryBudget = 256 << 20

// DetectH264Encoder returns the best H.264 encoder the local ffmpeg offers.
func DetectH264Encoder(ctx context.Context, ffmpegPath string) string {
	out, err := exec.CommandContext(ctx, ffmpegPath, "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return softwareEncoder
	}
	return pickEncoder(string(out))
}

func pickEncoder(encoders string) string {
	for _, name := range hardwareEncoders {
		if strings.Contains(encoders, name) {
			return name
		}
	}
	return softwareEncoder
}

// ResolveVideoCodec maps the configured codec to an ffmpeg encoder name;
// "auto" probes the host.
func ResolveVideoCodec(ctx context.Context, ffmpegPath, configured string) string {
	if configured == "" || configured == "auto" {
		return DetectH264Encoder(ctx, ffmpegPath)
	}
	return configured
}

// CheckFilterSupport reports whether ffmpeg was built with the named filter.
func CheckFilterSupport(ctx context.Context, ffmpegPath, name string) bool {
	out, err := exec.CommandContext(ctx, ffmpegPath, "-hide_banner", "-filters").Output()
	if err != nil {
		return false
	}
	return hasFilter(out, name)
}

func hasFilter(listing []byte, name string) bool {
	for _, line := range bytes.Split(listing, []byte("\n")) {
		fields := strings.Fields(string(line))
		if len(fields) >= 2 && fields[1] == name {
			return true
		}
	}
	return false
}

// DefaultParallelism is the logical CPU count, lowered when available
// memory cannot hold that many slides in flight. It is never below 1.
func DefaultParallelism() int {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		n = 1
	}
	if vm, err := mem.VirtualMemory(); err == nil && vm.Available > 0 {
		n = min(n, int(vm.Available/slideMemoryBudget))
	}
	return max(n, 1)
}

// CheckFreeSpace fails when the filesystem holding dir has less than need
// bytes free.
func CheckFreeSpace(dir string, need uint64) error {
	usage, err := disk.Usage(dir)
	if err != nil {
		return fmt.Errorf("disk usage for %s: %w", dir, err)
	}
	if usage.Free < need {
		return fmt.Errorf("%s has %d MiB free, need %d MiB", dir, usage.Free>>20, need>>20)
	}
	return nil
}

// EstimateOutputBytes sizes an encode of duration seconds at the given
// video and audio bitrates, with headroom for intermediate segments.
func EstimateOutputBytes(duration float64, videoBitrate, audioBitrate string) (uint64, error) {
	vb, err := ParseBitrate(videoBitrate)
	if err != nil {
		return 0, err
	}
	ab, err := ParseBitrate(audioBitrate)
	if err != nil {
		return 0, err
	}
	// Segments plus the joined output live on disk at the same time.
	const copies = 3
	size := duration * float64(vb+ab) / 8 * copies
	return uint64(size) + 1<<20, nil
}

// ParseBitrate reads ffmpeg-style bitrates such as "4M", "192k" or "800000"
// as bits per second.
func ParseBitrate(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	mult := 1.0
	switch s[len(s)-1] {
	case 'k', 'K':
		mult, s = 1e3, s[:len(s)-1]
	case 'm', 'M':
		mult, s = 1e6, s[:len(s)-1]
	case 'g', 'G':
		mult, s = 1e9, s[:len(s)-1]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid bitrate %q", s)
	}
	return uint64(v * mult), nil
}

// RaiseOpenFileLimit lifts the soft open-file limit so parallel slides and
// their ffmpeg children do not run out of descriptors.
func RaiseOpenFileLimit(logger *slog.Logger, want uint64) {
	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		logger.Warn("read open file limit", slog.String("error", err.Error()))
		return
	}
	if rLimit.Cur >= want {
		return
	}

	rLimit.Cur = min(want, rLimit.Max)
	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		logger.Warn("raise open file limit", slog.String("error", err.Error()))
		return
	}
	logger.Debug("open file limit raised", slog.Uint64("limit", rLimit.Cur))
}
