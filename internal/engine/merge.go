package engine

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Merge ramp tuning. ffmpeg gives no native progress for a -c copy remux, so
// the fraction climbs linearly toward the cap over the ramp window and jumps
// to 1.0 the moment the process reports success.
const (
	DefaultMergeTool = "ffmpeg"

	mergeRampWindow    = 12 * time.Second
	mergeRampCap       = 0.99
	mergePollInterval  = 80 * time.Millisecond
	stderrExcerptLimit = 400
)

// Merger combines a video-only and an audio-only file into one output,
// reporting a monotonic fraction in [0,1] through tick.
type Merger interface {
	Merge(ctx context.Context, videoPath, audioPath, outputPath string, tick func(fraction float64)) error
}

// FFmpegMerger shells out to ffmpeg with stream copy (no re-encode).
type FFmpegMerger struct {
	Bin    string
	Runner CommandRunner

	// Overridable in tests; zero values fall back to the reference tuning.
	RampWindow   time.Duration
	PollInterval time.Duration
}

func NewFFmpegMerger(bin string, runner CommandRunner) *FFmpegMerger {
	if bin == "" {
		bin = DefaultMergeTool
	}
	if runner == nil {
		runner = NewSubprocessRunner()
	}
	return &FFmpegMerger{Bin: bin, Runner: runner}
}

func (m *FFmpegMerger) Merge(ctx context.Context, videoPath, audioPath, outputPath string, tick func(float64)) error {
	if tick == nil {
		tick = func(float64) {}
	}

	spec := ExecSpec{
		Bin:  m.Bin,
		Args: []string{"-y", "-i", videoPath, "-i", audioPath, "-c", "copy", outputPath},
	}
	handle, err := m.Runner.Start(ctx, spec)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return failure(FailureMergeToolNotFound, fmt.Errorf("%s not found on PATH", m.Bin))
		}
		return failure(FailureUnexpected, fmt.Errorf("start %s: %w", m.Bin, err))
	}

	rampWindow := m.RampWindow
	if rampWindow <= 0 {
		rampWindow = mergeRampWindow
	}
	pollInterval := m.PollInterval
	if pollInterval <= 0 {
		pollInterval = mergePollInterval
	}

	start := time.Now()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case result := <-handle.Done():
			if result.Err != nil || result.ExitCode != 0 {
				excerpt := excerptOf(result.StderrTail)
				return failure(FailureMergeToolFailed,
					fmt.Errorf("%s exited with code %d: %s", m.Bin, result.ExitCode, excerpt))
			}
			tick(1.0)
			return nil
		case <-ticker.C:
			fraction := time.Since(start).Seconds() / rampWindow.Seconds()
			if fraction > mergeRampCap {
				fraction = mergeRampCap
			}
			tick(fraction)
		case <-ctx.Done():
			// The context kills the process; drain its result before
			// reporting cancellation so the handle goroutine finishes.
			<-handle.Done()
			return failure(FailureUnexpected, ctx.Err())
		}
	}
}

func excerptOf(stderr string) string {
	trimmed := strings.TrimSpace(stderr)
	if len(trimmed) > stderrExcerptLimit {
		trimmed = trimmed[len(trimmed)-stderrExcerptLimit:]
	}
	if trimmed == "" {
		return "(no stderr output)"
	}
	return trimmed
}
