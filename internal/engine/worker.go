package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jaa/ytbr/internal/fileops"
	"github.com/jaa/ytbr/internal/output"
	"github.com/jaa/ytbr/internal/provider"
)

// Scratch filenames are fixed per kind; the workspace is job-private.
const (
	scratchVideoName = "video.mp4"
	scratchAudioName = "audio.mp4"
	outputExtension  = ".mp4"
)

// DownloadRequest is immutable once a job starts.
type DownloadRequest struct {
	URL            string
	DestinationDir string
}

// JobOutcome is the terminal state of one job.
type JobOutcome struct {
	OutputPath string
	Err        error
}

// Worker runs one download-and-merge job to completion: resolve the catalog,
// select streams, download both into a scratch workspace, merge, clean up.
// Phases are strictly sequential; the scratch workspace is removed on every
// terminal path and the finished event is emitted exactly once.
type Worker struct {
	Provider    provider.Provider
	Merger      Merger
	Emitter     output.EventEmitter
	ScratchRoot string
	Now         func() time.Time
}

func NewWorker(p provider.Provider, merger Merger, emitter output.EventEmitter) *Worker {
	if emitter == nil {
		emitter = noOpEmitter{}
	}
	return &Worker{Provider: p, Merger: merger, Emitter: emitter, Now: time.Now}
}

type noOpEmitter struct{}

func (noOpEmitter) Emit(output.Event) error { return nil }

func (w *Worker) Run(ctx context.Context, jobID string, req DownloadRequest) (outcome JobOutcome) {
	if w.Now == nil {
		w.Now = time.Now
	}

	defer func() {
		if outcome.Err != nil {
			w.emitError(jobID, outcome.Err)
		}
		w.emitEvent(jobID, output.LevelInfo, output.EventFinished, "finished")
	}()

	w.emitEvent(jobID, output.LevelInfo, output.EventJobStarted, "job started")

	url := strings.TrimSpace(req.URL)
	if url == "" {
		outcome.Err = failure(FailureEmptyURL, errors.New("no URL provided"))
		return
	}

	scratch, err := fileops.NewScratchDir(w.ScratchRoot)
	if err != nil {
		outcome.Err = failure(FailureUnexpected, err)
		return
	}
	defer func() {
		// Cleanup failure is reported but never overrides the outcome.
		if err := os.RemoveAll(scratch); err != nil {
			w.emitEvent(jobID, output.LevelWarn, output.EventWarning,
				fmt.Sprintf("failed to clean up scratch workspace: %v", err))
		}
	}()

	source, err := w.Provider.Resolve(ctx, url)
	if err != nil {
		outcome.Err = classifyProviderError(err)
		return
	}

	selection, err := SelectStreams(source.Streams())
	if err != nil {
		outcome.Err = failure(FailureNoSuitableStream, err)
		return
	}

	unifier := NewUnifier(selection.Video.ContentLength, selection.Audio.ContentLength, func(percent int) {
		w.emitProgress(jobID, percent)
	})

	videoPath := filepath.Join(scratch, scratchVideoName)
	audioPath := filepath.Join(scratch, scratchAudioName)

	w.emitMessage(jobID, "Downloading video...")
	err = source.Download(ctx, selection.Video, videoPath, func(done, _ int64) {
		unifier.UpdateVideo(done)
	})
	if err != nil {
		outcome.Err = failure(FailureUnexpected, fmt.Errorf("download video stream: %w", err))
		return
	}
	unifier.CompleteVideo()

	w.emitMessage(jobID, "Downloading audio...")
	err = source.Download(ctx, selection.Audio, audioPath, func(done, _ int64) {
		unifier.UpdateAudio(done)
	})
	if err != nil {
		outcome.Err = failure(FailureUnexpected, fmt.Errorf("download audio stream: %w", err))
		return
	}
	unifier.CompleteAudio()

	if err := fileops.EnsureDir(req.DestinationDir); err != nil {
		outcome.Err = failure(FailureUnexpected, err)
		return
	}
	outputPath := filepath.Join(req.DestinationDir, fileops.SanitizeTitle(source.Title())+outputExtension)

	w.emitMessage(jobID, "Merging streams...")
	err = w.Merger.Merge(ctx, videoPath, audioPath, outputPath, func(fraction float64) {
		unifier.UpdateMerge(fraction)
	})
	if err != nil {
		var jobErr *JobError
		if errors.As(err, &jobErr) {
			outcome.Err = jobErr
		} else {
			outcome.Err = failure(FailureUnexpected, err)
		}
		return
	}

	w.emitMessage(jobID, fmt.Sprintf("Downloaded %s", filepath.Base(outputPath)))
	outcome.OutputPath = outputPath
	return
}

func (w *Worker) emitEvent(jobID string, level output.Level, name output.EventName, message string) {
	_ = w.Emitter.Emit(output.Event{
		Timestamp: w.Now(),
		Level:     level,
		Event:     name,
		JobID:     jobID,
		Message:   message,
	})
}

func (w *Worker) emitMessage(jobID, message string) {
	w.emitEvent(jobID, output.LevelInfo, output.EventMessage, message)
}

func (w *Worker) emitError(jobID string, err error) {
	_ = w.Emitter.Emit(output.Event{
		Timestamp: w.Now(),
		Level:     output.LevelError,
		Event:     output.EventError,
		JobID:     jobID,
		Message:   err.Error(),
		Details:   map[string]any{"kind": string(FailureKindOf(err))},
	})
}

func (w *Worker) emitProgress(jobID string, percent int) {
	_ = w.Emitter.Emit(output.Event{
		Timestamp: w.Now(),
		Level:     output.LevelInfo,
		Event:     output.EventProgress,
		JobID:     jobID,
		Percent:   output.Pct(percent),
	})
}
