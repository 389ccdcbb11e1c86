package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/jaa/ytbr/internal/output"
	"github.com/jaa/ytbr/internal/provider"
)

type fakeSource struct {
	title     string
	streams   []provider.StreamDescriptor
	chunkSize int64
	failItag  int

	mu         sync.Mutex
	downloaded []int
}

func (s *fakeSource) Title() string                        { return s.title }
func (s *fakeSource) Streams() []provider.StreamDescriptor { return s.streams }

func (s *fakeSource) Download(ctx context.Context, stream provider.StreamDescriptor, destPath string, progress provider.ProgressFunc) error {
	s.mu.Lock()
	s.downloaded = append(s.downloaded, stream.Itag)
	s.mu.Unlock()

	if stream.Itag == s.failItag {
		return errors.New("connection reset")
	}
	if err := os.WriteFile(destPath, []byte("payload"), 0o644); err != nil {
		return err
	}

	chunk := s.chunkSize
	if chunk <= 0 {
		chunk = stream.ContentLength
	}
	for done := chunk; progress != nil && done <= stream.ContentLength; done += chunk {
		progress(done, stream.ContentLength)
	}
	return nil
}

func (s *fakeSource) downloadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.downloaded)
}

type fakeProvider struct {
	source *fakeSource
	err    error
}

func (p *fakeProvider) Resolve(_ context.Context, _ string) (provider.Source, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.source, nil
}

type fakeMerger struct {
	err       error
	fractions []float64

	mu      sync.Mutex
	outputs []string
}

func (m *fakeMerger) Merge(_ context.Context, videoPath, audioPath, outputPath string, tick func(float64)) error {
	m.mu.Lock()
	m.outputs = append(m.outputs, outputPath)
	m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	for _, path := range []string{videoPath, audioPath} {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("merge input missing: %w", err)
		}
	}
	fractions := m.fractions
	if fractions == nil {
		fractions = []float64{0.5, 1.0}
	}
	for _, f := range fractions {
		if tick != nil {
			tick(f)
		}
	}
	return os.WriteFile(outputPath, []byte("merged"), 0o644)
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []output.Event
}

func (e *recordingEmitter) Emit(event output.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
	return nil
}

func (e *recordingEmitter) byName(name output.EventName) []output.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	var matched []output.Event
	for _, event := range e.events {
		if event.Event == name {
			matched = append(matched, event)
		}
	}
	return matched
}

func (e *recordingEmitter) last() output.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.events[len(e.events)-1]
}

func defaultCatalog() []provider.StreamDescriptor {
	return []provider.StreamDescriptor{
		{Itag: 136, Kind: provider.KindVideoOnly, Container: "mp4", QualityLabel: "720p", Height: 720, ContentLength: 50_000_000},
		{Itag: 140, Kind: provider.KindAudioOnly, Container: "mp4", Bitrate: 128_000, ContentLength: 5_000_000},
	}
}

func newTestWorker(t *testing.T, p provider.Provider, merger Merger, emitter output.EventEmitter) (*Worker, string) {
	t.Helper()
	scratchRoot := t.TempDir()
	worker := NewWorker(p, merger, emitter)
	worker.ScratchRoot = scratchRoot
	return worker, scratchRoot
}

func assertScratchEmpty(t *testing.T, scratchRoot string) {
	t.Helper()
	entries, err := os.ReadDir(scratchRoot)
	if err != nil {
		t.Fatalf("read scratch root: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("scratch workspace left behind: %v", entries)
	}
}

func TestWorkerHappyPathProducesSanitizedOutputAndFullProgress(t *testing.T) {
	source := &fakeSource{
		title:     "My Video: Part #1?",
		streams:   defaultCatalog(),
		chunkSize: 10_000_000,
	}
	merger := &fakeMerger{}
	emitter := &recordingEmitter{}
	worker, scratchRoot := newTestWorker(t, &fakeProvider{source: source}, merger, emitter)
	destDir := filepath.Join(t.TempDir(), "out")

	outcome := worker.Run(context.Background(), "job-a", DownloadRequest{
		URL:            "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		DestinationDir: destDir,
	})
	if outcome.Err != nil {
		t.Fatalf("job failed: %v", outcome.Err)
	}

	wantOutput := filepath.Join(destDir, "My Video Part 1.mp4")
	if outcome.OutputPath != wantOutput {
		t.Fatalf("output path = %q, want %q", outcome.OutputPath, wantOutput)
	}
	if _, err := os.Stat(wantOutput); err != nil {
		t.Fatalf("merged output missing: %v", err)
	}

	progress := emitter.byName(output.EventProgress)
	if len(progress) == 0 {
		t.Fatalf("expected progress events")
	}
	final := progress[len(progress)-1]
	if final.Percent == nil || *final.Percent != 100 {
		t.Fatalf("expected final unified percentage 100, got %+v", final)
	}

	if got := len(emitter.byName(output.EventFinished)); got != 1 {
		t.Fatalf("expected exactly one finished event, got %d", got)
	}
	if emitter.last().Event != output.EventFinished {
		t.Fatalf("finished must be the last event, got %s", emitter.last().Event)
	}
	assertScratchEmpty(t, scratchRoot)
}

func TestWorkerEmptyURLFailsBeforeAnyFilesystemWork(t *testing.T) {
	source := &fakeSource{title: "x", streams: defaultCatalog()}
	emitter := &recordingEmitter{}
	worker, scratchRoot := newTestWorker(t, &fakeProvider{source: source}, &fakeMerger{}, emitter)

	outcome := worker.Run(context.Background(), "job-b", DownloadRequest{URL: "   ", DestinationDir: t.TempDir()})
	if FailureKindOf(outcome.Err) != FailureEmptyURL {
		t.Fatalf("expected FailureEmptyURL, got %v", outcome.Err)
	}

	if got := source.downloadCount(); got != 0 {
		t.Fatalf("expected no downloads, got %d", got)
	}
	if got := len(emitter.byName(output.EventFinished)); got != 1 {
		t.Fatalf("expected exactly one finished event, got %d", got)
	}
	assertScratchEmpty(t, scratchRoot)
}

func TestWorkerNoSuitableStreamFailsBeforeDownload(t *testing.T) {
	source := &fakeSource{
		title: "x",
		streams: []provider.StreamDescriptor{
			// Video only, no adaptive mp4 audio anywhere.
			{Itag: 136, Kind: provider.KindVideoOnly, Container: "mp4", Height: 720, ContentLength: 1000},
			{Itag: 251, Kind: provider.KindAudioOnly, Container: "webm", Bitrate: 160_000},
		},
	}
	emitter := &recordingEmitter{}
	worker, scratchRoot := newTestWorker(t, &fakeProvider{source: source}, &fakeMerger{}, emitter)

	outcome := worker.Run(context.Background(), "job-c", DownloadRequest{
		URL:            "https://youtu.be/abc123def45",
		DestinationDir: t.TempDir(),
	})
	if FailureKindOf(outcome.Err) != FailureNoSuitableStream {
		t.Fatalf("expected FailureNoSuitableStream, got %v", outcome.Err)
	}
	if got := source.downloadCount(); got != 0 {
		t.Fatalf("selection failure must precede downloads, got %d downloads", got)
	}
	assertScratchEmpty(t, scratchRoot)
}

func TestWorkerMergeFailureKeepsClassificationAndCleansUp(t *testing.T) {
	source := &fakeSource{title: "Some Clip", streams: defaultCatalog(), chunkSize: 1_000_000}
	merger := &fakeMerger{err: failure(FailureMergeToolFailed, errors.New("ffmpeg exited with code 1: codec mismatch"))}
	emitter := &recordingEmitter{}
	worker, scratchRoot := newTestWorker(t, &fakeProvider{source: source}, merger, emitter)

	outcome := worker.Run(context.Background(), "job-d", DownloadRequest{
		URL:            "https://youtu.be/abc123def45",
		DestinationDir: t.TempDir(),
	})
	if FailureKindOf(outcome.Err) != FailureMergeToolFailed {
		t.Fatalf("expected FailureMergeToolFailed, got %v", outcome.Err)
	}
	if !strings.Contains(outcome.Err.Error(), "codec mismatch") {
		t.Fatalf("expected stderr excerpt in failure, got %q", outcome.Err.Error())
	}

	errorEvents := emitter.byName(output.EventError)
	if len(errorEvents) != 1 || !strings.Contains(errorEvents[0].Message, "codec mismatch") {
		t.Fatalf("expected one error event with excerpt, got %+v", errorEvents)
	}
	if got := len(emitter.byName(output.EventFinished)); got != 1 {
		t.Fatalf("expected exactly one finished event, got %d", got)
	}
	assertScratchEmpty(t, scratchRoot)
}

func TestWorkerClassifiesProviderErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want FailureKind
	}{
		{"invalid url", fmt.Errorf("%w: bad id", provider.ErrInvalidURL), FailureInvalidURL},
		{"unavailable", fmt.Errorf("%w: private", provider.ErrUnavailable), FailureUnavailable},
		{"transport", errors.New("dial tcp: timeout"), FailureUnexpected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			emitter := &recordingEmitter{}
			worker, scratchRoot := newTestWorker(t, &fakeProvider{err: tc.err}, &fakeMerger{}, emitter)

			outcome := worker.Run(context.Background(), "job-e", DownloadRequest{
				URL:            "https://youtu.be/abc123def45",
				DestinationDir: t.TempDir(),
			})
			if FailureKindOf(outcome.Err) != tc.want {
				t.Fatalf("expected %s, got %v", tc.want, outcome.Err)
			}
			if got := len(emitter.byName(output.EventFinished)); got != 1 {
				t.Fatalf("expected exactly one finished event, got %d", got)
			}
			assertScratchEmpty(t, scratchRoot)
		})
	}
}

func TestWorkerEventOrderingMessagesPrecedePhaseProgress(t *testing.T) {
	source := &fakeSource{title: "Ordering", streams: defaultCatalog(), chunkSize: 5_000_000}
	emitter := &recordingEmitter{}
	worker, _ := newTestWorker(t, &fakeProvider{source: source}, &fakeMerger{}, emitter)

	outcome := worker.Run(context.Background(), "job-f", DownloadRequest{
		URL:            "https://youtu.be/abc123def45",
		DestinationDir: t.TempDir(),
	})
	if outcome.Err != nil {
		t.Fatalf("job failed: %v", outcome.Err)
	}

	firstProgress := -1
	firstMessage := -1
	for i, event := range emitter.events {
		switch event.Event {
		case output.EventProgress:
			if firstProgress == -1 {
				firstProgress = i
			}
		case output.EventMessage:
			if firstMessage == -1 {
				firstMessage = i
			}
		}
	}
	if firstMessage == -1 || firstProgress == -1 || firstMessage > firstProgress {
		t.Fatalf("expected a phase message before the first progress event (message=%d progress=%d)",
			firstMessage, firstProgress)
	}
}
