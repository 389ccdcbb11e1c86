package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

type EventEmitter interface {
	Emit(event Event) error
}

type JSONEmitter struct {
	enc *json.Encoder
	mu  sync.Mutex
}

func NewJSONEmitter(w io.Writer) *JSONEmitter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONEmitter{enc: enc}
}

func (e *JSONEmitter) Emit(event Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enc.Encode(event)
}

// HumanEmitter renders events for a terminal. Progress events are rewritten
// in place with a carriage return; any other event first terminates a pending
// progress line so output stays well-formed.
type HumanEmitter struct {
	stdout  io.Writer
	stderr  io.Writer
	quiet   bool
	verbose bool

	mu         sync.Mutex
	inProgress bool
}

func NewHumanEmitter(stdout, stderr io.Writer, quiet, verbose bool) *HumanEmitter {
	return &HumanEmitter{stdout: stdout, stderr: stderr, quiet: quiet, verbose: verbose}
}

func (e *HumanEmitter) Emit(event Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if event.Event == EventProgress {
		if e.quiet || event.Percent == nil {
			return nil
		}
		e.inProgress = true
		_, err := fmt.Fprintf(e.stdout, "\r%3d%%", *event.Percent)
		return err
	}

	if e.inProgress {
		e.inProgress = false
		if _, err := fmt.Fprintln(e.stdout); err != nil {
			return err
		}
	}

	line := event.Message
	if line == "" {
		line = string(event.Event)
	}

	switch event.Level {
	case LevelError:
		if e.verbose {
			if kind, ok := event.Details["kind"]; ok {
				line = fmt.Sprintf("%s (%v)", line, kind)
			}
		}
		_, err := fmt.Fprintln(e.stderr, "ERROR:", line)
		return err
	case LevelWarn:
		if e.quiet {
			return nil
		}
		_, err := fmt.Fprintln(e.stderr, "WARN:", line)
		return err
	default:
		// Lifecycle chatter is diagnostic detail; only messages, progress
		// and the final event belong in normal output.
		if event.Event == EventJobStarted && !e.verbose {
			return nil
		}
		if e.quiet && event.Event != EventFinished {
			return nil
		}
		_, err := fmt.Fprintln(e.stdout, line)
		return err
	}
}

type MultiEmitter struct {
	emitters []EventEmitter
}

func NewMultiEmitter(emitters ...EventEmitter) *MultiEmitter {
	return &MultiEmitter{emitters: emitters}
}

func (e *MultiEmitter) Emit(event Event) error {
	for _, emitter := range e.emitters {
		if err := emitter.Emit(event); err != nil {
			return err
		}
	}
	return nil
}
