// Package provider defines the stream-provider contract the download engine
// consumes: resolve a URL into a catalog of separately downloadable streams,
// then download one stream with byte-level progress callbacks.
package provider

import (
	"context"
	"errors"
)

type StreamKind string

const (
	KindVideoOnly StreamKind = "video-only"
	KindAudioOnly StreamKind = "audio-only"
)

// StreamDescriptor describes one selectable stream from a catalog. A
// ContentLength of 0 means the provider did not declare a size.
type StreamDescriptor struct {
	Itag          int
	Kind          StreamKind
	MimeType      string
	Container     string
	QualityLabel  string
	Height        int
	Bitrate       int
	ContentLength int64
}

// ProgressFunc receives cumulative bytes downloaded and the declared total.
type ProgressFunc func(bytesDone, bytesTotal int64)

// Source is a resolved video: a title plus the stream catalog, with downloads
// scoped to it.
type Source interface {
	Title() string
	Streams() []StreamDescriptor
	Download(ctx context.Context, stream StreamDescriptor, destPath string, progress ProgressFunc) error
}

type Provider interface {
	Resolve(ctx context.Context, rawURL string) (Source, error)
}

var (
	// ErrInvalidURL marks a URL the provider could not parse as a video
	// reference.
	ErrInvalidURL = errors.New("invalid video URL structure")
	// ErrUnavailable marks a URL that parses but points at a video that
	// cannot be served (private, removed, region-locked).
	ErrUnavailable = errors.New("video unavailable")
)
