package provider

import (
	"errors"
	"testing"

	"github.com/kkdai/youtube/v2"
)

func TestMapFormatsKeepsOnlyAdaptiveStreams(t *testing.T) {
	formats := youtube.FormatList{
		{ItagNo: 137, MimeType: `video/mp4; codecs="avc1.640028"`, QualityLabel: "1080p", Height: 1080, ContentLength: 50_000_000},
		{ItagNo: 140, MimeType: `audio/mp4; codecs="mp4a.40.2"`, Bitrate: 130_000, ContentLength: 5_000_000},
		// Progressive format carrying both tracks: excluded.
		{ItagNo: 22, MimeType: `video/mp4; codecs="avc1.64001F, mp4a.40.2"`, QualityLabel: "720p", Height: 720, AudioChannels: 2},
		{ItagNo: 251, MimeType: `audio/webm; codecs="opus"`, Bitrate: 160_000},
	}

	descriptors := mapFormats(formats)
	if len(descriptors) != 3 {
		t.Fatalf("expected 3 descriptors, got %d: %+v", len(descriptors), descriptors)
	}

	byItag := map[int]StreamDescriptor{}
	for _, d := range descriptors {
		byItag[d.Itag] = d
	}
	if _, progressive := byItag[22]; progressive {
		t.Fatalf("progressive format leaked into the catalog")
	}
	if d := byItag[137]; d.Kind != KindVideoOnly || d.Container != "mp4" || d.Height != 1080 {
		t.Fatalf("unexpected video descriptor: %+v", d)
	}
	if d := byItag[140]; d.Kind != KindAudioOnly || d.Container != "mp4" || d.Bitrate != 130_000 {
		t.Fatalf("unexpected audio descriptor: %+v", d)
	}
	if d := byItag[251]; d.Container != "webm" {
		t.Fatalf("expected webm container, got %q", d.Container)
	}
}

func TestContainerOf(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`video/mp4; codecs="avc1.640028"`, "mp4"},
		{"audio/mp4", "mp4"},
		{"audio/webm; codecs=opus", "webm"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := containerOf(tc.in); got != tc.want {
			t.Fatalf("containerOf(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestClassifyResolveError(t *testing.T) {
	if err := classifyResolveError(youtube.ErrInvalidCharactersInVideoID); !errors.Is(err, ErrInvalidURL) {
		t.Fatalf("expected ErrInvalidURL, got %v", err)
	}
	if err := classifyResolveError(youtube.ErrVideoIDMinLength); !errors.Is(err, ErrInvalidURL) {
		t.Fatalf("expected ErrInvalidURL, got %v", err)
	}
	if err := classifyResolveError(&youtube.ErrPlayabiltyStatus{Status: "UNPLAYABLE", Reason: "Video unavailable"}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}

	opaque := errors.New("transport exploded")
	if err := classifyResolveError(opaque); !errors.Is(err, opaque) || errors.Is(err, ErrInvalidURL) || errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected passthrough for unclassified error, got %v", err)
	}
}
