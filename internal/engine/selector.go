package engine

import (
	"errors"

	"github.com/jaa/ytbr/internal/provider"
)

// selectionContainer pins both selected streams to one container so ffmpeg
// can remux with -c copy.
const selectionContainer = "mp4"

// videoHeightAllowList restricts video selection to resolutions the merge
// output is expected to carry; the highest available one wins.
var videoHeightAllowList = []int{1080, 720, 480}

var ErrNoSuitableStream = errors.New("no suitable video or audio streams found")

// Selection is the pair of streams a job downloads and merges.
type Selection struct {
	Video provider.StreamDescriptor
	Audio provider.StreamDescriptor
}

// SelectStreams picks exactly one video-only and one audio-only stream from a
// catalog. Selection is deterministic: ranking keys are compared strictly, so
// ties keep the earliest catalog entry.
func SelectStreams(streams []provider.StreamDescriptor) (Selection, error) {
	var video, audio *provider.StreamDescriptor

	for i := range streams {
		s := streams[i]
		if s.Container != selectionContainer {
			continue
		}
		switch s.Kind {
		case provider.KindVideoOnly:
			if !allowedHeight(s.Height) {
				continue
			}
			if video == nil || s.Height > video.Height {
				video = &streams[i]
			}
		case provider.KindAudioOnly:
			if audio == nil || s.Bitrate > audio.Bitrate {
				audio = &streams[i]
			}
		}
	}

	if video == nil || audio == nil {
		return Selection{}, ErrNoSuitableStream
	}
	return Selection{Video: *video, Audio: *audio}, nil
}

func allowedHeight(height int) bool {
	for _, allowed := range videoHeightAllowList {
		if height == allowed {
			return true
		}
	}
	return false
}
