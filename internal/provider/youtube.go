package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kkdai/youtube/v2"
)

const downloadBufferSize = 32 * 1024

// YouTube resolves and downloads streams through github.com/kkdai/youtube.
type YouTube struct {
	client youtube.Client
}

func NewYouTube() *YouTube {
	return &YouTube{}
}

func (p *YouTube) Resolve(ctx context.Context, rawURL string) (Source, error) {
	video, err := p.client.GetVideoContext(ctx, rawURL)
	if err != nil {
		return nil, classifyResolveError(err)
	}
	return &youtubeSource{
		client:  &p.client,
		video:   video,
		streams: mapFormats(video.Formats),
	}, nil
}

type youtubeSource struct {
	client  *youtube.Client
	video   *youtube.Video
	streams []StreamDescriptor
}

func (s *youtubeSource) Title() string {
	return s.video.Title
}

func (s *youtubeSource) Streams() []StreamDescriptor {
	return s.streams
}

func (s *youtubeSource) Download(ctx context.Context, stream StreamDescriptor, destPath string, progress ProgressFunc) error {
	format := s.video.Formats.FindByItag(stream.Itag)
	if format == nil {
		return fmt.Errorf("itag %d not present in catalog", stream.Itag)
	}

	reader, size, err := s.client.GetStreamContext(ctx, s.video, format)
	if err != nil {
		return fmt.Errorf("open stream %d: %w", stream.Itag, err)
	}
	defer reader.Close()

	total := stream.ContentLength
	if total <= 0 {
		total = size
	}

	file, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", destPath, err)
	}
	defer file.Close()

	var done int64
	buf := make([]byte, downloadBufferSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, readErr := reader.Read(buf)
		if n > 0 {
			if _, writeErr := file.Write(buf[:n]); writeErr != nil {
				return fmt.Errorf("write %s: %w", destPath, writeErr)
			}
			done += int64(n)
			if progress != nil {
				progress(done, total)
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				return nil
			}
			return fmt.Errorf("read stream %d: %w", stream.Itag, readErr)
		}
	}
}

// mapFormats converts the library catalog into stream descriptors, keeping
// only adaptive video-only and audio-only entries. Progressive formats that
// already carry both tracks are skipped: the engine always merges.
func mapFormats(formats youtube.FormatList) []StreamDescriptor {
	descriptors := make([]StreamDescriptor, 0, len(formats))
	for i := range formats {
		f := formats[i]
		descriptor := StreamDescriptor{
			Itag:          f.ItagNo,
			MimeType:      f.MimeType,
			Container:     containerOf(f.MimeType),
			QualityLabel:  f.QualityLabel,
			Height:        f.Height,
			Bitrate:       f.Bitrate,
			ContentLength: f.ContentLength,
		}
		switch {
		case strings.HasPrefix(f.MimeType, "audio/"):
			descriptor.Kind = KindAudioOnly
		case strings.HasPrefix(f.MimeType, "video/") && f.AudioChannels == 0:
			descriptor.Kind = KindVideoOnly
		default:
			continue
		}
		descriptors = append(descriptors, descriptor)
	}
	return descriptors
}

// containerOf extracts the container name from a MIME type such as
// "video/mp4; codecs=\"avc1.640028\"".
func containerOf(mimeType string) string {
	mediaType := mimeType
	if idx := strings.Index(mediaType, ";"); idx >= 0 {
		mediaType = mediaType[:idx]
	}
	if idx := strings.Index(mediaType, "/"); idx >= 0 {
		return strings.TrimSpace(mediaType[idx+1:])
	}
	return strings.TrimSpace(mediaType)
}

func classifyResolveError(err error) error {
	if errors.Is(err, youtube.ErrVideoIDMinLength) || errors.Is(err, youtube.ErrInvalidCharactersInVideoID) {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	var playability *youtube.ErrPlayabiltyStatus
	if errors.As(err, &playability) {
		return fmt.Errorf("%w: %s", ErrUnavailable, playability.Reason)
	}
	if errors.Is(err, youtube.ErrNotPlayableInEmbed) || errors.Is(err, youtube.ErrLoginRequired) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return err
}
