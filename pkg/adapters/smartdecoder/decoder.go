// Package smartdecoder provides a video decoder that detects the codec of
// each source and dispatches to the matching backend.
package smartdecoder

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/user/movieview/pkg/adapters/codecdetect"
	"github.com/user/movieview/pkg/adapters/h264decoder"
	"github.com/user/movieview/pkg/ports"
)

// Codec represents the video codec type (re-exported from codecdetect).
type Codec = codecdetect.Codec

const (
	CodecH264    = codecdetect.CodecH264
	CodecUnknown = codecdetect.CodecUnknown
)

// Backend represents the decoding backend used.
type Backend string

const (
	// BackendFFmpeg represents FFmpeg-based decoding.
	BackendFFmpeg Backend = "ffmpeg"
)

// Info contains information about the selected decoder.
type Info struct {
	Codec   Codec
	Backend Backend
}

// Options configures the smart decoder behavior.
type Options struct {
	// FFmpegPath is an optional custom path to the ffmpeg binary.
	FFmpegPath string
	// Context bounds backend subprocesses. Cancelling it aborts a decode in
	// progress. Nil means context.Background.
	Context context.Context
	// Logger receives backend warnings. Nil disables them.
	Logger ports.Logger
}

var (
	// ErrUnsupportedCodec is returned when the codec is not supported.
	ErrUnsupportedCodec = errors.New("smartdecoder: unsupported codec")
	// ErrNoDecoderAvailable is returned when no decoder is available for the codec.
	ErrNoDecoderAvailable = errors.New("smartdecoder: no decoder available")
)

// Factory builds the backend decoder for a codec.
type Factory func(codec Codec) (ports.VideoDecoder, Backend, error)

// Decoder detects the codec of every stream it reads and decodes it with
// the matching backend.
type Decoder struct {
	factory Factory
	info    Info
}

// New creates a decoder backed by the built-in codecs.
func New(opts Options) *Decoder {
	if opts.FFmpegPath != "" {
		h264decoder.SetFFmpegPath(opts.FFmpegPath)
	}
	return &Decoder{factory: defaultFactory(opts)}
}

// NewWithFactory creates a decoder that obtains backends from factory.
func NewWithFactory(factory Factory) *Decoder {
	return &Decoder{factory: factory}
}

// defaultFactory binds opts to the built-in backends.
func defaultFactory(opts Options) Factory {
	return func(codec Codec) (ports.VideoDecoder, Backend, error) {
		switch codec {
		case CodecH264:
			if !h264decoder.IsAvailable() {
				return nil, "", ErrNoDecoderAvailable
			}
			reader := h264decoder.NewMP4Reader().WithContext(opts.Context).WithLogger(opts.Logger)
			return reader, BackendFFmpeg, nil
		default:
			return nil, "", ErrUnsupportedCodec
		}
	}
}

// ReadFramesFromReader detects the codec and decodes all frames.
func (d *Decoder) ReadFramesFromReader(reader io.ReadSeeker) ([]ports.VideoFrame, error) {
	codec, err := codecdetect.DetectFromReader(reader)
	if err != nil {
		return nil, err
	}

	inner, backend, err := d.factory(codec)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, codec)
	}
	defer inner.Close()

	d.info = Info{Codec: codec, Backend: backend}
	return inner.ReadFramesFromReader(reader)
}

// Close releases decoder resources.
func (d *Decoder) Close() {}

// Info returns the codec and backend of the last stream read.
func (d *Decoder) Info() Info {
	return d.info
}

var _ ports.VideoDecoder = (*Decoder)(nil)
