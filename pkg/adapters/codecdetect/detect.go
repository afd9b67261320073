// Package codecdetect inspects MP4 containers and reports the codec and
// format of the first video track.
package codecdetect

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/movieview/pkg/ports"
)

// Codec represents a video codec type.
type Codec string

const (
	CodecH264    Codec = "h264"
	CodecHEVC    Codec = "hevc"
	CodecAV1     Codec = "av1"
	CodecVP9     Codec = "vp9"
	CodecUnknown Codec = "unknown"
)

// ErrNoVideoTrack is returned when the container holds no video track.
var ErrNoVideoTrack = errors.New("codecdetect: no video track found")

// DetectFromFile detects the video codec used in an MP4 file.
func DetectFromFile(path string) (Codec, error) {
	f, err := ProbeFile(path)
	return Codec(f.Codec), err
}

// DetectFromReader detects the video codec from an io.ReadSeeker.
func DetectFromReader(reader io.ReadSeeker) (Codec, error) {
	f, err := Probe(reader)
	return Codec(f.Codec), err
}

// DetectFromBytes detects the video codec from MP4 data bytes.
func DetectFromBytes(data []byte) (Codec, error) {
	return DetectFromReader(bytes.NewReader(data))
}

// ProbeFile reports the video format of an MP4 file.
func ProbeFile(path string) (ports.VideoFormat, error) {
	f, err := os.Open(path)
	if err != nil {
		return unknownFormat(), fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return Probe(f)
}

// Probe reports the video format of the MP4 read from reader. The reader is
// rewound afterwards so the caller can decode the same stream.
func Probe(reader io.ReadSeeker) (ports.VideoFormat, error) {
	mp4File, err := mp4.DecodeFile(reader)
	if err != nil {
		return unknownFormat(), fmt.Errorf("decode mp4: %w", err)
	}

	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return unknownFormat(), fmt.Errorf("seek: %w", err)
	}

	track, err := FindVideoTrack(mp4File)
	if err != nil {
		return unknownFormat(), err
	}
	return formatOf(mp4File, track), nil
}

// VideoTrack is the video track of a decoded MP4 together with its sample entry.
type VideoTrack struct {
	Trak      *mp4.TrakBox
	Entry     *mp4.VisualSampleEntryBox
	Timescale uint32
}

// TrackID returns the track ID.
func (t *VideoTrack) TrackID() uint32 {
	return t.Trak.Tkhd.TrackID
}

// FindVideoTrack returns the first video track, looking in the init segment
// of fragmented files and in moov of progressive ones.
func FindVideoTrack(mp4File *mp4.File) (*VideoTrack, error) {
	var moovs []*mp4.MoovBox
	if mp4File.IsFragmented() && mp4File.Init != nil && mp4File.Init.Moov != nil {
		moovs = append(moovs, mp4File.Init.Moov)
	}
	if mp4File.Moov != nil {
		moovs = append(moovs, mp4File.Moov)
	}

	for _, moov := range moovs {
		for _, trak := range moov.Traks {
			if t := videoTrack(trak); t != nil {
				return t, nil
			}
		}
	}
	return nil, ErrNoVideoTrack
}

func videoTrack(trak *mp4.TrakBox) *VideoTrack {
	if trak.Mdia == nil || trak.Mdia.Hdlr == nil {
		return nil
	}
	if trak.Mdia.Hdlr.HandlerType != "vide" {
		return nil
	}

	t := &VideoTrack{Trak: trak, Timescale: 1000}
	if trak.Mdia.Mdhd != nil && trak.Mdia.Mdhd.Timescale != 0 {
		t.Timescale = trak.Mdia.Mdhd.Timescale
	}
	if trak.Mdia.Minf != nil && trak.Mdia.Minf.Stbl != nil && trak.Mdia.Minf.Stbl.Stsd != nil {
		for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
			if entry, ok := child.(*mp4.VisualSampleEntryBox); ok {
				t.Entry = entry
				break
			}
		}
	}
	return t
}

// Codec returns the codec named by the sample entry.
func (t *VideoTrack) Codec() Codec {
	if t.Entry == nil {
		return CodecUnknown
	}
	switch t.Entry.Type() {
	case "avc1", "avc3":
		return CodecH264
	case "hvc1", "hev1":
		return CodecHEVC
	case "av01":
		return CodecAV1
	case "vp09":
		return CodecVP9
	}
	return CodecUnknown
}

// Size returns the coded size from the sample entry, falling back to the
// track header.
func (t *VideoTrack) Size() (int, int) {
	if t.Entry != nil && t.Entry.Width > 0 && t.Entry.Height > 0 {
		return int(t.Entry.Width), int(t.Entry.Height)
	}
	if t.Trak.Tkhd != nil {
		return int(t.Trak.Tkhd.Width >> 16), int(t.Trak.Tkhd.Height >> 16)
	}
	return 0, 0
}

// Trex returns the track extends box of a fragmented file, if any.
func (t *VideoTrack) Trex(mp4File *mp4.File) *mp4.TrexBox {
	if mp4File.Init == nil || mp4File.Init.Moov == nil || mp4File.Init.Moov.Mvex == nil {
		return nil
	}
	for _, trex := range mp4File.Init.Moov.Mvex.Trexs {
		if trex.TrackID == t.TrackID() {
			return trex
		}
	}
	return nil
}

func formatOf(mp4File *mp4.File, t *VideoTrack) ports.VideoFormat {
	w, h := t.Size()
	samples, ticks := sampleStats(mp4File, t)

	f := ports.VideoFormat{
		Codec:  string(t.Codec()),
		Width:  w,
		Height: h,
	}
	if ticks > 0 {
		f.DurationMs = int64(ticks * 1000 / uint64(t.Timescale))
		f.FrameRate = float64(samples) * float64(t.Timescale) / float64(ticks)
	}
	return f
}

// sampleStats counts the samples of the track and sums their durations in
// track timescale units.
func sampleStats(mp4File *mp4.File, t *VideoTrack) (int, uint64) {
	if mp4File.IsFragmented() {
		trex := t.Trex(mp4File)
		var n int
		var ticks uint64
		for _, seg := range mp4File.Segments {
			for _, frag := range seg.Fragments {
				if frag.Moof == nil {
					continue
				}
				hasTrack := false
				for _, traf := range frag.Moof.Trafs {
					if traf.Tfhd.TrackID == t.TrackID() {
						hasTrack = true
					}
				}
				if !hasTrack {
					continue
				}
				samples, err := frag.GetFullSamples(trex)
				if err != nil {
					continue
				}
				for _, s := range samples {
					n++
					ticks += uint64(s.Dur)
				}
			}
		}
		return n, ticks
	}

	var n int
	if t.Trak.Mdia.Minf != nil && t.Trak.Mdia.Minf.Stbl != nil && t.Trak.Mdia.Minf.Stbl.Stsz != nil {
		n = int(t.Trak.Mdia.Minf.Stbl.Stsz.SampleNumber)
	}
	var ticks uint64
	if t.Trak.Mdia.Mdhd != nil {
		ticks = t.Trak.Mdia.Mdhd.Duration
	}
	return n, ticks
}

func unknownFormat() ports.VideoFormat {
	return ports.VideoFormat{Codec: string(CodecUnknown)}
}
