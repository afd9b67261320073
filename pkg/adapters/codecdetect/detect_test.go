package codecdetect

import (
	"bytes"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/Eyevinn/mp4ff/mp4"
)

// buildFragmented writes ftyp, moov and a single fragment with n samples of
// dur ticks each.
func buildFragmented(t *testing.T, entry string, mediaType string, w, h uint16, timescale uint32, n int, dur uint32) []byte {
	t.Helper()

	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(timescale, mediaType, "en")
	trak := init.Moov.Trak
	if mediaType == "video" {
		trak.Mdia.Minf.Stbl.Stsd.AddChild(mp4.CreateVisualSampleEntryBox(entry, w, h, nil))
		trak.Tkhd.Width = mp4.Fixed32(uint32(w) << 16)
		trak.Tkhd.Height = mp4.Fixed32(uint32(h) << 16)
	}

	frag, err := mp4.CreateFragment(1, trak.Tkhd.TrackID)
	if err != nil {
		t.Fatalf("create fragment: %v", err)
	}
	for i := 0; i < n; i++ {
		data := []byte{0, 0, 0, 1, byte(i)}
		frag.AddFullSample(mp4.FullSample{
			Sample: mp4.Sample{
				Flags: mp4.SyncSampleFlags,
				Size:  uint32(len(data)),
				Dur:   dur,
			},
			DecodeTime: uint64(i) * uint64(dur),
			Data:       data,
		})
	}

	var buf bytes.Buffer
	ftyp := mp4.NewFtyp("isom", 0x200, []string{"isom", "iso2", "avc1", "mp41"})
	if err := ftyp.Encode(&buf); err != nil {
		t.Fatalf("encode ftyp: %v", err)
	}
	if err := init.Moov.Encode(&buf); err != nil {
		t.Fatalf("encode moov: %v", err)
	}
	if err := frag.Encode(&buf); err != nil {
		t.Fatalf("encode fragment: %v", err)
	}
	return buf.Bytes()
}

func TestProbe_H264(t *testing.T) {
	data := buildFragmented(t, "avc1", "video", 320, 240, 90000, 15, 3000)
	reader := bytes.NewReader(data)

	f, err := Probe(reader)
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}

	if f.Codec != string(CodecH264) {
		t.Errorf("expected h264, got %s", f.Codec)
	}
	if f.Width != 320 || f.Height != 240 {
		t.Errorf("expected 320x240, got %dx%d", f.Width, f.Height)
	}
	if f.DurationMs != 500 {
		t.Errorf("expected 500 ms, got %d", f.DurationMs)
	}
	if math.Abs(f.FrameRate-30) > 0.001 {
		t.Errorf("expected 30 fps, got %f", f.FrameRate)
	}

	pos, _ := reader.Seek(0, io.SeekCurrent)
	if pos != 0 {
		t.Errorf("expected reader rewound, at %d", pos)
	}
}

func TestDetect_SampleEntries(t *testing.T) {
	tests := []struct {
		entry string
		want  Codec
	}{
		{"avc1", CodecH264},
		{"avc3", CodecH264},
		{"hvc1", CodecHEVC},
		{"hev1", CodecHEVC},
		{"av01", CodecAV1},
		{"vp09", CodecVP9},
		{"mp4v", CodecUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.entry, func(t *testing.T) {
			data := buildFragmented(t, tt.entry, "video", 64, 48, 1000, 2, 40)
			got, err := DetectFromBytes(data)
			if err != nil {
				t.Fatalf("DetectFromBytes failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestProbe_NoVideoTrack(t *testing.T) {
	data := buildFragmented(t, "", "audio", 0, 0, 48000, 3, 1024)

	f, err := Probe(bytes.NewReader(data))
	if !errors.Is(err, ErrNoVideoTrack) {
		t.Fatalf("expected ErrNoVideoTrack, got %v", err)
	}
	if f.Codec != string(CodecUnknown) {
		t.Errorf("expected unknown codec, got %s", f.Codec)
	}
}

func TestProbe_NotMP4(t *testing.T) {
	if _, err := DetectFromBytes([]byte("definitely not a movie")); err == nil {
		t.Error("expected error for non-MP4 data")
	}
}

func TestProbeFile_Missing(t *testing.T) {
	if _, err := ProbeFile("/nonexistent/clip.mp4"); err == nil {
		t.Error("expected error for missing file")
	}
}
