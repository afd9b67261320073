package h264decoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sort"

	"github.com/Eyevinn/mp4ff/mp4"
	"github.com/ideamans/go-l10n"

	"github.com/user/movieview/pkg/adapters/codecdetect"
	"github.com/user/movieview/pkg/ports"
)

// ErrNotH264 is returned when the video track carries another codec.
var ErrNotH264 = errors.New("h264decoder: video track is not H.264")

// MP4Reader reads and decodes H.264 frames from an MP4 file.
type MP4Reader struct {
	ctx    context.Context
	logger ports.Logger
}

// NewMP4Reader creates a new MP4 reader.
func NewMP4Reader() *MP4Reader {
	return &MP4Reader{ctx: context.Background()}
}

// WithContext returns a reader whose ffmpeg runs are bound to ctx.
// A nil ctx keeps the current one.
func (r *MP4Reader) WithContext(ctx context.Context) *MP4Reader {
	c := *r
	if ctx != nil {
		c.ctx = ctx
	}
	return &c
}

// WithLogger returns a reader that reports decode anomalies to logger.
func (r *MP4Reader) WithLogger(logger ports.Logger) *MP4Reader {
	c := *r
	if logger != nil {
		c.logger = logger.WithComponent("h264decoder")
	}
	return &c
}

// ReadFramesFromReader reads all frames from an io.ReadSeeker.
func (r *MP4Reader) ReadFramesFromReader(reader io.ReadSeeker) ([]ports.VideoFrame, error) {
	mp4File, err := mp4.DecodeFile(reader)
	if err != nil {
		return nil, fmt.Errorf("decode mp4: %w", err)
	}
	track, err := codecdetect.FindVideoTrack(mp4File)
	if err != nil {
		return nil, err
	}
	if track.Codec() != codecdetect.CodecH264 {
		return nil, fmt.Errorf("%w: %s", ErrNotH264, track.Codec())
	}

	raw, err := extract(mp4File, track, reader)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("no samples in video track")
	}

	var stream bytes.Buffer
	for _, f := range raw {
		stream.Write(f.Data)
	}

	dec, err := New()
	if err != nil {
		return nil, err
	}
	width, height := track.Size()
	images, err := dec.DecodeStream(r.ctx, stream.Bytes(), width, height)
	if err != nil {
		return nil, err
	}

	return r.pairFrames(images, raw), nil
}

// pairFrames assigns sample timing to decoded pictures. ffmpeg emits
// pictures in presentation order, so samples are sorted the same way and
// matched by index. A count mismatch leaves the surplus unpaired and may
// shift later timestamps, which is reported at warn level.
func (r *MP4Reader) pairFrames(images []*image.RGBA, raw []RawFrame) []ports.VideoFrame {
	sort.SliceStable(raw, func(i, j int) bool { return raw[i].PresentationMs < raw[j].PresentationMs })
	n := len(images)
	if len(raw) < n {
		n = len(raw)
	}
	if len(images) != len(raw) && r.logger != nil {
		r.logger.Warn(l10n.F("Decoded %d pictures for %d samples, timestamps may drift", len(images), len(raw)))
	}
	frames := make([]ports.VideoFrame, n)
	for i := 0; i < n; i++ {
		frames[i] = ports.VideoFrame{
			Image:       images[i],
			TimestampMs: raw[i].PresentationMs,
			Duration:    raw[i].Duration,
		}
	}
	return frames
}

// Close releases resources.
func (r *MP4Reader) Close() {}

// RawFrame represents a raw H.264 access unit in Annex B format.
type RawFrame struct {
	Data           []byte
	TimestampMs    int
	PresentationMs int
	Duration       int
	IsKeyframe     bool
}

// ExtractFrames extracts raw H.264 frames from MP4 data without decoding.
func ExtractFrames(mp4Data []byte) ([]RawFrame, error) {
	reader := bytes.NewReader(mp4Data)
	mp4File, err := mp4.DecodeFile(reader)
	if err != nil {
		return nil, fmt.Errorf("decode mp4: %w", err)
	}
	track, err := codecdetect.FindVideoTrack(mp4File)
	if err != nil {
		return nil, err
	}
	return extract(mp4File, track, reader)
}

func extract(mp4File *mp4.File, track *codecdetect.VideoTrack, reader io.ReadSeeker) ([]RawFrame, error) {
	params := parameterSets(track)
	if mp4File.IsFragmented() {
		return extractFragmented(mp4File, track, params)
	}
	return extractProgressive(track, reader, params)
}

// parameterSets returns SPS and PPS from avcC in Annex B format.
func parameterSets(track *codecdetect.VideoTrack) []byte {
	if track.Entry == nil || track.Entry.AvcC == nil {
		return nil
	}
	var out []byte
	for _, sps := range track.Entry.AvcC.SPSnalus {
		out = append(out, 0, 0, 0, 1)
		out = append(out, sps...)
	}
	for _, pps := range track.Entry.AvcC.PPSnalus {
		out = append(out, 0, 0, 0, 1)
		out = append(out, pps...)
	}
	return out
}

func rawFrame(sample []byte, params []byte, keyframe bool, decodeTime uint64, cto int64, dur uint32, timescale uint32) RawFrame {
	annexB := avccToAnnexB(sample)
	data := annexB
	if keyframe && len(params) > 0 {
		data = make([]byte, 0, len(params)+len(annexB))
		data = append(data, params...)
		data = append(data, annexB...)
	}

	pts := int64(decodeTime) + cto
	if pts < 0 {
		pts = 0
	}
	return RawFrame{
		Data:           data,
		TimestampMs:    int(decodeTime * 1000 / uint64(timescale)),
		PresentationMs: int(uint64(pts) * 1000 / uint64(timescale)),
		Duration:       int(uint64(dur) * 1000 / uint64(timescale)),
		IsKeyframe:     keyframe,
	}
}

func extractProgressive(track *codecdetect.VideoTrack, reader io.ReadSeeker, params []byte) ([]RawFrame, error) {
	mdia := track.Trak.Mdia
	if mdia.Minf == nil || mdia.Minf.Stbl == nil {
		return nil, fmt.Errorf("no sample table found")
	}
	stbl := mdia.Minf.Stbl
	if stbl.Stsz == nil {
		return nil, fmt.Errorf("no stsz box found")
	}

	syncSamples := make(map[uint32]bool)
	if stbl.Stss != nil {
		for _, nr := range stbl.Stss.SampleNumber {
			syncSamples[nr] = true
		}
	}

	var frames []RawFrame
	for nr := uint32(1); nr <= stbl.Stsz.SampleNumber; nr++ {
		sample, err := getSampleData(stbl, reader, nr)
		if err != nil {
			continue
		}

		var decodeTime uint64
		var dur uint32
		if stbl.Stts != nil {
			decodeTime, dur = stbl.Stts.GetDecodeTime(nr)
		}
		var cto int64
		if stbl.Ctts != nil {
			cto = int64(stbl.Ctts.GetCompositionTimeOffset(nr))
		}
		keyframe := syncSamples[nr] || len(syncSamples) == 0
		frames = append(frames, rawFrame(sample, params, keyframe, decodeTime, cto, dur, track.Timescale))
	}
	return frames, nil
}

func extractFragmented(mp4File *mp4.File, track *codecdetect.VideoTrack, params []byte) ([]RawFrame, error) {
	trex := track.Trex(mp4File)

	var frames []RawFrame
	for _, seg := range mp4File.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil {
				continue
			}
			found := false
			for _, traf := range frag.Moof.Trafs {
				if traf.Tfhd.TrackID == track.TrackID() {
					found = true
				}
			}
			if !found {
				continue
			}

			samples, err := frag.GetFullSamples(trex)
			if err != nil {
				return nil, fmt.Errorf("get samples: %w", err)
			}
			for i, s := range samples {
				keyframe := s.Flags == mp4.SyncSampleFlags || (len(frames) == 0 && i == 0)
				frames = append(frames, rawFrame(s.Data, params, keyframe, s.DecodeTime, int64(s.CompositionTimeOffset), s.Dur, track.Timescale))
			}
		}
	}
	return frames, nil
}

// getSampleData reads sample data from a progressive MP4 file.
func getSampleData(stbl *mp4.StblBox, reader io.ReadSeeker, sampleNr uint32) ([]byte, error) {
	if stbl.Stsc == nil || stbl.Stsz == nil {
		return nil, fmt.Errorf("missing stsc or stsz box")
	}

	chunkNr, firstSampleInChunk, err := stbl.Stsc.ChunkNrFromSampleNr(int(sampleNr))
	if err != nil {
		return nil, fmt.Errorf("get chunk nr: %w", err)
	}

	var chunkOffset uint64
	switch {
	case stbl.Stco != nil:
		chunkOffset, err = stbl.Stco.GetOffset(chunkNr)
		if err != nil {
			return nil, fmt.Errorf("get chunk offset: %w", err)
		}
	case stbl.Co64 != nil:
		if chunkNr < 1 || chunkNr > len(stbl.Co64.ChunkOffset) {
			return nil, fmt.Errorf("chunk nr out of range")
		}
		chunkOffset = stbl.Co64.ChunkOffset[chunkNr-1]
	default:
		return nil, fmt.Errorf("no stco or co64 box")
	}

	offset := chunkOffset
	for s := uint32(firstSampleInChunk); s < sampleNr; s++ {
		offset += uint64(stbl.Stsz.GetSampleSize(int(s)))
	}

	if _, err := reader.Seek(int64(offset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to sample: %w", err)
	}
	data := make([]byte, stbl.Stsz.GetSampleSize(int(sampleNr)))
	if _, err := io.ReadFull(reader, data); err != nil {
		return nil, fmt.Errorf("read sample: %w", err)
	}
	return data, nil
}

// avccToAnnexB converts length-prefixed NALUs to start-code prefixed ones.
func avccToAnnexB(data []byte) []byte {
	var result []byte
	offset := 0

	for offset+4 <= len(data) {
		naluLen := int(data[offset])<<24 | int(data[offset+1])<<16 |
			int(data[offset+2])<<8 | int(data[offset+3])
		offset += 4

		if naluLen < 0 || offset+naluLen > len(data) {
			break
		}

		result = append(result, 0, 0, 0, 1)
		result = append(result, data[offset:offset+naluLen]...)
		offset += naluLen
	}

	return result
}

var _ ports.VideoDecoder = (*MP4Reader)(nil)
