// Package summarizer provides summary generation for playback runs.
package summarizer

import "time"

// Summary contains all data collected during a playback run.
type Summary struct {
	// Metadata
	GeneratedAt time.Time

	// Source clip
	Source SourceInfo

	// Playback settings
	Settings Settings

	// Playback results
	Playback PlaybackInfo
}

// SourceInfo describes the played clip.
type SourceInfo struct {
	Name       string
	Codec      string
	Width      int
	Height     int
	DurationMs int64
	FrameRate  float64
	SizeBytes  int64
}

// Settings contains the playback configuration.
type Settings struct {
	Loop            bool
	CadenceMs       int
	DetachOnDestroy bool
	SurfaceWidth    int
	SurfaceHeight   int
	FitLarger       bool
}

// PlaybackInfo contains render pump counters and timing.
type PlaybackInfo struct {
	PositionMs int64
	WallMs     int64
	Cycles     int64
	Updates    int64
	Presents   int64
	Skipped    int64
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithSource sets source information.
func (b *Builder) WithSource(source SourceInfo) *Builder {
	b.summary.Source = source
	return b
}

// WithSettings sets playback settings.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// WithPlayback sets playback results.
func (b *Builder) WithPlayback(playback PlaybackInfo) *Builder {
	b.summary.Playback = playback
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
