package summarizer

import (
	"fmt"
	"strings"
	"time"
)

// MarkdownFormatter renders a Summary as a Markdown document.
type MarkdownFormatter struct {
	translate func(string) string
	version   string
}

// MarkdownOption configures a MarkdownFormatter.
type MarkdownOption func(*MarkdownFormatter)

// WithTranslator translates headings and labels.
func WithTranslator(translate func(string) string) MarkdownOption {
	return func(f *MarkdownFormatter) { f.translate = translate }
}

// WithVersion adds the tool version to the footer.
func WithVersion(version string) MarkdownOption {
	return func(f *MarkdownFormatter) { f.version = version }
}

// NewMarkdownFormatter creates a MarkdownFormatter.
func NewMarkdownFormatter(opts ...MarkdownOption) *MarkdownFormatter {
	f := &MarkdownFormatter{translate: func(s string) string { return s }}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	t := f.translate
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", t("Playback Summary"))

	fmt.Fprintf(&b, "## %s\n\n", t("Source"))
	f.header(&b)
	f.row(&b, "Name", s.Source.Name)
	if s.Source.Codec != "" {
		f.row(&b, "Codec", s.Source.Codec)
	}
	if s.Source.Width > 0 {
		f.row(&b, "Frame Size", fmt.Sprintf("%dx%d", s.Source.Width, s.Source.Height))
	}
	if s.Source.DurationMs > 0 {
		f.row(&b, "Duration", fmt.Sprintf("%d ms", s.Source.DurationMs))
	}
	if s.Source.FrameRate > 0 {
		f.row(&b, "Frame Rate", fmt.Sprintf("%.2f fps", s.Source.FrameRate))
	}
	if s.Source.SizeBytes > 0 {
		f.row(&b, "File Size", formatBytes(s.Source.SizeBytes))
	}

	fmt.Fprintf(&b, "\n## %s\n\n", t("Settings"))
	f.header(&b)
	f.row(&b, "Loop", f.yesNo(s.Settings.Loop))
	f.row(&b, "Cadence", fmt.Sprintf("%d ms", s.Settings.CadenceMs))
	f.row(&b, "Surface Size", fmt.Sprintf("%dx%d", s.Settings.SurfaceWidth, s.Settings.SurfaceHeight))
	f.row(&b, "Fit Larger Frames", f.yesNo(s.Settings.FitLarger))
	f.row(&b, "Teardown", f.teardown(s.Settings.DetachOnDestroy))

	fmt.Fprintf(&b, "\n## %s\n\n", t("Playback"))
	f.header(&b)
	f.row(&b, "Position", fmt.Sprintf("%d ms", s.Playback.PositionMs))
	f.row(&b, "Wall Time", fmt.Sprintf("%d ms", s.Playback.WallMs))
	f.row(&b, "Pump Cycles", fmt.Sprintf("%d", s.Playback.Cycles))
	f.row(&b, "Frames Updated", fmt.Sprintf("%d", s.Playback.Updates))
	f.row(&b, "Frames Presented", fmt.Sprintf("%d", s.Playback.Presents))
	f.row(&b, "Presents Skipped", fmt.Sprintf("%d", s.Playback.Skipped))

	b.WriteString("\n---\n\n")
	footer := fmt.Sprintf("%s %s", t("Generated at"), s.GeneratedAt.Format(time.RFC3339))
	if f.version != "" {
		footer += fmt.Sprintf(" (movieview %s)", f.version)
	}
	b.WriteString(footer + "\n")

	return b.String()
}

func (f *MarkdownFormatter) header(b *strings.Builder) {
	fmt.Fprintf(b, "| %s | %s |\n|---|---|\n", f.translate("Item"), f.translate("Value"))
}

func (f *MarkdownFormatter) row(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "| %s | %s |\n", f.translate(label), value)
}

func (f *MarkdownFormatter) yesNo(v bool) string {
	if v {
		return f.translate("Yes")
	}
	return f.translate("No")
}

func (f *MarkdownFormatter) teardown(detached bool) string {
	if detached {
		return f.translate("Detached")
	}
	return f.translate("Joined")
}

// formatBytes renders a byte count with a binary unit.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit && exp < 2; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(n)/float64(div), "KMG"[exp])
}

var _ Formatter = (*MarkdownFormatter)(nil)
