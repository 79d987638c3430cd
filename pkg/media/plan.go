package media

import (
	"fmt"
	"path/filepath"
	"strconv"
)

// Artifact file names inside the output directory.
const (
	BaseVideoName    = "base.mp4"
	PreviewVideoName = "preview.mp4"
	ComposedName     = "pr-video-diff.mp4"
	PaletteName      = "palette.png"
	AnimatedName     = "pr-video-diff.gif"
	ThumbnailName    = "thumbnail.png"
)

// Stage names, also used as metric labels.
const (
	StageTranscodeBase    = "transcode-base"
	StageTranscodePreview = "transcode-preview"
	StageCompose          = "compose"
	StagePalette          = "palette"
	StageAnimated         = "gif"
	StageThumbnail        = "thumbnail"
)

// Defaults taken from the published action.
const (
	DefaultFrameRate      = 30
	DefaultGIFFPS         = 12
	DefaultGIFWidth       = 900
	DefaultThumbnailWidth = 800
	ThumbnailOffset       = "00:00:01"
)

// Options shape the plan.
type Options struct {
	OutputDir      string
	WantAnimated   bool
	GIFFPS         int
	GIFWidth       int
	ThumbnailWidth int
}

// ComposedArtifact is what the pipeline publishes. AnimatedImage is empty
// when no GIF was requested.
type ComposedArtifact struct {
	Video         string
	AnimatedImage string
	Thumbnail     string
}

// Stage is one ffmpeg invocation. Args receives the path ffmpeg must write
// to, which is the partial sibling of Output.
type Stage struct {
	Name   string
	Inputs []string
	Output string
	Args   func(output string) []string
}

// Plan is an ordered list of phases plus the artifact they produce.
type Plan struct {
	OutputDir string
	Phases    [][]Stage
	Artifact  ComposedArtifact
}

// Stages returns every stage in execution order.
func (p *Plan) Stages() []Stage {
	var all []Stage
	for _, phase := range p.Phases {
		all = append(all, phase...)
	}
	return all
}

// BuildPlan lays out the pipeline for the two raw recordings.
func BuildPlan(baseRaw, previewRaw string, opts Options) (*Plan, error) {
	if baseRaw == "" || previewRaw == "" {
		return nil, fmt.Errorf("both raw videos are required")
	}
	if opts.OutputDir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if opts.GIFFPS == 0 {
		opts.GIFFPS = DefaultGIFFPS
	}
	if opts.GIFWidth == 0 {
		opts.GIFWidth = DefaultGIFWidth
	}
	if opts.ThumbnailWidth == 0 {
		opts.ThumbnailWidth = DefaultThumbnailWidth
	}
	if opts.GIFFPS < 0 || opts.GIFWidth < 0 || opts.ThumbnailWidth < 0 {
		return nil, fmt.Errorf("gif fps and widths must be positive")
	}

	out := func(name string) string { return filepath.Join(opts.OutputDir, name) }
	base, preview, composed := out(BaseVideoName), out(PreviewVideoName), out(ComposedName)

	plan := &Plan{
		OutputDir: opts.OutputDir,
		Artifact:  ComposedArtifact{Video: composed, Thumbnail: out(ThumbnailName)},
	}
	plan.Phases = append(plan.Phases,
		[]Stage{transcode(StageTranscodeBase, baseRaw, base), transcode(StageTranscodePreview, previewRaw, preview)},
		[]Stage{compose(base, preview, composed)},
	)

	if opts.WantAnimated {
		palette, gif := out(PaletteName), out(AnimatedName)
		filters := fmt.Sprintf("fps=%d,scale=%d:-1:flags=lanczos", opts.GIFFPS, opts.GIFWidth)
		plan.Phases = append(plan.Phases,
			[]Stage{{
				Name:   StagePalette,
				Inputs: []string{composed},
				Output: palette,
				Args: func(o string) []string {
					return []string{"-y", "-i", composed, "-vf", filters + ",palettegen", o}
				},
			}},
			[]Stage{{
				Name:   StageAnimated,
				Inputs: []string{composed, palette},
				Output: gif,
				Args: func(o string) []string {
					return []string{"-y", "-i", composed, "-i", palette, "-lavfi", filters + "[x];[x][1:v]paletteuse", o}
				},
			}},
		)
		plan.Artifact.AnimatedImage = gif
	}

	thumbWidth := strconv.Itoa(opts.ThumbnailWidth)
	plan.Phases = append(plan.Phases, []Stage{{
		Name:   StageThumbnail,
		Inputs: []string{composed},
		Output: plan.Artifact.Thumbnail,
		Args: func(o string) []string {
			return []string{"-y", "-ss", ThumbnailOffset, "-i", composed, "-frames:v", "1", "-vf", "scale=" + thumbWidth + ":-1", o}
		},
	}})

	return plan, nil
}

func transcode(name, in, out string) Stage {
	return Stage{
		Name:   name,
		Inputs: []string{in},
		Output: out,
		Args: func(o string) []string {
			return []string{"-y", "-i", in, "-c:v", "libx264", "-preset", "veryfast", "-pix_fmt", "yuv420p", "-movflags", "+faststart", o}
		},
	}
}

// composeFilter resets both timestamps to zero, keeps the frame size and
// stacks the streams; the output ends with the shorter input.
const composeFilter = "[0:v]setpts=PTS-STARTPTS,scale=iw:ih[left];" +
	"[1:v]setpts=PTS-STARTPTS,scale=iw:ih[right];" +
	"[left][right]hstack=inputs=2:shortest=1[outv]"

func compose(left, right, out string) Stage {
	return Stage{
		Name:   StageCompose,
		Inputs: []string{left, right},
		Output: out,
		Args: func(o string) []string {
			return []string{"-y", "-i", left, "-i", right, "-filter_complex", composeFilter,
				"-map", "[outv]", "-an", "-r", strconv.Itoa(DefaultFrameRate), o}
		},
	}
}
