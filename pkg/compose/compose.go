package compose

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fazztv/fztv/pkg/ffmpeg"
	"github.com/fazztv/fztv/pkg/media"
)

type Config struct {
	FFmpegBin string
	FontFile  string

	// Optional still logo and looping rotator clip. Either may be
	// empty, in which case that layer is skipped.
	LogoPath    string
	RotatorPath string

	Width         int
	Height        int
	MarqueeHeight int
	EQHeight      int

	// ScrollSpeed is the marquee speed in pixels per second.
	ScrollSpeed     int
	MarqueeDuration int

	FadeLength time.Duration
	DisableEQ  bool
	Debug      bool
}

// Engine renders broadcast-ready clips: it lays the overlay stack on
// top of a backdrop video and muxes in the song audio.
type Engine struct {
	cfg   Config
	ff    *ffmpeg.FFmpeg
	now   func() time.Time
	debug func(format string, args ...interface{})
}

func New(cfg Config) (*Engine, error) {
	if cfg.FontFile == "" {
		cfg.FontFile = "/usr/share/fonts/truetype/dejavu/DejaVuSerif.ttf"
	}
	if cfg.Width <= 0 {
		cfg.Width = 2080
	}
	if cfg.Height <= 0 {
		cfg.Height = 1170
	}
	if cfg.MarqueeHeight <= 0 {
		cfg.MarqueeHeight = 50
	}
	if cfg.EQHeight <= 0 {
		cfg.EQHeight = 200
	}
	if cfg.ScrollSpeed <= 0 {
		cfg.ScrollSpeed = 40
	}
	if cfg.MarqueeDuration <= 0 {
		cfg.MarqueeDuration = 86400
	}
	if cfg.FadeLength < 0 {
		return nil, fmt.Errorf("compose: negative fade length: %s", cfg.FadeLength)
	}
	for _, p := range []string{cfg.LogoPath, cfg.RotatorPath} {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("compose: couldn't access overlay asset: %w", err)
		}
	}
	debug := func(format string, args ...interface{}) {}
	if cfg.Debug {
		debug = func(format string, args ...interface{}) {
			format = fmt.Sprintf("compose: %s\n", format)
			log.Printf(format, args...)
		}
	}
	return &Engine{
		cfg:   cfg,
		ff:    ffmpeg.New(cfg.FFmpegBin),
		now:   time.Now,
		debug: debug,
	}, nil
}

// Render composes the overlay stack for an item on top of videoFile,
// with audioFile as the soundtrack, writing the result to output. The
// input files must already exist with content; the output is verified
// the same way before returning.
func (e *Engine) Render(ctx context.Context, item *media.Item, videoFile, audioFile, output string) error {
	for _, f := range []string{videoFile, audioFile} {
		info, err := os.Stat(f)
		if err != nil {
			return fmt.Errorf("compose: missing input: %w", err)
		}
		if info.Size() == 0 {
			return fmt.Errorf("compose: empty input: %s", f)
		}
	}
	if item.Duration <= 0 {
		return fmt.Errorf("compose: item %s has no duration", item)
	}

	dir, err := os.MkdirTemp("", "fztv-compose-")
	if err != nil {
		return fmt.Errorf("compose: couldn't create temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	spec := e.buildSpec(item)
	texts, err := writeTexts(dir, spec)
	if err != nil {
		return err
	}

	args := e.buildArgs(spec, texts, videoFile, audioFile, output)
	e.debug("rendering %s (%s)", item, item.Duration)
	start := time.Now()
	if err := e.ff.Run(ctx, args...); err != nil {
		return fmt.Errorf("compose: render of %s failed: %w", item, err)
	}
	e.debug("rendered %s in %s", item, time.Since(start))

	info, err := os.Stat(output)
	if err != nil {
		return fmt.Errorf("compose: missing output: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("compose: empty output: %s", output)
	}
	return nil
}

// buildSpec resolves the overlay texts and geometry for one item. All
// texts are sanitized here so nothing reaching the filter graph can
// break its syntax.
func (e *Engine) buildSpec(item *media.Item) Spec {
	topic := topicOf(item.Commentary)
	return Spec{
		Title:    Sanitize(item.DisplayTitle()),
		Byline:   Sanitize(topic),
		Headline: Sanitize(headline(item.ReleaseDate, topic, e.now())),
		Marquee:  Sanitize(item.Commentary),

		Logo:    e.cfg.LogoPath != "",
		Rotator: e.cfg.RotatorPath != "",
		EQ:      !e.cfg.DisableEQ,

		Width:         e.cfg.Width,
		Height:        e.cfg.Height,
		MarqueeHeight: e.cfg.MarqueeHeight,
		EQHeight:      e.cfg.EQHeight,

		Duration: item.Duration,
		Fade:     e.cfg.FadeLength,
	}
}

// writeTexts stores the overlay texts as files so drawtext reads them
// via textfile= instead of inline escaping.
func writeTexts(dir string, spec Spec) (textFiles, error) {
	write := func(name, text string) (string, error) {
		if text == "" {
			text = " "
		}
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(text), 0644); err != nil {
			return "", fmt.Errorf("compose: couldn't write text file: %w", err)
		}
		return path, nil
	}
	var texts textFiles
	var err error
	if texts.title, err = write("title.txt", spec.Title); err != nil {
		return textFiles{}, err
	}
	if texts.byline, err = write("byline.txt", spec.Byline); err != nil {
		return textFiles{}, err
	}
	if texts.headline, err = write("headline.txt", spec.Headline); err != nil {
		return textFiles{}, err
	}
	if texts.marquee, err = write("marquee.txt", spec.Marquee); err != nil {
		return textFiles{}, err
	}
	return texts, nil
}

// buildArgs assembles the full ffmpeg invocation. Input order is
// fixed: 0 backdrop video, 1 audio, 2 marquee source, then logo and
// rotator when configured.
func (e *Engine) buildArgs(spec Spec, texts textFiles, videoFile, audioFile, output string) []string {
	args := []string{
		"-i", videoFile,
		"-i", audioFile,
		"-f", "lavfi",
		"-i", marqueeSource(spec, texts.marquee, e.cfg.FontFile, e.cfg.ScrollSpeed, e.cfg.MarqueeDuration),
	}
	next := 3
	logoIdx, rotatorIdx := -1, -1
	if spec.Logo {
		args = append(args, "-i", e.cfg.LogoPath)
		logoIdx = next
		next++
	}
	if spec.Rotator {
		args = append(args, "-stream_loop", "-1", "-i", e.cfg.RotatorPath)
		rotatorIdx = next
	}
	args = append(args,
		"-filter_complex", buildFilter(spec, texts, logoIdx, rotatorIdx, e.cfg.FontFile),
		"-map", "[outv]",
		"-map", "[outa]",
		"-t", fmt.Sprintf("%.2f", spec.Duration.Seconds()),
		"-c:v", "libx264",
		"-preset", "fast",
		"-c:a", "aac",
		"-b:a", "128k",
		"-r", "30",
		"-vsync", "2",
		"-movflags", "+faststart",
		output,
	)
	return args
}
