package compose

import (
	"fmt"
	"strings"
	"time"
)

// Spec is the resolved set of overlay parameters for one render. It is
// a pure value built fresh per render; the geometry is taken from the
// engine configuration so every invocation lays out identically.
type Spec struct {
	Title    string
	Byline   string
	Headline string
	Marquee  string

	Logo    bool
	Rotator bool
	EQ      bool

	Width         int
	Height        int
	MarqueeHeight int
	EQHeight      int

	Duration time.Duration
	Fade     time.Duration
}

// textFiles holds the temporary files carrying sanitized overlay text
// into drawtext filters.
type textFiles struct {
	title    string
	byline   string
	headline string
	marquee  string
}

func drawtext(in, out, textFile, font string, size int, color, border string, borderw, y int) string {
	return fmt.Sprintf(
		"[%s]drawtext=fontfile=%s:textfile=%s:fontsize=%d:fontcolor=%s:bordercolor=%s:borderw=%d:x=(w-text_w)/2:y=%d[%s]",
		in, font, textFile, size, color, border, borderw, y, out)
}

// marqueeSource builds the lavfi input generating the scrolling
// marquee strip.
func marqueeSource(spec Spec, textFile, font string, scrollSpeed, duration int) string {
	return fmt.Sprintf(
		"color=c=black:s=%dx%d:d=%d,"+
			"drawtext="+
			"fontfile=%s:"+
			"textfile=%s:"+
			"fontsize=24:"+
			"fontcolor=white:"+
			"bordercolor=black:"+
			"borderw=3:"+
			"y=h-th-10:"+
			"x='w - mod(%d*t, w+text_w)'",
		spec.Width, spec.MarqueeHeight, duration, font, textFile, scrollSpeed)
}

// buildFilter assembles the deterministic filter graph. Layering, back
// to front: padded backdrop with the scaled main panel, title, byline,
// headline, marquee strip, optional logo, optional rotator clip, and
// the optional spectrum footer stacked below everything else. The
// final labels are always [outv] and [outa].
func buildFilter(spec Spec, texts textFiles, logoIdx, rotatorIdx int, font string) string {
	parts := []string{
		fmt.Sprintf(
			"[0:v]scale=%d:%d:force_original_aspect_ratio=decrease,setsar=1,pad=%d:%d:(ow-iw)/2:(oh-ih)/2[panel]",
			spec.Width, spec.Height, spec.Width, spec.Height),
		drawtext("panel", "titled", texts.title, font, 50, "red", "black", 4, 30),
		drawtext("titled", "bylined", texts.byline, font, 40, "yellow", "black", 4, 90),
		drawtext("bylined", "headlined", texts.headline, font, 26, "white", "black", 3, 160),
		fmt.Sprintf("[2:v]scale=%d:%d[marq]", spec.Width, spec.MarqueeHeight),
		"[headlined][marq]overlay=0:main_h-overlay_h-10[marqueed]",
	}
	last := "marqueed"
	if logoIdx >= 0 {
		parts = append(parts,
			fmt.Sprintf("[%d:v]scale=120:120[logosize]", logoIdx),
			fmt.Sprintf("[%s][logosize]overlay=20:20[logoed]", last),
		)
		last = "logoed"
	}
	if rotatorIdx >= 0 {
		parts = append(parts,
			fmt.Sprintf("[%d:v]scale=150:150,setpts=PTS-STARTPTS[rotator]", rotatorIdx),
			fmt.Sprintf("[%s][rotator]overlay=10:main_h-160[decorated]", last),
		)
		last = "decorated"
	}
	if spec.EQ {
		parts = append(parts, equalizerFilters("1:a", spec.Width, spec.EQHeight)...)
		parts = append(parts, fmt.Sprintf("[%s][eqband]vstack=inputs=2[comp]", last))
	} else {
		parts = append(parts, fmt.Sprintf("[%s]copy[comp]", last))
	}

	// Fade the tail of the clip so item boundaries stay smooth even
	// without a live crossfade.
	fade := spec.Fade.Seconds()
	start := spec.Duration.Seconds() - fade
	if fade > 0 && start > 0 {
		parts = append(parts,
			fmt.Sprintf("[comp]fade=t=out:st=%.2f:d=%.2f[outv]", start, fade),
			fmt.Sprintf("[1:a]afade=t=out:st=%.2f:d=%.2f[outa]", start, fade),
		)
	} else {
		parts = append(parts,
			"[comp]copy[outv]",
			"[1:a]acopy[outa]",
		)
	}
	return strings.Join(parts, ";")
}
