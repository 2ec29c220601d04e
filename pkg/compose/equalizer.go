package compose

import (
	"fmt"
	"strings"
)

// One frequency band of the spectrum footer. Each band is isolated
// with a bandpass filter and rendered as a vertical volume bar.
type band struct {
	frequency int
	width     int
}

var eqBands = []band{
	{40, 20},    // low
	{155, 95},   // mid-low
	{375, 125},  // mid-high
	{1250, 750}, // high
}

var eqColors = []string{
	"0xFFFFFFFF",
	"0xFFCCCCCC",
	"0xFF999999",
	"0xFF666666",
}

// equalizerFilters builds the filter chains producing the [eqband]
// label: per-band bandpass+showvolume bars, horizontally stacked,
// scaled to full width over a black background.
func equalizerFilters(audio string, width, height int) []string {
	var parts []string
	var outs []string
	for i, b := range eqBands {
		in := fmt.Sprintf("b%d0", i)
		out := fmt.Sprintf("b%d1", i)
		parts = append(parts, fmt.Sprintf(
			"[%s]bandpass=frequency=%d:width=%d:width_type=h[%s]",
			audio, b.frequency, b.width, in))
		parts = append(parts, fmt.Sprintf(
			"[%s]showvolume=b=0:c=%s:ds=log:f=0:h=%d:m=p:o=v:p=1:rate=15:s=0:t=0:v=0:w=200[%s]",
			in, eqColors[i%len(eqColors)], height, out))
		outs = append(outs, out)
	}
	parts = append(parts, fmt.Sprintf("[%s]hstack=inputs=%d[eqrow]", strings.Join(outs, "]["), len(eqBands)))
	parts = append(parts, fmt.Sprintf("[eqrow]scale=%d:%d[eqscaled]", width, height))
	parts = append(parts, fmt.Sprintf("color=black:s=%dx%d[eqbg]", width, height))
	parts = append(parts, "[eqbg][eqscaled]overlay=0:0[eqband]")
	return parts
}
