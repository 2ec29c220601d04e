package sound

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	mp3 "github.com/hajimehoshi/go-mp3"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Analyzer holds the decoded samples of an audio track. It is used to
// reject silent or broken downloads before they reach a render.
type Analyzer struct {
	stereo   [2][]float64
	mono     []float64
	rate     int
	duration time.Duration
	source   string
}

func NewAnalyzer(path string) (*Analyzer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sound: couldn't open file: %w", err)
	}
	defer file.Close()
	decoder, err := mp3.NewDecoder(file)
	if err != nil {
		return nil, fmt.Errorf("sound: couldn't create decoder: %w", err)
	}

	var stereo [2][]float64
	buf := make([]byte, 2) // 2 bytes per sample for 16-bit audio
	var i int
	for {
		_, err := decoder.Read(buf)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("sound: couldn't read sample: %w", err)
		}
		// Convert bytes to a 16-bit little endian sample and
		// normalize to the -1.0 to 1.0 range.
		sample := int16(buf[0]) | int16(buf[1])<<8
		normalized := float64(sample) / 32768.0
		stereo[i%2] = append(stereo[i%2], normalized)
		i++
	}
	if len(stereo[0]) == 0 {
		return nil, fmt.Errorf("sound: no samples in %s", path)
	}

	var mono []float64
	for i, left := range stereo[0] {
		right := left
		if i < len(stereo[1]) {
			right = stereo[1][i]
		}
		mono = append(mono, (left+right)/2.0)
	}

	duration := time.Duration(float64(len(mono)) / float64(decoder.SampleRate()) * float64(time.Second))
	return &Analyzer{
		source:   path,
		stereo:   stereo,
		mono:     mono,
		rate:     decoder.SampleRate(),
		duration: duration,
	}, nil
}

func (a *Analyzer) Source() string {
	return a.source
}

func (a *Analyzer) Duration() time.Duration {
	return a.duration
}

// RMS returns the root mean square level of each consecutive window.
func (a *Analyzer) RMS(windowSize time.Duration) []float64 {
	samples := a.mono
	windowLength := int(float64(a.rate) * windowSize.Seconds())
	if windowLength <= 0 {
		windowLength = 1
	}

	var rms []float64
	for i := 0; i < len(samples); i += windowLength {
		end := i + windowLength
		if end > len(samples) {
			end = len(samples)
		}
		rms = append(rms, calculateRMS(samples[i:end]))
	}
	return rms
}

func calculateRMS(samples []float64) float64 {
	var sum float64
	for _, v := range samples {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// silenceThreshold is the RMS level under which a track counts as
// silent. Tracks this quiet are almost always failed downloads.
const silenceThreshold = 0.001

// Silent reports whether the whole track stays below the silence
// threshold.
func (a *Analyzer) Silent() bool {
	for _, v := range a.RMS(500 * time.Millisecond) {
		if v > silenceThreshold {
			return false
		}
	}
	return true
}

// Resample reduces the track to min and max pairs per window, which is
// enough to draw its wave shape.
func (a *Analyzer) Resample(windowSize time.Duration) []float64 {
	samples := a.mono
	windowLength := int(float64(a.rate) * windowSize.Seconds())
	if windowLength <= 0 {
		windowLength = 1
	}

	var resampled []float64
	for i := 0; i < len(samples); i += windowLength {
		end := i + windowLength
		if end > len(samples) {
			end = len(samples)
		}
		var min, max float64
		for _, v := range samples[i:end] {
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		resampled = append(resampled, min, max)
	}
	return resampled
}

// PlotWave renders the wave shape of the track as a jpeg, used when
// debugging rejected downloads.
func (a *Analyzer) PlotWave(name string) ([]byte, error) {
	window := 50 * time.Millisecond
	resampled := a.Resample(window)
	return createPlot(name, resampled, -1, 1, window.Seconds())
}

func createPlot(name string, data []float64, min, max, window float64) ([]byte, error) {
	p := plot.New()
	p.Y.Min = min
	p.Y.Max = max

	d := time.Duration(float64(len(data))*window*0.5) * time.Second
	p.Title.Text = fmt.Sprintf("%s %s", name, d)
	p.X.Label.Text = "time"
	p.Y.Label.Text = "level"

	l, err := plotter.NewLine(makePoints(data))
	if err != nil {
		return nil, fmt.Errorf("sound: couldn't create line plotter: %w", err)
	}
	l.LineStyle.Width = vg.Points(1)
	p.Add(l)

	c, err := p.WriterTo(4*vg.Inch, 4*vg.Inch, "jpeg")
	if err != nil {
		return nil, fmt.Errorf("sound: couldn't create plot: %w", err)
	}
	var buf bytes.Buffer
	if _, err := c.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("sound: couldn't write plot: %w", err)
	}
	return buf.Bytes(), nil
}

func makePoints(samples []float64) plotter.XYs {
	pts := make(plotter.XYs, len(samples))
	for i, v := range samples {
		pts[i].X = float64(i)
		pts[i].Y = v
	}
	return pts
}
