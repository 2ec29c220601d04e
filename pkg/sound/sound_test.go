package sound

import (
	"math"
	"testing"
	"time"
)

func sineAnalyzer(amplitude float64) *Analyzer {
	rate := 8000
	samples := make([]float64, rate*2)
	for i := range samples {
		samples[i] = amplitude * math.Sin(2*math.Pi*440*float64(i)/float64(rate))
	}
	return &Analyzer{
		mono:     samples,
		rate:     rate,
		duration: 2 * time.Second,
	}
}

func TestCalculateRMS(t *testing.T) {
	tests := []struct {
		name    string
		samples []float64
		want    float64
	}{
		{"silence", []float64{0, 0, 0, 0}, 0},
		{"constant", []float64{0.5, 0.5, 0.5, 0.5}, 0.5},
		{"alternating", []float64{1, -1, 1, -1}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateRMS(tt.samples)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("calculateRMS() = %f; want %f", got, tt.want)
			}
		})
	}
}

func TestSilent(t *testing.T) {
	if !sineAnalyzer(0.0001).Silent() {
		t.Error("Silent() = false for near-zero track; want true")
	}
	if sineAnalyzer(0.5).Silent() {
		t.Error("Silent() = true for audible track; want false")
	}
}

func TestRMSWindows(t *testing.T) {
	a := sineAnalyzer(0.5)
	rms := a.RMS(500 * time.Millisecond)
	if len(rms) != 4 {
		t.Fatalf("RMS() returned %d windows; want 4", len(rms))
	}
	// A 0.5 amplitude sine has RMS 0.5/sqrt(2).
	want := 0.5 / math.Sqrt2
	for i, v := range rms {
		if math.Abs(v-want) > 0.01 {
			t.Errorf("RMS() window %d = %f; want ~%f", i, v, want)
		}
	}
}

func TestResample(t *testing.T) {
	a := sineAnalyzer(1)
	resampled := a.Resample(time.Second)
	if len(resampled) != 4 {
		t.Fatalf("Resample() returned %d values; want 4", len(resampled))
	}
	for i := 0; i < len(resampled); i += 2 {
		if resampled[i] > resampled[i+1] {
			t.Errorf("Resample() min %f > max %f", resampled[i], resampled[i+1])
		}
	}
}
