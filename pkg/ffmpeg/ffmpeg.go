package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

type FFmpeg struct {
	bin      string
	probeBin string
}

func New(bin string) *FFmpeg {
	if bin == "" {
		bin = "ffmpeg"
	}
	return &FFmpeg{bin: bin, probeBin: "ffprobe"}
}

// Version checks that the ffmpeg binary can be executed.
func (f *FFmpeg) Version(ctx context.Context) (string, error) {
	data, err := exec.CommandContext(ctx, f.bin, "-version").CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("ffmpeg: couldn't get version: %w: %s", err, string(data))
	}
	return string(data), nil
}

// Run executes ffmpeg with the given arguments, always prefixed with
// -y to overwrite existing outputs.
func (f *FFmpeg) Run(ctx context.Context, args ...string) error {
	args = append([]string{"-y"}, args...)
	cmd := exec.CommandContext(ctx, f.bin, args...)
	data, err := cmd.CombinedOutput()
	if err != nil {
		msg := string(data)
		return fmt.Errorf("ffmpeg: run failed: %w: %s", err, msg)
	}
	return nil
}

// Duration probes a media file and returns its container duration.
func (f *FFmpeg) Duration(ctx context.Context, file string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, f.probeBin, "-v", "quiet", "-print_format", "json",
		"-show_format", file)
	data, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffmpeg: couldn't probe %s: %w", file, err)
	}
	d, err := parseDuration(data)
	if err != nil {
		return 0, fmt.Errorf("ffmpeg: couldn't read duration of %s: %w", file, err)
	}
	return d, nil
}

func parseDuration(data []byte) (time.Duration, error) {
	var probe struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return 0, err
	}
	if probe.Format.Duration == "" {
		return 0, fmt.Errorf("missing format duration")
	}
	secs, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(secs * float64(time.Second)), nil
}
