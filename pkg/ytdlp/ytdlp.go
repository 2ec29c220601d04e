package ytdlp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

type Client struct {
	bin   string
	debug bool
}

func New(bin string, debug bool) *Client {
	if bin == "" {
		bin = "yt-dlp"
	}
	return &Client{bin: bin, debug: debug}
}

// Version checks that the yt-dlp binary can be executed.
func (c *Client) Version(ctx context.Context) (string, error) {
	data, err := exec.CommandContext(ctx, c.bin, "--version").CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("ytdlp: couldn't get version: %w: %s", err, string(data))
	}
	return strings.TrimSpace(string(data)), nil
}

type Video struct {
	Title string `json:"title"`
	URL   string `json:"webpage_url"`
}

// Search runs a flat ytsearch and returns the matching videos.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Video, error) {
	if limit <= 0 {
		limit = 5
	}
	cmd := exec.CommandContext(ctx, c.bin,
		"--dump-json",
		"--flat-playlist",
		"--no-playlist",
		"--quiet",
		fmt.Sprintf("ytsearch%d:%s", limit, query),
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	data, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ytdlp: search failed: %w: %s", err, stderr.String())
	}
	videos, err := parseSearch(data)
	if err != nil {
		return nil, fmt.Errorf("ytdlp: couldn't parse search output: %w", err)
	}
	return videos, nil
}

// parseSearch decodes the newline separated json objects emitted by
// --dump-json.
func parseSearch(data []byte) ([]Video, error) {
	var videos []Video
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var v struct {
			Title string `json:"title"`
			URL   string `json:"webpage_url"`
			AltID string `json:"id"`
		}
		if err := json.Unmarshal(line, &v); err != nil {
			return nil, err
		}
		u := v.URL
		if u == "" && v.AltID != "" {
			u = "https://www.youtube.com/watch?v=" + v.AltID
		}
		if u == "" {
			continue
		}
		videos = append(videos, Video{Title: v.Title, URL: u})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return videos, nil
}

// DownloadVideo fetches the best mp4 video stream of a URL.
func (c *Client) DownloadVideo(ctx context.Context, url, output string) error {
	return c.download(ctx, url, output,
		"-f", "bestvideo[ext=mp4]/best[ext=mp4]/best",
	)
}

// DownloadAudio fetches the best audio stream of a URL, converted to
// mp3 so it can be decoded locally.
func (c *Client) DownloadAudio(ctx context.Context, url, output string) error {
	return c.download(ctx, url, output,
		"-f", "bestaudio/best",
		"-x", "--audio-format", "mp3",
	)
}

func (c *Client) download(ctx context.Context, url, output string, args ...string) error {
	args = append(args,
		"--no-part",
		"--no-continue",
		"--force-overwrites",
		"--no-playlist",
		"-o", output,
		url,
	)
	if !c.debug {
		args = append([]string{"--quiet"}, args...)
	}
	cmd := exec.CommandContext(ctx, c.bin, args...)
	data, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ytdlp: download of %s failed: %w: %s", url, err, string(data))
	}
	return nil
}
