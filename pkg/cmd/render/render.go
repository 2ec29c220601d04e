package render

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/fazztv/fztv/pkg/commentary"
	"github.com/fazztv/fztv/pkg/compose"
	"github.com/fazztv/fztv/pkg/ffmpeg"
	"github.com/fazztv/fztv/pkg/media"
	"github.com/fazztv/fztv/pkg/resolver"
)

type Config struct {
	Debug bool

	Artist      string
	Song        string
	URL         string
	BackdropURL string
	Commentary  string
	ReleaseDate string
	GUID        string
	PlayPercent float64

	Output string

	FFmpegBin  string
	YTDLPBin   string
	CacheDir   string
	YoutubeKey string

	OpenAIToken   string
	OpenAIBaseURL string
	OpenAIModel   string
	Prompt        string

	FontFile    string
	LogoPath    string
	RotatorPath string
	DisableEQ   bool
	FadeLength  time.Duration
}

// Run renders a single broadcast-ready clip without streaming it,
// which is how overlay changes get checked before going live.
func Run(ctx context.Context, cfg *Config) error {
	log.Println("render: started")
	defer log.Println("render: ended")

	if cfg.Output == "" {
		return fmt.Errorf("render: missing output path")
	}
	playPercent := cfg.PlayPercent
	if playPercent <= 0 || playPercent > 100 {
		playPercent = 100
	}
	item, err := media.NewItem(cfg.Artist, cfg.Song, cfg.URL, cfg.GUID, playPercent, 0)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	item.BackdropURL = cfg.BackdropURL
	item.Commentary = cfg.Commentary
	item.ReleaseDate = cfg.ReleaseDate

	ff := ffmpeg.New(cfg.FFmpegBin)
	if _, err := ff.Version(ctx); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	if item.Commentary == "" {
		item.Commentary = commentary.Fallback(item.Artist)
		if cfg.OpenAIToken != "" {
			client, err := commentary.New(&commentary.Config{
				Token:   cfg.OpenAIToken,
				BaseURL: cfg.OpenAIBaseURL,
				Model:   cfg.OpenAIModel,
				Prompt:  cfg.Prompt,
				Debug:   cfg.Debug,
			})
			if err != nil {
				return fmt.Errorf("render: %w", err)
			}
			if text, err := client.Generate(ctx, item.Artist); err == nil {
				item.Commentary = text
			} else {
				log.Printf("render: commentary failed, using fallback: %v\n", err)
			}
		}
	}

	res, err := resolver.New(ctx, resolver.Config{
		CacheDir: cfg.CacheDir,
		APIKey:   cfg.YoutubeKey,
		YTDLPBin: cfg.YTDLPBin,
		Debug:    cfg.Debug,
	})
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	musicURL, err := res.ResolveURL(ctx, item)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	audio, err := res.FetchAudio(ctx, musicURL, item.GUID)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	backdropURL := item.BackdropURL
	if backdropURL == "" {
		backdropURL = musicURL
	}
	video, err := res.FetchVideo(ctx, backdropURL, item.GUID)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	duration, err := ff.Duration(ctx, audio)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	item.Duration = time.Duration(float64(duration) * playPercent / 100.0)

	engine, err := compose.New(compose.Config{
		FFmpegBin:   cfg.FFmpegBin,
		FontFile:    cfg.FontFile,
		LogoPath:    cfg.LogoPath,
		RotatorPath: cfg.RotatorPath,
		FadeLength:  cfg.FadeLength,
		DisableEQ:   cfg.DisableEQ,
		Debug:       cfg.Debug,
	})
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := engine.Render(ctx, item, video, audio, cfg.Output); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	log.Printf("render: wrote %s (%s)\n", cfg.Output, item.Duration)
	return nil
}
