package broadcast

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/fazztv/fztv/pkg/commentary"
	"github.com/fazztv/fztv/pkg/compose"
	"github.com/fazztv/fztv/pkg/ffmpeg"
	"github.com/fazztv/fztv/pkg/filestore"
	"github.com/fazztv/fztv/pkg/media"
	"github.com/fazztv/fztv/pkg/pipeline"
	"github.com/fazztv/fztv/pkg/resolver"
	"github.com/fazztv/fztv/pkg/rtmp"
	"github.com/fazztv/fztv/pkg/storage"
	"github.com/fazztv/fztv/pkg/ytdlp"
	"github.com/oklog/ulid/v2"
)

type Config struct {
	Debug bool

	// Catalog is the episode file to broadcast (json, yaml or csv).
	// When empty, episodes come from the database instead.
	Catalog string
	DBType  string
	DBConn  string

	// RTMPURL is the ingest endpoint. The stream key is appended when
	// set separately.
	RTMPURL   string
	StreamKey string

	FFmpegBin string
	YTDLPBin  string
	CacheDir  string

	// YoutubeKey enables searching through the youtube data api.
	YoutubeKey string

	// Completion backend for generating commentary.
	OpenAIToken   string
	OpenAIBaseURL string
	OpenAIModel   string
	Prompt        string

	FontFile    string
	LogoPath    string
	RotatorPath string
	DisableEQ   bool

	// PlayPercent is how much of each song is broadcast.
	PlayPercent float64

	// Crossfade blends handoffs instead of cutting between playouts.
	Crossfade bool

	FadeLength     time.Duration
	CutoverMargin  time.Duration
	WaitTimeout    time.Duration
	PrepareTimeout time.Duration
	RetryDelay     time.Duration
	MaxFailures    int
	MinClipBytes   int64
	KeepClips      bool

	// Addr serves the status endpoint when set, e.g. ":8080".
	Addr string

	// Archive storage for streamed clips.
	FSType string
	FSConn string
}

// Run launches the continuous broadcast.
func Run(ctx context.Context, cfg *Config) error {
	log.Println("broadcast: started")
	defer log.Println("broadcast: ended")

	debug := func(format string, args ...interface{}) {
		if !cfg.Debug {
			return
		}
		format += "\n"
		log.Printf(format, args...)
	}

	if cfg.RTMPURL == "" {
		return fmt.Errorf("broadcast: missing rtmp url")
	}
	url := cfg.RTMPURL
	if cfg.StreamKey != "" {
		url = fmt.Sprintf("%s/%s", cfg.RTMPURL, cfg.StreamKey)
	}
	playPercent := cfg.PlayPercent
	if playPercent <= 0 || playPercent > 100 {
		playPercent = 100
	}

	// The external binaries are required for every item, check them
	// up front.
	ff := ffmpeg.New(cfg.FFmpegBin)
	if _, err := ff.Version(ctx); err != nil {
		return fmt.Errorf("broadcast: %w", err)
	}
	ytdl := ytdlp.New(cfg.YTDLPBin, cfg.Debug)
	if v, err := ytdl.Version(ctx); err != nil {
		return fmt.Errorf("broadcast: %w", err)
	} else {
		debug("broadcast: yt-dlp %s", v)
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	source, err := newSource(ctx, cfg, store, debug)
	if err != nil {
		return err
	}

	var comments *commentary.Client
	if cfg.OpenAIToken != "" {
		comments, err = commentary.New(&commentary.Config{
			Token:   cfg.OpenAIToken,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
			Prompt:  cfg.Prompt,
			Debug:   cfg.Debug,
		})
		if err != nil {
			return fmt.Errorf("broadcast: %w", err)
		}
	}

	res, err := resolver.New(ctx, resolver.Config{
		CacheDir: cfg.CacheDir,
		APIKey:   cfg.YoutubeKey,
		YTDLPBin: cfg.YTDLPBin,
		Debug:    cfg.Debug,
	})
	if err != nil {
		return fmt.Errorf("broadcast: %w", err)
	}

	logoPath := cfg.LogoPath
	if logoPath != "" {
		logoPath, err = normalizeLogo(logoPath, res.CacheDir(), debug)
		if err != nil {
			return fmt.Errorf("broadcast: %w", err)
		}
	}

	engine, err := compose.New(compose.Config{
		FFmpegBin:   cfg.FFmpegBin,
		FontFile:    cfg.FontFile,
		LogoPath:    logoPath,
		RotatorPath: cfg.RotatorPath,
		FadeLength:  cfg.FadeLength,
		DisableEQ:   cfg.DisableEQ,
		Debug:       cfg.Debug,
	})
	if err != nil {
		return fmt.Errorf("broadcast: %w", err)
	}

	caster, err := rtmp.New(rtmp.Config{
		Bin:   cfg.FFmpegBin,
		URL:   url,
		Debug: cfg.Debug,
	})
	if err != nil {
		return fmt.Errorf("broadcast: %w", err)
	}

	var archive *filestore.Store
	if cfg.FSType != "" {
		archive, err = filestore.New(cfg.FSType, cfg.FSConn, cfg.Debug)
		if err != nil {
			return fmt.Errorf("broadcast: %w", err)
		}
	}

	prep := &preparer{
		resolver:    res,
		commentary:  comments,
		engine:      engine,
		ff:          ff,
		archive:     archive,
		outDir:      res.CacheDir(),
		playPercent: playPercent,
		debug:       debug,
	}
	hooks := newHooks(ctx, cfg, store, archive, debug)

	p, err := pipeline.New(pipeline.Config{
		FadeLength:     cfg.FadeLength,
		CutoverMargin:  cfg.CutoverMargin,
		WaitTimeout:    cfg.WaitTimeout,
		PrepareTimeout: cfg.PrepareTimeout,
		RetryDelay:     cfg.RetryDelay,
		MaxFailures:    cfg.MaxFailures,
		MinClipBytes:   cfg.MinClipBytes,
		KeepClips:      cfg.KeepClips || archive != nil,
		Crossfade:      cfg.Crossfade,
		Debug:          cfg.Debug,
	}, source, prep, &streamer{caster: caster}, hooks)
	if err != nil {
		return fmt.Errorf("broadcast: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if cfg.Addr != "" {
		if _, err := serveStatus(ctx, cancel, cfg.Addr, p.State()); err != nil {
			return err
		}
	}

	return p.Run(ctx)
}

// openStore connects to the database when one is configured.
func openStore(ctx context.Context, cfg *Config) (*storage.Store, error) {
	if cfg.DBType == "" {
		return nil, nil
	}
	store, err := storage.New(cfg.DBType, cfg.DBConn, cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("broadcast: %w", err)
	}
	if err := store.Start(ctx); err != nil {
		return nil, fmt.Errorf("broadcast: %w", err)
	}
	return store, nil
}

// newHooks records broadcast history and archives streamed clips.
func newHooks(ctx context.Context, cfg *Config, store *storage.Store, archive *filestore.Store, debug func(string, ...interface{})) pipeline.Hooks {
	rows := map[string]*storage.Broadcast{}
	return pipeline.Hooks{
		Started: func(item *media.Item) {
			log.Printf("broadcast: on air: %s\n", item)
			if store == nil {
				return
			}
			row := &storage.Broadcast{
				ID:        ulid.Make().String(),
				EpisodeID: item.GUID,
				Artist:    item.Artist,
				Song:      item.Song,
				StartedAt: time.Now(),
				State:     storage.BroadcastStarted,
			}
			if err := store.SetBroadcast(ctx, row); err != nil {
				debug("broadcast: couldn't record start: %v", err)
				return
			}
			rows[item.GUID] = row
		},
		Finished: func(item *media.Item, streamed time.Duration, err error) {
			log.Printf("broadcast: off air: %s after %s\n", item, streamed)
			// A crashed playout gets restarted with the same clip, so
			// only fully streamed clips are archived and removed.
			if err == nil && archive != nil && item.IsRendered() {
				if aerr := archive.SetClip(ctx, item.Output, item.GUID); aerr != nil {
					debug("broadcast: couldn't archive clip: %v", aerr)
				} else if !cfg.KeepClips {
					_ = os.Remove(item.Output)
				}
			}
			if store == nil {
				return
			}
			row, ok := rows[item.GUID]
			if !ok {
				return
			}
			delete(rows, item.GUID)
			row.EndedAt = time.Now()
			row.Seconds = streamed.Seconds()
			row.State = storage.BroadcastDone
			if err != nil {
				row.State = storage.BroadcastFailed
				row.Notes = err.Error()
			}
			if serr := store.SetBroadcast(ctx, row); serr != nil {
				debug("broadcast: couldn't record finish: %v", serr)
			}
			if ep, gerr := store.GetEpisodeByGUID(ctx, item.GUID); gerr == nil {
				ep.PlayCount++
				if serr := store.SetEpisode(ctx, ep); serr != nil {
					debug("broadcast: couldn't bump play count: %v", serr)
				}
			}
		},
	}
}

// streamer adapts the rtmp broadcaster to the pipeline interface.
type streamer struct {
	caster *rtmp.Broadcaster
}

func (s *streamer) Start(ctx context.Context, source string) (pipeline.Handle, error) {
	return s.caster.Start(ctx, source)
}

func (s *streamer) StartCrossfade(ctx context.Context, current, next string, offset, fade time.Duration) (pipeline.Handle, error) {
	return s.caster.StartCrossfade(ctx, current, next, offset, fade)
}
