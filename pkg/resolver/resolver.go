package resolver

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"sync"

	"github.com/fazztv/fztv/pkg/media"
	"github.com/fazztv/fztv/pkg/sound"
	"github.com/fazztv/fztv/pkg/ytdlp"
	"github.com/fazztv/fztv/pkg/youtube"
)

type Config struct {
	// CacheDir stores downloaded assets keyed by item guid. Cached
	// assets survive restarts so an item is fetched at most once.
	CacheDir string
	// APIKey enables searching through the youtube data api. Without
	// it searches run through yt-dlp.
	APIKey string
	// YTDLPBin is the yt-dlp binary used for downloads.
	YTDLPBin string
	// SearchLimit is how many results a search returns before one is
	// picked at random.
	SearchLimit int
	// SkipSilenceCheck disables the audio precheck on downloads.
	SkipSilenceCheck bool
	Debug            bool
}

type searcher interface {
	Search(ctx context.Context, query string, limit int) ([]ytdlp.Video, error)
}

type downloader interface {
	DownloadVideo(ctx context.Context, url, output string) error
	DownloadAudio(ctx context.Context, url, output string) error
}

// Resolver finds source material for items and fetches it into the
// local cache.
type Resolver struct {
	cfg        Config
	search     searcher
	download   downloader
	randomPick func(n int) int
	debug      func(format string, args ...interface{})

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(ctx context.Context, cfg Config) (*Resolver, error) {
	if cfg.CacheDir == "" {
		cfg.CacheDir = filepath.Join(os.TempDir(), "fztv")
	}
	if err := os.MkdirAll(cfg.CacheDir, 0755); err != nil {
		return nil, fmt.Errorf("resolver: couldn't create cache dir: %w", err)
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = 5
	}
	client := ytdlp.New(cfg.YTDLPBin, cfg.Debug)
	var search searcher = client
	if cfg.APIKey != "" {
		yt, err := youtube.New(ctx, cfg.APIKey, cfg.Debug)
		if err != nil {
			return nil, fmt.Errorf("resolver: couldn't create youtube client: %w", err)
		}
		search = &apiSearcher{client: yt}
	}
	debug := func(format string, args ...interface{}) {}
	if cfg.Debug {
		debug = func(format string, args ...interface{}) {
			format = fmt.Sprintf("resolver: %s\n", format)
			log.Printf(format, args...)
		}
	}
	return &Resolver{
		cfg:        cfg,
		search:     search,
		download:   client,
		randomPick: rand.Intn,
		debug:      debug,
		locks:      map[string]*sync.Mutex{},
	}, nil
}

// apiSearcher adapts the youtube data api to the search interface.
type apiSearcher struct {
	client *youtube.Client
}

func (s *apiSearcher) Search(ctx context.Context, query string, limit int) ([]ytdlp.Video, error) {
	found, err := s.client.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	videos := make([]ytdlp.Video, 0, len(found))
	for _, v := range found {
		videos = append(videos, ytdlp.Video{Title: v.Title, URL: v.URL()})
	}
	return videos, nil
}

// CacheDir returns the directory downloaded assets are cached in.
func (r *Resolver) CacheDir() string {
	return r.cfg.CacheDir
}

// ResolveURL returns the source url for an item, searching for one
// when the item doesn't carry its own. When the search returns several
// candidates one is picked at random so repeated broadcasts of the
// same catalog don't always play identical footage.
func (r *Resolver) ResolveURL(ctx context.Context, item *media.Item) (string, error) {
	if item.URL != "" {
		return item.URL, nil
	}
	query := fmt.Sprintf("%s %s", item.Artist, item.Song)
	videos, err := r.search.Search(ctx, query, r.cfg.SearchLimit)
	if err != nil {
		return "", fmt.Errorf("resolver: search for %q failed: %w", query, err)
	}
	if len(videos) == 0 {
		return "", fmt.Errorf("resolver: no results for %q", query)
	}
	pick := videos[r.randomPick(len(videos))]
	r.debug("resolved %s to %s (%s)", item, pick.URL, pick.Title)
	return pick.URL, nil
}

// FetchVideo downloads the video stream of url into the cache and
// returns its path. A previously cached asset for the same guid is
// reused without touching the network.
func (r *Resolver) FetchVideo(ctx context.Context, url, guid string) (string, error) {
	return r.fetch(ctx, url, guid, "_video.mp4", r.download.DownloadVideo)
}

// FetchAudio downloads the audio stream of url into the cache and
// returns its path. Freshly downloaded audio is rejected when it
// decodes to silence.
func (r *Resolver) FetchAudio(ctx context.Context, url, guid string) (string, error) {
	path, cached, err := r.fetchStatus(ctx, url, guid, "_audio.mp3", r.download.DownloadAudio)
	if err != nil {
		return "", err
	}
	if cached || r.cfg.SkipSilenceCheck {
		return path, nil
	}
	if err := r.checkAudible(path); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return path, nil
}

func (r *Resolver) fetch(ctx context.Context, url, guid, suffix string, download func(context.Context, string, string) error) (string, error) {
	path, _, err := r.fetchStatus(ctx, url, guid, suffix, download)
	return path, err
}

// fetchStatus downloads to the guid keyed cache path unless an asset
// already exists there. Concurrent fetches of the same guid are
// serialized so only one downloads.
func (r *Resolver) fetchStatus(ctx context.Context, url, guid, suffix string, download func(context.Context, string, string) error) (string, bool, error) {
	if guid == "" {
		return "", false, fmt.Errorf("resolver: missing guid")
	}
	if url == "" {
		return "", false, fmt.Errorf("resolver: missing url")
	}
	lock := r.lockFor(guid + suffix)
	lock.Lock()
	defer lock.Unlock()

	path := filepath.Join(r.cfg.CacheDir, guid+suffix)
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		r.debug("cache hit for %s", path)
		return path, true, nil
	}
	r.debug("downloading %s to %s", url, path)
	if err := download(ctx, url, path); err != nil {
		_ = os.Remove(path)
		return "", false, fmt.Errorf("resolver: couldn't fetch %s: %w", url, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", false, fmt.Errorf("resolver: download produced no file: %w", err)
	}
	if info.Size() == 0 {
		_ = os.Remove(path)
		return "", false, fmt.Errorf("resolver: download produced an empty file: %s", path)
	}
	return path, false, nil
}

func (r *Resolver) lockFor(key string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[key] = lock
	}
	return lock
}

// checkAudible decodes a downloaded track and rejects it when it is
// all silence, which is what a failed or blocked download usually
// looks like.
func (r *Resolver) checkAudible(path string) error {
	analyzer, err := sound.NewAnalyzer(path)
	if err != nil {
		return fmt.Errorf("resolver: couldn't analyze %s: %w", path, err)
	}
	if !analyzer.Silent() {
		return nil
	}
	if r.cfg.Debug {
		if plot, err := analyzer.PlotWave(filepath.Base(path)); err == nil {
			_ = os.WriteFile(path+".jpg", plot, 0644)
		}
	}
	return fmt.Errorf("resolver: %s is silent", path)
}
