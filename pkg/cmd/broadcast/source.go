package broadcast

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/fazztv/fztv/pkg/episodes"
	"github.com/fazztv/fztv/pkg/media"
	"github.com/fazztv/fztv/pkg/pipeline"
	"github.com/fazztv/fztv/pkg/storage"
)

// newSource builds the episode source: the catalog file when one is
// given, the database rotation otherwise.
func newSource(ctx context.Context, cfg *Config, store *storage.Store, debug func(string, ...interface{})) (pipeline.Source, error) {
	if cfg.Catalog != "" {
		items, err := loadCatalog(cfg.Catalog)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			return nil, fmt.Errorf("broadcast: no episodes to broadcast")
		}
		debug("broadcast: %d episodes loaded from %s", len(items), cfg.Catalog)
		return newCatalogSource(items), nil
	}
	if store == nil {
		return nil, fmt.Errorf("broadcast: no catalog file and no database configured")
	}
	// Fail now rather than ten retries in when the table is empty.
	if _, err := store.NextEpisode(ctx); err != nil {
		return nil, fmt.Errorf("broadcast: no playable episodes: %w", err)
	}
	return &dbSource{store: store}, nil
}

func loadCatalog(path string) ([]*media.Item, error) {
	es, err := episodes.Load(path)
	if err != nil {
		return nil, fmt.Errorf("broadcast: %w", err)
	}
	if n, err := episodes.EnsureGUIDs(path, es); err != nil {
		return nil, fmt.Errorf("broadcast: %w", err)
	} else if n > 0 {
		log.Printf("broadcast: assigned %d new episode guids\n", n)
	}
	var items []*media.Item
	for _, e := range es {
		items = append(items, episodeItem(e.Artist, e.Song, e.MusicURL, e.AltMusicURL, e.BackdropURL, e.Commentary, e.ReleaseDate, e.GUID))
	}
	return items, nil
}

func episodeItem(artist, song, url, altURL, backdropURL, commentary, releaseDate, guid string) *media.Item {
	return &media.Item{
		Artist:      artist,
		Song:        song,
		URL:         url,
		AltURL:      altURL,
		BackdropURL: backdropURL,
		Commentary:  commentary,
		ReleaseDate: releaseDate,
		GUID:        guid,
	}
}

// dbSource rotates through the episode table least played first. Play
// counts are bumped as items leave the air, so the rotation follows
// the broadcast history across restarts.
type dbSource struct {
	store *storage.Store
}

func (s *dbSource) Next(ctx context.Context, lastArtist string) (*media.Item, error) {
	var filters []storage.Filter
	if lastArtist != "" {
		filters = append(filters, storage.Where("artist != ?", lastArtist))
	}
	ep, err := s.store.NextEpisode(ctx, filters...)
	if errors.Is(err, storage.ErrNotFound) && lastArtist != "" {
		// Every enabled episode is by the on-air artist, repeat is
		// fine.
		ep, err = s.store.NextEpisode(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("broadcast: couldn't pick next episode: %w", err)
	}
	return episodeItem(ep.Artist, ep.Song, ep.MusicURL, ep.AltMusicURL, ep.BackdropURL, ep.Commentary, ep.ReleaseDate, ep.GUID), nil
}

// catalogSource hands out the least played episode, avoiding the
// artist currently on air when it can.
type catalogSource struct {
	mu    sync.Mutex
	items []*media.Item
	plays map[string]int
}

func newCatalogSource(items []*media.Item) *catalogSource {
	return &catalogSource{
		items: items,
		plays: map[string]int{},
	}
}

func (s *catalogSource) Next(ctx context.Context, lastArtist string) (*media.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) == 0 {
		return nil, fmt.Errorf("broadcast: empty catalog")
	}

	pick := s.pick(lastArtist)
	if pick == nil {
		// Every episode is by the on-air artist, repeat is fine.
		pick = s.pick("")
	}
	s.plays[pick.GUID]++

	// Hand out a copy so the pipeline's bookkeeping never leaks into
	// the catalog entry.
	item := *pick
	return &item, nil
}

func (s *catalogSource) pick(skipArtist string) *media.Item {
	var best *media.Item
	bestPlays := -1
	for _, item := range s.items {
		if skipArtist != "" && item.Artist == skipArtist {
			continue
		}
		plays := s.plays[item.GUID]
		if best == nil || plays < bestPlays {
			best = item
			bestPlays = plays
		}
	}
	return best
}
