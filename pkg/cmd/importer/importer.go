package importer

import (
	"context"
	"fmt"
	"log"

	"github.com/fazztv/fztv/pkg/episodes"
	"github.com/fazztv/fztv/pkg/storage"
	"github.com/oklog/ulid/v2"
)

type Config struct {
	Debug  bool
	DBType string
	DBConn string
	Input  string
}

// Run imports an episode catalog file into the database. Existing
// episodes are matched by guid and updated in place.
func Run(ctx context.Context, cfg *Config) error {
	var count int
	log.Println("import: started")
	defer func() {
		log.Printf("import: ended (%d)\n", count)
	}()

	if cfg.Input == "" {
		return fmt.Errorf("import: missing input file")
	}

	es, err := episodes.Load(cfg.Input)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	if n, err := episodes.EnsureGUIDs(cfg.Input, es); err != nil {
		return fmt.Errorf("import: %w", err)
	} else if n > 0 {
		log.Printf("import: assigned %d new guids\n", n)
	}

	store, err := storage.New(cfg.DBType, cfg.DBConn, cfg.Debug)
	if err != nil {
		return fmt.Errorf("import: couldn't create store: %w", err)
	}
	if err := store.Start(ctx); err != nil {
		return fmt.Errorf("import: couldn't start store: %w", err)
	}

	for _, e := range es {
		row, err := store.GetEpisodeByGUID(ctx, e.GUID)
		if err == storage.ErrNotFound {
			row = &storage.Episode{
				ID:   ulid.Make().String(),
				GUID: e.GUID,
			}
		} else if err != nil {
			return fmt.Errorf("import: %w", err)
		}
		row.Artist = e.Artist
		row.Song = e.Song
		row.Title = e.Title
		row.MusicURL = e.MusicURL
		row.AltMusicURL = e.AltMusicURL
		row.BackdropURL = e.BackdropURL
		row.Commentary = e.Commentary
		row.ReleaseDate = e.ReleaseDate
		if err := store.SetEpisode(ctx, row); err != nil {
			return fmt.Errorf("import: %w", err)
		}
		count++
	}
	return nil
}
