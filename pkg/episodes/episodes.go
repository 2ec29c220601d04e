package episodes

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Episode is one catalog entry: a song to broadcast plus the metadata
// shown over it.
type Episode struct {
	GUID        string `json:"guid" yaml:"guid" csv:"guid"`
	Artist      string `json:"artist" yaml:"artist" csv:"artist"`
	Song        string `json:"song" yaml:"song" csv:"song"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty" csv:"title"`
	MusicURL    string `json:"music_url,omitempty" yaml:"music_url,omitempty" csv:"music_url"`
	AltMusicURL string `json:"alt_music_url,omitempty" yaml:"alt_music_url,omitempty" csv:"alt_music_url"`
	BackdropURL string `json:"backdrop_url,omitempty" yaml:"backdrop_url,omitempty" csv:"backdrop_url"`
	Commentary  string `json:"commentary,omitempty" yaml:"commentary,omitempty" csv:"commentary"`
	ReleaseDate string `json:"release_date,omitempty" yaml:"release_date,omitempty" csv:"release_date"`
}

// Load reads a catalog file. The format follows the file extension:
// json, yaml or csv.
func Load(path string) ([]*Episode, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("episodes: couldn't read catalog: %w", err)
	}

	var unmarshal func([]byte) ([]*Episode, error)
	switch ext := filepath.Ext(path); ext {
	case ".json":
		unmarshal = func(b []byte) ([]*Episode, error) {
			var es []*Episode
			if err := json.Unmarshal(b, &es); err != nil {
				return nil, fmt.Errorf("couldn't unmarshal episodes: %w", err)
			}
			return es, nil
		}
	case ".yaml", ".yml":
		unmarshal = func(b []byte) ([]*Episode, error) {
			var es []*Episode
			if err := yaml.Unmarshal(b, &es); err != nil {
				return nil, fmt.Errorf("couldn't unmarshal episodes: %w", err)
			}
			return es, nil
		}
	case ".csv":
		unmarshal = func(b []byte) ([]*Episode, error) {
			var es []*Episode
			if err := gocsv.UnmarshalBytes(b, &es); err != nil {
				return nil, fmt.Errorf("couldn't unmarshal episodes: %w", err)
			}
			return es, nil
		}
	default:
		return nil, fmt.Errorf("episodes: unsupported catalog format: %s", ext)
	}

	episodes, err := unmarshal(b)
	if err != nil {
		return nil, fmt.Errorf("episodes: %w", err)
	}
	for i, e := range episodes {
		if e.Artist == "" {
			return nil, fmt.Errorf("episodes: entry %d has no artist", i)
		}
		if e.Song == "" {
			return nil, fmt.Errorf("episodes: entry %d (%s) has no song", i, e.Artist)
		}
	}
	return episodes, nil
}

// EnsureGUIDs assigns a guid to every episode missing one and, when
// any were assigned, rewrites the catalog file so the guids stay
// stable across runs. Existing guids are never touched.
func EnsureGUIDs(path string, episodes []*Episode) (int, error) {
	var assigned int
	for _, e := range episodes {
		if e.GUID != "" {
			continue
		}
		e.GUID = uuid.NewString()
		assigned++
	}
	if assigned == 0 {
		return 0, nil
	}
	if err := save(path, episodes); err != nil {
		return assigned, fmt.Errorf("episodes: couldn't persist guids: %w", err)
	}
	return assigned, nil
}

func save(path string, episodes []*Episode) error {
	var b []byte
	var err error
	switch ext := filepath.Ext(path); ext {
	case ".json":
		b, err = json.MarshalIndent(episodes, "", "  ")
	case ".yaml", ".yml":
		b, err = yaml.Marshal(episodes)
	case ".csv":
		b, err = gocsv.MarshalBytes(&episodes)
	default:
		return fmt.Errorf("unsupported catalog format: %s", ext)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// Artists returns the distinct artist names in the catalog, sorted.
func Artists(episodes []*Episode) []string {
	seen := map[string]bool{}
	var artists []string
	for _, e := range episodes {
		if seen[e.Artist] {
			continue
		}
		seen[e.Artist] = true
		artists = append(artists, e.Artist)
	}
	sort.Strings(artists)
	return artists
}
