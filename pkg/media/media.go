package media

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Item is a unit of content to broadcast: a song by an artist, the
// commentary text to overlay on it, and the paths produced while it
// moves through the pipeline.
type Item struct {
	Artist string
	Song   string

	// URL points at the song source. AltURL is tried when the main
	// one can't be fetched. BackdropURL optionally points at separate
	// footage to lay the overlays on; when empty the song source
	// doubles as the backdrop.
	URL         string
	AltURL      string
	BackdropURL string

	Commentary  string
	ReleaseDate string

	// GUID is the stable identifier used as the cache key for
	// downloaded assets. Immutable once assigned.
	GUID string

	Duration    time.Duration
	PlayPercent float64

	// Output is the path of the rendered clip. Empty until
	// composition succeeds.
	Output string
}

// NewItem creates a validated item. An empty guid gets a fresh one
// assigned.
func NewItem(artist, song, url, guid string, playPercent float64, duration time.Duration) (*Item, error) {
	if artist == "" {
		return nil, fmt.Errorf("media: missing artist")
	}
	if song == "" {
		return nil, fmt.Errorf("media: missing song")
	}
	if playPercent <= 0 || playPercent > 100 {
		return nil, fmt.Errorf("media: play percent out of range (0, 100]: %f", playPercent)
	}
	if guid == "" {
		guid = uuid.NewString()
	}
	return &Item{
		Artist:      artist,
		Song:        song,
		URL:         url,
		GUID:        guid,
		PlayPercent: playPercent,
		Duration:    duration,
	}, nil
}

func (i *Item) DisplayTitle() string {
	return fmt.Sprintf("%s - %s", i.Artist, i.Song)
}

var invalidFilename = regexp.MustCompile(`[<>:"/\\|?*]`)

// SafeFilename returns the display title with characters invalid in
// filenames replaced by underscores.
func (i *Item) SafeFilename() string {
	s := invalidFilename.ReplaceAllString(i.DisplayTitle(), "_")
	s = strings.Trim(s, ". ")
	if s == "" {
		s = "unnamed"
	}
	return s
}

// IsRendered reports whether the item has a rendered clip on disk with
// actual content.
func (i *Item) IsRendered() bool {
	if i.Output == "" {
		return false
	}
	info, err := os.Stat(i.Output)
	if err != nil {
		return false
	}
	return info.Size() > 0
}

func (i *Item) String() string {
	return i.DisplayTitle()
}
