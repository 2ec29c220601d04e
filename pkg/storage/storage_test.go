package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/oklog/ulid/v2"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New("sqlite", filepath.Join(t.TempDir(), "test.db"), false)
	if err != nil {
		t.Fatalf("New() err = %v; want nil", err)
	}
	ctx := context.Background()
	if err := store.Start(ctx); err != nil {
		t.Fatalf("Start() err = %v; want nil", err)
	}
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() err = %v; want nil", err)
	}
	return store
}

func TestEpisodeRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	e := &Episode{
		ID:          ulid.Make().String(),
		GUID:        "guid-1",
		Artist:      "Madonna",
		Song:        "Vogue",
		ReleaseDate: "1990-03-27",
		State:       Active,
	}
	if err := store.SetEpisode(ctx, e); err != nil {
		t.Fatalf("SetEpisode() err = %v; want nil", err)
	}

	got, err := store.GetEpisode(ctx, e.ID)
	if err != nil {
		t.Fatalf("GetEpisode() err = %v; want nil", err)
	}
	if got.Artist != "Madonna" || got.GUID != "guid-1" {
		t.Errorf("GetEpisode() = %+v", got)
	}

	got, err = store.GetEpisodeByGUID(ctx, "guid-1")
	if err != nil {
		t.Fatalf("GetEpisodeByGUID() err = %v; want nil", err)
	}
	if got.ID != e.ID {
		t.Errorf("GetEpisodeByGUID() id = %q; want %q", got.ID, e.ID)
	}

	if _, err := store.GetEpisode(ctx, "missing"); err != ErrNotFound {
		t.Errorf("GetEpisode(missing) err = %v; want ErrNotFound", err)
	}
}

func TestNextEpisode(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	episodes := []*Episode{
		{ID: ulid.Make().String(), GUID: "g1", Artist: "A", Song: "S1", PlayCount: 2},
		{ID: ulid.Make().String(), GUID: "g2", Artist: "B", Song: "S2", PlayCount: 0},
		{ID: ulid.Make().String(), GUID: "g3", Artist: "C", Song: "S3", PlayCount: 1, State: Disabled},
	}
	for _, e := range episodes {
		if err := store.SetEpisode(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	got, err := store.NextEpisode(ctx)
	if err != nil {
		t.Fatalf("NextEpisode() err = %v; want nil", err)
	}
	if got.GUID != "g2" {
		t.Errorf("NextEpisode() guid = %q; want g2 (least played)", got.GUID)
	}

	got, err = store.NextEpisode(ctx, Where("artist != ?", "B"))
	if err != nil {
		t.Fatalf("NextEpisode() err = %v; want nil", err)
	}
	if got.GUID != "g1" {
		t.Errorf("NextEpisode() guid = %q; want g1 (disabled skipped)", got.GUID)
	}
}

func TestBroadcastHistory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	b := &Broadcast{
		ID:        ulid.Make().String(),
		EpisodeID: "ep-1",
		Artist:    "Madonna",
		Song:      "Vogue",
		State:     BroadcastStarted,
	}
	if err := store.SetBroadcast(ctx, b); err != nil {
		t.Fatalf("SetBroadcast() err = %v; want nil", err)
	}

	b.State = BroadcastDone
	b.Seconds = 215.5
	if err := store.SetBroadcast(ctx, b); err != nil {
		t.Fatalf("SetBroadcast() update err = %v; want nil", err)
	}

	got, err := store.GetBroadcast(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetBroadcast() err = %v; want nil", err)
	}
	if got.State != BroadcastDone || got.Seconds != 215.5 {
		t.Errorf("GetBroadcast() = %+v", got)
	}

	list, err := store.ListBroadcasts(ctx, 1, 10, "")
	if err != nil {
		t.Fatalf("ListBroadcasts() err = %v; want nil", err)
	}
	if len(list) != 1 {
		t.Errorf("ListBroadcasts() returned %d; want 1", len(list))
	}
}

func TestSettings(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SetSetting(ctx, &Setting{ID: "stream-key", Value: "abc"}); err != nil {
		t.Fatalf("SetSetting() err = %v; want nil", err)
	}
	got, err := store.GetSetting(ctx, "stream-key")
	if err != nil {
		t.Fatalf("GetSetting() err = %v; want nil", err)
	}
	if got.Value != "abc" {
		t.Errorf("GetSetting() value = %q; want abc", got.Value)
	}
	if err := store.DeleteSetting(ctx, "stream-key"); err != nil {
		t.Fatalf("DeleteSetting() err = %v; want nil", err)
	}
	if _, err := store.GetSetting(ctx, "stream-key"); err != ErrNotFound {
		t.Errorf("GetSetting() after delete err = %v; want ErrNotFound", err)
	}
}
