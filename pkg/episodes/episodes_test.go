package episodes

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeCatalog(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadJSON(t *testing.T) {
	path := writeCatalog(t, "catalog.json", `[
  {"guid": "g1", "artist": "Madonna", "song": "Vogue", "release_date": "1990-03-27"},
  {"artist": "Prince", "song": "Kiss"}
]`)
	episodes, err := Load(path)
	if err != nil {
		t.Fatalf("Load() err = %v; want nil", err)
	}
	if len(episodes) != 2 {
		t.Fatalf("Load() returned %d episodes; want 2", len(episodes))
	}
	if episodes[0].GUID != "g1" || episodes[0].ReleaseDate != "1990-03-27" {
		t.Errorf("Load() first episode = %+v", episodes[0])
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeCatalog(t, "catalog.yaml", `- artist: Madonna
  song: Vogue
  commentary: "Tax trouble: a long story"
- artist: Prince
  song: Kiss
`)
	episodes, err := Load(path)
	if err != nil {
		t.Fatalf("Load() err = %v; want nil", err)
	}
	if len(episodes) != 2 {
		t.Fatalf("Load() returned %d episodes; want 2", len(episodes))
	}
	if !strings.HasPrefix(episodes[0].Commentary, "Tax trouble") {
		t.Errorf("Load() commentary = %q", episodes[0].Commentary)
	}
}

func TestLoadCSV(t *testing.T) {
	path := writeCatalog(t, "catalog.csv", "guid,artist,song,title,music_url,alt_music_url,backdrop_url,commentary,release_date\n"+
		"g1,Madonna,Vogue,,,,,,1990-03-27\n"+
		",Prince,Kiss,,,,,,\n")
	episodes, err := Load(path)
	if err != nil {
		t.Fatalf("Load() err = %v; want nil", err)
	}
	if len(episodes) != 2 {
		t.Fatalf("Load() returned %d episodes; want 2", len(episodes))
	}
	if episodes[1].Artist != "Prince" {
		t.Errorf("Load() second artist = %q; want Prince", episodes[1].Artist)
	}
}

func TestLoadValidation(t *testing.T) {
	path := writeCatalog(t, "catalog.json", `[{"artist": "", "song": "Vogue"}]`)
	if _, err := Load(path); err == nil {
		t.Error("Load() with missing artist err = nil; want error")
	}

	path = writeCatalog(t, "catalog.txt", "whatever")
	if _, err := Load(path); err == nil {
		t.Error("Load() with unknown extension err = nil; want error")
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Load() with missing file err = nil; want error")
	}
}

func TestEnsureGUIDs(t *testing.T) {
	path := writeCatalog(t, "catalog.json", `[
  {"guid": "keep-me", "artist": "Madonna", "song": "Vogue"},
  {"artist": "Prince", "song": "Kiss"}
]`)
	episodes, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	assigned, err := EnsureGUIDs(path, episodes)
	if err != nil {
		t.Fatalf("EnsureGUIDs() err = %v; want nil", err)
	}
	if assigned != 1 {
		t.Errorf("EnsureGUIDs() assigned = %d; want 1", assigned)
	}
	if episodes[0].GUID != "keep-me" {
		t.Errorf("EnsureGUIDs() changed existing guid to %q", episodes[0].GUID)
	}
	if episodes[1].GUID == "" {
		t.Error("EnsureGUIDs() left a guid empty")
	}

	// The rewritten file must carry the assigned guids.
	reloaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded[1].GUID != episodes[1].GUID {
		t.Errorf("reloaded guid = %q; want %q", reloaded[1].GUID, episodes[1].GUID)
	}

	// A second pass must be a no-op.
	assigned, err = EnsureGUIDs(path, episodes)
	if err != nil {
		t.Fatal(err)
	}
	if assigned != 0 {
		t.Errorf("second EnsureGUIDs() assigned = %d; want 0", assigned)
	}
}

func TestArtists(t *testing.T) {
	episodes := []*Episode{
		{Artist: "Prince", Song: "Kiss"},
		{Artist: "Madonna", Song: "Vogue"},
		{Artist: "Madonna", Song: "Like a Prayer"},
	}
	got := Artists(episodes)
	want := []string{"Madonna", "Prince"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Artists() = %v; want %v", got, want)
	}
}
