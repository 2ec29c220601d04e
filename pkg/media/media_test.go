package media

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewItem(t *testing.T) {
	tests := []struct {
		name    string
		artist  string
		song    string
		percent float64
		wantErr bool
	}{
		{name: "valid", artist: "Madonna", song: "Vogue", percent: 100},
		{name: "missing artist", song: "Vogue", percent: 100, wantErr: true},
		{name: "missing song", artist: "Madonna", percent: 100, wantErr: true},
		{name: "zero percent", artist: "Madonna", song: "Vogue", wantErr: true},
		{name: "percent too big", artist: "Madonna", song: "Vogue", percent: 101, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := NewItem(tt.artist, tt.song, "", "", tt.percent, time.Minute)
			if tt.wantErr {
				if err == nil {
					t.Fatal("NewItem() err = nil; want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewItem() err = %v; want nil", err)
			}
			if item.GUID == "" {
				t.Error("NewItem() left guid empty")
			}
		})
	}
}

func TestNewItemKeepsGUID(t *testing.T) {
	item, err := NewItem("Madonna", "Vogue", "", "abc-123", 50, 0)
	if err != nil {
		t.Fatal(err)
	}
	if item.GUID != "abc-123" {
		t.Errorf("GUID = %q; want abc-123", item.GUID)
	}
}

func TestSafeFilename(t *testing.T) {
	tests := []struct {
		artist string
		song   string
		want   string
	}{
		{"Madonna", "Vogue", "Madonna - Vogue"},
		{"AC/DC", "Back in Black", "AC_DC - Back in Black"},
		{`a<b>c:d"e`, `f/g\h|i?j*k`, "a_b_c_d_e - f_g_h_i_j_k"},
	}
	for _, tt := range tests {
		i := Item{Artist: tt.artist, Song: tt.song}
		if got := i.SafeFilename(); got != tt.want {
			t.Errorf("SafeFilename() = %q; want %q", got, tt.want)
		}
	}
}

func TestIsRendered(t *testing.T) {
	i := Item{}
	if i.IsRendered() {
		t.Error("IsRendered() = true for empty output")
	}

	i.Output = filepath.Join(t.TempDir(), "missing.mp4")
	if i.IsRendered() {
		t.Error("IsRendered() = true for missing file")
	}

	if err := os.WriteFile(i.Output, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if i.IsRendered() {
		t.Error("IsRendered() = true for empty file")
	}

	if err := os.WriteFile(i.Output, []byte("clip"), 0644); err != nil {
		t.Fatal(err)
	}
	if !i.IsRendered() {
		t.Error("IsRendered() = false for non-empty file")
	}
}
