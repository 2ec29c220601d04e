package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalClipRoundtrip(t *testing.T) {
	root := t.TempDir()
	store, err := New("local", root, false)
	if err != nil {
		t.Fatalf("New() err = %v; want nil", err)
	}

	src := filepath.Join(t.TempDir(), "rendered.mp4")
	if err := os.WriteFile(src, []byte("clip data"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := store.SetClip(context.Background(), src, "guid-1"); err != nil {
		t.Fatalf("SetClip() err = %v; want nil", err)
	}
	if _, err := os.Stat(filepath.Join(root, "guid-1.mp4")); err != nil {
		t.Fatalf("archived clip missing: %v", err)
	}

	dst := filepath.Join(t.TempDir(), "restored.mp4")
	if err := store.GetClip(context.Background(), dst, "guid-1"); err != nil {
		t.Fatalf("GetClip() err = %v; want nil", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "clip data" {
		t.Errorf("restored clip = %q; want original content", data)
	}
}

func TestGetClipMissing(t *testing.T) {
	store, err := New("local", t.TempDir(), false)
	if err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(t.TempDir(), "restored.mp4")
	if err := store.GetClip(context.Background(), dst, "nope"); err == nil {
		t.Fatal("GetClip() err = nil for missing clip; want error")
	}
}

func TestNewUnknownType(t *testing.T) {
	if _, err := New("ftp", "", false); err == nil {
		t.Fatal("New() err = nil for unknown type; want error")
	}
}

func TestNewBadS3Conn(t *testing.T) {
	for _, conn := range []string{"", "keyonly@bucket.region", "key:secret@bucketnoregion"} {
		if _, err := New("s3", conn, false); err == nil {
			t.Errorf("New(s3, %q) err = nil; want error", conn)
		}
	}
}
