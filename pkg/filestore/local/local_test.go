package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestUploadDownload(t *testing.T) {
	root := filepath.Join(t.TempDir(), "archive")
	store := New(root, false)
	ctx := context.Background()

	src := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(src, []byte("clipdata"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := store.Upload(ctx, src, "guid-1.mp4"); err != nil {
		t.Fatalf("Upload() err = %v; want nil", err)
	}

	dst := filepath.Join(t.TempDir(), "restored.mp4")
	if err := store.Download(ctx, dst, "guid-1.mp4"); err != nil {
		t.Fatalf("Download() err = %v; want nil", err)
	}
	b, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "clipdata" {
		t.Errorf("Download() content = %q; want clipdata", b)
	}
}

func TestDownloadMissing(t *testing.T) {
	store := New(t.TempDir(), false)
	if err := store.Download(context.Background(), "out.mp4", "missing.mp4"); err == nil {
		t.Fatal("Download() err = nil; want error")
	}
}
