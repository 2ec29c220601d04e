package image

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writePNG(t *testing.T, w, h int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "img.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSize(t *testing.T) {
	path := writePNG(t, 120, 80)
	w, h, err := Size(path)
	if err != nil {
		t.Fatalf("Size() err = %v; want nil", err)
	}
	if w != 120 || h != 80 {
		t.Errorf("Size() = %dx%d; want 120x80", w, h)
	}
}

func TestSizeUnsupported(t *testing.T) {
	if _, _, err := Size("logo.gif"); err == nil {
		t.Fatal("Size() err = nil; want error")
	}
}

func TestConvert(t *testing.T) {
	src := writePNG(t, 64, 64)
	dst := filepath.Join(t.TempDir(), "img.jpg")
	if err := Convert(src, dst); err != nil {
		t.Fatalf("Convert() err = %v; want nil", err)
	}
	w, h, err := Size(dst)
	if err != nil {
		t.Fatalf("Size() on converted file err = %v; want nil", err)
	}
	if w != 64 || h != 64 {
		t.Errorf("converted size = %dx%d; want 64x64", w, h)
	}
}

func TestConvertUnsupportedOutput(t *testing.T) {
	src := writePNG(t, 8, 8)
	if err := Convert(src, "out.webp"); err == nil {
		t.Fatal("Convert() err = nil; want error for webp output")
	}
}
