package broadcast

import (
	"path/filepath"

	"github.com/fazztv/fztv/pkg/image"
)

// normalizeLogo converts the logo to a format the overlay filter can
// read. The video filters only take png or jpeg, so webp exports are
// converted into the cache directory.
func normalizeLogo(path, cacheDir string, debug func(string, ...interface{})) (string, error) {
	if w, h, err := image.Size(path); err == nil && w != h {
		debug("broadcast: logo %s is %dx%d, it will be scaled to a square", path, w, h)
	}
	if filepath.Ext(path) != ".webp" {
		return path, nil
	}
	out := filepath.Join(cacheDir, "logo.png")
	if err := image.Convert(path, out); err != nil {
		return "", err
	}
	debug("broadcast: converted logo to %s", out)
	return out, nil
}
