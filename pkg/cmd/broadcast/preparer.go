package broadcast

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fazztv/fztv/pkg/commentary"
	"github.com/fazztv/fztv/pkg/compose"
	"github.com/fazztv/fztv/pkg/ffmpeg"
	"github.com/fazztv/fztv/pkg/filestore"
	"github.com/fazztv/fztv/pkg/media"
	"github.com/fazztv/fztv/pkg/resolver"
)

// preparer takes an item from catalog metadata to a rendered clip:
// commentary, source material, and the composed video.
type preparer struct {
	resolver    *resolver.Resolver
	commentary  *commentary.Client
	engine      *compose.Engine
	ff          *ffmpeg.FFmpeg
	archive     *filestore.Store
	outDir      string
	playPercent float64
	debug       func(format string, args ...interface{})
}

func (p *preparer) Prepare(ctx context.Context, item *media.Item) error {
	// An episode that already streamed may have its clip in the
	// archive, reuse it instead of rendering again.
	if output, ok := p.restore(ctx, item); ok {
		item.Output = output
		return nil
	}

	// Commentary first: a failed completion falls back to a canned
	// line instead of blocking the broadcast.
	if item.Commentary == "" {
		item.Commentary = p.generate(ctx, item.Artist)
	}

	musicURL, err := p.resolver.ResolveURL(ctx, item)
	if err != nil {
		return err
	}

	audio, err := p.fetchAudio(ctx, item, musicURL)
	if err != nil {
		return err
	}

	backdropURL := item.BackdropURL
	if backdropURL == "" {
		backdropURL = musicURL
	}
	video, err := p.resolver.FetchVideo(ctx, backdropURL, item.GUID)
	if err != nil {
		return err
	}

	duration, err := p.ff.Duration(ctx, audio)
	if err != nil {
		return err
	}
	percent := item.PlayPercent
	if percent <= 0 || percent > 100 {
		percent = p.playPercent
	}
	item.Duration = time.Duration(float64(duration) * percent / 100.0)
	if item.Duration <= 0 {
		return fmt.Errorf("broadcast: %s has zero duration", item)
	}

	output := filepath.Join(p.outDir, item.GUID+"_broadcast.mp4")
	if err := p.engine.Render(ctx, item, video, audio, output); err != nil {
		return err
	}
	item.Output = output
	return nil
}

// restore pulls a previously archived clip back into the output
// directory and probes its duration.
func (p *preparer) restore(ctx context.Context, item *media.Item) (string, bool) {
	if p.archive == nil {
		return "", false
	}
	output := filepath.Join(p.outDir, item.GUID+"_broadcast.mp4")
	if err := p.archive.GetClip(ctx, output, item.GUID); err != nil {
		p.debug("broadcast: no archived clip for %s: %v", item, err)
		return "", false
	}
	info, err := os.Stat(output)
	if err != nil || info.Size() == 0 {
		_ = os.Remove(output)
		return "", false
	}
	duration, err := p.ff.Duration(ctx, output)
	if err != nil || duration <= 0 {
		_ = os.Remove(output)
		return "", false
	}
	item.Duration = duration
	p.debug("broadcast: reusing archived clip for %s (%s)", item, duration)
	return output, true
}

// fetchAudio tries the main source, then the alternate one.
func (p *preparer) fetchAudio(ctx context.Context, item *media.Item, musicURL string) (string, error) {
	audio, err := p.resolver.FetchAudio(ctx, musicURL, item.GUID)
	if err == nil {
		return audio, nil
	}
	if item.AltURL == "" {
		return "", err
	}
	p.debug("broadcast: main source for %s failed (%v), trying alternate", item, err)
	audio, altErr := p.resolver.FetchAudio(ctx, item.AltURL, item.GUID)
	if altErr != nil {
		return "", fmt.Errorf("broadcast: both sources for %s failed: %w; alternate: %s", item, err, altErr)
	}
	return audio, nil
}

func (p *preparer) generate(ctx context.Context, artist string) string {
	if p.commentary == nil {
		return commentary.Fallback(artist)
	}
	text, err := p.commentary.Generate(ctx, artist)
	if err != nil {
		p.debug("broadcast: commentary for %s failed: %v", artist, err)
		return commentary.Fallback(artist)
	}
	return text
}
