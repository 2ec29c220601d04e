package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/fazztv/fztv/pkg/media"
)

// Source yields the next item to prepare. The artist of the item
// currently on air is passed in so sources can avoid playing the same
// artist twice in a row.
type Source interface {
	Next(ctx context.Context, lastArtist string) (*media.Item, error)
}

// Preparer takes an item from metadata to a rendered clip on disk. On
// success the item's Output and Duration are filled in.
type Preparer interface {
	Prepare(ctx context.Context, item *media.Item) error
}

// Handle is a running playout process.
type Handle interface {
	Running() bool
	Done() <-chan struct{}
	Wait(ctx context.Context) error
	Stop() error
}

// Streamer starts playout of a rendered clip.
type Streamer interface {
	Start(ctx context.Context, source string) (Handle, error)
}

// CrossfadeStreamer starts a playout that replays the tail of the clip
// leaving the air blended into the next one, so the endpoint sees one
// uninterrupted stream across the handoff. Streamers that support it
// are used at cutover when Config.Crossfade is set.
type CrossfadeStreamer interface {
	Streamer
	StartCrossfade(ctx context.Context, current, next string, offset, fade time.Duration) (Handle, error)
}

// Hooks are optional callbacks fired as items move through the
// pipeline. Nil hooks are skipped.
type Hooks struct {
	// Started fires when an item goes on air.
	Started func(item *media.Item)
	// Finished fires when an item leaves the air, with how long it
	// streamed and the playout error if there was one.
	Finished func(item *media.Item, streamed time.Duration, err error)
}

type Config struct {
	// FadeLength is the tail fade baked into rendered clips.
	FadeLength time.Duration
	// CutoverMargin is how long before the fade the swap to the next
	// item is attempted, so the handoff lands inside the fade.
	CutoverMargin time.Duration
	// WaitTimeout bounds how long the pipeline waits for the next
	// item to become ready before giving up on the slot.
	WaitTimeout time.Duration
	// PrepareTimeout bounds a single item preparation.
	PrepareTimeout time.Duration
	// RetryDelay is the pause after a failure before trying again.
	RetryDelay time.Duration
	// MaxFailures is how many consecutive failures are tolerated
	// before the run terminates.
	MaxFailures int
	// MinClipBytes is the minimum size of a rendered clip. Smaller
	// outputs are treated as failed renders.
	MinClipBytes int64
	// KeepClips disables deleting a clip after it streamed.
	KeepClips bool
	// Crossfade blends handoffs instead of stopping one playout and
	// starting the next. Requires a streamer that supports it.
	Crossfade bool
	Debug     bool
}

// Pipeline keeps one item on air while the next one is prepared in the
// background, swapping them shortly before the current one runs out.
type Pipeline struct {
	cfg      Config
	source   Source
	preparer Preparer
	stream   Streamer
	hooks    Hooks
	state    *State
	debug    func(format string, args ...interface{})
}

func New(cfg Config, source Source, preparer Preparer, stream Streamer, hooks Hooks) (*Pipeline, error) {
	if source == nil || preparer == nil || stream == nil {
		return nil, fmt.Errorf("pipeline: missing source, preparer or streamer")
	}
	if cfg.FadeLength < 0 || cfg.CutoverMargin < 0 {
		return nil, fmt.Errorf("pipeline: negative durations")
	}
	if cfg.CutoverMargin == 0 {
		cfg.CutoverMargin = 5 * time.Second
	}
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = 3 * time.Minute
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 30 * time.Second
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 10
	}
	debug := func(format string, args ...interface{}) {}
	if cfg.Debug {
		debug = func(format string, args ...interface{}) {
			format = fmt.Sprintf("pipeline: %s\n", format)
			log.Printf(format, args...)
		}
	}
	return &Pipeline{
		cfg:      cfg,
		source:   source,
		preparer: preparer,
		stream:   stream,
		hooks:    hooks,
		state:    NewState(),
		debug:    debug,
	}, nil
}

// State returns the live pipeline state.
func (p *Pipeline) State() *State {
	return p.state
}

// Run drives the broadcast until the context is cancelled or too many
// consecutive failures pile up.
func (p *Pipeline) Run(ctx context.Context) error {
	log.Println("pipeline: started")
	defer log.Println("pipeline: ended")
	defer p.state.setPhase(PhaseStopped)

	readyC := make(chan *media.Item, 1)
	prepErrC := make(chan error, 1)

	var current *media.Item
	var handle Handle
	var streamStart time.Time
	preparing := false
	failures := 0
	lastArtist := ""

	defer func() {
		if handle != nil && handle.Running() {
			_ = handle.Stop()
		}
	}()

	fail := func(err error) error {
		failures++
		p.state.recordError(err)
		p.debug("failure %d/%d: %v", failures, p.cfg.MaxFailures, err)
		if failures >= p.cfg.MaxFailures {
			return fmt.Errorf("pipeline: %d consecutive failures: %w", failures, err)
		}
		return nil
	}

	finish := func(err error) {
		streamed := time.Since(streamStart)
		if p.hooks.Finished != nil {
			p.hooks.Finished(current, streamed, err)
		}
		p.state.clearCurrent()
	}

	// succeed resets the failure counter. Spawning a playout is not
	// success; only a clip that actually streamed to its end counts,
	// otherwise a clip that crashes right after starting would restart
	// forever without ever tripping the cap.
	succeed := func() {
		failures = 0
		p.state.resetFailures()
	}

	promote := func(item, old *media.Item) error {
		start := func() (Handle, time.Duration, error) {
			h, err := p.stream.Start(ctx, item.Output)
			return h, 0, err
		}
		if old != nil && p.cfg.Crossfade {
			if cf, ok := p.stream.(CrossfadeStreamer); ok {
				offset := old.Duration - p.cfg.FadeLength
				if offset < 0 {
					offset = 0
				}
				tail := old.Duration - offset
				start = func() (Handle, time.Duration, error) {
					h, err := cf.StartCrossfade(ctx, old.Output, item.Output, offset, p.cfg.FadeLength)
					return h, tail, err
				}
			}
		}
		h, tail, err := start()
		if err != nil {
			return fmt.Errorf("pipeline: couldn't start playout of %s: %w", item, err)
		}
		// A crossfade replays the old tail first, the clip itself goes
		// on air that much later.
		current, handle, streamStart = item, h, time.Now().Add(tail)
		lastArtist = item.Artist
		p.state.setCurrent(item, streamStart)
		p.state.setNext(nil)
		if p.hooks.Started != nil {
			p.hooks.Started(item)
		}
		p.debug("on air: %s (%s)", item, item.Duration)
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// Keep the next lane busy.
		if !preparing && len(readyC) == 0 {
			item, err := p.source.Next(ctx, lastArtist)
			if err != nil {
				if err := fail(fmt.Errorf("pipeline: couldn't pick next item: %w", err)); err != nil {
					return err
				}
				if !sleepCtx(ctx, p.cfg.RetryDelay) {
					return ctx.Err()
				}
				continue
			}
			preparing = true
			p.state.setNext(item)
			go p.prepare(ctx, item, readyC, prepErrC)
		}

		if current == nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case err := <-prepErrC:
				preparing = false
				p.state.setNext(nil)
				if err := fail(err); err != nil {
					return err
				}
				if !sleepCtx(ctx, p.cfg.RetryDelay) {
					return ctx.Err()
				}
			case item := <-readyC:
				preparing = false
				if err := promote(item, nil); err != nil {
					if err := fail(err); err != nil {
						return err
					}
				}
			case <-time.After(p.cfg.WaitTimeout):
				if err := fail(fmt.Errorf("pipeline: timed out waiting for an item")); err != nil {
					return err
				}
			}
			continue
		}

		// Current item is on air. Swap shortly before its tail fade
		// so the handoff lands inside it.
		cut := current.Duration - p.cfg.FadeLength - p.cfg.CutoverMargin
		if cut < 0 {
			cut = 0
		}
		cutC := time.After(time.Until(streamStart.Add(cut)))

		select {
		case <-ctx.Done():
			_ = handle.Stop()
			finish(nil)
			return ctx.Err()
		case err := <-prepErrC:
			preparing = false
			p.state.setNext(nil)
			if err := fail(err); err != nil {
				_ = handle.Stop()
				finish(nil)
				return err
			}
		case <-handle.Done():
			// The playout ended before the planned cutover.
			err := handle.Wait(ctx)
			finish(err)
			if err != nil {
				if ferr := fail(err); ferr != nil {
					return ferr
				}
				if !current.IsRendered() {
					// The clip is gone or empty, a restart would just
					// die again. Give the slot up and move on.
					p.debug("clip for %s is gone, not restarting", current)
					current, handle = nil, nil
					continue
				}
				p.debug("playout of %s died, restarting", current)
				if err := promote(current, nil); err != nil {
					if err := fail(err); err != nil {
						return err
					}
					current, handle = nil, nil
				}
				continue
			}
			succeed()
			p.removeClip(current)
			current, handle = nil, nil
		case <-cutC:
			next := p.awaitNext(ctx, readyC, prepErrC, handle, &preparing)
			if next == nil {
				continue
			}
			_ = handle.Stop()
			finish(nil)
			succeed()
			old := current
			if err := promote(next, old); err != nil {
				if err := fail(err); err != nil {
					return err
				}
				current, handle = nil, nil
				continue
			}
			// A crossfading playout keeps its open handle on the old
			// clip, removing the name doesn't disturb it.
			p.removeClip(old)
		}
	}
}

// awaitNext blocks until the item being prepared is ready, bounded by
// the wait timeout. It returns nil when the slot should be skipped.
func (p *Pipeline) awaitNext(ctx context.Context, readyC chan *media.Item, prepErrC chan error, handle Handle, preparing *bool) *media.Item {
	select {
	case item := <-readyC:
		*preparing = false
		return item
	default:
	}
	if !*preparing {
		return nil
	}
	p.debug("waiting up to %s for the next item", p.cfg.WaitTimeout)
	select {
	case <-ctx.Done():
		return nil
	case item := <-readyC:
		*preparing = false
		return item
	case err := <-prepErrC:
		*preparing = false
		p.state.setNext(nil)
		p.state.recordError(err)
		return nil
	case <-handle.Done():
		// Current playout ran out while waiting, let the main loop
		// handle it.
		return nil
	case <-time.After(p.cfg.WaitTimeout):
		p.debug("next item not ready in time, letting playout run out")
		return nil
	}
}

// prepare renders one item in the background and reports the result.
func (p *Pipeline) prepare(ctx context.Context, item *media.Item, readyC chan *media.Item, errC chan error) {
	if p.cfg.PrepareTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.PrepareTimeout)
		defer cancel()
	}
	start := time.Now()
	if err := p.preparer.Prepare(ctx, item); err != nil {
		errC <- fmt.Errorf("pipeline: couldn't prepare %s: %w", item, err)
		return
	}
	if !item.IsRendered() {
		errC <- fmt.Errorf("pipeline: prepare of %s produced no clip", item)
		return
	}
	if p.cfg.MinClipBytes > 0 {
		info, err := os.Stat(item.Output)
		if err != nil || info.Size() < p.cfg.MinClipBytes {
			errC <- fmt.Errorf("pipeline: clip for %s is too small", item)
			return
		}
	}
	if item.Duration <= 0 {
		errC <- fmt.Errorf("pipeline: prepare of %s left no duration", item)
		return
	}
	p.debug("prepared %s in %s", item, time.Since(start))
	readyC <- item
}

// removeClip deletes a streamed clip so rendered artifacts don't pile
// up on disk.
func (p *Pipeline) removeClip(item *media.Item) {
	if p.cfg.KeepClips || item == nil || item.Output == "" {
		return
	}
	if err := os.Remove(item.Output); err != nil {
		p.debug("couldn't remove clip %s: %v", item.Output, err)
		return
	}
	p.debug("removed clip %s", item.Output)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
