package rtmp

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// stopSignal is sent first so ffmpeg can finalize the stream before
// the grace period runs out.
var stopSignal = syscall.SIGTERM

type Config struct {
	// Bin is the ffmpeg binary used for playout.
	Bin string
	// URL is the rtmp ingest endpoint.
	URL string
	// GracePeriod is how long a stopped process gets to exit on its
	// own before being killed.
	GracePeriod time.Duration
	Debug       bool
}

// Broadcaster launches and supervises the playout process pushing a
// rendered clip to the rtmp endpoint.
type Broadcaster struct {
	cfg   Config
	debug func(format string, args ...interface{})
}

func New(cfg Config) (*Broadcaster, error) {
	if cfg.Bin == "" {
		cfg.Bin = "ffmpeg"
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("rtmp: missing url")
	}
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = 5 * time.Second
	}
	debug := func(format string, args ...interface{}) {}
	if cfg.Debug {
		debug = func(format string, args ...interface{}) {
			format = fmt.Sprintf("rtmp: %s\n", format)
			log.Printf(format, args...)
		}
	}
	return &Broadcaster{cfg: cfg, debug: debug}, nil
}

// Start launches playout of a single rendered clip. The clip is read
// at its native rate and remuxed without re-encoding.
func (b *Broadcaster) Start(ctx context.Context, source string) (*Process, error) {
	cmd := exec.CommandContext(ctx, b.cfg.Bin,
		"-re",
		"-i", source,
		"-c", "copy",
		"-f", "flv",
		b.cfg.URL,
	)
	b.debug("starting playout of %s", source)
	return b.start(cmd)
}

// StartCrossfade launches a handoff playout: the tail of current,
// seeked to offset, fades out while next fades in and plays through.
// Both clips go through one playout process so the endpoint sees a
// single uninterrupted stream across the swap.
func (b *Broadcaster) StartCrossfade(ctx context.Context, current, next string, offset, fade time.Duration) (*Process, error) {
	args := crossfadeArgs(current, next, offset, fade, b.cfg.URL)
	cmd := exec.CommandContext(ctx, b.cfg.Bin, args...)
	b.debug("starting crossfade playout %s -> %s", current, next)
	return b.start(cmd)
}

func crossfadeArgs(current, next string, offset, fade time.Duration, url string) []string {
	if fade <= 0 {
		fade = 3 * time.Second
	}
	if offset < 0 {
		offset = 0
	}
	return []string{
		"-ss", fmt.Sprintf("%.2f", offset.Seconds()),
		"-re",
		"-i", current,
		"-re",
		"-i", next,
		"-filter_complex", crossfadeFilter(fade),
		"-map", "[outv]",
		"-map", "[outa]",
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-c:a", "aac",
		"-f", "flv",
		url,
	}
}

// crossfadeFilter fades out the seeked tail, fades in the next clip
// and concatenates them into one stream.
func crossfadeFilter(fade time.Duration) string {
	return fmt.Sprintf(
		"[0:v]fade=t=out:st=0:d=%.2f[v0];"+
			"[0:a]afade=t=out:st=0:d=%.2f[a0];"+
			"[1:v]fade=t=in:st=0:d=%.2f[v1];"+
			"[1:a]afade=t=in:st=0:d=%.2f[a1];"+
			"[v0][a0][v1][a1]concat=n=2:v=1:a=1[outv][outa]",
		fade.Seconds(), fade.Seconds(), fade.Seconds(), fade.Seconds())
}

func (b *Broadcaster) start(cmd *exec.Cmd) (*Process, error) {
	p, err := startProcess(cmd, b.cfg.GracePeriod, b.debug)
	if err != nil {
		return nil, fmt.Errorf("rtmp: couldn't start playout: %w", err)
	}
	return p, nil
}

// Process is a running playout process. All methods are safe for
// concurrent use.
type Process struct {
	cmd   *exec.Cmd
	grace time.Duration
	debug func(format string, args ...interface{})

	done chan struct{}
	err  error

	mu       sync.Mutex
	combined bytes.Buffer
	stopping bool
}

func startProcess(cmd *exec.Cmd, grace time.Duration, debug func(string, ...interface{})) (*Process, error) {
	p := &Process{
		cmd:   cmd,
		grace: grace,
		debug: debug,
		done:  make(chan struct{}),
	}
	// Stdout and stderr share the locked buffer so failures keep
	// their full output for the error message.
	w := &lockedWriter{mu: &p.mu, buf: &p.combined}
	cmd.Stdout = w
	cmd.Stderr = w
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	go func() {
		defer close(p.done)
		p.err = cmd.Wait()
	}()
	return p, nil
}

type lockedWriter struct {
	mu  *sync.Mutex
	buf *bytes.Buffer
}

func (w *lockedWriter) Write(b []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(b)
}

// Running reports whether the process has not yet exited.
func (p *Process) Running() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// Done returns a channel closed when the process exits.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the process exits or the context is cancelled. A
// requested stop is not an error.
func (p *Process) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.done:
	}
	p.mu.Lock()
	stopping := p.stopping
	p.mu.Unlock()
	if stopping {
		return nil
	}
	if p.err != nil {
		return fmt.Errorf("rtmp: playout exited: %w: %s", p.err, p.Output())
	}
	return nil
}

// Stop asks the process to exit, waits out the grace period, and kills
// it if it is still running. Stop returns once the process is gone and
// is safe to call on an already finished process.
func (p *Process) Stop() error {
	p.mu.Lock()
	p.stopping = true
	p.mu.Unlock()
	select {
	case <-p.done:
		return nil
	default:
	}
	p.debug("stopping playout pid %d", p.cmd.Process.Pid)
	if err := p.cmd.Process.Signal(stopSignal); err != nil {
		// Exited between the check and the signal.
		<-p.done
		return nil
	}
	select {
	case <-p.done:
		return nil
	case <-time.After(p.grace):
	}
	p.debug("playout pid %d didn't exit, killing", p.cmd.Process.Pid)
	if err := p.cmd.Process.Kill(); err != nil {
		<-p.done
		return nil
	}
	<-p.done
	return nil
}

// Output returns the combined stdout and stderr collected so far.
func (p *Process) Output() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.combined.String()
}
