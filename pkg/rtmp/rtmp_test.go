package rtmp

import (
	"context"
	"os/exec"
	"strings"
	"testing"
	"time"
)

func noDebug(string, ...interface{}) {}

func TestProcessWait(t *testing.T) {
	cmd := exec.Command("sh", "-c", "exit 0")
	p, err := startProcess(cmd, time.Second, noDebug)
	if err != nil {
		t.Fatalf("startProcess() err = %v; want nil", err)
	}
	if err := p.Wait(context.Background()); err != nil {
		t.Errorf("Wait() err = %v; want nil", err)
	}
	if p.Running() {
		t.Error("Running() = true after exit; want false")
	}
}

func TestProcessWaitFailure(t *testing.T) {
	cmd := exec.Command("sh", "-c", "echo boom >&2; exit 3")
	p, err := startProcess(cmd, time.Second, noDebug)
	if err != nil {
		t.Fatalf("startProcess() err = %v; want nil", err)
	}
	err = p.Wait(context.Background())
	if err == nil {
		t.Fatal("Wait() err = nil; want error")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("Wait() err = %v; want process output included", err)
	}
}

func TestProcessWaitContext(t *testing.T) {
	cmd := exec.Command("sleep", "10")
	p, err := startProcess(cmd, time.Second, noDebug)
	if err != nil {
		t.Fatalf("startProcess() err = %v; want nil", err)
	}
	defer func() { _ = p.Stop() }()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := p.Wait(ctx); err != context.DeadlineExceeded {
		t.Errorf("Wait() err = %v; want %v", err, context.DeadlineExceeded)
	}
}

func TestProcessStopGraceful(t *testing.T) {
	cmd := exec.Command("sleep", "30")
	p, err := startProcess(cmd, 5*time.Second, noDebug)
	if err != nil {
		t.Fatalf("startProcess() err = %v; want nil", err)
	}
	if !p.Running() {
		t.Fatal("Running() = false right after start; want true")
	}
	start := time.Now()
	if err := p.Stop(); err != nil {
		t.Errorf("Stop() err = %v; want nil", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Stop() took %s; want prompt termination", elapsed)
	}
	if p.Running() {
		t.Error("Running() = true after Stop(); want false")
	}
	// A requested stop is not a playout failure.
	if err := p.Wait(context.Background()); err != nil {
		t.Errorf("Wait() after Stop() err = %v; want nil", err)
	}
}

func TestProcessStopStubborn(t *testing.T) {
	cmd := exec.Command("sh", "-c", `trap "" TERM; while true; do sleep 0.1; done`)
	p, err := startProcess(cmd, 200*time.Millisecond, noDebug)
	if err != nil {
		t.Fatalf("startProcess() err = %v; want nil", err)
	}
	// Give the shell time to install the trap.
	time.Sleep(100 * time.Millisecond)
	start := time.Now()
	if err := p.Stop(); err != nil {
		t.Errorf("Stop() err = %v; want nil", err)
	}
	if p.Running() {
		t.Error("Running() = true after Stop(); want false")
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("Stop() took %s; want kill after grace period", elapsed)
	}
}

func TestProcessStopAlreadyExited(t *testing.T) {
	cmd := exec.Command("sh", "-c", "exit 0")
	p, err := startProcess(cmd, time.Second, noDebug)
	if err != nil {
		t.Fatalf("startProcess() err = %v; want nil", err)
	}
	<-p.Done()
	if err := p.Stop(); err != nil {
		t.Errorf("Stop() on exited process err = %v; want nil", err)
	}
	if err := p.Stop(); err != nil {
		t.Errorf("second Stop() err = %v; want nil", err)
	}
}

func TestProcessOutput(t *testing.T) {
	cmd := exec.Command("sh", "-c", "echo out; echo err >&2")
	p, err := startProcess(cmd, time.Second, noDebug)
	if err != nil {
		t.Fatalf("startProcess() err = %v; want nil", err)
	}
	<-p.Done()
	out := p.Output()
	if !strings.Contains(out, "out") || !strings.Contains(out, "err") {
		t.Errorf("Output() = %q; want both streams", out)
	}
}

func TestCrossfadeArgs(t *testing.T) {
	args := crossfadeArgs("cur.mp4", "next.mp4", 57*time.Second, 3*time.Second, "rtmp://example.com/live/key")
	joined := strings.Join(args, " ")

	if !strings.HasPrefix(joined, "-ss 57.00 -re -i cur.mp4 -re -i next.mp4") {
		t.Errorf("args start = %q; want seeked current then next", joined)
	}
	if args[len(args)-1] != "rtmp://example.com/live/key" {
		t.Errorf("last arg = %q; want the ingest url", args[len(args)-1])
	}
	filter := crossfadeFilter(3 * time.Second)
	for _, want := range []string{
		"[0:v]fade=t=out:st=0:d=3.00[v0]",
		"[0:a]afade=t=out:st=0:d=3.00[a0]",
		"[1:v]fade=t=in:st=0:d=3.00[v1]",
		"[1:a]afade=t=in:st=0:d=3.00[a1]",
		"concat=n=2:v=1:a=1[outv][outa]",
	} {
		if !strings.Contains(filter, want) {
			t.Errorf("filter missing %q in %q", want, filter)
		}
	}
}

func TestCrossfadeArgsClampsInputs(t *testing.T) {
	args := crossfadeArgs("a.mp4", "b.mp4", -time.Second, 0, "rtmp://example.com/live")
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-ss 0.00") {
		t.Errorf("negative offset not clamped: %q", joined)
	}
	if !strings.Contains(joined, "fade=t=out:st=0:d=3.00") {
		t.Errorf("zero fade not defaulted: %q", joined)
	}
}

func TestNew(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("New() without url err = nil; want error")
	}
	b, err := New(Config{URL: "rtmp://example.com/live/key"})
	if err != nil {
		t.Fatalf("New() err = %v; want nil", err)
	}
	if b.cfg.Bin != "ffmpeg" {
		t.Errorf("New() bin = %q; want ffmpeg", b.cfg.Bin)
	}
	if b.cfg.GracePeriod != 5*time.Second {
		t.Errorf("New() grace period = %s; want 5s", b.cfg.GracePeriod)
	}
}
