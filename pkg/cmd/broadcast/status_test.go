package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/fazztv/fztv/pkg/pipeline"
)

func TestServeStatus(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	state := pipeline.NewState()
	addr, err := serveStatus(ctx, cancel, "127.0.0.1:0", state)
	if err != nil {
		t.Fatalf("serveStatus() err = %v; want nil", err)
	}

	client := &http.Client{Timeout: time.Second}
	resp, err := client.Get(fmt.Sprintf("http://%s/state", addr))
	if err != nil {
		t.Fatalf("GET /state err = %v; want nil", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /state status = %d; want 200", resp.StatusCode)
	}
	var snap pipeline.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("couldn't decode state: %v", err)
	}
	if snap.Phase != pipeline.PhaseIdle {
		t.Errorf("phase = %q; want idle", snap.Phase)
	}

	health, err := client.Get(fmt.Sprintf("http://%s/healthz", addr))
	if err != nil {
		t.Fatalf("GET /healthz err = %v; want nil", err)
	}
	defer health.Body.Close()
	if health.StatusCode != http.StatusOK {
		t.Errorf("GET /healthz status = %d; want 200", health.StatusCode)
	}
}

func TestServeStatusShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	state := pipeline.NewState()
	addr, err := serveStatus(ctx, cancel, "127.0.0.1:0", state)
	if err != nil {
		t.Fatalf("serveStatus() err = %v; want nil", err)
	}
	cancel()

	client := &http.Client{Timeout: 200 * time.Millisecond}
	deadline := time.After(2 * time.Second)
	for {
		if _, err := client.Get(fmt.Sprintf("http://%s/state", addr)); err != nil {
			return
		}
		select {
		case <-deadline:
			t.Fatal("server still up after context cancel")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestServeStatusBadAddr(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if _, err := serveStatus(ctx, cancel, "256.0.0.1:99999", pipeline.NewState()); err == nil {
		t.Fatal("serveStatus() err = nil; want error")
	}
}
