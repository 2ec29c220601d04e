package pipeline

import (
	"sync"
	"time"

	"github.com/fazztv/fztv/pkg/media"
)

// Phase is the coarse stage the pipeline is in.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhasePreparing Phase = "preparing"
	PhaseStreaming Phase = "streaming"
	PhaseStopped   Phase = "stopped"
)

// Snapshot is a point in time copy of the pipeline state, safe to
// serve from a status endpoint while the pipeline keeps running.
type Snapshot struct {
	Phase     Phase     `json:"phase"`
	Current   string    `json:"current,omitempty"`
	Next      string    `json:"next,omitempty"`
	StartedAt time.Time `json:"started_at,omitempty"`
	Streamed  int       `json:"streamed"`
	Failures  int       `json:"failures"`
	LastError string    `json:"last_error,omitempty"`
}

// State tracks what the pipeline is doing. All methods are safe for
// concurrent use.
type State struct {
	mu       sync.Mutex
	snapshot Snapshot
}

func NewState() *State {
	return &State{snapshot: Snapshot{Phase: PhaseIdle}}
}

func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

func (s *State) setPhase(p Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Phase = p
}

func (s *State) setCurrent(item *media.Item, start time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Phase = PhaseStreaming
	s.snapshot.Current = item.DisplayTitle()
	s.snapshot.StartedAt = start
	s.snapshot.Streamed++
}

func (s *State) clearCurrent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Current = ""
	s.snapshot.StartedAt = time.Time{}
}

func (s *State) setNext(item *media.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item == nil {
		s.snapshot.Next = ""
		return
	}
	s.snapshot.Next = item.DisplayTitle()
	if s.snapshot.Current == "" {
		s.snapshot.Phase = PhasePreparing
	}
}

func (s *State) recordError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Failures++
	s.snapshot.LastError = err.Error()
}

func (s *State) resetFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Failures = 0
	s.snapshot.LastError = ""
}
