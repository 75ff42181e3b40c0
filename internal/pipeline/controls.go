package pipeline

import (
	"strings"
	"sync"

	"github.com/rs/xid"
)

// State is the pipeline lifecycle state.
type State int32

const (
	Idle State = iota
	Recording
	Draining
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Draining:
		return "draining"
	}
	return "unknown"
}

// Controls are the live settings read by the capture loop at the start of
// every chunk. They may be changed at any time from another goroutine.
type Controls struct {
	mu            sync.RWMutex
	chunkDuration string
	device        string
}

// NewControls returns Controls with the given initial values.
func NewControls(chunkDuration, device string) *Controls {
	return &Controls{chunkDuration: chunkDuration, device: device}
}

func (c *Controls) ChunkDuration() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.chunkDuration
}

func (c *Controls) SetChunkDuration(v string) {
	c.mu.Lock()
	c.chunkDuration = v
	c.mu.Unlock()
}

func (c *Controls) Device() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.device
}

func (c *Controls) SetDevice(v string) {
	c.mu.Lock()
	c.device = v
	c.mu.Unlock()
}

// Session holds the transcript of one Start..Stop run.
type Session struct {
	ID xid.ID

	mu       sync.Mutex
	lines    []string
	seq      int
	failures int
}

func newSession() *Session {
	return &Session{ID: xid.New()}
}

func (s *Session) nextSeq() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

func (s *Session) append(line string) {
	s.mu.Lock()
	s.lines = append(s.lines, line)
	s.mu.Unlock()
}

func (s *Session) failed() {
	s.mu.Lock()
	s.failures++
	s.mu.Unlock()
}

// Text returns the accumulated transcript, one fragment per line.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Join(s.lines, "\n")
}

// Fragments returns the number of appended fragments.
func (s *Session) Fragments() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// Failures returns the number of failures reported during the session.
func (s *Session) Failures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures
}
