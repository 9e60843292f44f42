package usecase

import (
	"sync"

	"github.com/alisacorporation/voice2clip/internal/domain"
	"github.com/alisacorporation/voice2clip/internal/ports"
)

// activeSession owns one cycle's capture stream and chunk buffer. The
// buffer is private to the cycle; overlapping cycles never share it.
type activeSession struct {
	audio    ports.AudioSession
	pumpDone chan struct{}

	mu      sync.Mutex
	state   domain.SessionState
	chunks  [][]int16
	readErr error
}

func newActiveSession(audio ports.AudioSession) *activeSession {
	return &activeSession{
		audio:    audio,
		pumpDone: make(chan struct{}),
		state:    domain.SessionStateRecording,
	}
}

func (s *activeSession) setState(state domain.SessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

func (s *activeSession) getState() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// append adds a chunk while recording; once the session leaves the
// recording state the buffer is frozen.
func (s *activeSession) append(chunk []int16) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != domain.SessionStateRecording {
		return false
	}
	s.chunks = append(s.chunks, chunk)
	return true
}

func (s *activeSession) setReadErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr == nil {
		s.readErr = err
	}
}

func (s *activeSession) snapshot() ([][]int16, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chunks, s.readErr
}
