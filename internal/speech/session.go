package speech

import (
	"sync"

	"github.com/google/uuid"
)

// State is the recording state of a session.
type State int

const (
	StateIdle State = iota
	StateRecording
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	default:
		return "unknown"
	}
}

type session struct {
	state   State
	samples []float32
}

// Sessions holds the audio buffer of every open connection.
type Sessions struct {
	mu         sync.Mutex
	sessions   map[uuid.UUID]*session
	maxSamples int
}

// NewSessions creates a session map. maxSamples <= 0 means unbounded.
func NewSessions(maxSamples int) *Sessions {
	return &Sessions{
		sessions:   make(map[uuid.UUID]*session),
		maxSamples: maxSamples,
	}
}

// Open creates an idle session with an empty buffer and returns its ID.
func (s *Sessions) Open() uuid.UUID {
	id := uuid.New()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[id] = &session{state: StateIdle}
	return id
}

// Append adds samples to a session. A chunk that would overflow the buffer is
// dropped whole and ErrBufferFull is returned.
func (s *Sessions) Append(id uuid.UUID, samples []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	if s.maxSamples > 0 && len(sess.samples)+len(samples) > s.maxSamples {
		return ErrBufferFull
	}

	sess.samples = append(sess.samples, samples...)
	sess.state = StateRecording
	return nil
}

// State returns the state of a session.
func (s *Sessions) State(id uuid.UUID) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return 0, false
	}
	return sess.state, true
}

// Take removes a session and returns its buffered samples.
func (s *Sessions) Take(id uuid.UUID) ([]float32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	delete(s.sessions, id)
	return sess.samples, true
}

// Delete removes a session without returning its samples.
func (s *Sessions) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
}

// Len returns the number of open sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions)
}
