package session

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// State is the lifecycle phase of one connected session.
type State int32

const (
	StateConnecting State = iota
	StateAuthenticated
	StateActive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticated:
		return "authenticated"
	case StateActive:
		return "active"
	default:
		return "closed"
	}
}

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrEmptyMessage    = errors.New("empty message")
	ErrInvalidState    = errors.New("invalid session state")
	ErrSessionClosed   = errors.New("session closed")
)

// outboundCapacity bounds each session's delivery queue. A slow consumer
// loses its oldest undelivered frames instead of stalling the broker.
const outboundCapacity = 256

// Session is the ephemeral server-side representation of one live
// connection. It is created on connect and destroyed on disconnect,
// never persisted.
type Session struct {
	Id       uuid.UUID
	UserId   uuid.UUID
	Username string
	FullName string

	state atomic.Int32

	mu    sync.Mutex
	rooms map[uuid.UUID]struct{}

	out     chan []byte
	done    chan struct{}
	closeMu sync.Once

	dropped atomic.Int64
}

func newSession() *Session {
	s := &Session{
		Id:    uuid.New(),
		rooms: make(map[uuid.UUID]struct{}),
		out:   make(chan []byte, outboundCapacity),
		done:  make(chan struct{}),
	}
	s.state.Store(int32(StateConnecting))
	return s
}

func (s *Session) State() State {
	return State(s.state.Load())
}

// Outbound is consumed by the transport write loop.
func (s *Session) Outbound() <-chan []byte {
	return s.out
}

// Done is closed when the session reaches Closed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Dropped reports how many frames were discarded due to queue overflow.
func (s *Session) Dropped() int64 {
	return s.dropped.Load()
}

func (s *Session) subscribe(roomId uuid.UUID) {
	s.mu.Lock()
	s.rooms[roomId] = struct{}{}
	s.mu.Unlock()
}

func (s *Session) unsubscribe(roomId uuid.UUID) {
	s.mu.Lock()
	delete(s.rooms, roomId)
	s.mu.Unlock()
}

func (s *Session) subscribed(roomId uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.rooms[roomId]
	return ok
}

// enqueue never blocks the caller. On overflow the oldest queued frame
// is dropped so fan-out to other recipients is never stalled by this
// session.
func (s *Session) enqueue(data []byte) bool {
	if s.State() == StateClosed {
		return false
	}
	select {
	case s.out <- data:
		return true
	default:
	}

	// Queue full: evict the head and retry once.
	select {
	case <-s.out:
		s.dropped.Add(1)
	default:
	}
	select {
	case s.out <- data:
		return true
	default:
		return false
	}
}

// close transitions to Closed exactly once and discards whatever is
// still queued. In-flight publishes already committed to the store are
// unaffected; only delivery to this session is abandoned.
func (s *Session) close() {
	s.closeMu.Do(func() {
		s.state.Store(int32(StateClosed))
		close(s.done)
	})
}
