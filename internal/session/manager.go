package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"realtime-chat-be/internal/entity"
	"realtime-chat-be/internal/pkg/logger"
	"realtime-chat-be/internal/presence"
	"realtime-chat-be/internal/registry"

	"github.com/google/uuid"
)

// Publisher is the broker seam. Bound after construction because the
// broker delivers through the manager.
type Publisher interface {
	Publish(ctx context.Context, msg *entity.Message) (*entity.Message, error)
}

// Manager owns every live session: the authentication handshake, the
// subscription set, the outbound queue and disconnect cleanup. It is the
// only component that touches Session internals.
type Manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	byUser   map[uuid.UUID]map[uuid.UUID]*Session

	publisher Publisher
	presence  *presence.Tracker
	registry  *registry.Registry
	logger    logger.ILogger
}

func NewManager(reg *registry.Registry, tracker *presence.Tracker, log logger.ILogger) *Manager {
	return &Manager{
		sessions: make(map[uuid.UUID]*Session),
		byUser:   make(map[uuid.UUID]map[uuid.UUID]*Session),
		presence: tracker,
		registry: reg,
		logger:   log,
	}
}

// BindPublisher wires the broker in. Called once during bootstrap.
func (m *Manager) BindPublisher(p Publisher) {
	m.publisher = p
}

// Connect creates a session in Connecting state. The caller must follow
// up with Authenticate or Close.
func (m *Manager) Connect() *Session {
	s := newSession()
	m.mu.Lock()
	m.sessions[s.Id] = s
	m.mu.Unlock()
	return s
}

// Authenticate moves a Connecting session to Authenticated and marks the
// user online on their first live session.
func (m *Manager) Authenticate(ctx context.Context, sessionId uuid.UUID, user *entity.User) error {
	s, err := m.lookup(sessionId)
	if err != nil {
		return err
	}
	if s.State() != StateConnecting {
		return fmt.Errorf("%w: %s", ErrInvalidState, s.State())
	}

	s.UserId = user.Id
	s.Username = user.Username
	s.FullName = user.FullName
	s.state.Store(int32(StateAuthenticated))

	m.mu.Lock()
	userSessions, ok := m.byUser[user.Id]
	if !ok {
		userSessions = make(map[uuid.UUID]*Session)
		m.byUser[user.Id] = userSessions
	}
	userSessions[s.Id] = s
	first := len(userSessions) == 1
	m.mu.Unlock()

	if first {
		if err := m.presence.MarkOnline(ctx, user.Id); err != nil {
			m.logger.Warn("SessionManager", "Failed to mark user online", map[string]interface{}{
				"user_id": user.Id, "error": err.Error(),
			})
		}
	}

	m.logger.Info("SessionManager", "Session authenticated", map[string]interface{}{
		"session_id": s.Id, "user_id": user.Id,
	})
	return nil
}

// JoinRoom subscribes the session and creates the durable membership if
// absent. The first join moves the session to Active.
func (m *Manager) JoinRoom(ctx context.Context, sessionId, roomId uuid.UUID) error {
	s, err := m.lookup(sessionId)
	if err != nil {
		return err
	}
	switch s.State() {
	case StateAuthenticated, StateActive:
	default:
		return fmt.Errorf("%w: %s", ErrInvalidState, s.State())
	}

	if err := m.registry.EnsureMembership(ctx, roomId, s.UserId); err != nil {
		return err
	}

	s.subscribe(roomId)
	s.state.CompareAndSwap(int32(StateAuthenticated), int32(StateActive))
	return nil
}

// LeaveRoom drops the live subscription only. Durable membership is
// removed through the registry by an explicit administrative call, not
// by disconnecting a session.
func (m *Manager) LeaveRoom(sessionId, roomId uuid.UUID) error {
	s, err := m.lookup(sessionId)
	if err != nil {
		return err
	}
	s.unsubscribe(roomId)
	return nil
}

// Send validates and publishes one message from this session. Exactly
// one of roomId and receiverId must be set.
func (m *Manager) Send(ctx context.Context, sessionId uuid.UUID, roomId, receiverId *uuid.UUID, text string, kind entity.MessageKind) (*entity.Message, error) {
	s, err := m.lookup(sessionId)
	if err != nil {
		return nil, err
	}
	switch s.State() {
	case StateAuthenticated, StateActive:
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, s.State())
	}

	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}
	if (roomId == nil) == (receiverId == nil) {
		return nil, fmt.Errorf("%w: need exactly one of room or receiver", ErrInvalidState)
	}
	if kind == "" {
		kind = entity.MessageKindText
	}

	msg := &entity.Message{
		SenderId:   s.UserId,
		SenderName: s.FullName,
		RoomId:     roomId,
		ReceiverId: receiverId,
		Body:       text,
		Kind:       kind,
	}

	published, err := m.publisher.Publish(ctx, msg)
	if err != nil {
		return nil, err
	}

	// Sending to a room implies membership, which implies Active.
	if roomId != nil {
		s.subscribe(*roomId)
		s.state.CompareAndSwap(int32(StateAuthenticated), int32(StateActive))
	}
	return published, nil
}

// Deliver enqueues a frame for one session. It never blocks the caller;
// overflow drops the session's oldest undelivered frame.
func (m *Manager) Deliver(sessionId uuid.UUID, data []byte) {
	m.mu.RLock()
	s, ok := m.sessions[sessionId]
	m.mu.RUnlock()
	if !ok {
		return
	}
	if !s.enqueue(data) {
		m.logger.Warn("SessionManager", "Dropped frame for session", map[string]interface{}{
			"session_id": sessionId, "dropped_total": s.Dropped(),
		})
	}
}

// Broadcast enqueues a frame for every Active session.
func (m *Manager) Broadcast(data []byte) {
	m.mu.RLock()
	targets := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		if s.State() == StateActive || s.State() == StateAuthenticated {
			targets = append(targets, s)
		}
	}
	m.mu.RUnlock()

	for _, s := range targets {
		s.enqueue(data)
	}
}

// ActiveSessionsOf resolves a user to their currently live sessions.
// Used by the broker for fan-out target resolution.
func (m *Manager) ActiveSessionsOf(userId uuid.UUID) []uuid.UUID {
	m.mu.RLock()
	defer m.mu.RUnlock()

	userSessions, ok := m.byUser[userId]
	if !ok {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(userSessions))
	for id, s := range userSessions {
		if st := s.State(); st == StateActive || st == StateAuthenticated {
			ids = append(ids, id)
		}
	}
	return ids
}

// Close tears the session down: presence clears on the user's last
// session, queued-but-undelivered frames are discarded, durable room
// membership is left untouched.
func (m *Manager) Close(ctx context.Context, sessionId uuid.UUID) {
	m.mu.Lock()
	s, ok := m.sessions[sessionId]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.sessions, sessionId)

	last := false
	if s.UserId != uuid.Nil {
		if userSessions, ok := m.byUser[s.UserId]; ok {
			delete(userSessions, sessionId)
			if len(userSessions) == 0 {
				delete(m.byUser, s.UserId)
				last = true
			}
		}
	}
	m.mu.Unlock()

	s.close()

	if last {
		if err := m.presence.MarkOffline(ctx, s.UserId); err != nil {
			m.logger.Warn("SessionManager", "Failed to mark user offline", map[string]interface{}{
				"user_id": s.UserId, "error": err.Error(),
			})
		}
	}

	m.logger.Info("SessionManager", "Session closed", map[string]interface{}{
		"session_id": sessionId, "dropped_frames": s.Dropped(),
	})
}

// Session returns the live session, if any.
func (m *Manager) Session(sessionId uuid.UUID) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionId]
	return s, ok
}

func (m *Manager) lookup(sessionId uuid.UUID) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionId]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}
