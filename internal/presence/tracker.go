package presence

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"realtime-chat-be/internal/entity"
	"realtime-chat-be/internal/gateway"
	"realtime-chat-be/internal/pkg/logger"
	"realtime-chat-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

const shardCount = 16

type presenceEntry struct {
	online   bool
	lastSeen time.Time
}

type presenceShard struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*presenceEntry
}

// Tracker holds the online/offline state of users. Changes are
// push-driven by session connect/disconnect events; there is no polling
// loop. Every transition is written through to the store and announced
// on the in-process event bus.
type Tracker struct {
	gateway   gateway.Gateway
	publisher message.Publisher
	shards    [shardCount]*presenceShard
	logger    logger.ILogger
}

func NewTracker(gw gateway.Gateway, publisher message.Publisher, log logger.ILogger) *Tracker {
	t := &Tracker{
		gateway:   gw,
		publisher: publisher,
		logger:    log,
	}
	for i := range t.shards {
		t.shards[i] = &presenceShard{users: make(map[uuid.UUID]*presenceEntry)}
	}
	return t
}

func (t *Tracker) shardFor(userId uuid.UUID) *presenceShard {
	return t.shards[int(userId[0])%shardCount]
}

func (t *Tracker) MarkOnline(ctx context.Context, userId uuid.UUID) error {
	return t.set(ctx, userId, true)
}

func (t *Tracker) MarkOffline(ctx context.Context, userId uuid.UUID) error {
	return t.set(ctx, userId, false)
}

func (t *Tracker) set(ctx context.Context, userId uuid.UUID, online bool) error {
	now := time.Now()

	shard := t.shardFor(userId)
	shard.mu.Lock()
	entry, ok := shard.users[userId]
	if !ok {
		entry = &presenceEntry{}
		shard.users[userId] = entry
	}
	changed := entry.online != online
	entry.online = online
	entry.lastSeen = now
	shard.mu.Unlock()

	if err := t.gateway.SetPresence(ctx, userId, online); err != nil {
		return err
	}

	if changed {
		t.announce(userId, online, now)
	}
	return nil
}

func (t *Tracker) announce(userId uuid.UUID, online bool, lastSeen time.Time) {
	payload, err := json.Marshal(events.PresenceChanged{
		UserId:   userId,
		Online:   online,
		LastSeen: lastSeen,
	})
	if err != nil {
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := t.publisher.Publish(events.TopicPresence, msg); err != nil {
		t.logger.Warn("PresenceTracker", "Failed to publish presence event", map[string]interface{}{
			"user_id": userId, "error": err.Error(),
		})
	}
}

func (t *Tracker) IsOnline(userId uuid.UUID) bool {
	shard := t.shardFor(userId)
	shard.mu.RLock()
	defer shard.mu.RUnlock()
	entry, ok := shard.users[userId]
	return ok && entry.online
}

func (t *Tracker) LastSeen(userId uuid.UUID) (time.Time, bool) {
	shard := t.shardFor(userId)
	shard.mu.RLock()
	defer shard.mu.RUnlock()
	entry, ok := shard.users[userId]
	if !ok {
		return time.Time{}, false
	}
	return entry.lastSeen, true
}

// OnlineUsers serves the user list for display. The store is the source
// of truth; the in-memory map is soft state rebuildable from it.
func (t *Tracker) OnlineUsers(ctx context.Context) ([]*entity.User, error) {
	return t.gateway.OnlineUsers(ctx)
}
