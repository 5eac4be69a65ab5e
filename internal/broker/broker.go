package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"realtime-chat-be/internal/dto"
	"realtime-chat-be/internal/entity"
	"realtime-chat-be/internal/gateway"
	"realtime-chat-be/internal/pkg/logger"
	"realtime-chat-be/internal/registry"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockShards = 32

// SessionDirectory is what the broker needs from the session manager:
// resolving a user to live sessions and enqueueing frames. Deliver must
// never block.
type SessionDirectory interface {
	ActiveSessionsOf(userId uuid.UUID) []uuid.UUID
	Deliver(sessionId uuid.UUID, data []byte)
}

// Broker routes a published message to every currently connected session
// entitled to see it. Delivery is at-most-once and push-based: offline
// members are skipped, not queued. The message itself is durable before
// any fan-out happens.
type Broker struct {
	gateway  gateway.Gateway
	registry *registry.Registry
	sessions SessionDirectory
	logger   logger.ILogger

	// rdb carries frames to sibling instances; nil in single-node setups.
	rdb *redis.Client

	// instanceId filters out our own cluster events so local sessions
	// never see a frame twice.
	instanceId string

	// Per-room (and per-receiver for private messages) locks serialize
	// append+fan-out so every recipient observes a room's messages in
	// persisted (sent_at, id) order. Sharded to keep unrelated rooms
	// from contending.
	locks [lockShards]sync.Mutex
}

func New(gw gateway.Gateway, reg *registry.Registry, sessions SessionDirectory, rdb *redis.Client, log logger.ILogger) *Broker {
	return &Broker{
		gateway:    gw,
		registry:   reg,
		sessions:   sessions,
		rdb:        rdb,
		instanceId: uuid.NewString(),
		logger:     log,
	}
}

func (b *Broker) lockFor(key uuid.UUID) *sync.Mutex {
	return &b.locks[int(key[0])%lockShards]
}

// Publish persists the message and fans it out. A persistence failure
// aborts delivery and surfaces to the sender only; other sessions are
// never affected.
func (b *Broker) Publish(ctx context.Context, msg *entity.Message) (*entity.Message, error) {
	if msg.IsPrivate() {
		return b.publishPrivate(ctx, msg)
	}
	if msg.RoomId == nil {
		return nil, fmt.Errorf("message has neither room nor receiver")
	}
	return b.publishRoom(ctx, msg)
}

func (b *Broker) publishRoom(ctx context.Context, msg *entity.Message) (*entity.Message, error) {
	roomId := *msg.RoomId

	// Sending implies membership (implicit join, idempotent).
	if err := b.registry.EnsureMembership(ctx, roomId, msg.SenderId); err != nil {
		return nil, err
	}

	lock := b.lockFor(roomId)
	lock.Lock()
	defer lock.Unlock()

	if _, err := b.gateway.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}

	members, err := b.registry.MembersOf(ctx, roomId)
	if err != nil {
		// The message is durable; recipients will see it on their next
		// history query even though this push failed.
		b.logger.Error("DeliveryBroker", "Fan-out target resolution failed", map[string]interface{}{
			"room_id": roomId, "error": err.Error(),
		})
		return msg, nil
	}

	data, err := json.Marshal(dto.NewDeliveredFrame(msg))
	if err != nil {
		return msg, nil
	}

	delivered := 0
	for _, userId := range members {
		for _, sessionId := range b.sessions.ActiveSessionsOf(userId) {
			b.sessions.Deliver(sessionId, data)
			delivered++
		}
	}

	b.publishCluster(clusterEvent{RoomId: msg.RoomId, Frame: data})

	b.logger.Debug("DeliveryBroker", "Room message fanned out", map[string]interface{}{
		"room_id": roomId, "message_id": msg.Id, "sessions": delivered,
	})
	return msg, nil
}

func (b *Broker) publishPrivate(ctx context.Context, msg *entity.Message) (*entity.Message, error) {
	receiverId := *msg.ReceiverId

	lock := b.lockFor(receiverId)
	lock.Lock()
	defer lock.Unlock()

	if _, err := b.gateway.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}

	data, err := json.Marshal(dto.NewDeliveredFrame(msg))
	if err != nil {
		return msg, nil
	}

	// Target is exactly the receiver. If they are offline the message
	// stays durable behind the unread counter; there is no push backlog
	// on reconnect.
	for _, sessionId := range b.sessions.ActiveSessionsOf(receiverId) {
		b.sessions.Deliver(sessionId, data)
	}

	b.publishCluster(clusterEvent{TargetUserId: msg.ReceiverId, Frame: data})
	return msg, nil
}

// clusterEvent is the envelope exchanged between instances over Redis.
type clusterEvent struct {
	Origin       string          `json:"origin"`
	RoomId       *uuid.UUID      `json:"room_id,omitempty"`
	TargetUserId *uuid.UUID      `json:"target_user_id,omitempty"`
	Frame        json.RawMessage `json:"frame"`
}

const clusterChannel = "cluster_events"

func (b *Broker) publishCluster(ev clusterEvent) {
	if b.rdb == nil {
		return
	}
	ev.Origin = b.instanceId
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := b.rdb.Publish(context.Background(), clusterChannel, payload).Err(); err != nil {
		b.logger.Warn("DeliveryBroker", "Cluster publish failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// RunClusterSubscriber consumes frames published by sibling instances
// and delivers them to local sessions. Returns when ctx is cancelled.
func (b *Broker) RunClusterSubscriber(ctx context.Context) {
	if b.rdb == nil {
		return
	}

	pubsub := b.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev clusterEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.logger.Warn("DeliveryBroker", "Bad cluster payload", map[string]interface{}{
					"error": err.Error(),
				})
				continue
			}
			if ev.Origin == b.instanceId {
				continue
			}
			b.deliverLocal(ctx, ev)
		}
	}
}

func (b *Broker) deliverLocal(ctx context.Context, ev clusterEvent) {
	if ev.TargetUserId != nil {
		for _, sessionId := range b.sessions.ActiveSessionsOf(*ev.TargetUserId) {
			b.sessions.Deliver(sessionId, ev.Frame)
		}
		return
	}
	if ev.RoomId == nil {
		return
	}
	members, err := b.registry.MembersOf(ctx, *ev.RoomId)
	if err != nil {
		return
	}
	for _, userId := range members {
		for _, sessionId := range b.sessions.ActiveSessionsOf(userId) {
			b.sessions.Deliver(sessionId, ev.Frame)
		}
	}
}
