package registry

import (
	"context"
	"sync"

	"realtime-chat-be/internal/entity"
	"realtime-chat-be/internal/gateway"
	"realtime-chat-be/internal/pkg/logger"

	"github.com/google/uuid"
)

const shardCount = 16

type roomShard struct {
	mu    sync.RWMutex
	rooms map[uuid.UUID]map[uuid.UUID]entity.MemberRole
}

// Registry is the authority for room membership. It keeps a write-through
// in-memory cache over the durable store; all membership mutations go
// through here so cache and store never diverge for longer than one
// operation. Shards keep unrelated rooms from contending on one lock.
type Registry struct {
	gateway gateway.Gateway
	shards  [shardCount]*roomShard
	logger  logger.ILogger
}

func New(gw gateway.Gateway, log logger.ILogger) *Registry {
	r := &Registry{
		gateway: gw,
		logger:  log,
	}
	for i := range r.shards {
		r.shards[i] = &roomShard{rooms: make(map[uuid.UUID]map[uuid.UUID]entity.MemberRole)}
	}
	return r
}

func (r *Registry) shardFor(roomId uuid.UUID) *roomShard {
	return r.shards[int(roomId[0])%shardCount]
}

// MembersOf returns the user ids holding a membership in the room,
// loading the cache from the store on first access.
func (r *Registry) MembersOf(ctx context.Context, roomId uuid.UUID) ([]uuid.UUID, error) {
	shard := r.shardFor(roomId)

	shard.mu.RLock()
	members, ok := shard.rooms[roomId]
	if ok {
		ids := make([]uuid.UUID, 0, len(members))
		for id := range members {
			ids = append(ids, id)
		}
		shard.mu.RUnlock()
		return ids, nil
	}
	shard.mu.RUnlock()

	return r.warm(ctx, roomId)
}

// warm rebuilds one room's cache entry from the durable store.
func (r *Registry) warm(ctx context.Context, roomId uuid.UUID) ([]uuid.UUID, error) {
	memberships, err := r.gateway.MembersOf(ctx, roomId)
	if err != nil {
		return nil, err
	}

	members := make(map[uuid.UUID]entity.MemberRole, len(memberships))
	ids := make([]uuid.UUID, 0, len(memberships))
	for _, m := range memberships {
		members[m.UserId] = m.Role
		ids = append(ids, m.UserId)
	}

	shard := r.shardFor(roomId)
	shard.mu.Lock()
	shard.rooms[roomId] = members
	shard.mu.Unlock()

	return ids, nil
}

// EnsureMembership is the idempotent implicit join: sending to a room
// without a membership creates one with role=member. Repeated calls do
// not duplicate the membership row.
func (r *Registry) EnsureMembership(ctx context.Context, roomId, userId uuid.UUID) error {
	shard := r.shardFor(roomId)

	shard.mu.RLock()
	members, cached := shard.rooms[roomId]
	if cached {
		if _, ok := members[userId]; ok {
			shard.mu.RUnlock()
			return nil
		}
	}
	shard.mu.RUnlock()

	if !cached {
		if _, err := r.warm(ctx, roomId); err != nil {
			return err
		}
		shard.mu.RLock()
		_, isMember := shard.rooms[roomId][userId]
		shard.mu.RUnlock()
		if isMember {
			return nil
		}
	}

	if err := r.gateway.AddMember(ctx, roomId, userId, entity.MemberRoleMember); err != nil {
		return err
	}
	r.cachePut(roomId, userId, entity.MemberRoleMember)

	r.logger.Info("RoomRegistry", "Implicit membership created", map[string]interface{}{
		"room_id": roomId, "user_id": userId,
	})
	return nil
}

// AddMember writes through to the store and then updates the cache.
func (r *Registry) AddMember(ctx context.Context, roomId, userId uuid.UUID, role entity.MemberRole) error {
	if err := r.gateway.AddMember(ctx, roomId, userId, role); err != nil {
		return err
	}
	r.cachePut(roomId, userId, role)
	return nil
}

func (r *Registry) RemoveMember(ctx context.Context, roomId, userId uuid.UUID) error {
	if err := r.gateway.RemoveMember(ctx, roomId, userId); err != nil {
		return err
	}

	shard := r.shardFor(roomId)
	shard.mu.Lock()
	if members, ok := shard.rooms[roomId]; ok {
		delete(members, userId)
	}
	shard.mu.Unlock()
	return nil
}

func (r *Registry) IsMember(ctx context.Context, roomId, userId uuid.UUID) (bool, error) {
	shard := r.shardFor(roomId)

	shard.mu.RLock()
	members, cached := shard.rooms[roomId]
	if cached {
		_, ok := members[userId]
		shard.mu.RUnlock()
		return ok, nil
	}
	shard.mu.RUnlock()

	if _, err := r.warm(ctx, roomId); err != nil {
		return false, err
	}

	shard.mu.RLock()
	defer shard.mu.RUnlock()
	_, ok := shard.rooms[roomId][userId]
	return ok, nil
}

// RegisterRoom primes an empty cache entry for a freshly created room so
// the first send does not round-trip to the store.
func (r *Registry) RegisterRoom(room *entity.Room, creatorId uuid.UUID) {
	shard := r.shardFor(room.Id)
	shard.mu.Lock()
	shard.rooms[room.Id] = map[uuid.UUID]entity.MemberRole{
		creatorId: entity.MemberRoleAdmin,
	}
	shard.mu.Unlock()
}

func (r *Registry) cachePut(roomId, userId uuid.UUID, role entity.MemberRole) {
	shard := r.shardFor(roomId)
	shard.mu.Lock()
	if members, ok := shard.rooms[roomId]; ok {
		members[userId] = role
	} else {
		shard.rooms[roomId] = map[uuid.UUID]entity.MemberRole{userId: role}
	}
	shard.mu.Unlock()
}
