package events

import (
	"time"

	"github.com/google/uuid"
)

// In-process (watermill) topic names.
const (
	TopicPresence = "presence.updates"
)

// PresenceChanged is the payload carried on TopicPresence.
type PresenceChanged struct {
	UserId   uuid.UUID `json:"user_id"`
	Online   bool      `json:"online"`
	LastSeen time.Time `json:"last_seen"`
}

// Durable (NATS) domain events consumed by out-of-process listeners.

func NewUserRegistered(userId uuid.UUID, username string) Event {
	return BaseEvent{
		Type: "USER_REGISTERED",
		Data: map[string]interface{}{
			"user_id":  userId.String(),
			"username": username,
		},
		OccurredAt: time.Now(),
	}
}

func NewUserLogin(userId uuid.UUID, username string) Event {
	return BaseEvent{
		Type: "USER_LOGIN",
		Data: map[string]interface{}{
			"user_id":  userId.String(),
			"username": username,
		},
		OccurredAt: time.Now(),
	}
}

func NewRoomCreated(roomId, creatorId uuid.UUID, name string) Event {
	return BaseEvent{
		Type: "ROOM_CREATED",
		Data: map[string]interface{}{
			"room_id":    roomId.String(),
			"creator_id": creatorId.String(),
			"name":       name,
		},
		OccurredAt: time.Now(),
	}
}
