package entity

import (
	"time"

	"github.com/google/uuid"
)

type MessageKind string

const (
	MessageKindText  MessageKind = "text"
	MessageKindImage MessageKind = "image"
	MessageKindFile  MessageKind = "file"
)

// Message is immutable once persisted. Exactly one of RoomId and
// ReceiverId is set: RoomId for room messages, ReceiverId for private
// messages. The ordering key within a room is (SentAt, Id); Id is
// assigned monotonically by the store on append.
type Message struct {
	Id         int64
	SenderId   uuid.UUID
	RoomId     *uuid.UUID
	ReceiverId *uuid.UUID
	Body       string
	Kind       MessageKind
	SentAt     time.Time
	IsRead     bool

	// Denormalized for delivery frames; not persisted on the message row.
	SenderName string
}

func (m *Message) IsPrivate() bool {
	return m.ReceiverId != nil
}
