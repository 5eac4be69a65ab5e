package model

import (
	"time"

	"github.com/google/uuid"
)

// Message rows are append-only; Id is a monotonic bigserial so that
// (sent_at, id) gives a deterministic per-room ordering key.
type Message struct {
	Id       int64     `gorm:"primaryKey;autoIncrement"`
	SenderId uuid.UUID `gorm:"type:uuid;not null;index"`
	RoomId   uuid.UUID `gorm:"type:uuid;not null;index:idx_messages_room_sent,priority:1"`
	Body     string    `gorm:"type:text;not null"`
	Kind     string    `gorm:"type:varchar(20);not null;default:'text'"`
	SentAt   time.Time `gorm:"autoCreateTime;index:idx_messages_room_sent,priority:2"`
}

func (Message) TableName() string {
	return "messages"
}
