package model

import (
	"time"

	"github.com/google/uuid"
)

type PrivateMessage struct {
	Id         int64     `gorm:"primaryKey;autoIncrement"`
	SenderId   uuid.UUID `gorm:"type:uuid;not null;index:idx_private_pair,priority:1"`
	ReceiverId uuid.UUID `gorm:"type:uuid;not null;index:idx_private_pair,priority:2"`
	Body       string    `gorm:"type:text;not null"`
	Kind       string    `gorm:"type:varchar(20);not null;default:'text'"`
	IsRead     bool      `gorm:"default:false"`
	SentAt     time.Time `gorm:"autoCreateTime"`
}

func (PrivateMessage) TableName() string {
	return "private_messages"
}
