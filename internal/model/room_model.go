package model

import (
	"time"

	"github.com/google/uuid"
)

type ChatRoom struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"type:varchar(100);uniqueIndex;not null"`
	Description string    `gorm:"type:text"`
	CreatedBy   uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (ChatRoom) TableName() string {
	return "chat_rooms"
}
