package model

import (
	"time"

	"github.com/google/uuid"
)

type RoomMember struct {
	RoomId   uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId   uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	Role     string    `gorm:"type:varchar(50);not null;default:'member'"`
	JoinedAt time.Time `gorm:"autoCreateTime"`
}

func (RoomMember) TableName() string {
	return "room_members"
}
