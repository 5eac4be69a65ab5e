package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByUsername filters users by their unique username.
type ByUsername struct {
	Username string
}

func (s ByUsername) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("username = ?", s.Username)
}

// ByEmail filters users by email.
type ByEmail struct {
	Email string
}

func (s ByEmail) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("email = ?", s.Email)
}

// ByRoom scopes a query to a single room.
type ByRoom struct {
	RoomId uuid.UUID
}

func (s ByRoom) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("room_id = ?", s.RoomId)
}

// ByRoomName filters rooms by their unique name.
type ByRoomName struct {
	Name string
}

func (s ByRoomName) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("name = ?", s.Name)
}

// OnlineOnly keeps users currently flagged online.
type OnlineOnly struct{}

func (s OnlineOnly) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_online = ?", true)
}

// ByConversation matches private messages exchanged between two users,
// in either direction.
type ByConversation struct {
	UserA uuid.UUID
	UserB uuid.UUID
}

func (s ByConversation) Apply(db *gorm.DB) *gorm.DB {
	return db.Where(
		"(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
		s.UserA, s.UserB, s.UserB, s.UserA,
	)
}
