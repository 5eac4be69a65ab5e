package entity

import (
	"time"

	"github.com/google/uuid"
)

type MemberRole string

const (
	MemberRoleAdmin  MemberRole = "admin"
	MemberRoleMember MemberRole = "member"
)

// Membership grants a user visibility and send rights in a room.
// A room's creator always holds an admin membership, created together
// with the room.
type Membership struct {
	RoomId   uuid.UUID
	UserId   uuid.UUID
	Role     MemberRole
	JoinedAt time.Time
}
