package gateway

import (
	"context"
	"errors"

	"realtime-chat-be/internal/entity"

	"github.com/google/uuid"
)

// Typed store errors. Callers branch on these with errors.Is; the gateway
// never signals failure through nil/false returns.
var (
	ErrDuplicateKey        = errors.New("duplicate key")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrNotFound            = errors.New("not found")
	ErrConstraintViolation = errors.New("constraint violation")
)

// Gateway is the single boundary to the relational store. No other
// component issues queries directly.
type Gateway interface {
	// Users
	CreateUser(ctx context.Context, username, password, email, fullName string) (*entity.User, error)
	Authenticate(ctx context.Context, username, password string) (*entity.User, error)
	UserById(ctx context.Context, id uuid.UUID) (*entity.User, error)
	UserByUsername(ctx context.Context, username string) (*entity.User, error)
	OnlineUsers(ctx context.Context) ([]*entity.User, error)
	SetPresence(ctx context.Context, userId uuid.UUID, online bool) error

	// Rooms and memberships
	CreateRoom(ctx context.Context, name, description string, creatorId uuid.UUID) (*entity.Room, error)
	RoomById(ctx context.Context, id uuid.UUID) (*entity.Room, error)
	Rooms(ctx context.Context) ([]*entity.Room, error)
	RoomsForUser(ctx context.Context, userId uuid.UUID) ([]*entity.Room, error)
	AddMember(ctx context.Context, roomId, userId uuid.UUID, role entity.MemberRole) error
	RemoveMember(ctx context.Context, roomId, userId uuid.UUID) error
	IsMember(ctx context.Context, roomId, userId uuid.UUID) (bool, error)
	MembersOf(ctx context.Context, roomId uuid.UUID) ([]*entity.Membership, error)

	// Messages (append-only; ids are monotonic)
	AppendMessage(ctx context.Context, message *entity.Message) (int64, error)
	RecentMessages(ctx context.Context, roomId uuid.UUID, limit int) ([]*entity.Message, error)
	PrivateConversation(ctx context.Context, userA, userB uuid.UUID, limit int) ([]*entity.Message, error)
	UnreadCount(ctx context.Context, receiverId uuid.UUID) (int64, error)
	MarkConversationRead(ctx context.Context, senderId, receiverId uuid.UUID) error
}
