package contract

import (
	"context"

	"realtime-chat-be/internal/entity"

	"github.com/google/uuid"
)

type MessageRepository interface {
	// Append persists the message and assigns its monotonic id.
	Append(ctx context.Context, message *entity.Message) error

	// RecentForRoom returns the last `limit` messages for the room in
	// ascending (sent_at, id) order. The query is stateless: repeating it
	// without new writes yields an identical sequence.
	RecentForRoom(ctx context.Context, roomId uuid.UUID, limit int) ([]*entity.Message, error)
}

type PrivateMessageRepository interface {
	Append(ctx context.Context, message *entity.Message) error

	// Conversation returns the last `limit` messages exchanged between the
	// two users, either direction, ascending (sent_at, id).
	Conversation(ctx context.Context, userA, userB uuid.UUID, limit int) ([]*entity.Message, error)

	CountUnread(ctx context.Context, receiverId uuid.UUID) (int64, error)
	CountUnreadFrom(ctx context.Context, receiverId, senderId uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, senderId, receiverId uuid.UUID) error
}
