package contract

import (
	"context"

	"realtime-chat-be/internal/entity"

	"github.com/google/uuid"
)

type MembershipRepository interface {
	// Upsert inserts the membership or, when the (room, user) pair already
	// exists, updates its role. Safe to repeat.
	Upsert(ctx context.Context, membership *entity.Membership) error
	Delete(ctx context.Context, roomId, userId uuid.UUID) error
	Exists(ctx context.Context, roomId, userId uuid.UUID) (bool, error)
	FindByRoom(ctx context.Context, roomId uuid.UUID) ([]*entity.Membership, error)
}
