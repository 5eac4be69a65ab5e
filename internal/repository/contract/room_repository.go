package contract

import (
	"context"

	"realtime-chat-be/internal/entity"
	"realtime-chat-be/internal/repository/specification"

	"github.com/google/uuid"
)

type RoomRepository interface {
	Create(ctx context.Context, room *entity.Room) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Room, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Room, error)

	// FindForUser returns the rooms the user holds a membership in,
	// ordered by room name.
	FindForUser(ctx context.Context, userId uuid.UUID) ([]*entity.Room, error)
}
