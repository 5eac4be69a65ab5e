package contract

import (
	"context"
	"time"

	"realtime-chat-be/internal/entity"
	"realtime-chat-be/internal/repository/specification"

	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	Update(ctx context.Context, user *entity.User) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	UpdatePresence(ctx context.Context, id uuid.UUID, online bool, lastSeen time.Time) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
}
