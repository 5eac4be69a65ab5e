package implementation

import (
	"context"

	"realtime-chat-be/internal/entity"
	"realtime-chat-be/internal/mapper"
	"realtime-chat-be/internal/model"
	"realtime-chat-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.MessageMapper
}

func NewMessageRepository(db *gorm.DB) contract.MessageRepository {
	return &MessageRepositoryImpl{
		db:     db,
		mapper: mapper.NewMessageMapper(),
	}
}

func (r *MessageRepositoryImpl) Append(ctx context.Context, message *entity.Message) error {
	m := r.mapper.ToModel(message)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	// Copy back only what the store assigns; the entity may carry
	// delivery-only fields the row does not.
	message.Id = m.Id
	message.SentAt = m.SentAt
	return nil
}

// RecentForRoom queries the newest rows first and reverses in memory so
// the caller always sees ascending (sent_at, id) order, the same way the
// client renders history.
func (r *MessageRepositoryImpl) RecentForRoom(ctx context.Context, roomId uuid.UUID, limit int) ([]*entity.Message, error) {
	var models []*model.Message
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomId).
		Order("sent_at DESC, id DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(models)-1; i < j; i, j = i+1, j-1 {
		models[i], models[j] = models[j], models[i]
	}

	return r.mapper.ToEntities(models), nil
}
