package implementation

import (
	"context"

	"realtime-chat-be/internal/entity"
	"realtime-chat-be/internal/mapper"
	"realtime-chat-be/internal/model"
	"realtime-chat-be/internal/repository/contract"
	"realtime-chat-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PrivateMessageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.MessageMapper
}

func NewPrivateMessageRepository(db *gorm.DB) contract.PrivateMessageRepository {
	return &PrivateMessageRepositoryImpl{
		db:     db,
		mapper: mapper.NewMessageMapper(),
	}
}

func (r *PrivateMessageRepositoryImpl) Append(ctx context.Context, message *entity.Message) error {
	m := r.mapper.PrivateToModel(message)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	message.Id = m.Id
	message.SentAt = m.SentAt
	return nil
}

func (r *PrivateMessageRepositoryImpl) Conversation(ctx context.Context, userA, userB uuid.UUID, limit int) ([]*entity.Message, error) {
	var models []*model.PrivateMessage
	query := specification.ByConversation{UserA: userA, UserB: userB}.Apply(r.db.WithContext(ctx))

	err := query.
		Order("sent_at DESC, id DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(models)-1; i < j; i, j = i+1, j-1 {
		models[i], models[j] = models[j], models[i]
	}

	return r.mapper.PrivateToEntities(models), nil
}

func (r *PrivateMessageRepositoryImpl) CountUnread(ctx context.Context, receiverId uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.PrivateMessage{}).
		Where("receiver_id = ? AND is_read = ?", receiverId, false).
		Count(&count).Error
	return count, err
}

func (r *PrivateMessageRepositoryImpl) CountUnreadFrom(ctx context.Context, receiverId, senderId uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.PrivateMessage{}).
		Where("receiver_id = ? AND sender_id = ? AND is_read = ?", receiverId, senderId, false).
		Count(&count).Error
	return count, err
}

func (r *PrivateMessageRepositoryImpl) MarkRead(ctx context.Context, senderId, receiverId uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.PrivateMessage{}).
		Where("sender_id = ? AND receiver_id = ?", senderId, receiverId).
		Update("is_read", true).Error
}
