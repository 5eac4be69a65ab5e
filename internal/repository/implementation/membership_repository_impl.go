package implementation

import (
	"context"

	"realtime-chat-be/internal/entity"
	"realtime-chat-be/internal/mapper"
	"realtime-chat-be/internal/model"
	"realtime-chat-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MembershipRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.RoomMapper
}

func NewMembershipRepository(db *gorm.DB) contract.MembershipRepository {
	return &MembershipRepositoryImpl{
		db:     db,
		mapper: mapper.NewRoomMapper(),
	}
}

func (r *MembershipRepositoryImpl) Upsert(ctx context.Context, membership *entity.Membership) error {
	m := r.mapper.MemberToModel(membership)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "room_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role"}),
	}).Create(m).Error
}

func (r *MembershipRepositoryImpl) Delete(ctx context.Context, roomId, userId uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomId, userId).
		Delete(&model.RoomMember{}).Error
}

func (r *MembershipRepositoryImpl) Exists(ctx context.Context, roomId, userId uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.RoomMember{}).
		Where("room_id = ? AND user_id = ?", roomId, userId).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *MembershipRepositoryImpl) FindByRoom(ctx context.Context, roomId uuid.UUID) ([]*entity.Membership, error) {
	var members []*model.RoomMember
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomId).
		Order("joined_at ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return r.mapper.MembersToEntities(members), nil
}
