package implementation

import (
	"context"
	"errors"

	"realtime-chat-be/internal/entity"
	"realtime-chat-be/internal/mapper"
	"realtime-chat-be/internal/model"
	"realtime-chat-be/internal/repository/contract"
	"realtime-chat-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RoomRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.RoomMapper
}

func NewRoomRepository(db *gorm.DB) contract.RoomRepository {
	return &RoomRepositoryImpl{
		db:     db,
		mapper: mapper.NewRoomMapper(),
	}
}

func (r *RoomRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *RoomRepositoryImpl) Create(ctx context.Context, room *entity.Room) error {
	modelRoom := r.mapper.ToModel(room)
	if err := r.db.WithContext(ctx).Create(modelRoom).Error; err != nil {
		return err
	}
	*room = *r.mapper.ToEntity(modelRoom)
	return nil
}

func (r *RoomRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Room, error) {
	var modelRoom model.ChatRoom
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)

	if err := query.First(&modelRoom).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return r.mapper.ToEntity(&modelRoom), nil
}

func (r *RoomRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Room, error) {
	var modelRooms []*model.ChatRoom
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)

	if err := query.Order("name ASC").Find(&modelRooms).Error; err != nil {
		return nil, err
	}

	return r.mapper.ToEntities(modelRooms), nil
}

func (r *RoomRepositoryImpl) FindForUser(ctx context.Context, userId uuid.UUID) ([]*entity.Room, error) {
	var modelRooms []*model.ChatRoom
	err := r.db.WithContext(ctx).
		Joins("JOIN room_members rm ON rm.room_id = chat_rooms.id").
		Where("rm.user_id = ?", userId).
		Order("chat_rooms.name ASC").
		Find(&modelRooms).Error
	if err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(modelRooms), nil
}
