package mapper

import (
	"realtime-chat-be/internal/entity"
	"realtime-chat-be/internal/model"
)

type RoomMapper struct{}

func NewRoomMapper() *RoomMapper {
	return &RoomMapper{}
}

func (m *RoomMapper) ToEntity(r *model.ChatRoom) *entity.Room {
	if r == nil {
		return nil
	}
	return &entity.Room{
		Id:          r.Id,
		Name:        r.Name,
		Description: r.Description,
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt,
	}
}

func (m *RoomMapper) ToModel(r *entity.Room) *model.ChatRoom {
	if r == nil {
		return nil
	}
	return &model.ChatRoom{
		Id:          r.Id,
		Name:        r.Name,
		Description: r.Description,
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt,
	}
}

func (m *RoomMapper) ToEntities(models []*model.ChatRoom) []*entity.Room {
	entities := make([]*entity.Room, 0, len(models))
	for _, r := range models {
		entities = append(entities, m.ToEntity(r))
	}
	return entities
}

func (m *RoomMapper) MemberToEntity(rm *model.RoomMember) *entity.Membership {
	if rm == nil {
		return nil
	}
	return &entity.Membership{
		RoomId:   rm.RoomId,
		UserId:   rm.UserId,
		Role:     entity.MemberRole(rm.Role),
		JoinedAt: rm.JoinedAt,
	}
}

func (m *RoomMapper) MemberToModel(ms *entity.Membership) *model.RoomMember {
	if ms == nil {
		return nil
	}
	return &model.RoomMember{
		RoomId:   ms.RoomId,
		UserId:   ms.UserId,
		Role:     string(ms.Role),
		JoinedAt: ms.JoinedAt,
	}
}

func (m *RoomMapper) MembersToEntities(models []*model.RoomMember) []*entity.Membership {
	entities := make([]*entity.Membership, 0, len(models))
	for _, rm := range models {
		entities = append(entities, m.MemberToEntity(rm))
	}
	return entities
}
