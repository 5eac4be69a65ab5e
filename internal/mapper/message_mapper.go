package mapper

import (
	"realtime-chat-be/internal/entity"
	"realtime-chat-be/internal/model"
)

type MessageMapper struct{}

func NewMessageMapper() *MessageMapper {
	return &MessageMapper{}
}

func (m *MessageMapper) ToEntity(msg *model.Message) *entity.Message {
	if msg == nil {
		return nil
	}
	roomId := msg.RoomId
	return &entity.Message{
		Id:       msg.Id,
		SenderId: msg.SenderId,
		RoomId:   &roomId,
		Body:     msg.Body,
		Kind:     entity.MessageKind(msg.Kind),
		SentAt:   msg.SentAt,
	}
}

func (m *MessageMapper) ToModel(msg *entity.Message) *model.Message {
	if msg == nil || msg.RoomId == nil {
		return nil
	}
	return &model.Message{
		Id:       msg.Id,
		SenderId: msg.SenderId,
		RoomId:   *msg.RoomId,
		Body:     msg.Body,
		Kind:     string(msg.Kind),
		SentAt:   msg.SentAt,
	}
}

func (m *MessageMapper) ToEntities(models []*model.Message) []*entity.Message {
	entities := make([]*entity.Message, 0, len(models))
	for _, msg := range models {
		entities = append(entities, m.ToEntity(msg))
	}
	return entities
}

func (m *MessageMapper) PrivateToEntity(pm *model.PrivateMessage) *entity.Message {
	if pm == nil {
		return nil
	}
	receiverId := pm.ReceiverId
	return &entity.Message{
		Id:         pm.Id,
		SenderId:   pm.SenderId,
		ReceiverId: &receiverId,
		Body:       pm.Body,
		Kind:       entity.MessageKind(pm.Kind),
		IsRead:     pm.IsRead,
		SentAt:     pm.SentAt,
	}
}

func (m *MessageMapper) PrivateToModel(msg *entity.Message) *model.PrivateMessage {
	if msg == nil || msg.ReceiverId == nil {
		return nil
	}
	return &model.PrivateMessage{
		Id:         msg.Id,
		SenderId:   msg.SenderId,
		ReceiverId: *msg.ReceiverId,
		Body:       msg.Body,
		Kind:       string(msg.Kind),
		IsRead:     msg.IsRead,
		SentAt:     msg.SentAt,
	}
}

func (m *MessageMapper) PrivateToEntities(models []*model.PrivateMessage) []*entity.Message {
	entities := make([]*entity.Message, 0, len(models))
	for _, pm := range models {
		entities = append(entities, m.PrivateToEntity(pm))
	}
	return entities
}
