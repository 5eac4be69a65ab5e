package service

import (
	"context"

	"github.com/google/uuid"

	"realtime-chat-be/internal/dto"
	"realtime-chat-be/internal/gateway"
	"realtime-chat-be/internal/presence"
)

type IUserService interface {
	Profile(ctx context.Context, userId uuid.UUID) (*dto.UserDTO, error)
	OnlineUsers(ctx context.Context) ([]dto.UserDTO, error)
	UnreadCount(ctx context.Context, userId uuid.UUID) (*dto.UnreadCountResponse, error)
	Conversation(ctx context.Context, userId, peerId uuid.UUID, limit int) ([]dto.MessageResponse, error)
}

type userService struct {
	store        gateway.Gateway
	tracker      *presence.Tracker
	historyLimit int
}

func NewUserService(store gateway.Gateway, tracker *presence.Tracker, historyLimit int) IUserService {
	if historyLimit <= 0 {
		historyLimit = 50
	}
	return &userService{
		store:        store,
		tracker:      tracker,
		historyLimit: historyLimit,
	}
}

func (s *userService) Profile(ctx context.Context, userId uuid.UUID) (*dto.UserDTO, error) {
	user, err := s.store.UserById(ctx, userId)
	if err != nil {
		return nil, err
	}
	resp := dto.ToUserDTO(user)
	return &resp, nil
}

func (s *userService) OnlineUsers(ctx context.Context) ([]dto.UserDTO, error) {
	users, err := s.tracker.OnlineUsers(ctx)
	if err != nil {
		return nil, err
	}
	return dto.ToUserDTOs(users), nil
}

func (s *userService) UnreadCount(ctx context.Context, userId uuid.UUID) (*dto.UnreadCountResponse, error) {
	total, err := s.store.UnreadCount(ctx, userId)
	if err != nil {
		return nil, err
	}
	return &dto.UnreadCountResponse{Total: total}, nil
}

// Conversation returns the private history with a peer and marks the
// peer's messages as read. The unread counter resets as a side effect.
func (s *userService) Conversation(ctx context.Context, userId, peerId uuid.UUID, limit int) ([]dto.MessageResponse, error) {
	if limit <= 0 || limit > 500 {
		limit = s.historyLimit
	}

	messages, err := s.store.PrivateConversation(ctx, userId, peerId, limit)
	if err != nil {
		return nil, err
	}

	if err := s.store.MarkConversationRead(ctx, peerId, userId); err != nil {
		return nil, err
	}

	return dto.ToMessageResponses(messages), nil
}
