package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"realtime-chat-be/internal/dto"
	"realtime-chat-be/internal/entity"
	"realtime-chat-be/internal/gateway"
	"realtime-chat-be/internal/pkg/logger"
	"realtime-chat-be/internal/registry"
	"realtime-chat-be/pkg/events"
	pkgNats "realtime-chat-be/pkg/nats"
)

type IRoomService interface {
	CreateRoom(ctx context.Context, creatorId uuid.UUID, req *dto.CreateRoomRequest) (*dto.RoomResponse, error)
	ListRooms(ctx context.Context) ([]dto.RoomResponse, error)
	ListRoomsForUser(ctx context.Context, userId uuid.UUID) ([]dto.RoomResponse, error)
	JoinRoom(ctx context.Context, roomId, userId uuid.UUID) error
	LeaveRoom(ctx context.Context, roomId, userId uuid.UUID) error
	Members(ctx context.Context, roomId uuid.UUID) ([]uuid.UUID, error)
	RecentMessages(ctx context.Context, roomId, userId uuid.UUID, limit int) ([]dto.MessageResponse, error)
}

type roomService struct {
	store          gateway.Gateway
	registry       *registry.Registry
	eventPublisher *pkgNats.Publisher
	historyLimit   int
	log            logger.ILogger
}

func NewRoomService(
	store gateway.Gateway,
	reg *registry.Registry,
	eventPublisher *pkgNats.Publisher,
	historyLimit int,
	log logger.ILogger,
) IRoomService {
	if historyLimit <= 0 {
		historyLimit = 50
	}
	return &roomService{
		store:          store,
		registry:       reg,
		eventPublisher: eventPublisher,
		historyLimit:   historyLimit,
		log:            log,
	}
}

func (s *roomService) CreateRoom(ctx context.Context, creatorId uuid.UUID, req *dto.CreateRoomRequest) (*dto.RoomResponse, error) {
	room, err := s.store.CreateRoom(ctx, req.Name, req.Description, creatorId)
	if err != nil {
		return nil, err
	}

	// Prime the membership cache so the creator's first send needs no warm.
	s.registry.RegisterRoom(room, creatorId)

	if s.eventPublisher != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.eventPublisher.Publish(ctx, events.NewRoomCreated(room.Id, creatorId, room.Name)); err != nil {
				s.log.Warn("room", "failed to publish room created event", map[string]interface{}{
					"room_id": room.Id.String(),
					"error":   err.Error(),
				})
			}
		}()
	}

	s.log.Info("room", "room created", map[string]interface{}{
		"room_id": room.Id.String(),
		"name":    room.Name,
	})

	resp := dto.ToRoomResponse(room)
	return &resp, nil
}

func (s *roomService) ListRooms(ctx context.Context) ([]dto.RoomResponse, error) {
	rooms, err := s.store.Rooms(ctx)
	if err != nil {
		return nil, err
	}
	return dto.ToRoomResponses(rooms), nil
}

func (s *roomService) ListRoomsForUser(ctx context.Context, userId uuid.UUID) ([]dto.RoomResponse, error) {
	rooms, err := s.store.RoomsForUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	return dto.ToRoomResponses(rooms), nil
}

func (s *roomService) JoinRoom(ctx context.Context, roomId, userId uuid.UUID) error {
	if _, err := s.store.RoomById(ctx, roomId); err != nil {
		return err
	}
	return s.registry.AddMember(ctx, roomId, userId, entity.MemberRoleMember)
}

func (s *roomService) LeaveRoom(ctx context.Context, roomId, userId uuid.UUID) error {
	return s.registry.RemoveMember(ctx, roomId, userId)
}

func (s *roomService) Members(ctx context.Context, roomId uuid.UUID) ([]uuid.UUID, error) {
	return s.registry.MembersOf(ctx, roomId)
}

func (s *roomService) RecentMessages(ctx context.Context, roomId, userId uuid.UUID, limit int) ([]dto.MessageResponse, error) {
	isMember, err := s.registry.IsMember(ctx, roomId, userId)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, gateway.ErrConstraintViolation
	}

	if limit <= 0 || limit > 500 {
		limit = s.historyLimit
	}

	messages, err := s.store.RecentMessages(ctx, roomId, limit)
	if err != nil {
		return nil, err
	}
	return dto.ToMessageResponses(messages), nil
}
