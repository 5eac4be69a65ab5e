package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"realtime-chat-be/internal/entity"
	"realtime-chat-be/internal/repository/specification"
	"realtime-chat-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type gormGateway struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewGormGateway(uowFactory unitofwork.RepositoryFactory) Gateway {
	return &gormGateway{uowFactory: uowFactory}
}

// translateError maps GORM/driver errors onto the gateway taxonomy.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) || errors.Is(err, gorm.ErrCheckConstraintViolated) {
		return fmt.Errorf("%w: %v", ErrConstraintViolation, err)
	}
	return err
}

func (g *gormGateway) CreateUser(ctx context.Context, username, password, email, fullName string) (*entity.User, error) {
	uow := g.uowFactory.NewUnitOfWork(ctx)

	existing, err := uow.UserRepository().FindOne(ctx, specification.ByUsername{Username: username})
	if err != nil {
		return nil, err
	}
	if existing == nil {
		existing, err = uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: email})
		if err != nil {
			return nil, err
		}
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: username or email taken", ErrDuplicateKey)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	hashStr := string(hash)

	user := &entity.User{
		Id:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: &hashStr,
		FullName:     fullName,
		Role:         entity.UserRoleUser,
		Status:       entity.UserStatusActive,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := uow.UserRepository().Create(ctx, user); err != nil {
		return nil, translateError(err)
	}
	return user, nil
}

func (g *gormGateway) Authenticate(ctx context.Context, username, password string) (*entity.User, error) {
	uow := g.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByUsername{Username: username})
	if err != nil {
		return nil, err
	}
	if user == nil || user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if user.Status == entity.UserStatusBlocked {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (g *gormGateway) UserById(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	uow := g.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, id)
	}
	return user, nil
}

func (g *gormGateway) UserByUsername(ctx context.Context, username string) (*entity.User, error) {
	uow := g.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByUsername{Username: username})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %q", ErrNotFound, username)
	}
	return user, nil
}

func (g *gormGateway) OnlineUsers(ctx context.Context) ([]*entity.User, error) {
	uow := g.uowFactory.NewUnitOfWork(ctx)
	return uow.UserRepository().FindAll(ctx,
		specification.OnlineOnly{},
		specification.OrderBy{Field: "full_name"},
	)
}

func (g *gormGateway) SetPresence(ctx context.Context, userId uuid.UUID, online bool) error {
	uow := g.uowFactory.NewUnitOfWork(ctx)
	return uow.UserRepository().UpdatePresence(ctx, userId, online, time.Now())
}

// CreateRoom inserts the room and the creator's admin membership in one
// transaction; one cannot exist without the other.
func (g *gormGateway) CreateRoom(ctx context.Context, name, description string, creatorId uuid.UUID) (*entity.Room, error) {
	uow := g.uowFactory.NewUnitOfWork(ctx)

	existing, err := uow.RoomRepository().FindOne(ctx, specification.ByRoomName{Name: name})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: room name taken", ErrDuplicateKey)
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	room := &entity.Room{
		Id:          uuid.New(),
		Name:        strings.TrimSpace(name),
		Description: description,
		CreatedBy:   creatorId,
		CreatedAt:   time.Now(),
	}
	if err := uow.RoomRepository().Create(ctx, room); err != nil {
		return nil, translateError(err)
	}

	creatorMembership := &entity.Membership{
		RoomId:   room.Id,
		UserId:   creatorId,
		Role:     entity.MemberRoleAdmin,
		JoinedAt: time.Now(),
	}
	if err := uow.MembershipRepository().Upsert(ctx, creatorMembership); err != nil {
		return nil, translateError(err)
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return room, nil
}

func (g *gormGateway) RoomById(ctx context.Context, id uuid.UUID) (*entity.Room, error) {
	uow := g.uowFactory.NewUnitOfWork(ctx)
	room, err := uow.RoomRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, fmt.Errorf("%w: room %s", ErrNotFound, id)
	}
	return room, nil
}

func (g *gormGateway) Rooms(ctx context.Context) ([]*entity.Room, error) {
	uow := g.uowFactory.NewUnitOfWork(ctx)
	return uow.RoomRepository().FindAll(ctx)
}

func (g *gormGateway) RoomsForUser(ctx context.Context, userId uuid.UUID) ([]*entity.Room, error) {
	uow := g.uowFactory.NewUnitOfWork(ctx)
	return uow.RoomRepository().FindForUser(ctx, userId)
}

func (g *gormGateway) AddMember(ctx context.Context, roomId, userId uuid.UUID, role entity.MemberRole) error {
	uow := g.uowFactory.NewUnitOfWork(ctx)
	membership := &entity.Membership{
		RoomId:   roomId,
		UserId:   userId,
		Role:     role,
		JoinedAt: time.Now(),
	}
	return translateError(uow.MembershipRepository().Upsert(ctx, membership))
}

func (g *gormGateway) RemoveMember(ctx context.Context, roomId, userId uuid.UUID) error {
	uow := g.uowFactory.NewUnitOfWork(ctx)
	return uow.MembershipRepository().Delete(ctx, roomId, userId)
}

func (g *gormGateway) IsMember(ctx context.Context, roomId, userId uuid.UUID) (bool, error) {
	uow := g.uowFactory.NewUnitOfWork(ctx)
	return uow.MembershipRepository().Exists(ctx, roomId, userId)
}

func (g *gormGateway) MembersOf(ctx context.Context, roomId uuid.UUID) ([]*entity.Membership, error) {
	uow := g.uowFactory.NewUnitOfWork(ctx)
	return uow.MembershipRepository().FindByRoom(ctx, roomId)
}

func (g *gormGateway) AppendMessage(ctx context.Context, message *entity.Message) (int64, error) {
	uow := g.uowFactory.NewUnitOfWork(ctx)

	if message.SentAt.IsZero() {
		message.SentAt = time.Now()
	}
	if message.Kind == "" {
		message.Kind = entity.MessageKindText
	}

	var err error
	if message.IsPrivate() {
		err = uow.PrivateMessageRepository().Append(ctx, message)
	} else {
		err = uow.MessageRepository().Append(ctx, message)
	}
	if err != nil {
		return 0, translateError(err)
	}
	return message.Id, nil
}

func (g *gormGateway) RecentMessages(ctx context.Context, roomId uuid.UUID, limit int) ([]*entity.Message, error) {
	uow := g.uowFactory.NewUnitOfWork(ctx)
	messages, err := uow.MessageRepository().RecentForRoom(ctx, roomId, limit)
	if err != nil {
		return nil, err
	}
	if err := g.fillSenderNames(ctx, uow, messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (g *gormGateway) PrivateConversation(ctx context.Context, userA, userB uuid.UUID, limit int) ([]*entity.Message, error) {
	uow := g.uowFactory.NewUnitOfWork(ctx)
	messages, err := uow.PrivateMessageRepository().Conversation(ctx, userA, userB, limit)
	if err != nil {
		return nil, err
	}
	if err := g.fillSenderNames(ctx, uow, messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// fillSenderNames resolves the display name for each distinct sender so
// history reads carry the same sender_name live delivery frames do.
func (g *gormGateway) fillSenderNames(ctx context.Context, uow unitofwork.UnitOfWork, messages []*entity.Message) error {
	names := make(map[uuid.UUID]string)
	for _, m := range messages {
		if _, ok := names[m.SenderId]; ok {
			continue
		}
		sender, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: m.SenderId})
		if err != nil {
			return err
		}
		if sender != nil {
			names[m.SenderId] = sender.FullName
		}
	}
	for _, m := range messages {
		m.SenderName = names[m.SenderId]
	}
	return nil
}

func (g *gormGateway) UnreadCount(ctx context.Context, receiverId uuid.UUID) (int64, error) {
	uow := g.uowFactory.NewUnitOfWork(ctx)
	return uow.PrivateMessageRepository().CountUnread(ctx, receiverId)
}

func (g *gormGateway) MarkConversationRead(ctx context.Context, senderId, receiverId uuid.UUID) error {
	uow := g.uowFactory.NewUnitOfWork(ctx)
	return uow.PrivateMessageRepository().MarkRead(ctx, senderId, receiverId)
}
