package session

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"realtime-chat-be/internal/entity"
	"realtime-chat-be/internal/gateway"
	"realtime-chat-be/internal/model"
	"realtime-chat-be/internal/pkg/logger"
	"realtime-chat-be/internal/presence"
	"realtime-chat-be/internal/registry"
	"realtime-chat-be/internal/repository/unitofwork"
)

// capturePublisher records published messages and hands out ids the way
// the broker would after a store append.
type capturePublisher struct {
	nextId    atomic.Int64
	published []*entity.Message
}

func (p *capturePublisher) Publish(_ context.Context, msg *entity.Message) (*entity.Message, error) {
	msg.Id = p.nextId.Add(1)
	p.published = append(p.published, msg)
	return msg, nil
}

type fixture struct {
	store   gateway.Gateway
	tracker *presence.Tracker
	manager *Manager
	pub     *capturePublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.ChatRoom{},
		&model.RoomMember{},
		&model.Message{},
		&model.PrivateMessage{},
	))

	store := gateway.NewGormGateway(unitofwork.NewRepositoryFactory(db))
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	tracker := presence.NewTracker(store, pubSub, logger.NewNopLogger())
	reg := registry.New(store, logger.NewNopLogger())

	manager := NewManager(reg, tracker, logger.NewNopLogger())
	pub := &capturePublisher{}
	manager.BindPublisher(pub)

	return &fixture{store: store, tracker: tracker, manager: manager, pub: pub}
}

func (f *fixture) user(t *testing.T, username string) *entity.User {
	t.Helper()
	user, err := f.store.CreateUser(context.Background(), username, username+"12345", username+"@example.com", username)
	require.NoError(t, err)
	return user
}

func (f *fixture) authedSession(t *testing.T, user *entity.User) *Session {
	t.Helper()
	s := f.manager.Connect()
	require.NoError(t, f.manager.Authenticate(context.Background(), s.Id, user))
	return s
}

func TestSessionLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user(t, "john")

	s := f.manager.Connect()
	assert.Equal(t, StateConnecting, s.State())

	require.NoError(t, f.manager.Authenticate(ctx, s.Id, user))
	assert.Equal(t, StateAuthenticated, s.State())
	assert.True(t, f.tracker.IsOnline(user.Id))

	// Re-authenticating an already authenticated session is rejected.
	err := f.manager.Authenticate(ctx, s.Id, user)
	assert.ErrorIs(t, err, ErrInvalidState)

	f.manager.Close(ctx, s.Id)
	assert.Equal(t, StateClosed, s.State())
	assert.False(t, f.tracker.IsOnline(user.Id))

	_, ok := f.manager.Session(s.Id)
	assert.False(t, ok)
}

func TestJoinRoomActivatesSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := f.user(t, "admin")
	room, err := f.store.CreateRoom(ctx, "General", "", admin.Id)
	require.NoError(t, err)

	john := f.user(t, "john")
	s := f.authedSession(t, john)

	require.NoError(t, f.manager.JoinRoom(ctx, s.Id, room.Id))
	assert.Equal(t, StateActive, s.State())

	// Joining created the durable membership.
	isMember, err := f.store.IsMember(ctx, room.Id, john.Id)
	require.NoError(t, err)
	assert.True(t, isMember)

	require.NoError(t, f.manager.LeaveRoom(s.Id, room.Id))

	// Leaving drops only the live subscription, not the membership.
	isMember, err = f.store.IsMember(ctx, room.Id, john.Id)
	require.NoError(t, err)
	assert.True(t, isMember)
}

func TestSendValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := f.user(t, "admin")
	room, err := f.store.CreateRoom(ctx, "General", "", admin.Id)
	require.NoError(t, err)

	john := f.user(t, "john")
	s := f.authedSession(t, john)

	_, err = f.manager.Send(ctx, s.Id, &room.Id, nil, "   ", entity.MessageKindText)
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = f.manager.Send(ctx, s.Id, nil, nil, "hello", entity.MessageKindText)
	assert.ErrorIs(t, err, ErrInvalidState)

	receiver := f.user(t, "jane")
	_, err = f.manager.Send(ctx, s.Id, &room.Id, &receiver.Id, "hello", entity.MessageKindText)
	assert.ErrorIs(t, err, ErrInvalidState)

	msg, err := f.manager.Send(ctx, s.Id, &room.Id, nil, "hello", entity.MessageKindText)
	require.NoError(t, err)
	assert.Equal(t, john.Id, msg.SenderId)
	assert.Positive(t, msg.Id)

	// Sending to a room implies subscription and the Active state.
	assert.Equal(t, StateActive, s.State())
	require.Len(t, f.pub.published, 1)
}

func TestSendRequiresAuthentication(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	roomId := f.user(t, "someone").Id // any uuid works, send fails first
	s := f.manager.Connect()

	_, err := f.manager.Send(ctx, s.Id, &roomId, nil, "hello", entity.MessageKindText)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestDeliverDropsOldestOnOverflow(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "john")
	s := f.authedSession(t, user)

	total := outboundCapacity + 10
	for i := 0; i < total; i++ {
		f.manager.Deliver(s.Id, []byte(fmt.Sprintf("frame-%d", i)))
	}

	assert.Equal(t, int64(10), s.Dropped())
	assert.Len(t, s.Outbound(), outboundCapacity)

	// The head of the queue is the oldest surviving frame.
	first := <-s.Outbound()
	assert.Equal(t, "frame-10", string(first))
}

func TestCloseDiscardsQueuedFrames(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user(t, "john")
	s := f.authedSession(t, user)

	f.manager.Deliver(s.Id, []byte("pending"))
	f.manager.Close(ctx, s.Id)

	select {
	case <-s.Done():
	default:
		t.Fatal("done channel not closed")
	}

	// Deliveries after close are dropped silently.
	f.manager.Deliver(s.Id, []byte("late"))
	assert.Empty(t, f.manager.ActiveSessionsOf(user.Id))
}

func TestMultiDevicePresence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user(t, "john")

	s1 := f.authedSession(t, user)
	s2 := f.authedSession(t, user)
	assert.Len(t, f.manager.ActiveSessionsOf(user.Id), 2)

	// Presence survives as long as one session is live.
	f.manager.Close(ctx, s1.Id)
	assert.True(t, f.tracker.IsOnline(user.Id))

	f.manager.Close(ctx, s2.Id)
	assert.False(t, f.tracker.IsOnline(user.Id))
}
