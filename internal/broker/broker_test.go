package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"realtime-chat-be/internal/dto"
	"realtime-chat-be/internal/entity"
	"realtime-chat-be/internal/gateway"
	"realtime-chat-be/internal/model"
	"realtime-chat-be/internal/pkg/logger"
	"realtime-chat-be/internal/presence"
	"realtime-chat-be/internal/registry"
	"realtime-chat-be/internal/repository/unitofwork"
	"realtime-chat-be/internal/session"
)

// engine wires store, registry, session manager and broker the way
// bootstrap does, minus Redis.
type engine struct {
	store    gateway.Gateway
	registry *registry.Registry
	manager  *session.Manager
	broker   *Broker
}

func newEngine(t *testing.T) *engine {
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
	manager := session.NewManager(reg, tracker, logger.NewNopLogger())
	b := New(store, reg, manager, nil, logger.NewNopLogger())
	manager.BindPublisher(b)

	return &engine{store: store, registry: reg, manager: manager, broker: b}
}

func (e *engine) user(t *testing.T, username string) *entity.User {
	t.Helper()
	user, err := e.store.CreateUser(context.Background(), username, username+"12345", username+"@example.com", username)
	require.NoError(t, err)
	return user
}

func (e *engine) connect(t *testing.T, user *entity.User) *session.Session {
	t.Helper()
	s := e.manager.Connect()
	require.NoError(t, e.manager.Authenticate(context.Background(), s.Id, user))
	return s
}

func receiveDelivered(t *testing.T, s *session.Session) dto.DeliveredFrame {
	t.Helper()
	select {
	case data := <-s.Outbound():
		var frame dto.DeliveredFrame
		require.NoError(t, json.Unmarshal(data, &frame))
		require.Equal(t, dto.FrameDelivered, frame.Type)
		return frame
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivered frame")
		return dto.DeliveredFrame{}
	}
}

func assertNoFrame(t *testing.T, s *session.Session) {
	t.Helper()
	select {
	case data := <-s.Outbound():
		t.Fatalf("unexpected frame: %s", data)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRoomMessageFansOutToAllMembers(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	admin := e.user(t, "admin")
	room, err := e.store.CreateRoom(ctx, "General", "", admin.Id)
	require.NoError(t, err)

	john := e.user(t, "john")
	jane := e.user(t, "jane")

	johnSess := e.connect(t, john)
	janeSess := e.connect(t, jane)
	require.NoError(t, e.manager.JoinRoom(ctx, johnSess.Id, room.Id))
	require.NoError(t, e.manager.JoinRoom(ctx, janeSess.Id, room.Id))

	msg, err := e.manager.Send(ctx, johnSess.Id, &room.Id, nil, "hi", entity.MessageKindText)
	require.NoError(t, err)
	assert.Positive(t, msg.Id)

	johnFrame := receiveDelivered(t, johnSess)
	janeFrame := receiveDelivered(t, janeSess)

	// Sender and recipient both see the one persisted message.
	assert.Equal(t, msg.Id, johnFrame.Message.Id)
	assert.Equal(t, msg.Id, janeFrame.Message.Id)
	assert.Equal(t, "hi", janeFrame.Message.Text)
	assert.Equal(t, john.Id, janeFrame.Message.SenderId)

	// Exactly once per session.
	assertNoFrame(t, johnSess)
	assertNoFrame(t, janeSess)
}

func TestRoomMessagesArriveInPersistedOrder(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	admin := e.user(t, "admin")
	room, err := e.store.CreateRoom(ctx, "General", "", admin.Id)
	require.NoError(t, err)

	john := e.user(t, "john")
	jane := e.user(t, "jane")
	johnSess := e.connect(t, john)
	janeSess := e.connect(t, jane)
	require.NoError(t, e.manager.JoinRoom(ctx, johnSess.Id, room.Id))
	require.NoError(t, e.manager.JoinRoom(ctx, janeSess.Id, room.Id))

	for i := 0; i < 3; i++ {
		_, err := e.manager.Send(ctx, johnSess.Id, &room.Id, nil, fmt.Sprintf("m%d", i), entity.MessageKindText)
		require.NoError(t, err)
	}

	var lastId int64
	for i := 0; i < 3; i++ {
		frame := receiveDelivered(t, janeSess)
		assert.Equal(t, fmt.Sprintf("m%d", i), frame.Message.Text)
		assert.Greater(t, frame.Message.Id, lastId)
		lastId = frame.Message.Id
	}

	// History agrees with what was pushed.
	recent, err := e.store.RecentMessages(ctx, room.Id, 10)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "m0", recent[0].Body)
	assert.Equal(t, "m2", recent[2].Body)
}

func TestDisconnectedMemberIsSkippedNotQueued(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	admin := e.user(t, "admin")
	room, err := e.store.CreateRoom(ctx, "General", "", admin.Id)
	require.NoError(t, err)

	john := e.user(t, "john")
	jane := e.user(t, "jane")
	johnSess := e.connect(t, john)
	janeSess := e.connect(t, jane)
	require.NoError(t, e.manager.JoinRoom(ctx, johnSess.Id, room.Id))
	require.NoError(t, e.manager.JoinRoom(ctx, janeSess.Id, room.Id))

	e.manager.Close(ctx, janeSess.Id)

	msg, err := e.manager.Send(ctx, johnSess.Id, &room.Id, nil, "anyone here?", entity.MessageKindText)
	require.NoError(t, err)

	receiveDelivered(t, johnSess)

	// Jane's membership survives; the message waits in history, not in
	// any push queue.
	isMember, err := e.registry.IsMember(ctx, room.Id, jane.Id)
	require.NoError(t, err)
	assert.True(t, isMember)

	recent, err := e.store.RecentMessages(ctx, room.Id, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, msg.Id, recent[0].Id)
}

func TestSendImpliesMembership(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	admin := e.user(t, "admin")
	room, err := e.store.CreateRoom(ctx, "General", "", admin.Id)
	require.NoError(t, err)

	// John never joined; sending creates the membership implicitly.
	john := e.user(t, "john")
	johnSess := e.connect(t, john)

	_, err = e.manager.Send(ctx, johnSess.Id, &room.Id, nil, "knock knock", entity.MessageKindText)
	require.NoError(t, err)

	isMember, err := e.store.IsMember(ctx, room.Id, john.Id)
	require.NoError(t, err)
	assert.True(t, isMember)

	receiveDelivered(t, johnSess)
}

func TestPrivateMessageDelivery(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	john := e.user(t, "john")
	jane := e.user(t, "jane")
	johnSess := e.connect(t, john)
	janeSess := e.connect(t, jane)

	msg, err := e.manager.Send(ctx, johnSess.Id, nil, &jane.Id, "psst", entity.MessageKindText)
	require.NoError(t, err)

	frame := receiveDelivered(t, janeSess)
	assert.Equal(t, msg.Id, frame.Message.Id)
	assert.Equal(t, "psst", frame.Message.Text)
	require.NotNil(t, frame.Message.ReceiverId)
	assert.Equal(t, jane.Id, *frame.Message.ReceiverId)

	// Unread until Jane opens the conversation, even though it was pushed.
	unread, err := e.store.UnreadCount(ctx, jane.Id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	// The sender is not a fan-out target for private messages.
	assertNoFrame(t, johnSess)
}

func TestPrivateMessageToOfflineUserStaysDurable(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	john := e.user(t, "john")
	jane := e.user(t, "jane")
	johnSess := e.connect(t, john)

	_, err := e.manager.Send(ctx, johnSess.Id, nil, &jane.Id, "see you later", entity.MessageKindText)
	require.NoError(t, err)

	unread, err := e.store.UnreadCount(ctx, jane.Id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	conv, err := e.store.PrivateConversation(ctx, john.Id, jane.Id, 10)
	require.NoError(t, err)
	require.Len(t, conv, 1)
	assert.Equal(t, "see you later", conv[0].Body)
}
