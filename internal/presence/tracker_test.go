package presence

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

	"realtime-chat-be/internal/entity"
	"realtime-chat-be/internal/gateway"
	"realtime-chat-be/internal/model"
	"realtime-chat-be/internal/pkg/logger"
	"realtime-chat-be/internal/repository/unitofwork"
	"realtime-chat-be/pkg/events"
)

func newTestStore(t *testing.T) gateway.Gateway {
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

	return gateway.NewGormGateway(unitofwork.NewRepositoryFactory(db))
}

func newTestUser(t *testing.T, gw gateway.Gateway, username string) *entity.User {
	t.Helper()
	user, err := gw.CreateUser(context.Background(), username, username+"12345", username+"@example.com", username)
	require.NoError(t, err)
	return user
}

func collectPresenceEvents(t *testing.T, pubSub *gochannel.GoChannel) <-chan events.PresenceChanged {
	t.Helper()

	messages, err := pubSub.Subscribe(context.Background(), events.TopicPresence)
	require.NoError(t, err)

	out := make(chan events.PresenceChanged, 16)
	go func() {
		for msg := range messages {
			var payload events.PresenceChanged
			if err := json.Unmarshal(msg.Payload, &payload); err == nil {
				out <- payload
			}
			msg.Ack()
		}
	}()
	return out
}

func waitForEvent(t *testing.T, ch <-chan events.PresenceChanged) events.PresenceChanged {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for presence event")
		return events.PresenceChanged{}
	}
}

func assertNoEvent(t *testing.T, ch <-chan events.PresenceChanged) {
	t.Helper()
	select {
	case ev := <-ch:
		t.Fatalf("unexpected presence event: %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestMarkOnlineAnnouncesTransitionsOnly(t *testing.T) {
	gw := newTestStore(t)
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	tracker := NewTracker(gw, pubSub, logger.NewNopLogger())

	user := newTestUser(t, gw, "john")
	ch := collectPresenceEvents(t, pubSub)
	ctx := context.Background()

	require.NoError(t, tracker.MarkOnline(ctx, user.Id))
	ev := waitForEvent(t, ch)
	assert.Equal(t, user.Id, ev.UserId)
	assert.True(t, ev.Online)

	// A second MarkOnline is not a transition; nothing is announced.
	require.NoError(t, tracker.MarkOnline(ctx, user.Id))
	assertNoEvent(t, ch)

	require.NoError(t, tracker.MarkOffline(ctx, user.Id))
	ev = waitForEvent(t, ch)
	assert.False(t, ev.Online)
}

func TestPresenceWritesThroughToStore(t *testing.T) {
	gw := newTestStore(t)
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	tracker := NewTracker(gw, pubSub, logger.NewNopLogger())

	user := newTestUser(t, gw, "jane")
	ctx := context.Background()

	require.NoError(t, tracker.MarkOnline(ctx, user.Id))
	assert.True(t, tracker.IsOnline(user.Id))

	online, err := tracker.OnlineUsers(ctx)
	require.NoError(t, err)
	require.Len(t, online, 1)
	assert.Equal(t, user.Id, online[0].Id)

	require.NoError(t, tracker.MarkOffline(ctx, user.Id))
	assert.False(t, tracker.IsOnline(user.Id))

	online, err = tracker.OnlineUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, online)

	lastSeen, ok := tracker.LastSeen(user.Id)
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now(), lastSeen, 5*time.Second)
}

func TestIsOnlineUnknownUser(t *testing.T) {
	gw := newTestStore(t)
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	tracker := NewTracker(gw, pubSub, logger.NewNopLogger())

	assert.False(t, tracker.IsOnline(newTestUser(t, gw, "ghost").Id))
}
