package gateway

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"realtime-chat-be/internal/entity"
	"realtime-chat-be/internal/model"
	"realtime-chat-be/internal/repository/unitofwork"
)

func newTestGateway(t *testing.T) Gateway {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&model.User{},
		&model.ChatRoom{},
		&model.RoomMember{},
		&model.Message{},
		&model.PrivateMessage{},
	)
	require.NoError(t, err)

	return NewGormGateway(unitofwork.NewRepositoryFactory(db))
}

func TestCreateUserAndAuthenticate(t *testing.T) {
	gw := newTestGateway(t)
	ctx := context.Background()

	user, err := gw.CreateUser(ctx, "john", "secret123", "john@example.com", "John Carter")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, user.Id)
	assert.Equal(t, entity.UserRoleUser, user.Role)
	assert.NotNil(t, user.PasswordHash)
	assert.NotEqual(t, "secret123", *user.PasswordHash)

	authed, err := gw.Authenticate(ctx, "john", "secret123")
	require.NoError(t, err)
	assert.Equal(t, user.Id, authed.Id)

	_, err = gw.Authenticate(ctx, "john", "wrongpass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = gw.Authenticate(ctx, "nobody", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCreateUserDuplicateLeavesStoreUnchanged(t *testing.T) {
	gw := newTestGateway(t)
	ctx := context.Background()

	first, err := gw.CreateUser(ctx, "jane", "secret123", "jane@example.com", "Jane Miller")
	require.NoError(t, err)

	_, err = gw.CreateUser(ctx, "jane", "other12345", "jane2@example.com", "Jane Two")
	assert.ErrorIs(t, err, ErrDuplicateKey)

	_, err = gw.CreateUser(ctx, "jane2", "other12345", "jane@example.com", "Jane Two")
	assert.ErrorIs(t, err, ErrDuplicateKey)

	// The original account still authenticates with its original password.
	authed, err := gw.Authenticate(ctx, "jane", "secret123")
	require.NoError(t, err)
	assert.Equal(t, first.Id, authed.Id)
}

func TestCreateRoomGrantsCreatorAdminMembership(t *testing.T) {
	gw := newTestGateway(t)
	ctx := context.Background()

	admin, err := gw.CreateUser(ctx, "admin", "admin12345", "admin@example.com", "Administrator")
	require.NoError(t, err)

	room, err := gw.CreateRoom(ctx, "General", "open room", admin.Id)
	require.NoError(t, err)

	isMember, err := gw.IsMember(ctx, room.Id, admin.Id)
	require.NoError(t, err)
	assert.True(t, isMember)

	members, err := gw.MembersOf(ctx, room.Id)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, entity.MemberRoleAdmin, members[0].Role)

	_, err = gw.CreateRoom(ctx, "General", "dup", admin.Id)
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestMembershipAddRemove(t *testing.T) {
	gw := newTestGateway(t)
	ctx := context.Background()

	admin, err := gw.CreateUser(ctx, "admin", "admin12345", "admin@example.com", "Administrator")
	require.NoError(t, err)
	john, err := gw.CreateUser(ctx, "john", "john12345", "john@example.com", "John Carter")
	require.NoError(t, err)

	room, err := gw.CreateRoom(ctx, "General", "", admin.Id)
	require.NoError(t, err)

	require.NoError(t, gw.AddMember(ctx, room.Id, john.Id, entity.MemberRoleMember))
	// Adding twice is idempotent.
	require.NoError(t, gw.AddMember(ctx, room.Id, john.Id, entity.MemberRoleMember))

	members, err := gw.MembersOf(ctx, room.Id)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	rooms, err := gw.RoomsForUser(ctx, john.Id)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, room.Id, rooms[0].Id)

	require.NoError(t, gw.RemoveMember(ctx, room.Id, john.Id))
	isMember, err := gw.IsMember(ctx, room.Id, john.Id)
	require.NoError(t, err)
	assert.False(t, isMember)
}

func TestAppendAndRecentMessages(t *testing.T) {
	gw := newTestGateway(t)
	ctx := context.Background()

	admin, err := gw.CreateUser(ctx, "admin", "admin12345", "admin@example.com", "Administrator")
	require.NoError(t, err)
	room, err := gw.CreateRoom(ctx, "General", "", admin.Id)
	require.NoError(t, err)

	base := time.Now().Add(-time.Minute)
	for i := 0; i < 5; i++ {
		id, err := gw.AppendMessage(ctx, &entity.Message{
			SenderId: admin.Id,
			RoomId:   &room.Id,
			Body:     fmt.Sprintf("message %d", i),
			SentAt:   base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
		assert.Positive(t, id)
	}

	recent, err := gw.RecentMessages(ctx, room.Id, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)

	// Newest three, in ascending order.
	assert.Equal(t, "message 2", recent[0].Body)
	assert.Equal(t, "message 4", recent[2].Body)
	assert.Less(t, recent[0].Id, recent[1].Id)
	assert.Less(t, recent[1].Id, recent[2].Id)

	// A second read returns the same window.
	again, err := gw.RecentMessages(ctx, room.Id, 3)
	require.NoError(t, err)
	require.Len(t, again, 3)
	assert.Equal(t, recent[0].Id, again[0].Id)
}

func TestPrivateConversationAndUnread(t *testing.T) {
	gw := newTestGateway(t)
	ctx := context.Background()

	john, err := gw.CreateUser(ctx, "john", "john12345", "john@example.com", "John Carter")
	require.NoError(t, err)
	jane, err := gw.CreateUser(ctx, "jane", "jane12345", "jane@example.com", "Jane Miller")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := gw.AppendMessage(ctx, &entity.Message{
			SenderId:   john.Id,
			ReceiverId: &jane.Id,
			Body:       fmt.Sprintf("hi %d", i),
		})
		require.NoError(t, err)
	}

	unread, err := gw.UnreadCount(ctx, jane.Id)
	require.NoError(t, err)
	assert.Equal(t, int64(3), unread)

	conv, err := gw.PrivateConversation(ctx, john.Id, jane.Id, 50)
	require.NoError(t, err)
	assert.Len(t, conv, 3)

	require.NoError(t, gw.MarkConversationRead(ctx, john.Id, jane.Id))

	unread, err = gw.UnreadCount(ctx, jane.Id)
	require.NoError(t, err)
	assert.Equal(t, int64(0), unread)

	// John's own unread counter was never touched.
	unreadJohn, err := gw.UnreadCount(ctx, john.Id)
	require.NoError(t, err)
	assert.Equal(t, int64(0), unreadJohn)
}

func TestPresenceRoundTrip(t *testing.T) {
	gw := newTestGateway(t)
	ctx := context.Background()

	john, err := gw.CreateUser(ctx, "john", "john12345", "john@example.com", "John Carter")
	require.NoError(t, err)

	require.NoError(t, gw.SetPresence(ctx, john.Id, true))

	online, err := gw.OnlineUsers(ctx)
	require.NoError(t, err)
	require.Len(t, online, 1)
	assert.Equal(t, john.Id, online[0].Id)

	require.NoError(t, gw.SetPresence(ctx, john.Id, false))

	online, err = gw.OnlineUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, online)

	refreshed, err := gw.UserById(ctx, john.Id)
	require.NoError(t, err)
	assert.NotNil(t, refreshed.LastSeen)
}
