package registry

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
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

func seedRoom(t *testing.T, gw gateway.Gateway) (*entity.Room, *entity.User) {
	t.Helper()
	ctx := context.Background()

	admin, err := gw.CreateUser(ctx, "admin", "admin12345", "admin@example.com", "Administrator")
	require.NoError(t, err)
	room, err := gw.CreateRoom(ctx, "General", "", admin.Id)
	require.NoError(t, err)
	return room, admin
}

func TestMembersOfWarmsFromStore(t *testing.T) {
	gw := newTestStore(t)
	reg := New(gw, logger.NewNopLogger())
	ctx := context.Background()

	room, admin := seedRoom(t, gw)

	// The membership written by CreateRoom is visible through a cold cache.
	members, err := reg.MembersOf(ctx, room.Id)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, admin.Id, members[0])
}

func TestEnsureMembershipIsIdempotent(t *testing.T) {
	gw := newTestStore(t)
	reg := New(gw, logger.NewNopLogger())
	ctx := context.Background()

	room, _ := seedRoom(t, gw)
	john, err := gw.CreateUser(ctx, "john", "john12345", "john@example.com", "John Carter")
	require.NoError(t, err)

	require.NoError(t, reg.EnsureMembership(ctx, room.Id, john.Id))
	require.NoError(t, reg.EnsureMembership(ctx, room.Id, john.Id))

	members, err := reg.MembersOf(ctx, room.Id)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	// The durable row exists exactly once.
	memberships, err := gw.MembersOf(ctx, room.Id)
	require.NoError(t, err)
	assert.Len(t, memberships, 2)
}

func TestAddRemoveMemberWritesThrough(t *testing.T) {
	gw := newTestStore(t)
	reg := New(gw, logger.NewNopLogger())
	ctx := context.Background()

	room, _ := seedRoom(t, gw)
	jane, err := gw.CreateUser(ctx, "jane", "jane12345", "jane@example.com", "Jane Miller")
	require.NoError(t, err)

	require.NoError(t, reg.AddMember(ctx, room.Id, jane.Id, entity.MemberRoleMember))

	isMember, err := reg.IsMember(ctx, room.Id, jane.Id)
	require.NoError(t, err)
	assert.True(t, isMember)

	// Cache and store agree after removal.
	require.NoError(t, reg.RemoveMember(ctx, room.Id, jane.Id))

	isMember, err = reg.IsMember(ctx, room.Id, jane.Id)
	require.NoError(t, err)
	assert.False(t, isMember)

	stored, err := gw.IsMember(ctx, room.Id, jane.Id)
	require.NoError(t, err)
	assert.False(t, stored)
}

func TestRegisterRoomPrimesCache(t *testing.T) {
	gw := newTestStore(t)
	reg := New(gw, logger.NewNopLogger())
	ctx := context.Background()

	room, admin := seedRoom(t, gw)
	reg.RegisterRoom(room, admin.Id)

	isMember, err := reg.IsMember(ctx, room.Id, admin.Id)
	require.NoError(t, err)
	assert.True(t, isMember)
}

func TestIsMemberUnknownRoom(t *testing.T) {
	gw := newTestStore(t)
	reg := New(gw, logger.NewNopLogger())
	ctx := context.Background()

	isMember, err := reg.IsMember(ctx, uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.False(t, isMember)
}
