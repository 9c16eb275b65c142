package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/git-mahad/group-chat/internal/config"
	"github.com/git-mahad/group-chat/internal/domain"
	"github.com/git-mahad/group-chat/internal/hub"
	"github.com/git-mahad/group-chat/internal/repository"
	"github.com/git-mahad/group-chat/internal/service"
	"github.com/git-mahad/group-chat/pkg/jwt"
)

type gatewayEnv struct {
	server *httptest.Server
	db     *gorm.DB
	auth   service.AuthService
	groups service.GroupService
}

func newGatewayEnv(t *testing.T) *gatewayEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.UserModel{},
		&domain.GroupModel{},
		&domain.MembershipModel{},
		&domain.MessageModel{},
	))

	userRepo := repository.NewGormUserRepository(db)
	groupRepo := repository.NewGormGroupRepository(db)
	membershipRepo := repository.NewGormMembershipRepository(db)
	messageRepo := repository.NewGormMessageRepository(db)

	tokens := jwt.NewManager("test-secret", time.Hour, "test")
	authService := service.NewAuthService(userRepo, tokens)
	groupService := service.NewGroupService(groupRepo, membershipRepo)
	chatService := service.NewChatService(messageRepo, membershipRepo, nil)

	h := hub.New()
	go h.Run()
	t.Cleanup(h.Stop)

	wsCfg := config.WebSocketConfig{
		PingInterval:    50 * time.Second,
		PongWait:        60 * time.Second,
		WriteWait:       5 * time.Second,
		MaxMessageSize:  4096,
		SendBufferSize:  32,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	wsHandler := NewWSHandler(h, authService, chatService, wsCfg)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ws", wsHandler.Handle)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &gatewayEnv{server: server, db: db, auth: authService, groups: groupService}
}

func (e *gatewayEnv) registerAndLogin(t *testing.T, name, email, role string) (domain.Identity, string) {
	t.Helper()
	ctx := context.Background()

	user, err := e.auth.Register(ctx, &domain.RegisterRequest{
		Name: name, Email: email, Password: "password123", Role: role,
	})
	require.NoError(t, err)

	auth, err := e.auth.Login(ctx, &domain.LoginRequest{Email: email, Password: "password123"})
	require.NoError(t, err)

	return domain.Identity{UserID: user.ID, Name: user.Name, Role: user.Role}, auth.AccessToken
}

func (e *gatewayEnv) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var evt map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &evt))
	return evt
}

func send(t *testing.T, conn *websocket.Conn, evt interface{}) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(evt))
}

func TestHandshakeRejectsBadToken(t *testing.T) {
	env := newGatewayEnv(t)

	url := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws?token=bad-token"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err, "upgrade succeeds before the credential is checked")
	defer conn.Close()

	// The connection is torn down without any application payload.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}

func TestHandshakeEmitsConnected(t *testing.T) {
	env := newGatewayEnv(t)
	alice, token := env.registerAndLogin(t, "Alice", "alice@example.com", "")

	conn := env.dial(t, token)

	evt := readEvent(t, conn)
	assert.Equal(t, domain.EventConnected, evt["type"])
	user := evt["user"].(map[string]interface{})
	assert.Equal(t, float64(alice.UserID), user["id"])
	assert.Equal(t, "Alice", user["name"])
}

func TestJoinRoomWithoutMembershipSubscribesButCannotSend(t *testing.T) {
	env := newGatewayEnv(t)
	ctx := context.Background()

	admin, _ := env.registerAndLogin(t, "Admin", "admin@example.com", string(domain.RoleAdmin))
	_, eveToken := env.registerAndLogin(t, "Eve", "eve@example.com", "")

	group, err := env.groups.CreateGroup(ctx, admin, &domain.CreateGroupRequest{Title: "general"})
	require.NoError(t, err)

	conn := env.dial(t, eveToken)
	readEvent(t, conn) // connected

	// Subscribing to the room needs only authentication.
	send(t, conn, domain.JoinGroupEvent{Type: domain.EventJoinGroup, GroupID: group.ID})
	evt := readEvent(t, conn)
	assert.Equal(t, domain.EventJoinedGroup, evt["type"])

	// Speaking into the group still needs standing membership.
	send(t, conn, domain.SendMessageEvent{Type: domain.EventSendMessage, Content: "hi", GroupID: group.ID})
	evt = readEvent(t, conn)
	assert.Equal(t, domain.EventError, evt["type"])
}

func TestSendMessageFansOutToRoom(t *testing.T) {
	env := newGatewayEnv(t)
	ctx := context.Background()

	admin, adminToken := env.registerAndLogin(t, "Admin", "admin@example.com", string(domain.RoleAdmin))
	bob, bobToken := env.registerAndLogin(t, "Bob", "bob@example.com", "")

	group, err := env.groups.CreateGroup(ctx, admin, &domain.CreateGroupRequest{Title: "general"})
	require.NoError(t, err)
	require.NoError(t, env.groups.JoinGroup(ctx, bob, group.ID))

	adminConn := env.dial(t, adminToken)
	bobConn := env.dial(t, bobToken)
	readEvent(t, adminConn) // connected
	readEvent(t, bobConn)   // connected

	send(t, adminConn, domain.JoinGroupEvent{Type: domain.EventJoinGroup, GroupID: group.ID})
	evt := readEvent(t, adminConn)
	require.Equal(t, domain.EventJoinedGroup, evt["type"])

	send(t, bobConn, domain.JoinGroupEvent{Type: domain.EventJoinGroup, GroupID: group.ID})
	evt = readEvent(t, bobConn)
	require.Equal(t, domain.EventJoinedGroup, evt["type"])

	// Admin sees bob arrive, bob does not see his own arrival.
	evt = readEvent(t, adminConn)
	require.Equal(t, domain.EventUserJoined, evt["type"])

	send(t, bobConn, domain.SendMessageEvent{Type: domain.EventSendMessage, Content: "hello", GroupID: group.ID})

	// Both members receive the persisted message, sender included.
	for _, conn := range []*websocket.Conn{adminConn, bobConn} {
		evt = readEvent(t, conn)
		require.Equal(t, domain.EventNewMessage, evt["type"])
		assert.Equal(t, "hello", evt["content"])
		assert.NotZero(t, evt["id"])
		sender := evt["sender"].(map[string]interface{})
		assert.Equal(t, "Bob", sender["name"])
	}

	var count int64
	require.NoError(t, env.db.Model(&domain.MessageModel{}).Where("group_id = ?", group.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count, "fan-out must not duplicate persistence")
}

func TestSendMessageRejectedForNonMember(t *testing.T) {
	env := newGatewayEnv(t)
	ctx := context.Background()

	admin, _ := env.registerAndLogin(t, "Admin", "admin@example.com", string(domain.RoleAdmin))
	_, eveToken := env.registerAndLogin(t, "Eve", "eve@example.com", "")

	group, err := env.groups.CreateGroup(ctx, admin, &domain.CreateGroupRequest{Title: "general"})
	require.NoError(t, err)

	conn := env.dial(t, eveToken)
	readEvent(t, conn) // connected

	send(t, conn, domain.SendMessageEvent{Type: domain.EventSendMessage, Content: "intrusion", GroupID: group.ID})

	evt := readEvent(t, conn)
	assert.Equal(t, domain.EventError, evt["type"])

	var count int64
	require.NoError(t, env.db.Model(&domain.MessageModel{}).Count(&count).Error)
	assert.Zero(t, count, "rejected send must not persist")
}

func TestTypingExcludesOriginator(t *testing.T) {
	env := newGatewayEnv(t)
	ctx := context.Background()

	admin, adminToken := env.registerAndLogin(t, "Admin", "admin@example.com", string(domain.RoleAdmin))
	bob, bobToken := env.registerAndLogin(t, "Bob", "bob@example.com", "")

	group, err := env.groups.CreateGroup(ctx, admin, &domain.CreateGroupRequest{Title: "general"})
	require.NoError(t, err)
	require.NoError(t, env.groups.JoinGroup(ctx, bob, group.ID))

	adminConn := env.dial(t, adminToken)
	bobConn := env.dial(t, bobToken)
	readEvent(t, adminConn)
	readEvent(t, bobConn)

	send(t, adminConn, domain.JoinGroupEvent{Type: domain.EventJoinGroup, GroupID: group.ID})
	readEvent(t, adminConn) // joinedGroup
	send(t, bobConn, domain.JoinGroupEvent{Type: domain.EventJoinGroup, GroupID: group.ID})
	readEvent(t, bobConn)   // joinedGroup
	readEvent(t, adminConn) // userJoined

	send(t, bobConn, domain.TypingEvent{Type: domain.EventTyping, GroupID: group.ID, IsTyping: true})

	evt := readEvent(t, adminConn)
	assert.Equal(t, domain.EventUserTyping, evt["type"])
	assert.Equal(t, true, evt["isTyping"])

	// Bob must not receive his own typing indicator. Send a message and
	// check it is the next thing he sees.
	send(t, bobConn, domain.SendMessageEvent{Type: domain.EventSendMessage, Content: "done typing", GroupID: group.ID})
	evt = readEvent(t, bobConn)
	assert.Equal(t, domain.EventNewMessage, evt["type"])
}

func TestGetOnlineUsers(t *testing.T) {
	env := newGatewayEnv(t)
	ctx := context.Background()

	admin, adminToken := env.registerAndLogin(t, "Admin", "admin@example.com", string(domain.RoleAdmin))
	bob, bobToken := env.registerAndLogin(t, "Bob", "bob@example.com", "")

	group, err := env.groups.CreateGroup(ctx, admin, &domain.CreateGroupRequest{Title: "general"})
	require.NoError(t, err)
	require.NoError(t, env.groups.JoinGroup(ctx, bob, group.ID))

	adminConn := env.dial(t, adminToken)
	bobConn := env.dial(t, bobToken)
	readEvent(t, adminConn)
	readEvent(t, bobConn)

	send(t, adminConn, domain.JoinGroupEvent{Type: domain.EventJoinGroup, GroupID: group.ID})
	readEvent(t, adminConn)
	send(t, bobConn, domain.JoinGroupEvent{Type: domain.EventJoinGroup, GroupID: group.ID})
	readEvent(t, bobConn)
	readEvent(t, adminConn) // userJoined

	send(t, bobConn, domain.GetOnlineUsersEvent{Type: domain.EventGetOnlineUsers, GroupID: group.ID})

	evt := readEvent(t, bobConn)
	require.Equal(t, domain.EventOnlineUsers, evt["type"])
	users := evt["users"].([]interface{})
	assert.Len(t, users, 2)
}
