package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/git-mahad/group-chat/internal/config"
	"github.com/git-mahad/group-chat/internal/domain"
	"github.com/git-mahad/group-chat/internal/hub"
	"github.com/git-mahad/group-chat/internal/service"
	"github.com/git-mahad/group-chat/pkg/log"
)

// WSHandler upgrades HTTP requests into gateway connections and dispatches
// their events.
type WSHandler struct {
	hub      *hub.Hub
	auth     service.AuthService
	chat     service.ChatService
	upgrader websocket.Upgrader
	cfg      config.WebSocketConfig
}

// NewWSHandler creates a new gateway handler.
func NewWSHandler(h *hub.Hub, auth service.AuthService, chat service.ChatService, cfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		hub:  h,
		auth: auth,
		chat: chat,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		cfg: cfg,
	}
}

// Handle runs the connection lifecycle: upgrade, handshake, pump start. A
// connection that fails the handshake is closed without any application
// payload, so a probing client learns nothing about why.
func (h *WSHandler) Handle(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		l := log.Ctx(c.Request.Context())
		l.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	token := extractToken(c)
	if token == "" {
		conn.Close()
		return
	}

	identity, err := h.auth.Resolve(c.Request.Context(), token)
	if err != nil {
		l := log.Ctx(c.Request.Context())
		l.Debug().Err(err).Msg("gateway handshake rejected")
		conn.Close()
		return
	}

	client := hub.NewClient(h.hub, conn, uuid.NewString(), h.cfg)
	client.Session.Authenticate(identity)
	h.hub.Register(client)

	l := log.L()
	l.Info().
		Str(log.FieldConnID, client.ID).
		Uint(log.FieldUserID, identity.UserID).
		Msg("gateway connection established")

	client.SendEvent(&domain.ConnectedEvent{
		Type:    domain.EventConnected,
		Message: "Successfully connected to chat server",
		User:    identity.Ref(),
	})

	go client.WritePump()
	go client.ReadPump(h.dispatch)
}

// extractToken pulls the access token from the query string or the
// Authorization header, in that order.
func extractToken(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// dispatch routes one inbound frame. Failures are reported privately to the
// originating connection and never terminate it.
func (h *WSHandler) dispatch(client *hub.Client, data []byte) {
	var base domain.BaseEvent
	if err := json.Unmarshal(data, &base); err != nil {
		client.SendEvent(domain.NewErrorEvent("invalid event payload"))
		return
	}

	identity, ok := client.Session.Identity()
	if !ok {
		client.SendEvent(domain.NewErrorEvent("not authenticated"))
		return
	}

	switch base.Type {
	case domain.EventJoinGroup:
		h.handleJoinGroup(client, identity, data)
	case domain.EventLeaveGroup:
		h.handleLeaveGroup(client, identity, data)
	case domain.EventSendMessage:
		h.handleSendMessage(client, identity, data)
	case domain.EventTyping:
		h.handleTyping(client, identity, data)
	case domain.EventGetOnlineUsers:
		h.handleGetOnlineUsers(client, data)
	default:
		client.SendEvent(domain.NewErrorEvent("unknown event type"))
	}
}

func (h *WSHandler) handleJoinGroup(client *hub.Client, identity domain.Identity, data []byte) {
	var evt domain.JoinGroupEvent
	if err := json.Unmarshal(data, &evt); err != nil || evt.GroupID == 0 {
		client.SendEvent(domain.NewErrorEvent("invalid joinGroup payload"))
		return
	}

	// Joining a room only subscribes this connection to its live events.
	// Membership is checked where it matters: on send and on history reads.
	room := domain.RoomID(evt.GroupID)
	alreadyJoined := h.hub.JoinRoom(client, room)

	client.SendEvent(&domain.JoinedGroupEvent{
		Type:    domain.EventJoinedGroup,
		GroupID: evt.GroupID,
	})

	// A repeated join only re-confirms; the room is not told twice.
	if !alreadyJoined {
		h.hub.Broadcast(room, &domain.UserJoinedEvent{
			Type:    domain.EventUserJoined,
			User:    identity.Ref(),
			GroupID: evt.GroupID,
		}, client.ID)
	}
}

func (h *WSHandler) handleLeaveGroup(client *hub.Client, identity domain.Identity, data []byte) {
	var evt domain.LeaveGroupEvent
	if err := json.Unmarshal(data, &evt); err != nil || evt.GroupID == 0 {
		client.SendEvent(domain.NewErrorEvent("invalid leaveGroup payload"))
		return
	}

	room := domain.RoomID(evt.GroupID)
	if wasMember := h.hub.LeaveRoom(client, room); !wasMember {
		return
	}

	h.hub.Broadcast(room, &domain.UserLeftEvent{
		Type:    domain.EventUserLeft,
		User:    identity.Ref(),
		GroupID: evt.GroupID,
	}, client.ID)
}

func (h *WSHandler) handleSendMessage(client *hub.Client, identity domain.Identity, data []byte) {
	var evt domain.SendMessageEvent
	if err := json.Unmarshal(data, &evt); err != nil || evt.GroupID == 0 {
		client.SendEvent(domain.NewErrorEvent("invalid sendMessage payload"))
		return
	}

	msg, err := h.chat.CreateMessage(client.Context(), identity, evt.GroupID, evt.Content)
	if err != nil {
		client.SendEvent(domain.NewErrorEvent(gatewayErrorMessage(err)))
		return
	}

	// The sender receives the persisted message too, ids and timestamp
	// included, so every member converges on the same record.
	h.hub.Broadcast(domain.RoomID(evt.GroupID), &domain.NewMessageEvent{
		Type:      domain.EventNewMessage,
		ID:        msg.ID,
		Content:   msg.Content,
		Sender:    msg.Sender,
		GroupID:   msg.GroupID,
		CreatedAt: msg.CreatedAt,
	}, "")
}

func (h *WSHandler) handleTyping(client *hub.Client, identity domain.Identity, data []byte) {
	var evt domain.TypingEvent
	if err := json.Unmarshal(data, &evt); err != nil || evt.GroupID == 0 {
		client.SendEvent(domain.NewErrorEvent("invalid typing payload"))
		return
	}

	// Best-effort UX signal: no membership or occupancy gate, delivered to
	// whoever is currently in the room, never echoed to the sender.
	h.hub.Broadcast(domain.RoomID(evt.GroupID), &domain.UserTypingEvent{
		Type:     domain.EventUserTyping,
		User:     identity.Ref(),
		GroupID:  evt.GroupID,
		IsTyping: evt.IsTyping,
	}, client.ID)
}

func (h *WSHandler) handleGetOnlineUsers(client *hub.Client, data []byte) {
	var evt domain.GetOnlineUsersEvent
	if err := json.Unmarshal(data, &evt); err != nil || evt.GroupID == 0 {
		client.SendEvent(domain.NewErrorEvent("invalid getOnlineUsers payload"))
		return
	}

	users := h.hub.MembersOf(domain.RoomID(evt.GroupID))
	if users == nil {
		users = []domain.UserRef{}
	}
	client.SendEvent(&domain.OnlineUsersEvent{
		Type:    domain.EventOnlineUsers,
		GroupID: evt.GroupID,
		Users:   users,
	})
}

func gatewayErrorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrNotMember):
		return "You are not a member of this group"
	case errors.Is(err, domain.ErrEmptyMessage):
		return "Message content must not be empty"
	case errors.Is(err, domain.ErrMessageTooLong):
		return "Message content exceeds maximum length"
	default:
		return "Failed to send message"
	}
}
