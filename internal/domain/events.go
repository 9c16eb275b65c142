package domain

import "time"

// Gateway event types from client.
const (
	EventJoinGroup      = "joinGroup"
	EventLeaveGroup     = "leaveGroup"
	EventSendMessage    = "sendMessage"
	EventTyping         = "typing"
	EventGetOnlineUsers = "getOnlineUsers"
)

// Gateway event types to client.
const (
	EventConnected   = "connected"
	EventError       = "error"
	EventJoinedGroup = "joinedGroup"
	EventUserJoined  = "userJoined"
	EventUserLeft    = "userLeft"
	EventNewMessage  = "newMessage"
	EventUserTyping  = "userTyping"
	EventOnlineUsers = "onlineUsers"
)

// BaseEvent is the envelope every gateway event starts with.
type BaseEvent struct {
	Type string `json:"type"`
}

// Client -> Server events

type JoinGroupEvent struct {
	Type    string `json:"type"`
	GroupID uint   `json:"groupId"`
}

type LeaveGroupEvent struct {
	Type    string `json:"type"`
	GroupID uint   `json:"groupId"`
}

type SendMessageEvent struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	GroupID uint   `json:"groupId"`
}

type TypingEvent struct {
	Type     string `json:"type"`
	GroupID  uint   `json:"groupId"`
	IsTyping bool   `json:"isTyping"`
}

type GetOnlineUsersEvent struct {
	Type    string `json:"type"`
	GroupID uint   `json:"groupId"`
}

// Server -> Client events

type ConnectedEvent struct {
	Type    string  `json:"type"`
	Message string  `json:"message"`
	User    UserRef `json:"user"`
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewErrorEvent builds a private failure event for the originating
// connection. Failures never terminate the connection and never broadcast.
func NewErrorEvent(message string) *ErrorEvent {
	return &ErrorEvent{Type: EventError, Message: message}
}

type JoinedGroupEvent struct {
	Type    string `json:"type"`
	GroupID uint   `json:"groupId"`
}

type UserJoinedEvent struct {
	Type    string  `json:"type"`
	User    UserRef `json:"user"`
	GroupID uint    `json:"groupId"`
}

type UserLeftEvent struct {
	Type    string  `json:"type"`
	User    UserRef `json:"user"`
	GroupID uint    `json:"groupId"`
}

type NewMessageEvent struct {
	Type      string    `json:"type"`
	ID        uint      `json:"id"`
	Content   string    `json:"content"`
	Sender    UserRef   `json:"sender"`
	GroupID   uint      `json:"groupId"`
	CreatedAt time.Time `json:"createdAt"`
}

type UserTypingEvent struct {
	Type     string  `json:"type"`
	User     UserRef `json:"user"`
	GroupID  uint    `json:"groupId"`
	IsTyping bool    `json:"isTyping"`
}

type OnlineUsersEvent struct {
	Type    string    `json:"type"`
	GroupID uint      `json:"groupId"`
	Users   []UserRef `json:"users"`
}
