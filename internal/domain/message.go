package domain

import (
	"errors"
	"time"
)

// MaxMessageLength is the maximum number of characters in a message body.
const MaxMessageLength = 1000

var (
	ErrEmptyMessage   = errors.New("message content must not be empty")
	ErrMessageTooLong = errors.New("message content exceeds maximum length")
)

// ValidateMessageContent checks the message-body rules shared by the REST
// and gateway paths: non-empty and at most MaxMessageLength characters.
func ValidateMessageContent(content string) error {
	if content == "" {
		return ErrEmptyMessage
	}
	if len([]rune(content)) > MaxMessageLength {
		return ErrMessageTooLong
	}
	return nil
}

// MessageModel is the GORM model for the messages table.
type MessageModel struct {
	ID        uint      `gorm:"primaryKey"`
	Content   string    `gorm:"type:text;not null"`
	SenderID  uint      `gorm:"index;not null"`
	GroupID   uint      `gorm:"index;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	Sender UserModel  `gorm:"foreignKey:SenderID"`
	Group  GroupModel `gorm:"foreignKey:GroupID"`
}

// TableName specifies the table name for MessageModel.
func (MessageModel) TableName() string {
	return "messages"
}

// ToDomain converts MessageModel to a domain Message.
func (m *MessageModel) ToDomain() *Message {
	msg := &Message{
		ID:        m.ID,
		Content:   m.Content,
		SenderID:  m.SenderID,
		GroupID:   m.GroupID,
		CreatedAt: m.CreatedAt,
	}
	if m.Sender.ID != 0 {
		msg.Sender = m.Sender.ToDomain().Ref()
	}
	return msg
}

// Message is a persisted chat message. Immutable once created except for
// deletion by its original sender.
type Message struct {
	ID        uint      `json:"id"`
	Content   string    `json:"content"`
	SenderID  uint      `json:"senderId"`
	Sender    UserRef   `json:"sender"`
	GroupID   uint      `json:"groupId"`
	CreatedAt time.Time `json:"createdAt"`
}

// SendMessageRequest is the payload for posting a message, shared by the
// REST path and the gateway sendMessage command.
type SendMessageRequest struct {
	Content string `json:"content" binding:"required,max=1000"`
	GroupID uint   `json:"groupId" binding:"required"`
}
