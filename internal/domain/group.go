package domain

import (
	"time"
)

// RoomID is the broadcast-domain key for a group. It is a distinct type so
// room addressing can never collide with another naming scheme.
type RoomID uint

// GroupModel is the GORM model for the chat_groups table.
type GroupModel struct {
	ID          uint      `gorm:"primaryKey"`
	Title       string    `gorm:"type:varchar(100);not null"`
	Description string    `gorm:"type:text"`
	CreatedByID uint      `gorm:"index;not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`

	CreatedBy   UserModel         `gorm:"foreignKey:CreatedByID"`
	Memberships []MembershipModel `gorm:"foreignKey:GroupID"`
	Messages    []MessageModel    `gorm:"foreignKey:GroupID"`
}

// TableName specifies the table name for GroupModel.
func (GroupModel) TableName() string {
	return "chat_groups"
}

// ToDomain converts GroupModel to a domain Group.
func (m *GroupModel) ToDomain() *Group {
	g := &Group{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		CreatedByID: m.CreatedByID,
		CreatedAt:   m.CreatedAt,
	}
	if m.CreatedBy.ID != 0 {
		g.CreatedBy = m.CreatedBy.ToDomain().Ref()
	}
	for i := range m.Memberships {
		g.Members = append(g.Members, *m.Memberships[i].ToDomain())
	}
	return g
}

// MembershipModel is the GORM model for the group_users table.
// At most one row may exist per (group, user) pair.
type MembershipModel struct {
	ID       uint      `gorm:"primaryKey"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_group_users_group_user"`
	GroupID  uint      `gorm:"not null;uniqueIndex:idx_group_users_group_user"`
	JoinedAt time.Time `gorm:"autoCreateTime"`

	User  UserModel  `gorm:"foreignKey:UserID"`
	Group GroupModel `gorm:"foreignKey:GroupID"`
}

// TableName specifies the table name for MembershipModel.
func (MembershipModel) TableName() string {
	return "group_users"
}

// ToDomain converts MembershipModel to a domain Membership.
func (m *MembershipModel) ToDomain() *Membership {
	mem := &Membership{
		UserID:   m.UserID,
		GroupID:  m.GroupID,
		JoinedAt: m.JoinedAt,
	}
	if m.User.ID != 0 {
		mem.User = m.User.ToDomain().Ref()
	}
	return mem
}

// Group represents a named chat room with a creator reference.
type Group struct {
	ID          uint         `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	CreatedByID uint         `json:"createdById"`
	CreatedBy   UserRef      `json:"createdBy"`
	CreatedAt   time.Time    `json:"createdAt"`
	Members     []Membership `json:"members,omitempty"`
}

// Room returns the broadcast-domain key for this group.
func (g *Group) Room() RoomID {
	return RoomID(g.ID)
}

// Membership is a persisted (group, user) record granting standing rights
// in a group, distinct from a transient room subscription.
type Membership struct {
	UserID   uint      `json:"userId"`
	GroupID  uint      `json:"groupId"`
	User     UserRef   `json:"user"`
	JoinedAt time.Time `json:"joinedAt"`
}

// CreateGroupRequest is the payload for group creation.
type CreateGroupRequest struct {
	Title       string `json:"title" binding:"required,min=2,max=100"`
	Description string `json:"description" binding:"omitempty,max=2000"`
}
