package models

import (
	"time"
)

type GroupRole string

const (
	RoleAdmin  GroupRole = "admin"
	RoleMember GroupRole = "member"
)

// Group is the only stored conversation entity. Direct rooms are derived
// ids; groups have a real lifecycle: nonexistent -> active -> deleted.
// Deletion is the single hard delete in the system and cascades to
// memberships, cursors and the whole message log.
type Group struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Description string    `gorm:"size:255" json:"description"`
	CreatedBy   string    `gorm:"size:64;not null" json:"created_by"`
	IsActive    bool      `gorm:"default:true;index" json:"is_active"`

	// Denormalized last-message summary, recomputed transactionally at
	// every append and delete.
	LastMessageID       *uint      `json:"last_message_id"`
	LastMessage         string     `gorm:"type:text" json:"last_message"`
	LastMessageSenderID string     `gorm:"size:64" json:"last_message_sender_id"`
	LastMessageAt       *time.Time `json:"last_message_at"`

	Members []GroupMember `gorm:"foreignKey:GroupID" json:"members"`
}

type GroupMember struct {
	GroupID  string    `gorm:"primaryKey;size:36" json:"group_id"`
	UserID   string    `gorm:"primaryKey;size:64" json:"user_id"`
	Role     GroupRole `gorm:"type:varchar(20);default:'member'" json:"role"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`
}

// GroupCursor tracks per-member read progress in a group. LastReadAt is
// monotonic: it only ever moves forward, and unread counts are derived
// as "messages from others newer than the watermark".
type GroupCursor struct {
	GroupID    string    `gorm:"primaryKey;size:36" json:"group_id"`
	UserID     string    `gorm:"primaryKey;size:64" json:"user_id"`
	LastReadAt time.Time `gorm:"not null" json:"last_read_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// MemberIDs returns the ids of all members, creator included.
func (g *Group) MemberIDs() []string {
	ids := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		ids = append(ids, m.UserID)
	}
	return ids
}

// HasMember reports whether userID belongs to the group.
func (g *Group) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// IsAdmin reports whether userID holds the admin role.
func (g *Group) IsAdmin(userID string) bool {
	for _, m := range g.Members {
		if m.UserID == userID {
			return m.Role == RoleAdmin
		}
	}
	return false
}
