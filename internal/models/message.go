package models

import (
	"time"
)

// SystemSenderID marks messages authored by the service itself (e.g. the
// "group created" marker). System messages never count as unread.
const SystemSenderID = "system"

// Message is a single entry in a room's or group's append-only log.
// Exactly one of RoomID / GroupID is set. The authoritative order key is
// the server-assigned CreatedAt (tie-broken by ID); client clocks are
// advisory only and never stored.
type Message struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"-"`

	// Client-supplied UUID for send deduplication. The unique index is
	// partial: messages sent without a client id must not collide with
	// each other.
	ClientID string `gorm:"type:varchar(36);uniqueIndex:idx_client_sender,where:client_id <> ''" json:"client_id"`

	RoomID  string  `gorm:"size:130;index" json:"room_id,omitempty"`
	GroupID *string `gorm:"size:36;index" json:"group_id,omitempty"`

	SenderID string `gorm:"size:64;uniqueIndex:idx_client_sender;index;not null" json:"sender_id"`
	// ReceiverID is the counterpart user id for direct messages and the
	// group id for group messages.
	ReceiverID string `gorm:"size:130" json:"receiver_id"`

	Body string `gorm:"type:text;not null" json:"body"`

	// IsRead applies to direct messages only; group read state lives in
	// per-member cursors.
	IsRead   bool `gorm:"default:false;index" json:"is_read"`
	IsSystem bool `gorm:"default:false" json:"is_system"`
}

type MessageResponse struct {
	ID         uint      `json:"id"`
	ClientID   string    `json:"client_id,omitempty"`
	RoomID     string    `json:"room_id,omitempty"`
	GroupID    *string   `json:"group_id,omitempty"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Body       string    `json:"body"`
	IsRead     bool      `json:"is_read"`
	IsSystem   bool      `json:"is_system"`
	CreatedAt  time.Time `json:"created_at"`
}

func (m *Message) ToResponse() MessageResponse {
	return MessageResponse{
		ID:         m.ID,
		ClientID:   m.ClientID,
		RoomID:     m.RoomID,
		GroupID:    m.GroupID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Body:       m.Body,
		IsRead:     m.IsRead,
		IsSystem:   m.IsSystem,
		CreatedAt:  m.CreatedAt,
	}
}

// ToResponses converts a log snapshot in place-preserving order.
func ToResponses(messages []Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(messages))
	for i := range messages {
		out = append(out, messages[i].ToResponse())
	}
	return out
}
