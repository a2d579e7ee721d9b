package models

import (
	"strings"
	"time"
)

// RoomSeparator joins the two participant ids of a direct room.
// User ids must never contain it.
const RoomSeparator = "_"

// DirectRoomID derives the canonical id of a 1:1 conversation. The two
// participant ids are sorted lexicographically before joining, so the
// result is identical regardless of argument order. A direct room is
// never stored as its own entity; this id is recomputed every time.
func DirectRoomID(userA, userB string) string {
	if userA > userB {
		userA, userB = userB, userA
	}
	return userA + RoomSeparator + userB
}

// RoomParticipants splits a direct room id back into its two user ids.
func RoomParticipants(roomID string) (string, string, bool) {
	parts := strings.SplitN(roomID, RoomSeparator, 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// IsParticipant reports whether userID is one of the two sides of roomID.
func IsParticipant(roomID, userID string) bool {
	a, b, ok := RoomParticipants(roomID)
	return ok && (a == userID || b == userID)
}

// RoomSummary is the denormalized "last message" record kept alongside a
// direct room for fast conversation listings. It is recomputed
// transactionally at every append and delete, never written ad hoc.
type RoomSummary struct {
	RoomID        string     `gorm:"primaryKey;size:130" json:"room_id"`
	LastMessageID *uint      `json:"last_message_id"`
	LastBody      string     `gorm:"type:text" json:"last_body"`
	LastSenderID  string     `gorm:"size:64" json:"last_sender_id"`
	LastMessageAt *time.Time `json:"last_message_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
