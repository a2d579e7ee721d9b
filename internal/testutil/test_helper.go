package testutil

import (
	"fmt"
	"time"

	"github.com/TarangPatel19273/Chat-App-sub000/internal/models"
)

// NewTestUser creates a user reference record with sane defaults.
func NewTestUser(id string) *models.User {
	if id == "" {
		id = "alice"
	}
	return &models.User{
		ID:          id,
		DisplayName: "Test " + id,
		Email:       fmt.Sprintf("%s@example.com", id),
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
}

// NewTestMessage creates a direct-room message between sender and peer.
func NewTestMessage(id uint, senderID, peerID, body string) *models.Message {
	if body == "" {
		body = "Test message"
	}
	return &models.Message{
		ID:         id,
		RoomID:     models.DirectRoomID(senderID, peerID),
		SenderID:   senderID,
		ReceiverID: peerID,
		Body:       body,
		CreatedAt:  time.Now(),
	}
}
