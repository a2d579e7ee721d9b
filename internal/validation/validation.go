package validation

import (
	"os"
	"strconv"
	"strings"

	"github.com/TarangPatel19273/Chat-App-sub000/internal/models"
)

func MaxMessageLength() int {
	maxStr := os.Getenv("MAX_MESSAGE_LENGTH")
	if maxStr == "" {
		return 4000
	}
	max, err := strconv.Atoi(maxStr)
	if err != nil || max < 1 {
		return 4000
	}
	return max
}

func MaxGroupNameLength() int {
	return 100
}

// ValidateMessageBody rejects empty and oversized message bodies.
func ValidateMessageBody(body string) bool {
	body = strings.TrimSpace(body)
	return body != "" && len(body) <= MaxMessageLength()
}

// ValidateGroupName rejects empty and oversized group names.
func ValidateGroupName(name string) bool {
	name = strings.TrimSpace(name)
	return name != "" && len(name) <= MaxGroupNameLength()
}

// ValidateUserID rejects empty ids and ids containing the room
// separator, which would break direct-room derivation.
func ValidateUserID(id string) bool {
	return id != "" && !strings.Contains(id, models.RoomSeparator)
}
