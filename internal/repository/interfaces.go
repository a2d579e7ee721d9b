package repository

import (
	"time"

	"github.com/TarangPatel19273/Chat-App-sub000/internal/models"
)

// UserRepositoryInterface defines the contract for user reference data
type UserRepositoryInterface interface {
	Upsert(user *models.User) error
	FindByID(id string) (*models.User, error)
	UpdateOnlineStatus(userID string, isOnline bool) error
}

// MessageRepositoryInterface defines the contract for the append-only
// message logs of direct rooms and groups, including the transactional
// maintenance of their denormalized last-message summaries.
type MessageRepositoryInterface interface {
	AppendDirect(message *models.Message) error
	AppendGroup(message *models.Message) error
	FindByID(id uint) (*models.Message, error)
	FindByClientID(clientID, senderID string) (*models.Message, error)
	ListRoom(roomID string) ([]models.Message, error)
	ListGroup(groupID string) ([]models.Message, error)
	MarkRoomRead(roomID, fromSenderID string) (int64, error)
	DeleteDirect(roomID string, messageID uint) error
	DeleteGroup(groupID string, messageID uint) error
	UnreadCountRoom(roomID, fromSenderID string) (int64, error)
	UnreadCountGroup(groupID, userID string, since time.Time) (int64, error)
	GetRoomSummary(roomID string) (*models.RoomSummary, error)
	ListRoomSummaries(userID string) ([]models.RoomSummary, error)
	PurgeRoom(roomID string) error
}

// GroupRepositoryInterface defines the contract for group records and
// their membership rosters.
type GroupRepositoryInterface interface {
	Create(group *models.Group) error
	FindByID(id string) (*models.Group, error)
	AddMember(groupID, userID string, role models.GroupRole) error
	RemoveMember(groupID, userID string) error
	GetMembers(groupID string) ([]models.GroupMember, error)
	IsMember(groupID, userID string) (bool, error)
	GetMemberRole(groupID, userID string) (models.GroupRole, error)
	GetUserGroups(userID string) ([]models.Group, error)
	DeleteCascade(groupID string) error
}

// CursorRepositoryInterface defines the contract for per-member group
// read watermarks.
type CursorRepositoryInterface interface {
	EnsureForMember(groupID, userID string) error
	DeleteForMember(groupID, userID string) error
	UpsertMonotonic(groupID, userID string, lastReadAt time.Time) error
	Get(groupID, userID string) (*models.GroupCursor, error)
	ListByGroup(groupID string) ([]models.GroupCursor, error)
}
