package cache

import (
	"fmt"
	"time"

	"github.com/TarangPatel19273/Chat-App-sub000/internal/models"
	"github.com/vmihailenco/msgpack/v5"
)

// TTL constants for different cache types
const (
	SummaryListTTL = 2 * time.Minute
	UnreadCountTTL = 1 * time.Minute
)

// MessageCache caches unread counters and conversation summary lists.
// Every mutation path invalidates the affected keys; the authoritative
// values always live in the store.
type MessageCache struct {
	redis *RedisCache
}

func NewMessageCache(redis *RedisCache) *MessageCache {
	return &MessageCache{redis: redis}
}

func roomUnreadKey(roomID, fromSenderID string) string {
	return fmt.Sprintf("unread:room:%s:%s", roomID, fromSenderID)
}

func groupUnreadKey(groupID, userID string) string {
	return fmt.Sprintf("unread:group:%s:%s", groupID, userID)
}

func summaryListKey(userID string) string {
	return fmt.Sprintf("convlist:%s", userID)
}

// GetRoomUnread retrieves a cached direct-room unread count.
func (mc *MessageCache) GetRoomUnread(roomID, fromSenderID string) (int64, bool) {
	return mc.getCount(roomUnreadKey(roomID, fromSenderID))
}

// SetRoomUnread caches a direct-room unread count.
func (mc *MessageCache) SetRoomUnread(roomID, fromSenderID string, count int64) error {
	return mc.setCount(roomUnreadKey(roomID, fromSenderID), count)
}

// InvalidateRoomUnread drops the cached count for one (room, sender).
func (mc *MessageCache) InvalidateRoomUnread(roomID, fromSenderID string) error {
	if mc == nil || mc.redis == nil {
		return nil
	}
	return mc.redis.Delete(roomUnreadKey(roomID, fromSenderID))
}

// GetGroupUnread retrieves a cached group unread count for one member.
func (mc *MessageCache) GetGroupUnread(groupID, userID string) (int64, bool) {
	return mc.getCount(groupUnreadKey(groupID, userID))
}

// SetGroupUnread caches a group unread count for one member.
func (mc *MessageCache) SetGroupUnread(groupID, userID string, count int64) error {
	return mc.setCount(groupUnreadKey(groupID, userID), count)
}

// InvalidateGroupUnread drops the cached count for one (group, member).
func (mc *MessageCache) InvalidateGroupUnread(groupID, userID string) error {
	if mc == nil || mc.redis == nil {
		return nil
	}
	return mc.redis.Delete(groupUnreadKey(groupID, userID))
}

// GetSummaryList retrieves a user's cached conversation summary list.
func (mc *MessageCache) GetSummaryList(userID string) ([]models.RoomSummary, bool) {
	if mc == nil || mc.redis == nil {
		return nil, false
	}
	data, err := mc.redis.Get(summaryListKey(userID))
	if err != nil || data == nil {
		return nil, false
	}
	var summaries []models.RoomSummary
	if err := msgpack.Unmarshal(data, &summaries); err != nil {
		return nil, false
	}
	return summaries, true
}

// SetSummaryList caches a user's conversation summary list.
func (mc *MessageCache) SetSummaryList(userID string, summaries []models.RoomSummary) error {
	if mc == nil || mc.redis == nil {
		return nil
	}
	data, err := msgpack.Marshal(summaries)
	if err != nil {
		return err
	}
	return mc.redis.Set(summaryListKey(userID), data, SummaryListTTL)
}

// InvalidateSummaryList removes a user's summary list from cache.
func (mc *MessageCache) InvalidateSummaryList(userID string) error {
	if mc == nil || mc.redis == nil {
		return nil
	}
	return mc.redis.Delete(summaryListKey(userID))
}

func (mc *MessageCache) getCount(key string) (int64, bool) {
	if mc == nil || mc.redis == nil {
		return 0, false
	}
	data, err := mc.redis.Get(key)
	if err != nil || data == nil {
		return 0, false
	}
	var count int64
	if err := msgpack.Unmarshal(data, &count); err != nil {
		return 0, false
	}
	return count, true
}

func (mc *MessageCache) setCount(key string, count int64) error {
	if mc == nil || mc.redis == nil {
		return nil
	}
	data, err := msgpack.Marshal(count)
	if err != nil {
		return err
	}
	return mc.redis.Set(key, data, UnreadCountTTL)
}
