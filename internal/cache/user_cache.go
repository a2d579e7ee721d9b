package cache

import (
	"fmt"
	"time"
)

const (
	OnlineUsersTTL = 90 * time.Second // Match websocket pong timeout
)

// UserCache tracks which principals currently hold a live connection.
type UserCache struct {
	redis *RedisCache
}

func NewUserCache(redis *RedisCache) *UserCache {
	return &UserCache{redis: redis}
}

// SetUserOnline adds a user to the online set.
func (uc *UserCache) SetUserOnline(userID string) error {
	if uc == nil || uc.redis == nil {
		return nil
	}
	if err := uc.redis.SetAdd("online:users", userID); err != nil {
		return err
	}
	// Individual key with TTL so crashed connections expire on their own.
	return uc.redis.Set(fmt.Sprintf("online:%s", userID), []byte("1"), OnlineUsersTTL)
}

// SetUserOffline removes a user from the online set.
func (uc *UserCache) SetUserOffline(userID string) error {
	if uc == nil || uc.redis == nil {
		return nil
	}
	if err := uc.redis.SetRemove("online:users", userID); err != nil {
		return err
	}
	return uc.redis.Delete(fmt.Sprintf("online:%s", userID))
}

// IsUserOnline checks if a user has a live connection.
func (uc *UserCache) IsUserOnline(userID string) bool {
	if uc == nil || uc.redis == nil {
		return false
	}
	return uc.redis.Exists(fmt.Sprintf("online:%s", userID))
}

// GetOnlineUsers returns all online user ids.
func (uc *UserCache) GetOnlineUsers() ([]string, error) {
	if uc == nil || uc.redis == nil {
		return nil, nil
	}
	return uc.redis.SetMembers("online:users")
}

// RefreshUserOnline extends the TTL for an online user.
func (uc *UserCache) RefreshUserOnline(userID string) error {
	if uc == nil || uc.redis == nil {
		return nil
	}
	return uc.redis.Set(fmt.Sprintf("online:%s", userID), []byte("1"), OnlineUsersTTL)
}
