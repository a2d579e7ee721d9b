package service

import (
	"context"
	"fmt"

	"github.com/TarangPatel19273/Chat-App-sub000/internal/cache"
	"github.com/TarangPatel19273/Chat-App-sub000/internal/repository"
)

// PresenceService keeps the online flag and last-seen timestamp of the
// externally-owned user records current. Connection liveness lives in
// redis with a TTL; the store holds the durable last-seen value.
type PresenceService struct {
	userRepo  repository.UserRepositoryInterface
	userCache *cache.UserCache
}

func NewPresenceService(userRepo repository.UserRepositoryInterface, userCache *cache.UserCache) *PresenceService {
	return &PresenceService{userRepo: userRepo, userCache: userCache}
}

func (s *PresenceService) SetOnline(ctx context.Context, userID string) error {
	if err := s.userCache.SetUserOnline(userID); err != nil {
		return fmt.Errorf("presence cache: %w", err)
	}
	return s.userRepo.UpdateOnlineStatus(userID, true)
}

func (s *PresenceService) SetOffline(ctx context.Context, userID string) error {
	if err := s.userCache.SetUserOffline(userID); err != nil {
		return fmt.Errorf("presence cache: %w", err)
	}
	return s.userRepo.UpdateOnlineStatus(userID, false)
}

func (s *PresenceService) Heartbeat(ctx context.Context, userID string) error {
	return s.userCache.RefreshUserOnline(userID)
}

func (s *PresenceService) IsOnline(ctx context.Context, userID string) bool {
	return s.userCache.IsUserOnline(userID)
}

func (s *PresenceService) OnlineUsers(ctx context.Context) ([]string, error) {
	return s.userCache.GetOnlineUsers()
}
